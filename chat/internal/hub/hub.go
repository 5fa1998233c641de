package hub

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshare-service/chat/internal/model"
)

// Actions is the part of the chat service reachable from a socket.
type Actions interface {
	CheckParticipant(ctx context.Context, sessionID, userID string) (model.Session, error)
	MarkRead(ctx context.Context, sessionID, userID string) error
	SendMessage(ctx context.Context, sessionID, senderID, text string) (model.Message, error)
}

var ErrStopped = errors.New("hub stopped")

type membership struct {
	client *Client
	group  string
}

type outbound struct {
	group   string
	client  *Client
	payload []byte
}

// Hub owns every connection and group. All state is touched only by Run.
type Hub struct {
	log *zap.Logger

	register   chan *Client
	unregister chan *Client
	join       chan membership
	broadcast  chan outbound
	done       chan struct{}

	clients map[*Client]map[string]struct{}
	groups  map[string]map[*Client]struct{}

	upgrader websocket.Upgrader
}

func New(log *zap.Logger) *Hub {
	return &Hub{
		log:        log.Named("hub"),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		broadcast:  make(chan outbound),
		done:       make(chan struct{}),
		clients:    make(map[*Client]map[string]struct{}),
		groups:     make(map[string]map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Run serves the hub until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				h.drop(c)
			}
			h.log.Info("hub stopped")
			return nil

		case c := <-h.register:
			h.clients[c] = make(map[string]struct{})
			h.add(c, model.UserGroup(c.userID))
			h.log.Debug("client connected", zap.String("user", c.userID))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.log.Debug("client disconnected", zap.String("user", c.userID))
			}

		case m := <-h.join:
			if _, ok := h.clients[m.client]; ok {
				h.add(m.client, m.group)
			}

		case msg := <-h.broadcast:
			if msg.client != nil {
				if _, ok := h.clients[msg.client]; ok {
					h.deliver(msg.client, msg.payload)
				}
				continue
			}
			for c := range h.groups[msg.group] {
				h.deliver(c, msg.payload)
			}
		}
	}
}

func (h *Hub) add(c *Client, group string) {
	h.clients[c][group] = struct{}{}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[group] = members
	}
	members[c] = struct{}{}
}

// deliver drops a client whose buffer is full instead of stalling the hub.
func (h *Hub) deliver(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.log.Warn("slow client dropped", zap.String("user", c.userID))
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	for group := range h.clients[c] {
		delete(h.groups[group], c)
		if len(h.groups[group]) == 0 {
			delete(h.groups, group)
		}
	}
	delete(h.clients, c)
	close(c.send)
}

// Broadcast sends event to every connection in group.
func (h *Hub) Broadcast(group, event string, data interface{}) {
	payload, err := encode(event, data)
	if err != nil {
		h.log.Error("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	h.enqueue(outbound{group: group, payload: payload})
}

func (h *Hub) sendTo(c *Client, event string, data interface{}) {
	payload, err := encode(event, data)
	if err != nil {
		h.log.Error("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	h.enqueue(outbound{client: c, payload: payload})
}

func (h *Hub) enqueue(msg outbound) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) joinGroup(c *Client, group string) {
	select {
	case h.join <- membership{client: c, group: group}:
	case <-h.done:
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Connect upgrades the request and serves the socket for userID. The
// connection is already in the user's own group when Connect returns.
func (h *Hub) Connect(w http.ResponseWriter, r *http.Request, userID string, actions Actions) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.Wrap(err, "upgrade")
	}
	c := newClient(h, conn, userID, actions)
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return ErrStopped
	}
	go c.writePump()
	go c.readPump()
	return nil
}

func encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(model.Envelope{Event: event, Data: raw})
}
