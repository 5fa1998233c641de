package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshare-service/chat/internal/errs"
	"github.com/Astemirdum/bookshare-service/chat/internal/model"
)

// Client is one websocket connection of an authenticated user.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	userID  string
	actions Actions
	send    chan []byte
	log     *zap.Logger
}

func newClient(h *Hub, conn *websocket.Conn, userID string, actions Actions) *Client {
	return &Client{
		hub:     h,
		conn:    conn,
		userID:  userID,
		actions: actions,
		send:    make(chan []byte, sendBufferSize),
		log:     h.log.With(zap.String("user", userID)),
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("read", zap.Error(err))
			}
			return
		}
		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.fail("malformed event")
			continue
		}
		c.handle(env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(env model.Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch env.Event {
	case model.EventJoinSession:
		sessionID, ok := sessionRef(env.Data)
		if !ok {
			c.fail("session id is required")
			return
		}
		if _, err := c.actions.CheckParticipant(ctx, sessionID, c.userID); err != nil {
			c.failWith(err, "failed to join chat")
			return
		}
		c.hub.joinGroup(c, model.SessionGroup(sessionID))

	case model.EventMarkChatRead:
		sessionID, ok := sessionRef(env.Data)
		if !ok {
			c.fail("session id is required")
			return
		}
		if err := c.actions.MarkRead(ctx, sessionID, c.userID); err != nil {
			c.failWith(err, "failed to mark chat read")
		}

	case model.EventSendMessage:
		var p model.SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.fail("malformed event")
			return
		}
		if _, err := c.actions.SendMessage(ctx, p.SessionID, c.userID, p.MessageText); err != nil {
			c.failWith(err, "failed to send message")
		}

	default:
		c.fail("unknown event")
	}
}

// sessionRef accepts both a bare session id string and {"sessionId": ...}.
func sessionRef(data json.RawMessage) (string, bool) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id, id != ""
	}
	var ref model.SessionRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", false
	}
	return ref.SessionID, ref.SessionID != ""
}

func (c *Client) failWith(err error, fallback string) {
	switch {
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrUnauthorized), errors.Is(err, errs.ErrValidation):
		c.fail(err.Error())
	default:
		c.log.Error("socket event", zap.Error(err))
		c.fail(fallback)
	}
}

func (c *Client) fail(msg string) {
	c.hub.sendTo(c, model.EventChatError, model.ChatErrorPayload{Message: msg})
}
