package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshare-service/chat/internal/errs"
	"github.com/Astemirdum/bookshare-service/chat/internal/model"
)

type sent struct {
	sessionID string
	userID    string
	text      string
}

type fakeActions struct {
	mu      sync.Mutex
	members map[string][]string
	sendErr error
	reads   []sent
	sends   []sent
}

func (f *fakeActions) CheckParticipant(_ context.Context, sessionID, userID string) (model.Session, error) {
	members, ok := f.members[sessionID]
	if !ok {
		return model.Session{}, errs.ErrNotFound
	}
	for _, m := range members {
		if m == userID {
			return model.Session{ID: sessionID}, nil
		}
	}
	return model.Session{}, errs.ErrUnauthorized
}

func (f *fakeActions) MarkRead(ctx context.Context, sessionID, userID string) error {
	if _, err := f.CheckParticipant(ctx, sessionID, userID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, sent{sessionID: sessionID, userID: userID})
	return nil
}

func (f *fakeActions) SendMessage(_ context.Context, sessionID, senderID, text string) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return model.Message{}, f.sendErr
	}
	f.sends = append(f.sends, sent{sessionID: sessionID, userID: senderID, text: text})
	return model.Message{SessionID: sessionID, SenderID: senderID, MessageText: text}, nil
}

func startHub(t *testing.T) (*Hub, context.CancelFunc, <-chan error) {
	t.Helper()
	h := New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()
	t.Cleanup(cancel)
	return h, cancel, done
}

func testClient(h *Hub, userID string, actions Actions, buf int) *Client {
	return &Client{
		hub:     h,
		userID:  userID,
		actions: actions,
		send:    make(chan []byte, buf),
		log:     zap.NewNop(),
	}
}

func recv(t *testing.T, c *Client) model.Envelope {
	t.Helper()
	select {
	case b, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var env model.Envelope
		require.NoError(t, json.Unmarshal(b, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return model.Envelope{}
}

func event(t *testing.T, name string, data interface{}) model.Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return model.Envelope{Event: name, Data: raw}
}

func chatError(t *testing.T, env model.Envelope) string {
	t.Helper()
	require.Equal(t, model.EventChatError, env.Event)
	var p model.ChatErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p.Message
}

func TestHub_UserGroup(t *testing.T) {
	t.Parallel()
	h, _, _ := startHub(t)
	fa := &fakeActions{}
	c1 := testClient(h, "u1", fa, 4)
	c2 := testClient(h, "u2", fa, 4)
	h.register <- c1
	h.register <- c2

	h.Broadcast(model.UserGroup("u1"), model.EventSessionUpdated, model.SessionUpdatedPayload{SessionID: "s1", UnreadCount: 3})
	h.Broadcast(model.UserGroup("u2"), model.EventSessionUpdated, model.SessionUpdatedPayload{SessionID: "s2"})

	env := recv(t, c1)
	require.Equal(t, model.EventSessionUpdated, env.Event)
	var p model.SessionUpdatedPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "s1", p.SessionID)
	require.Equal(t, 3, p.UnreadCount)

	env = recv(t, c2)
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "s2", p.SessionID)
}

func TestClient_JoinSession(t *testing.T) {
	t.Parallel()
	h, _, _ := startHub(t)
	fa := &fakeActions{members: map[string][]string{"s1": {"u1", "u2"}}}
	c1 := testClient(h, "u1", fa, 4)
	c3 := testClient(h, "u3", fa, 4)
	h.register <- c1
	h.register <- c3

	c1.handle(event(t, model.EventJoinSession, "s1"))
	c3.handle(event(t, model.EventJoinSession, model.SessionRef{SessionID: "s1"}))
	require.Equal(t, errs.ErrUnauthorized.Error(), chatError(t, recv(t, c3)))
	c3.handle(event(t, model.EventJoinSession, "missing"))
	require.Equal(t, errs.ErrNotFound.Error(), chatError(t, recv(t, c3)))

	h.Broadcast(model.SessionGroup("s1"), model.EventNewMessage, model.NewMessagePayload{
		Message:    model.Message{ID: "m1", SessionID: "s1"},
		SenderName: "Bob",
	})
	env := recv(t, c1)
	require.Equal(t, model.EventNewMessage, env.Event)
	var p model.NewMessagePayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "m1", p.ID)
	require.Equal(t, "Bob", p.SenderName)

	h.Broadcast(model.UserGroup("u3"), model.EventSessionUpdated, model.SessionUpdatedPayload{})
	require.Equal(t, model.EventSessionUpdated, recv(t, c3).Event)
}

func TestClient_SendAndRead(t *testing.T) {
	t.Parallel()
	h, _, _ := startHub(t)
	fa := &fakeActions{members: map[string][]string{"s1": {"u1", "u2"}}}
	c1 := testClient(h, "u1", fa, 4)
	h.register <- c1

	c1.handle(event(t, model.EventSendMessage, model.SendMessagePayload{SessionID: "s1", MessageText: "hi"}))
	c1.handle(event(t, model.EventMarkChatRead, "s1"))
	require.Equal(t, []sent{{sessionID: "s1", userID: "u1", text: "hi"}}, fa.sends)
	require.Equal(t, []sent{{sessionID: "s1", userID: "u1"}}, fa.reads)

	c1.handle(event(t, model.EventMarkChatRead, ""))
	require.Equal(t, "session id is required", chatError(t, recv(t, c1)))

	fa.sendErr = errors.New("db down")
	c1.handle(event(t, model.EventSendMessage, model.SendMessagePayload{SessionID: "s1", MessageText: "hi"}))
	require.Equal(t, "failed to send message", chatError(t, recv(t, c1)))

	fa.sendErr = errors.Wrap(errs.ErrValidation, "message text is empty")
	c1.handle(event(t, model.EventSendMessage, model.SendMessagePayload{SessionID: "s1"}))
	require.Equal(t, "message text is empty: validation failed", chatError(t, recv(t, c1)))

	c1.handle(model.Envelope{Event: "dance"})
	require.Equal(t, "unknown event", chatError(t, recv(t, c1)))
}

func TestHub_DropsSlowClient(t *testing.T) {
	t.Parallel()
	h, _, _ := startHub(t)
	fa := &fakeActions{}
	slow := testClient(h, "u1", fa, 1)
	h.register <- slow

	h.Broadcast(model.UserGroup("u1"), model.EventSessionUpdated, model.SessionUpdatedPayload{SessionID: "a"})
	h.Broadcast(model.UserGroup("u1"), model.EventSessionUpdated, model.SessionUpdatedPayload{SessionID: "b"})
	// the hub handles one message at a time, so this returns after "b" was dealt with
	h.register <- testClient(h, "u2", fa, 1)

	_, ok := <-slow.send
	require.True(t, ok)
	_, ok = <-slow.send
	require.False(t, ok)
}

func TestHub_Stop(t *testing.T) {
	t.Parallel()
	h, cancel, done := startHub(t)
	c := testClient(h, "u1", &fakeActions{}, 1)
	h.register <- c

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, ok := <-c.send
	require.False(t, ok)

	h.Broadcast(model.UserGroup("u1"), model.EventSessionUpdated, model.SessionUpdatedPayload{})
}

func TestHub_Connect(t *testing.T) {
	t.Parallel()
	h, _, _ := startHub(t)
	fa := &fakeActions{members: map[string][]string{"s1": {"u1", "u2"}}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.Connect(w, r, r.URL.Query().Get("user"), fa); err != nil {
			t.Log(err)
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(event(t, model.EventJoinSession, "s1")))
	require.NoError(t, conn.WriteJSON(event(t, model.EventJoinSession, "missing")))

	var env model.Envelope
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, errs.ErrNotFound.Error(), chatError(t, env))

	h.Broadcast(model.SessionGroup("s1"), model.EventNewMessage, model.NewMessagePayload{
		Message: model.Message{ID: "m1", SessionID: "s1", MessageText: "hello"},
	})
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, model.EventNewMessage, env.Event)
	var p model.NewMessagePayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "hello", p.MessageText)
}
