package model

import (
	"encoding/json"
	"time"
)

// MessageWindow bounds how far back message reads go.
const MessageWindow = 7 * 24 * time.Hour

type Session struct {
	ID                   string    `json:"id" db:"id"`
	ParticipantA         string    `json:"-" db:"participant_a"`
	ParticipantB         string    `json:"-" db:"participant_b"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp" db:"last_message_timestamp"`
	LastMessageText      *string   `json:"lastMessageText,omitempty" db:"last_message_text"`

	ParticipantIDs   []string          `json:"participantIds" db:"-"`
	UnreadCounts     map[string]int    `json:"unreadCounts" db:"-"`
	ParticipantNames map[string]string `json:"participantNames,omitempty" db:"-"`
}

// CanonicalPair orders two user ids so a pair maps to one session whatever
// the direction. Byte order matches the "C" collation used by the store.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func (s *Session) Fill() {
	s.ParticipantIDs = []string{s.ParticipantA, s.ParticipantB}
	if s.UnreadCounts == nil {
		s.UnreadCounts = map[string]int{s.ParticipantA: 0, s.ParticipantB: 0}
	}
}

func (s Session) HasParticipant(userID string) bool {
	return userID != "" && (s.ParticipantA == userID || s.ParticipantB == userID)
}

// Other returns the participant that is not userID.
func (s Session) Other(userID string) string {
	if s.ParticipantA == userID {
		return s.ParticipantB
	}
	return s.ParticipantA
}

type Message struct {
	ID          string    `json:"id" db:"id"`
	SessionID   string    `json:"sessionId" db:"session_id"`
	SenderID    string    `json:"senderId" db:"sender_id"`
	ReceiverID  string    `json:"receiverId" db:"receiver_id"`
	MessageText string    `json:"messageText" db:"message_text"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

type InitiateChatRequest struct {
	RecipientID string `json:"recipientId" validate:"required"`
}

type SendMessageRequest struct {
	MessageText string `json:"messageText" validate:"required"`
}

const (
	EventNewMessage     = "new_message"
	EventSessionUpdated = "session_updated"
	EventChatError      = "chat_error"

	EventJoinSession  = "join_session"
	EventMarkChatRead = "mark_chat_read"
	EventSendMessage  = "send_message"
)

// Envelope is the frame exchanged over the websocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type NewMessagePayload struct {
	Message
	SenderName string `json:"senderName"`
}

type SessionUpdatedPayload struct {
	SessionID            string    `json:"sessionId"`
	LastMessageText      string    `json:"lastMessageText"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp"`
	UnreadCount          int       `json:"unreadCount"`
}

type ChatErrorPayload struct {
	Message string `json:"message"`
}

type SessionRef struct {
	SessionID string `json:"sessionId"`
}

type SendMessagePayload struct {
	SessionID   string `json:"sessionId"`
	MessageText string `json:"messageText"`
}

func SessionGroup(sessionID string) string {
	return "session_" + sessionID
}

func UserGroup(userID string) string {
	return "user_" + userID
}
