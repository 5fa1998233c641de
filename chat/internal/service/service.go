package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshare-service/chat/internal/errs"
	"github.com/Astemirdum/bookshare-service/chat/internal/model"
	chatRepo "github.com/Astemirdum/bookshare-service/chat/internal/repository"
	"github.com/Astemirdum/bookshare-service/pkg/users"
)

// Broadcaster pushes an event to every connection in a group.
type Broadcaster interface {
	Broadcast(group, event string, data interface{})
}

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (users.User, error)
}

type Service struct {
	log   *zap.Logger
	repo  chatRepo.Repository
	users UserDirectory
	bc    Broadcaster

	now   func() time.Time
	newID func() string
}

func NewService(repo chatRepo.Repository, dir UserDirectory, bc Broadcaster, log *zap.Logger) *Service {
	return &Service{
		log:   log.Named("svc"),
		repo:  repo,
		users: dir,
		bc:    bc,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// InitiateChat returns the session between the two users, creating it on
// first contact. The result does not depend on who initiates.
func (s *Service) InitiateChat(ctx context.Context, selfID, otherID string) (model.Session, error) {
	if selfID == "" || otherID == "" {
		return model.Session{}, errors.Wrap(errs.ErrValidation, "both participants are required")
	}
	if selfID == otherID {
		return model.Session{}, errors.Wrap(errs.ErrValidation, "cannot chat with yourself")
	}
	a, b := model.CanonicalPair(selfID, otherID)
	sess, err := s.repo.FindSessionByPair(ctx, a, b)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return model.Session{}, err
	}
	now := s.now()
	return s.repo.CreateSession(ctx, model.Session{
		ID:                   s.newID(),
		ParticipantA:         a,
		ParticipantB:         b,
		CreatedAt:            now,
		LastMessageTimestamp: now,
	})
}

// CheckParticipant returns the session if userID takes part in it.
func (s *Service) CheckParticipant(ctx context.Context, sessionID, userID string) (model.Session, error) {
	if sessionID == "" {
		return model.Session{}, errors.Wrap(errs.ErrValidation, "session id is required")
	}
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return model.Session{}, err
	}
	if !sess.HasParticipant(userID) {
		return model.Session{}, errs.ErrUnauthorized
	}
	return sess, nil
}

func (s *Service) SendMessage(ctx context.Context, sessionID, senderID, text string) (model.Message, error) {
	sess, err := s.CheckParticipant(ctx, sessionID, senderID)
	if err != nil {
		return model.Message{}, err
	}
	// whitespace only counts as empty; the text itself is stored as sent
	if strings.TrimSpace(text) == "" {
		return model.Message{}, errors.Wrap(errs.ErrValidation, "message text is empty")
	}

	msg := model.Message{
		ID:          s.newID(),
		SessionID:   sess.ID,
		SenderID:    senderID,
		ReceiverID:  sess.Other(senderID),
		MessageText: text,
		Timestamp:   s.now(),
	}
	updated, err := s.repo.AppendMessage(ctx, msg)
	if err != nil {
		return model.Message{}, err
	}

	s.bc.Broadcast(model.SessionGroup(sess.ID), model.EventNewMessage, model.NewMessagePayload{
		Message:    msg,
		SenderName: users.DisplayName(ctx, s.users, senderID, ""),
	})
	s.bc.Broadcast(model.UserGroup(msg.ReceiverID), model.EventSessionUpdated, model.SessionUpdatedPayload{
		SessionID:            sess.ID,
		LastMessageText:      msg.MessageText,
		LastMessageTimestamp: msg.Timestamp,
		UnreadCount:          updated.UnreadCounts[msg.ReceiverID],
	})
	return msg, nil
}

// GetMessages returns the messages of the last MessageWindow before now and
// marks the session read for userID.
func (s *Service) GetMessages(ctx context.Context, sessionID, userID string, now time.Time) ([]model.Message, error) {
	sess, err := s.CheckParticipant(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, sess.ID, now.Add(-model.MessageWindow))
	if err != nil {
		return nil, err
	}
	if err := s.repo.ResetUnread(ctx, sess.ID, userID); err != nil {
		s.log.Warn("reset unread", zap.String("session", sess.ID), zap.String("user", userID), zap.Error(err))
	} else {
		s.notifyRead(sess, userID)
	}
	return msgs, nil
}

func (s *Service) MarkRead(ctx context.Context, sessionID, userID string) error {
	sess, err := s.CheckParticipant(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if err := s.repo.ResetUnread(ctx, sess.ID, userID); err != nil {
		return err
	}
	s.notifyRead(sess, userID)
	return nil
}

// notifyRead lets the reader's other connections drop their unread badge.
func (s *Service) notifyRead(sess model.Session, userID string) {
	var text string
	if sess.LastMessageText != nil {
		text = *sess.LastMessageText
	}
	s.bc.Broadcast(model.UserGroup(userID), model.EventSessionUpdated, model.SessionUpdatedPayload{
		SessionID:            sess.ID,
		LastMessageText:      text,
		LastMessageTimestamp: sess.LastMessageTimestamp,
		UnreadCount:          0,
	})
}

func (s *Service) ListSessions(ctx context.Context, userID string) ([]model.Session, error) {
	if userID == "" {
		return nil, errors.Wrap(errs.ErrValidation, "user id is required")
	}
	sessions, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	for i := range sessions {
		sessions[i].ParticipantNames = make(map[string]string, 2)
		for _, id := range sessions[i].ParticipantIDs {
			name, ok := names[id]
			if !ok {
				name = users.DisplayName(ctx, s.users, id, id)
				names[id] = name
			}
			sessions[i].ParticipantNames[id] = name
		}
	}
	return sessions, nil
}

// PurgeExpired deletes messages older than the retention period, which is
// never shorter than MessageWindow.
func (s *Service) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	if retention < model.MessageWindow {
		retention = model.MessageWindow
	}
	return s.repo.PurgeMessages(ctx, s.now().Add(-retention))
}
