package handler

import (
	"context"
	"time"

	"github.com/Astemirdum/bookshare-service/chat/internal/model"
	"github.com/Astemirdum/bookshare-service/chat/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type ChatService interface {
	InitiateChat(ctx context.Context, selfID, otherID string) (model.Session, error)
	ListSessions(ctx context.Context, userID string) ([]model.Session, error)
	CheckParticipant(ctx context.Context, sessionID, userID string) (model.Session, error)
	GetMessages(ctx context.Context, sessionID, userID string, now time.Time) ([]model.Message, error)
	SendMessage(ctx context.Context, sessionID, senderID, text string) (model.Message, error)
	MarkRead(ctx context.Context, sessionID, userID string) error
}

var _ ChatService = (*service.Service)(nil)
