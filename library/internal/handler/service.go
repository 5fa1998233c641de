package handler

import (
	"context"

	"github.com/Astemirdum/bookshare-service/library/internal/model"
	"github.com/Astemirdum/bookshare-service/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
	CreateBook(ctx context.Context, ownerID string, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, id string) (model.Book, error)
	ListBooks(ctx context.Context, f model.BookFilter) (model.ListBooks, error)
	SetPaused(ctx context.Context, bookID, actorID string, paused bool) (model.Book, error)
	UpdateBook(ctx context.Context, bookID, actorID string, req model.UpdateBookRequest) (model.Book, error)
	ReportBook(ctx context.Context, bookID, actorID, reason string) error

	RequestBook(ctx context.Context, bookID, actorID string) (model.Book, error)
	ApproveRequest(ctx context.Context, bookID, actorID string) (model.Book, error)
	RejectRequest(ctx context.Context, bookID, actorID string) (model.Book, error)
	CancelRequest(ctx context.Context, bookID, actorID string) (model.Book, error)
	RevokeApproval(ctx context.Context, bookID, actorID string) (model.Book, error)
	ConfirmPickup(ctx context.Context, bookID, actorID string) (model.Book, error)
	MarkAsReturned(ctx context.Context, bookID, actorID string) (model.Book, error)

	AddToWishlist(ctx context.Context, userID, bookID string) error
	RemoveFromWishlist(ctx context.Context, userID, bookID string) error
	ListWishlist(ctx context.Context, userID string) ([]model.Book, error)

	KPIs(ctx context.Context) (model.KPIs, error)
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

var _ LibraryService = (*service.Service)(nil)
