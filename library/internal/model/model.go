package model

import (
	"strings"
	"time"
)

type Status string

const (
	StatusNone              Status = "none"
	StatusPending           Status = "pending"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusCancelled         Status = "cancelled"
	StatusPickupConfirmed   Status = "pickup_confirmed"
	StatusReturned          Status = "returned"
	StatusGiveawayCompleted Status = "giveaway_completed"
)

type Book struct {
	ID            string    `json:"id" db:"id"`
	OwnerID       string    `json:"ownerId" db:"owner_id"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	Genre         string    `json:"genre" db:"genre"`
	Language      string    `json:"language" db:"language"`
	Description   string    `json:"description,omitempty" db:"description"`
	ISBN          string    `json:"isbn,omitempty" db:"isbn"`
	CoverImageURL string    `json:"coverImageUrl,omitempty" db:"cover_image_url"`
	DateAdded     time.Time `json:"dateAdded" db:"date_added"`

	BorrowRequestStatus Status     `json:"borrowRequestStatus" db:"borrow_request_status"`
	RequestedByUserID   *string    `json:"requestedByUserId,omitempty" db:"requested_by_user_id"`
	BorrowedByUserID    *string    `json:"borrowedByUserId,omitempty" db:"borrowed_by_user_id"`
	RequestedTimestamp  *time.Time `json:"requestedTimestamp,omitempty" db:"requested_timestamp"`
	DecisionTimestamp   *time.Time `json:"decisionTimestamp,omitempty" db:"decision_timestamp"`
	PickupTimestamp     *time.Time `json:"pickupTimestamp,omitempty" db:"pickup_timestamp"`
	ReturnedTimestamp   *time.Time `json:"returnedTimestamp,omitempty" db:"returned_timestamp"`

	IsAvailable          bool `json:"isAvailable" db:"is_available"`
	IsGiveaway           bool `json:"isGiveaway" db:"is_giveaway"`
	IsPausedByOwner      bool `json:"isPausedByOwner" db:"is_paused_by_owner"`
	IsDeactivatedByAdmin bool `json:"isDeactivatedByAdmin" db:"is_deactivated_by_admin"`
	IsReportedForReview  bool `json:"isReportedForReview" db:"is_reported_for_review"`
}

// InTransaction reports whether the book is requested, approved or picked up.
func (b Book) InTransaction() bool {
	switch b.BorrowRequestStatus {
	case StatusPending, StatusApproved, StatusPickupConfirmed:
		return true
	}
	return false
}

func (b Book) requester() string {
	if b.RequestedByUserID == nil {
		return ""
	}
	return *b.RequestedByUserID
}

func (b Book) borrower() string {
	if b.BorrowedByUserID == nil {
		return ""
	}
	return *b.BorrowedByUserID
}

type CreateBookRequest struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	Genre         string `json:"genre" validate:"required"`
	Language      string `json:"language" validate:"required"`
	Description   string `json:"description"`
	ISBN          string `json:"isbn"`
	CoverImageURL string `json:"coverImageUrl" validate:"omitempty,url"`
	IsGiveaway    bool   `json:"isGiveaway"`
}

// UpdateBookRequest changes the listing fields of a book. Absent fields keep
// their value.
type UpdateBookRequest struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	Genre         *string `json:"genre"`
	Language      *string `json:"language"`
	Description   *string `json:"description"`
	ISBN          *string `json:"isbn"`
	CoverImageURL *string `json:"coverImageUrl" validate:"omitempty,url"`
	IsGiveaway    *bool   `json:"isGiveaway"`
}

// Apply returns b with the present fields of the request written over it.
func (r UpdateBookRequest) Apply(b Book) Book {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&b.Title, r.Title)
	set(&b.Author, r.Author)
	set(&b.Genre, r.Genre)
	set(&b.Language, r.Language)
	set(&b.Description, r.Description)
	set(&b.ISBN, r.ISBN)
	set(&b.CoverImageURL, r.CoverImageURL)
	if r.IsGiveaway != nil {
		b.IsGiveaway = *r.IsGiveaway
	}
	return b
}

type ReportBookRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// BookReport flags a listing for admin review.
type BookReport struct {
	ID         string    `json:"id" db:"id"`
	BookID     string    `json:"bookId" db:"book_id"`
	ReporterID string    `json:"reporterId" db:"reporter_id"`
	Reason     string    `json:"reason" db:"reason"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

type BookFilter struct {
	OwnerID       string
	AvailableOnly bool
	Page          int
	Size          int
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

// NotificationEvent is published on the notification topic. ID is assigned by
// the producer so redelivered events are stored once.
type NotificationEvent struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Type          string    `json:"type"`
	Message       string    `json:"message"`
	BookID        string    `json:"bookId,omitempty"`
	RelatedUserID string    `json:"relatedUserId,omitempty"`
	ChatSessionID string    `json:"chatSessionId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e NotificationEvent) Notification() Notification {
	return Notification{
		ID:            e.ID,
		UserID:        e.UserID,
		Type:          e.Type,
		Message:       e.Message,
		BookID:        optional(e.BookID),
		RelatedUserID: optional(e.RelatedUserID),
		ChatSessionID: optional(e.ChatSessionID),
		Timestamp:     e.Timestamp,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type Notification struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"userId" db:"user_id"`
	Type          string    `json:"type" db:"type"`
	Message       string    `json:"message" db:"message"`
	BookID        *string   `json:"bookId,omitempty" db:"book_id"`
	RelatedUserID *string   `json:"relatedUserId,omitempty" db:"related_user_id"`
	ChatSessionID *string   `json:"chatSessionId,omitempty" db:"chat_session_id"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
	IsRead        bool      `json:"isRead" db:"is_read"`
}

const (
	CounterBooksBorrowed = "totalBooksBorrowed"
	CounterGiveaways     = "totalGiveaways"
)

type KPIs struct {
	TotalBooksOnPlatform     int64 `json:"totalBooksOnPlatform"`
	TotalBorrowsAndGiveaways int64 `json:"totalBorrowsAndGiveaways"`
}
