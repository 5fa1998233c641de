package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshare-service/library/internal/errs"
	"github.com/Astemirdum/bookshare-service/library/internal/model"
	libraryRepo "github.com/Astemirdum/bookshare-service/library/internal/repository"
	"github.com/Astemirdum/bookshare-service/pkg/mailer"
	"github.com/Astemirdum/bookshare-service/pkg/users"
)

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (users.User, error)
}

type Notifier interface {
	Create(ctx context.Context, n model.NotificationEvent) error
}

type EmailSender interface {
	Send(ctx context.Context, kind mailer.Kind, to users.User, payload map[string]string) error
}

type Counters interface {
	Increment(ctx context.Context, name string) error
	Values(ctx context.Context, names ...string) (map[string]int64, error)
}

type Service struct {
	log      *zap.Logger
	repo     libraryRepo.Repository
	users    UserDirectory
	notifier Notifier
	mail     EmailSender
	counters Counters

	now   func() time.Time
	newID func() string
	// side effects still running after their transition returned
	effects sync.WaitGroup
}

func NewService(
	repo libraryRepo.Repository,
	dir UserDirectory,
	notifier Notifier,
	mail EmailSender,
	counters Counters,
	log *zap.Logger,
) *Service {
	return &Service{
		log:      log.Named("svc"),
		repo:     repo,
		users:    dir,
		notifier: notifier,
		mail:     mail,
		counters: counters,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
}

// Wait blocks until every dispatched side effect has finished.
func (s *Service) Wait() {
	s.effects.Wait()
}

func (s *Service) RequestBook(ctx context.Context, bookID, actorID string) (model.Book, error) {
	return s.transition(ctx, model.ActionRequest, bookID, actorID)
}

func (s *Service) ApproveRequest(ctx context.Context, bookID, actorID string) (model.Book, error) {
	return s.transition(ctx, model.ActionApprove, bookID, actorID)
}

func (s *Service) RejectRequest(ctx context.Context, bookID, actorID string) (model.Book, error) {
	return s.transition(ctx, model.ActionReject, bookID, actorID)
}

func (s *Service) CancelRequest(ctx context.Context, bookID, actorID string) (model.Book, error) {
	return s.transition(ctx, model.ActionCancel, bookID, actorID)
}

func (s *Service) RevokeApproval(ctx context.Context, bookID, actorID string) (model.Book, error) {
	return s.transition(ctx, model.ActionRevoke, bookID, actorID)
}

func (s *Service) ConfirmPickup(ctx context.Context, bookID, actorID string) (model.Book, error) {
	return s.transition(ctx, model.ActionPickup, bookID, actorID)
}

func (s *Service) MarkAsReturned(ctx context.Context, bookID, actorID string) (model.Book, error) {
	return s.transition(ctx, model.ActionReturn, bookID, actorID)
}

func (s *Service) transition(ctx context.Context, action model.Action, bookID, actorID string) (model.Book, error) {
	if bookID == "" || actorID == "" {
		return model.Book{}, errors.Wrap(errs.ErrValidation, "book id and actor are required")
	}
	tr, ok := model.Lookup(action)
	if !ok {
		return model.Book{}, errors.Errorf("unknown action %q", action)
	}

	prev, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return model.Book{}, err
	}
	next, err := tr.Apply(prev, actorID, s.now())
	if err != nil {
		return model.Book{}, err
	}

	var opts libraryRepo.TransitionOpts
	if tr.Limited {
		opts = libraryRepo.TransitionOpts{LimitActor: actorID, RequireListed: true}
	}
	saved, err := s.repo.UpdateTransaction(ctx, prev, next, opts)
	if err != nil {
		return model.Book{}, err
	}
	s.log.Debug("transition",
		zap.String("action", string(action)),
		zap.String("book", bookID),
		zap.String("actor", actorID),
		zap.String("from", string(prev.BorrowRequestStatus)),
		zap.String("to", string(saved.BorrowRequestStatus)))

	s.dispatch(context.WithoutCancel(ctx), tr, prev, saved, actorID)
	return saved, nil
}

// dispatch runs the side effects of a committed transition in the background:
// counter, notification, then email. Failures are logged and dropped.
func (s *Service) dispatch(ctx context.Context, tr model.Transition, prev, next model.Book, actorID string) {
	s.effects.Add(1)
	go func() {
		defer s.effects.Done()
		log := s.log.With(zap.String("action", string(tr.Action)), zap.String("book", next.ID))

		if name := tr.Counter(next); name != "" {
			if err := s.counters.Increment(ctx, name); err != nil {
				log.Warn("counter increment failed", zap.String("counter", name), zap.Error(err))
			}
		}

		recipient := tr.RecipientOf(prev)
		if recipient == "" {
			return
		}
		actorName := users.DisplayName(ctx, s.users, actorID, "Someone")
		event := model.NotificationEvent{
			ID:            s.newID(),
			UserID:        recipient,
			Type:          tr.NotificationType(next),
			Message:       tr.Message(actorName, next),
			BookID:        next.ID,
			RelatedUserID: actorID,
			Timestamp:     s.now(),
		}
		if err := s.notifier.Create(ctx, event); err != nil {
			log.Warn("notification failed", zap.String("recipient", recipient), zap.Error(err))
		}

		if tr.Email == "" {
			return
		}
		to, err := s.users.FindByID(ctx, recipient)
		if err != nil {
			log.Warn("email recipient lookup failed", zap.String("recipient", recipient), zap.Error(err))
			return
		}
		payload := map[string]string{
			"bookTitle": next.Title,
			"actorName": actorName,
			"bookId":    next.ID,
		}
		if err := s.mail.Send(ctx, tr.Email, to, payload); err != nil {
			log.Warn("email failed", zap.String("recipient", recipient), zap.Error(err))
		}
	}()
}

func (s *Service) CreateBook(ctx context.Context, ownerID string, req model.CreateBookRequest) (model.Book, error) {
	if ownerID == "" || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" {
		return model.Book{}, errors.Wrap(errs.ErrValidation, "owner, title and author are required")
	}
	return s.repo.CreateBook(ctx, model.Book{
		ID:            s.newID(),
		OwnerID:       ownerID,
		Title:         strings.TrimSpace(req.Title),
		Author:        strings.TrimSpace(req.Author),
		Genre:         req.Genre,
		Language:      req.Language,
		Description:   req.Description,
		ISBN:          req.ISBN,
		CoverImageURL: req.CoverImageURL,
		DateAdded:     s.now(),
		IsGiveaway:    req.IsGiveaway,
	})
}

func (s *Service) GetBook(ctx context.Context, id string) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context, f model.BookFilter) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, f)
}

func (s *Service) SetPaused(ctx context.Context, bookID, actorID string, paused bool) (model.Book, error) {
	b, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return model.Book{}, err
	}
	if b.OwnerID != actorID {
		return model.Book{}, errs.ErrUnauthorized
	}
	return s.repo.SetPaused(ctx, bookID, paused)
}

// UpdateBook edits the listing of a book the actor owns. The giveaway flag
// is frozen while the book is requested, approved or picked up.
func (s *Service) UpdateBook(ctx context.Context, bookID, actorID string, req model.UpdateBookRequest) (model.Book, error) {
	b, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return model.Book{}, err
	}
	if b.OwnerID != actorID {
		return model.Book{}, errs.ErrUnauthorized
	}
	next := req.Apply(b)
	if next.Title == "" || next.Author == "" {
		return model.Book{}, errors.Wrap(errs.ErrValidation, "title and author cannot be empty")
	}
	if next.IsGiveaway != b.IsGiveaway && b.InTransaction() {
		return model.Book{}, errs.ErrConflict
	}
	return s.repo.UpdateListing(ctx, next)
}

// ReportBook flags a book for admin review on behalf of actorID.
func (s *Service) ReportBook(ctx context.Context, bookID, actorID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errors.Wrap(errs.ErrValidation, "a reason for reporting is required")
	}
	if bookID == "" || actorID == "" {
		return errors.Wrap(errs.ErrValidation, "book id and actor are required")
	}
	err := s.repo.ReportBook(ctx, model.BookReport{
		ID:         s.newID(),
		BookID:     bookID,
		ReporterID: actorID,
		Reason:     reason,
		Timestamp:  s.now(),
	})
	if err != nil {
		return err
	}
	s.log.Info("book reported", zap.String("book", bookID), zap.String("reporter", actorID))
	return nil
}

func (s *Service) AddToWishlist(ctx context.Context, userID, bookID string) error {
	if _, err := s.repo.GetBook(ctx, bookID); err != nil {
		return err
	}
	return s.repo.AddToWishlist(ctx, userID, bookID, s.now())
}

func (s *Service) RemoveFromWishlist(ctx context.Context, userID, bookID string) error {
	return s.repo.RemoveFromWishlist(ctx, userID, bookID)
}

func (s *Service) ListWishlist(ctx context.Context, userID string) ([]model.Book, error) {
	return s.repo.ListWishlist(ctx, userID)
}

func (s *Service) KPIs(ctx context.Context) (model.KPIs, error) {
	total, err := s.repo.CountOnPlatform(ctx)
	if err != nil {
		return model.KPIs{}, err
	}
	vals, err := s.counters.Values(ctx, model.CounterBooksBorrowed, model.CounterGiveaways)
	if err != nil {
		return model.KPIs{}, errors.Wrap(err, "counters")
	}
	return model.KPIs{
		TotalBooksOnPlatform:     total,
		TotalBorrowsAndGiveaways: vals[model.CounterBooksBorrowed] + vals[model.CounterGiveaways],
	}, nil
}

// SaveNotification stores a delivered notification event in the user's inbox.
func (s *Service) SaveNotification(ctx context.Context, e model.NotificationEvent) error {
	if e.ID == "" || e.UserID == "" {
		return errors.Wrap(errs.ErrValidation, "notification id and user are required")
	}
	return s.repo.SaveNotification(ctx, e.Notification())
}

func (s *Service) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	return s.repo.ListNotifications(ctx, userID)
}

func (s *Service) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkNotificationRead(ctx, userID, id)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllNotificationsRead(ctx, userID)
}
