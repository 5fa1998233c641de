package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshare-service/library/internal/errs"
	"github.com/Astemirdum/bookshare-service/library/internal/model"
)

type Repository interface {
	CreateBook(ctx context.Context, b model.Book) (model.Book, error)
	GetBook(ctx context.Context, id string) (model.Book, error)
	ListBooks(ctx context.Context, f model.BookFilter) (model.ListBooks, error)
	SetPaused(ctx context.Context, id string, paused bool) (model.Book, error)
	CountOnPlatform(ctx context.Context) (int64, error)
	UpdateTransaction(ctx context.Context, prev, next model.Book, opts TransitionOpts) (model.Book, error)
	UpdateListing(ctx context.Context, b model.Book) (model.Book, error)
	ReportBook(ctx context.Context, r model.BookReport) error

	AddToWishlist(ctx context.Context, userID, bookID string, at time.Time) error
	RemoveFromWishlist(ctx context.Context, userID, bookID string) error
	ListWishlist(ctx context.Context, userID string) ([]model.Book, error)

	SaveNotification(ctx context.Context, n model.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

// TransitionOpts tunes the guarded update. With LimitActor set, the update
// only happens while that user is below model.MaxActiveTransactions, and
// RequireListed rejects books paused by the owner or deactivated by an admin.
type TransitionOpts struct {
	LimitActor    string
	RequireListed bool
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName         = `books`
	notificationsTableName = `notifications`
	reportsTableName       = `book_reports`
	wishlistTableName      = `wishlist`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var bookColumns = []string{
	"id", "owner_id", "title", "author", "genre", "language", "description", "isbn",
	"cover_image_url", "date_added", "borrow_request_status", "requested_by_user_id",
	"borrowed_by_user_id", "requested_timestamp", "decision_timestamp", "pickup_timestamp",
	"returned_timestamp", "is_available", "is_giveaway", "is_paused_by_owner", "is_deactivated_by_admin",
	"is_reported_for_review",
}

func returning() string {
	return "returning " + strings.Join(bookColumns, ", ")
}

func (r *repository) CreateBook(ctx context.Context, b model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		SetMap(map[string]interface{}{
			"id":                    b.ID,
			"owner_id":              b.OwnerID,
			"title":                 b.Title,
			"author":                b.Author,
			"genre":                 b.Genre,
			"language":              b.Language,
			"description":           b.Description,
			"isbn":                  b.ISBN,
			"cover_image_url":       b.CoverImageURL,
			"date_added":            b.DateAdded,
			"borrow_request_status": string(model.StatusNone),
			"is_available":          true,
			"is_giveaway":           b.IsGiveaway,
		}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		return model.Book{}, errors.Wrap(err, "CreateBook")
	}
	return book, nil
}

func (r *repository) GetBook(ctx context.Context, id string) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		r.log.Error("GetBook", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Book{}, err
	}
	return book, nil
}

func filterBooks(q sq.SelectBuilder, f model.BookFilter) sq.SelectBuilder {
	if f.OwnerID != "" {
		q = q.Where(sq.Eq{"owner_id": f.OwnerID})
	}
	if f.AvailableOnly {
		q = q.Where(sq.Eq{
			"is_available":            true,
			"is_paused_by_owner":      false,
			"is_deactivated_by_admin": false,
		}).Where(sq.NotEq{"borrow_request_status": string(model.StatusGiveawayCompleted)})
	}
	return q
}

// ListBooks returns one page of the filtered books; TotalElements counts
// every match, not just the page.
func (r *repository) ListBooks(ctx context.Context, f model.BookFilter) (model.ListBooks, error) {
	countQuery, countArgs, err := filterBooks(qb.Select("count(*)").From(booksTableName), f).ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return model.ListBooks{}, errors.Wrap(err, "count books")
	}

	q := filterBooks(qb.Select(bookColumns...).From(booksTableName), f).
		OrderBy("date_added desc")
	if f.Page != 0 && f.Size != 0 {
		q = q.Limit(uint64(f.Size)).Offset(uint64((f.Page - 1) * f.Size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	books := make([]model.Book, 0)
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          f.Page,
			PageSize:      f.Size,
			TotalElements: total,
		},
		Items: books,
	}, nil
}

func (r *repository) SetPaused(ctx context.Context, id string, paused bool) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		Set("is_paused_by_owner", paused).
		Where(sq.Eq{"id": id}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) CountOnPlatform(ctx context.Context) (int64, error) {
	query, args, err := qb.Select("count(*)").
		From(booksTableName).
		Where(sq.NotEq{"borrow_request_status": string(model.StatusGiveawayCompleted)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateTransaction writes next over prev only if the row still holds prev's
// status and requester. A lost race surfaces as errs.ErrConflict.
func (r *repository) UpdateTransaction(ctx context.Context, prev, next model.Book, opts TransitionOpts) (model.Book, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Book{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	if opts.LimitActor != "" {
		if _, err := tx.ExecContext(ctx, `select pg_advisory_xact_lock(hashtext($1))`, opts.LimitActor); err != nil {
			return model.Book{}, errors.Wrap(err, "advisory lock")
		}
		query, args, err := qb.Select("count(*)").
			From(booksTableName).
			Where(sq.Or{
				sq.Eq{"requested_by_user_id": opts.LimitActor, "borrow_request_status": []string{string(model.StatusPending), string(model.StatusApproved)}},
				sq.Eq{"borrowed_by_user_id": opts.LimitActor, "borrow_request_status": string(model.StatusPickupConfirmed)},
			}).
			ToSql()
		if err != nil {
			return model.Book{}, err
		}
		var active int
		if err := tx.GetContext(ctx, &active, query, args...); err != nil {
			return model.Book{}, errors.Wrap(err, "count active")
		}
		if active >= model.MaxActiveTransactions {
			return model.Book{}, errs.ErrLimitExceeded
		}
	}

	q := qb.Update(booksTableName).
		SetMap(map[string]interface{}{
			"borrow_request_status": string(next.BorrowRequestStatus),
			"requested_by_user_id":  next.RequestedByUserID,
			"borrowed_by_user_id":   next.BorrowedByUserID,
			"requested_timestamp":   next.RequestedTimestamp,
			"decision_timestamp":    next.DecisionTimestamp,
			"pickup_timestamp":      next.PickupTimestamp,
			"returned_timestamp":    next.ReturnedTimestamp,
			"is_available":          next.IsAvailable,
		}).
		Where(sq.Eq{
			"id":                    prev.ID,
			"borrow_request_status": string(prev.BorrowRequestStatus),
		}).
		Where("requested_by_user_id is not distinct from ?", prev.RequestedByUserID)
	if opts.RequireListed {
		q = q.Where(sq.Eq{"is_paused_by_owner": false, "is_deactivated_by_admin": false})
	}
	query, args, err := q.Suffix(returning()).ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := tx.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrConflict
		}
		r.log.Error("UpdateTransaction", zap.String("q", query), zap.Error(err))
		return model.Book{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Book{}, errors.Wrap(err, "commit")
	}
	return book, nil
}

// UpdateListing rewrites the owner-editable fields of b.
func (r *repository) UpdateListing(ctx context.Context, b model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		SetMap(map[string]interface{}{
			"title":           b.Title,
			"author":          b.Author,
			"genre":           b.Genre,
			"language":        b.Language,
			"description":     b.Description,
			"isbn":            b.ISBN,
			"cover_image_url": b.CoverImageURL,
			"is_giveaway":     b.IsGiveaway,
		}).
		Where(sq.Eq{"id": b.ID, "owner_id": b.OwnerID}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, errors.Wrap(err, "UpdateListing")
	}
	return book, nil
}

func (r *repository) ReportBook(ctx context.Context, rep model.BookReport) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	query, args, err := qb.Update(booksTableName).
		Set("is_reported_for_review", true).
		Where(sq.Eq{"id": rep.BookID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "flag book")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}

	query, args, err = qb.Insert(reportsTableName).
		Columns("id", "book_id", "reporter_id", "reason", "timestamp").
		Values(rep.ID, rep.BookID, rep.ReporterID, rep.Reason, rep.Timestamp).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "insert report")
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func (r *repository) AddToWishlist(ctx context.Context, userID, bookID string, at time.Time) error {
	query, args, err := qb.Insert(wishlistTableName).
		Columns("user_id", "book_id", "added_at").
		Values(userID, bookID, at).
		Suffix("on conflict (user_id, book_id) do nothing").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return errs.ErrNotFound
		}
		return errors.Wrap(err, "AddToWishlist")
	}
	return nil
}

func (r *repository) RemoveFromWishlist(ctx context.Context, userID, bookID string) error {
	query, args, err := qb.Delete(wishlistTableName).
		Where(sq.Eq{"user_id": userID, "book_id": bookID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "RemoveFromWishlist")
}

// ListWishlist returns the user's wished books, most recently added first.
func (r *repository) ListWishlist(ctx context.Context, userID string) ([]model.Book, error) {
	cols := make([]string, 0, len(bookColumns))
	for _, c := range bookColumns {
		cols = append(cols, "b."+c)
	}
	query, args, err := qb.Select(cols...).
		From(booksTableName + " b").
		Join(wishlistTableName + " w on w.book_id = b.id").
		Where(sq.Eq{"w.user_id": userID}).
		OrderBy("w.added_at desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	books := make([]model.Book, 0)
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, errors.Wrap(err, "ListWishlist")
	}
	return books, nil
}

func (r *repository) SaveNotification(ctx context.Context, n model.Notification) error {
	query, args, err := qb.Insert(notificationsTableName).
		Columns("id", "user_id", "type", "message", "book_id", "related_user_id", "chat_session_id", "timestamp", "is_read").
		Values(n.ID, n.UserID, n.Type, n.Message, n.BookID, n.RelatedUserID, n.ChatSessionID, n.Timestamp, false).
		Suffix("on conflict (id) do nothing").
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "SaveNotification")
}

func (r *repository) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	query, args, err := qb.Select("id", "user_id", "type", "message", "book_id", "related_user_id", "chat_session_id", "timestamp", "is_read").
		From(notificationsTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("timestamp desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	ns := make([]model.Notification, 0)
	if err := r.db.SelectContext(ctx, &ns, query, args...); err != nil {
		return nil, err
	}
	return ns, nil
}

func (r *repository) MarkNotificationRead(ctx context.Context, userID, id string) error {
	query, args, err := qb.Update(notificationsTableName).
		Set("is_read", true).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	query, args, err := qb.Update(notificationsTableName).
		Set("is_read", true).
		Where(sq.Eq{"user_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
