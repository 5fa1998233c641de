package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshare-service/chat/internal/errs"
	"github.com/Astemirdum/bookshare-service/chat/internal/model"
)

type Repository interface {
	FindSessionByPair(ctx context.Context, a, b string) (model.Session, error)
	CreateSession(ctx context.Context, s model.Session) (model.Session, error)
	GetSession(ctx context.Context, id string) (model.Session, error)
	ListSessions(ctx context.Context, userID string) ([]model.Session, error)
	AppendMessage(ctx context.Context, m model.Message) (model.Session, error)
	ResetUnread(ctx context.Context, sessionID, userID string) error
	ListMessages(ctx context.Context, sessionID string, since time.Time) ([]model.Message, error)
	PurgeMessages(ctx context.Context, before time.Time) (int64, error)
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
	sessionsTableName = `chat_sessions`
	unreadTableName   = `chat_unread`
	messagesTableName = `chat_messages`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var sessionColumns = []string{
	"id", "participant_a", "participant_b", "created_at", "last_message_timestamp", "last_message_text",
}

type unreadRow struct {
	SessionID string `db:"session_id"`
	UserID    string `db:"user_id"`
	Count     int    `db:"count"`
}

func (r *repository) fillUnread(ctx context.Context, q sqlx.QueryerContext, sessions []model.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	ids := make([]string, len(sessions))
	for i := range sessions {
		ids[i] = sessions[i].ID
	}
	query, args, err := qb.Select("session_id", "user_id", "count").
		From(unreadTableName).
		Where(sq.Eq{"session_id": ids}).
		ToSql()
	if err != nil {
		return err
	}
	var rows []unreadRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return errors.Wrap(err, "unread counts")
	}
	byID := make(map[string]map[string]int, len(sessions))
	for _, row := range rows {
		if byID[row.SessionID] == nil {
			byID[row.SessionID] = make(map[string]int, 2)
		}
		byID[row.SessionID][row.UserID] = row.Count
	}
	for i := range sessions {
		sessions[i].UnreadCounts = byID[sessions[i].ID]
		sessions[i].Fill()
	}
	return nil
}

func (r *repository) getSession(ctx context.Context, q sqlx.QueryerContext, where sq.Sqlizer) (model.Session, error) {
	query, args, err := qb.Select(sessionColumns...).
		From(sessionsTableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Session{}, err
	}
	var s model.Session
	if err := sqlx.GetContext(ctx, q, &s, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, errs.ErrNotFound
		}
		return model.Session{}, err
	}
	sessions := []model.Session{s}
	if err := r.fillUnread(ctx, q, sessions); err != nil {
		return model.Session{}, err
	}
	return sessions[0], nil
}

func (r *repository) FindSessionByPair(ctx context.Context, a, b string) (model.Session, error) {
	a, b = model.CanonicalPair(a, b)
	return r.getSession(ctx, r.db, sq.Eq{"participant_a": a, "participant_b": b})
}

func (r *repository) GetSession(ctx context.Context, id string) (model.Session, error) {
	return r.getSession(ctx, r.db, sq.Eq{"id": id})
}

// CreateSession inserts the session with zeroed unread counters. When another
// caller created the same pair first, the existing session is returned.
func (r *repository) CreateSession(ctx context.Context, s model.Session) (model.Session, error) {
	s.ParticipantA, s.ParticipantB = model.CanonicalPair(s.ParticipantA, s.ParticipantB)

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := qb.Insert(sessionsTableName).
			Columns("id", "participant_a", "participant_b", "created_at", "last_message_timestamp").
			Values(s.ID, s.ParticipantA, s.ParticipantB, s.CreatedAt, s.LastMessageTimestamp).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		query, args, err = qb.Insert(unreadTableName).
			Columns("session_id", "user_id", "count").
			Values(s.ID, s.ParticipantA, 0).
			Values(s.ID, s.ParticipantB, 0).
			ToSql()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			r.log.Debug("session created concurrently", zap.String("a", s.ParticipantA), zap.String("b", s.ParticipantB))
			return r.FindSessionByPair(ctx, s.ParticipantA, s.ParticipantB)
		}
		return model.Session{}, errors.Wrap(err, "CreateSession")
	}
	s.UnreadCounts = nil
	s.Fill()
	return s, nil
}

func (r *repository) ListSessions(ctx context.Context, userID string) ([]model.Session, error) {
	query, args, err := qb.Select(sessionColumns...).
		From(sessionsTableName).
		Where(sq.Or{sq.Eq{"participant_a": userID}, sq.Eq{"participant_b": userID}}).
		OrderBy("last_message_timestamp desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	sessions := make([]model.Session, 0)
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, err
	}
	if err := r.fillUnread(ctx, r.db, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// AppendMessage stores the message, moves the session's last-message fields
// and bumps only the receiver's unread counter, all in one transaction.
func (r *repository) AppendMessage(ctx context.Context, m model.Message) (model.Session, error) {
	var s model.Session
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := qb.Insert(messagesTableName).
			Columns("id", "session_id", "sender_id", "receiver_id", "message_text", "timestamp").
			Values(m.ID, m.SessionID, m.SenderID, m.ReceiverID, m.MessageText, m.Timestamp).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "insert message")
		}

		query, args, err = qb.Update(sessionsTableName).
			Set("last_message_text", m.MessageText).
			Set("last_message_timestamp", m.Timestamp).
			Where(sq.Eq{"id": m.SessionID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "update session")
		}

		query, args, err = qb.Update(unreadTableName).
			Set("count", sq.Expr("count + 1")).
			Where(sq.Eq{"session_id": m.SessionID, "user_id": m.ReceiverID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "increment unread")
		}

		s, err = r.getSession(ctx, tx, sq.Eq{"id": m.SessionID})
		return err
	})
	if err != nil {
		return model.Session{}, err
	}
	return s, nil
}

func (r *repository) ResetUnread(ctx context.Context, sessionID, userID string) error {
	query, args, err := qb.Update(unreadTableName).
		Set("count", 0).
		Where(sq.Eq{"session_id": sessionID, "user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *repository) ListMessages(ctx context.Context, sessionID string, since time.Time) ([]model.Message, error) {
	query, args, err := qb.Select("id", "session_id", "sender_id", "receiver_id", "message_text", "timestamp").
		From(messagesTableName).
		Where(sq.Eq{"session_id": sessionID}).
		Where(sq.GtOrEq{"timestamp": since}).
		OrderBy("timestamp asc", "id asc").
		ToSql()
	if err != nil {
		return nil, err
	}
	msgs := make([]model.Message, 0)
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *repository) PurgeMessages(ctx context.Context, before time.Time) (int64, error) {
	query, args, err := qb.Delete(messagesTableName).
		Where(sq.Lt{"timestamp": before}).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
