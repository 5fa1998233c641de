package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshare-service/chat/internal/errs"
	"github.com/Astemirdum/bookshare-service/chat/internal/model"
)

var (
	created = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	sentAt  = time.Date(2024, 6, 1, 10, 5, 0, 0, time.UTC)
)

func newMockRepo(t *testing.T) (*repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	r, err := NewRepository(sqlx.NewDb(db, "pgx"), zap.NewNop())
	require.NoError(t, err)
	return r, mock
}

func sessionRows(id, a, b string, last interface{}, lastText interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(sessionColumns).AddRow(id, a, b, created, last, lastText)
}

func unreadRows(sessionID string, counts ...interface{}) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"session_id", "user_id", "count"})
	for i := 0; i+1 < len(counts); i += 2 {
		rows.AddRow(sessionID, counts[i], counts[i+1])
	}
	return rows
}

const (
	selectSession = `SELECT id, participant_a, participant_b, created_at, last_message_timestamp, last_message_text FROM chat_sessions WHERE `
	selectUnread  = `SELECT session_id, user_id, count FROM chat_unread WHERE session_id IN \(\$1\)`
)

func TestRepository_AppendMessageBumpsReceiverOnly(t *testing.T) {
	t.Parallel()
	r, mock := newMockRepo(t)
	m := model.Message{ID: "m1", SessionID: "s1", SenderID: "u1", ReceiverID: "u2", MessageText: "  hi  ", Timestamp: sentAt}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chat_messages (id,session_id,sender_id,receiver_id,message_text,timestamp) VALUES ($1,$2,$3,$4,$5,$6)`)).
		WithArgs("m1", "s1", "u1", "u2", "  hi  ", sentAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE chat_sessions SET last_message_text = $1, last_message_timestamp = $2 WHERE id = $3`)).
		WithArgs("  hi  ", sentAt, "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE chat_unread SET count = count + 1 WHERE session_id = $1 AND user_id = $2`)).
		WithArgs("s1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectSession+`id = \$1 LIMIT 1`).
		WithArgs("s1").
		WillReturnRows(sessionRows("s1", "u1", "u2", sentAt, "  hi  "))
	mock.ExpectQuery(selectUnread).
		WithArgs("s1").
		WillReturnRows(unreadRows("s1", "u1", 0, "u2", 3))
	mock.ExpectCommit()

	s, err := r.AppendMessage(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"u1": 0, "u2": 3}, s.UnreadCounts)
	require.Equal(t, []string{"u1", "u2"}, s.ParticipantIDs)
	require.Equal(t, "  hi  ", *s.LastMessageText)
}

func TestRepository_AppendMessageRollsBack(t *testing.T) {
	t.Parallel()
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO chat_messages`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE chat_sessions`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := r.AppendMessage(context.Background(), model.Message{ID: "m1", SessionID: "s1", SenderID: "u1", ReceiverID: "u2", MessageText: "hi", Timestamp: sentAt})
	require.ErrorContains(t, err, "update session")
}

func TestRepository_CreateSession(t *testing.T) {
	t.Parallel()
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chat_sessions (id,participant_a,participant_b,created_at,last_message_timestamp) VALUES ($1,$2,$3,$4,$5)`)).
		WithArgs("s1", "u1", "u2", created, created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chat_unread (session_id,user_id,count) VALUES ($1,$2,$3),($4,$5,$6)`)).
		WithArgs("s1", "u1", 0, "s1", "u2", 0).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	s, err := r.CreateSession(context.Background(), model.Session{
		ID: "s1", ParticipantA: "u2", ParticipantB: "u1", CreatedAt: created, LastMessageTimestamp: created,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, s.ParticipantIDs)
	require.Equal(t, map[string]int{"u1": 0, "u2": 0}, s.UnreadCounts)
}

func TestRepository_CreateSessionLostRace(t *testing.T) {
	t.Parallel()
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO chat_sessions`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "chat_sessions_pair_key"})
	mock.ExpectRollback()
	mock.ExpectQuery(selectSession+`participant_a = \$1 AND participant_b = \$2 LIMIT 1`).
		WithArgs("u1", "u2").
		WillReturnRows(sessionRows("s0", "u1", "u2", sentAt, "earlier"))
	mock.ExpectQuery(selectUnread).
		WithArgs("s0").
		WillReturnRows(unreadRows("s0", "u1", 1, "u2", 0))

	s, err := r.CreateSession(context.Background(), model.Session{
		ID: "s1", ParticipantA: "u1", ParticipantB: "u2", CreatedAt: created, LastMessageTimestamp: created,
	})
	require.NoError(t, err)
	require.Equal(t, "s0", s.ID)
	require.Equal(t, map[string]int{"u1": 1, "u2": 0}, s.UnreadCounts)
}

func TestRepository_CreateSessionOtherError(t *testing.T) {
	t.Parallel()
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO chat_sessions`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.CheckViolation})
	mock.ExpectRollback()

	_, err := r.CreateSession(context.Background(), model.Session{ID: "s1", ParticipantA: "u1", ParticipantB: "u1", CreatedAt: created})
	require.ErrorContains(t, err, "CreateSession")
}

func TestRepository_GetSessionMissing(t *testing.T) {
	t.Parallel()
	r, mock := newMockRepo(t)

	mock.ExpectQuery(selectSession + `id = \$1 LIMIT 1`).
		WithArgs("s9").
		WillReturnRows(sqlmock.NewRows(sessionColumns))

	_, err := r.GetSession(context.Background(), "s9")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRepository_ResetUnread(t *testing.T) {
	t.Parallel()
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE chat_unread SET count = $1 WHERE session_id = $2 AND user_id = $3`)).
		WithArgs(0, "s1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.ResetUnread(context.Background(), "s1", "u2"))
}

func TestRepository_PurgeMessages(t *testing.T) {
	t.Parallel()
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM chat_messages WHERE timestamp < $1`)).
		WithArgs(created).
		WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := r.PurgeMessages(context.Background(), created)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
}
