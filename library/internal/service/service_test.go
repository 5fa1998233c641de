package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshare-service/library/internal/errs"
	"github.com/Astemirdum/bookshare-service/library/internal/model"
	libraryRepo "github.com/Astemirdum/bookshare-service/library/internal/repository"
	"github.com/Astemirdum/bookshare-service/pkg/mailer"
	"github.com/Astemirdum/bookshare-service/pkg/users"
)

type fakeRepo struct {
	mu            sync.Mutex
	books         map[string]model.Book
	notifications map[string]model.Notification
	reports       []model.BookReport
	wishlist      map[string][]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		books:         make(map[string]model.Book),
		notifications: make(map[string]model.Notification),
		wishlist:      make(map[string][]string),
	}
}

var _ libraryRepo.Repository = (*fakeRepo)(nil)

func (r *fakeRepo) CreateBook(_ context.Context, b model.Book) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.BorrowRequestStatus = model.StatusNone
	b.IsAvailable = true
	r.books[b.ID] = b
	return b, nil
}

func (r *fakeRepo) GetBook(_ context.Context, id string) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	return b, nil
}

func (r *fakeRepo) ListBooks(_ context.Context, f model.BookFilter) (model.ListBooks, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Book
	for _, b := range r.books {
		if f.OwnerID == "" || b.OwnerID == f.OwnerID {
			out = append(out, b)
		}
	}
	return model.ListBooks{Items: out, Paging: model.Paging{TotalElements: len(out)}}, nil
}

func (r *fakeRepo) SetPaused(_ context.Context, id string, paused bool) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	b.IsPausedByOwner = paused
	r.books[id] = b
	return b, nil
}

func (r *fakeRepo) CountOnPlatform(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.books {
		if b.BorrowRequestStatus != model.StatusGiveawayCompleted {
			n++
		}
	}
	return n, nil
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *fakeRepo) UpdateTransaction(_ context.Context, prev, next model.Book, opts libraryRepo.TransitionOpts) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if opts.LimitActor != "" {
		active := 0
		for _, b := range r.books {
			switch {
			case sameID(b.RequestedByUserID, &opts.LimitActor) &&
				(b.BorrowRequestStatus == model.StatusPending || b.BorrowRequestStatus == model.StatusApproved):
				active++
			case sameID(b.BorrowedByUserID, &opts.LimitActor) && b.BorrowRequestStatus == model.StatusPickupConfirmed:
				active++
			}
		}
		if active >= model.MaxActiveTransactions {
			return model.Book{}, errs.ErrLimitExceeded
		}
	}
	cur, ok := r.books[prev.ID]
	if !ok || cur.BorrowRequestStatus != prev.BorrowRequestStatus || !sameID(cur.RequestedByUserID, prev.RequestedByUserID) {
		return model.Book{}, errs.ErrConflict
	}
	if opts.RequireListed && (cur.IsPausedByOwner || cur.IsDeactivatedByAdmin) {
		return model.Book{}, errs.ErrConflict
	}
	r.books[next.ID] = next
	return next, nil
}

func (r *fakeRepo) UpdateListing(_ context.Context, b model.Book) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.books[b.ID]
	if !ok || cur.OwnerID != b.OwnerID {
		return model.Book{}, errs.ErrNotFound
	}
	r.books[b.ID] = b
	return b, nil
}

func (r *fakeRepo) ReportBook(_ context.Context, rep model.BookReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[rep.BookID]
	if !ok {
		return errs.ErrNotFound
	}
	b.IsReportedForReview = true
	r.books[rep.BookID] = b
	r.reports = append(r.reports, rep)
	return nil
}

func (r *fakeRepo) AddToWishlist(_ context.Context, userID, bookID string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.wishlist[userID] {
		if id == bookID {
			return nil
		}
	}
	r.wishlist[userID] = append(r.wishlist[userID], bookID)
	return nil
}

func (r *fakeRepo) RemoveFromWishlist(_ context.Context, userID, bookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.wishlist[userID][:0]
	for _, id := range r.wishlist[userID] {
		if id != bookID {
			ids = append(ids, id)
		}
	}
	r.wishlist[userID] = ids
	return nil
}

func (r *fakeRepo) ListWishlist(_ context.Context, userID string) ([]model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Book, 0)
	for _, id := range r.wishlist[userID] {
		out = append(out, r.books[id])
	}
	return out, nil
}

func (r *fakeRepo) SaveNotification(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notifications[n.ID]; !ok {
		r.notifications[n.ID] = n
	}
	return nil
}

func (r *fakeRepo) ListNotifications(_ context.Context, userID string) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRepo) MarkNotificationRead(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return errs.ErrNotFound
	}
	n.IsRead = true
	r.notifications[id] = n
	return nil
}

func (r *fakeRepo) MarkAllNotificationsRead(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.notifications {
		if n.UserID == userID {
			n.IsRead = true
			r.notifications[id] = n
		}
	}
	return nil
}

type fakeDirectory map[string]users.User

func (d fakeDirectory) FindByID(_ context.Context, id string) (users.User, error) {
	u, ok := d[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []model.NotificationEvent
	err    error
}

func (n *fakeNotifier) Create(_ context.Context, e model.NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, e)
	return nil
}

func (n *fakeNotifier) sent() []model.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.NotificationEvent(nil), n.events...)
}

type sentMail struct {
	kind mailer.Kind
	to   string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, kind mailer.Kind, to users.User, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: kind, to: to.ID})
	return nil
}

type fakeCounters struct {
	mu   sync.Mutex
	vals map[string]int64
	err  error
}

func (c *fakeCounters) Increment(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.vals[name]++
	return nil
}

func (c *fakeCounters) Values(_ context.Context, names ...string) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(names))
	for _, n := range names {
		out[n] = c.vals[n]
	}
	return out, nil
}

func (c *fakeCounters) get(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vals[name]
}

type env struct {
	svc      *Service
	repo     *fakeRepo
	notifier *fakeNotifier
	mail     *fakeMailer
	counters *fakeCounters
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		repo:     newFakeRepo(),
		notifier: &fakeNotifier{},
		mail:     &fakeMailer{},
		counters: &fakeCounters{vals: make(map[string]int64)},
	}
	dir := fakeDirectory{
		"u1": {ID: "u1", Name: "Alice", Email: "alice@example.com"},
		"u2": {ID: "u2", Name: "Bob", Email: "bob@example.com"},
		"u3": {ID: "u3", Name: "Carol", Email: "carol@example.com"},
	}
	e.svc = NewService(e.repo, dir, e.notifier, e.mail, e.counters, zap.NewNop())
	var seq int
	var mu sync.Mutex
	e.svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	e.svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return e
}

func (e *env) book(t *testing.T, owner string, giveaway bool) model.Book {
	t.Helper()
	b, err := e.svc.CreateBook(context.Background(), owner, model.CreateBookRequest{
		Title: "The Hobbit", Author: "Tolkien", Genre: "Fantasy", Language: "en", IsGiveaway: giveaway,
	})
	require.NoError(t, err)
	return b
}

func TestService_LoanLifecycle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	x := e.book(t, "u1", false)

	b, err := e.svc.RequestBook(ctx, x.ID, "u2")
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, b.BorrowRequestStatus)

	b, err = e.svc.ApproveRequest(ctx, x.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, b.BorrowRequestStatus)

	b, err = e.svc.ConfirmPickup(ctx, x.ID, "u2")
	require.NoError(t, err)
	require.Equal(t, model.StatusPickupConfirmed, b.BorrowRequestStatus)
	require.Equal(t, "u2", *b.BorrowedByUserID)
	require.False(t, b.IsAvailable)

	b, err = e.svc.MarkAsReturned(ctx, x.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, model.StatusReturned, b.BorrowRequestStatus)
	require.Nil(t, b.BorrowedByUserID)
	require.Nil(t, b.RequestedByUserID)
	require.Nil(t, b.PickupTimestamp)
	require.True(t, b.IsAvailable)

	e.svc.Wait()
	require.Equal(t, int64(1), e.counters.get(model.CounterBooksBorrowed))
	require.Equal(t, int64(0), e.counters.get(model.CounterGiveaways))

	got := map[string]string{}
	for _, ev := range e.notifier.sent() {
		got[ev.Type] = ev.UserID
	}
	require.Equal(t, map[string]string{
		model.NotifyRequestReceived: "u1",
		model.NotifyRequestApproved: "u2",
		model.NotifyBookPickedUp:    "u1",
		model.NotifyBookReturned:    "u2",
	}, got)

	require.ElementsMatch(t, []sentMail{
		{kind: mailer.KindBookRequest, to: "u1"},
		{kind: mailer.KindRequestApproved, to: "u2"},
		{kind: mailer.KindBookReturned, to: "u2"},
	}, e.mail.sent)
}

func TestService_Giveaway(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	x := e.book(t, "u1", true)

	_, err := e.svc.RequestBook(ctx, x.ID, "u2")
	require.NoError(t, err)
	_, err = e.svc.ApproveRequest(ctx, x.ID, "u1")
	require.NoError(t, err)
	b, err := e.svc.ConfirmPickup(ctx, x.ID, "u2")
	require.NoError(t, err)
	require.Equal(t, model.StatusGiveawayCompleted, b.BorrowRequestStatus)
	require.Equal(t, "u2", *b.BorrowedByUserID)

	_, err = e.svc.ConfirmPickup(ctx, x.ID, "u2")
	require.ErrorIs(t, err, errs.ErrConflict)
	_, err = e.svc.RequestBook(ctx, x.ID, "u3")
	require.ErrorIs(t, err, errs.ErrConflict)
	_, err = e.svc.MarkAsReturned(ctx, x.ID, "u1")
	require.ErrorIs(t, err, errs.ErrConflict)

	e.svc.Wait()
	require.Equal(t, int64(1), e.counters.get(model.CounterGiveaways))
	require.Equal(t, int64(0), e.counters.get(model.CounterBooksBorrowed))

	kpis, err := e.svc.KPIs(ctx)
	require.NoError(t, err)
	require.Equal(t, model.KPIs{TotalBooksOnPlatform: 0, TotalBorrowsAndGiveaways: 1}, kpis)
}

func TestService_RevokeThenRequestByAnother(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	x := e.book(t, "u1", false)

	_, err := e.svc.RequestBook(ctx, x.ID, "u2")
	require.NoError(t, err)
	_, err = e.svc.ApproveRequest(ctx, x.ID, "u1")
	require.NoError(t, err)

	_, err = e.svc.RevokeApproval(ctx, x.ID, "u2")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	b, err := e.svc.RevokeApproval(ctx, x.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, b.BorrowRequestStatus)
	require.Nil(t, b.RequestedByUserID)

	b, err = e.svc.RequestBook(ctx, x.ID, "u3")
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, b.BorrowRequestStatus)
	require.Equal(t, "u3", *b.RequestedByUserID)
}

func TestService_CancelIsRequesterOnly(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	x := e.book(t, "u1", false)

	_, err := e.svc.RequestBook(ctx, x.ID, "u2")
	require.NoError(t, err)

	_, err = e.svc.CancelRequest(ctx, x.ID, "u1")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = e.svc.RevokeApproval(ctx, x.ID, "u1")
	require.ErrorIs(t, err, errs.ErrConflict)

	b, err := e.svc.CancelRequest(ctx, x.ID, "u2")
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, b.BorrowRequestStatus)
}

func TestService_ConflictLeavesBookUnchanged(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	x := e.book(t, "u1", false)

	calls := []func(context.Context, string, string) (model.Book, error){
		e.svc.ApproveRequest, e.svc.RejectRequest, e.svc.CancelRequest,
		e.svc.RevokeApproval, e.svc.ConfirmPickup, e.svc.MarkAsReturned,
	}
	for _, call := range calls {
		_, err := call(ctx, x.ID, "u1")
		require.ErrorIs(t, err, errs.ErrConflict)
		got, err := e.svc.GetBook(ctx, x.ID)
		require.NoError(t, err)
		require.Equal(t, x, got)
	}
	e.svc.Wait()
	require.Empty(t, e.notifier.sent())
}

func TestService_RequestLimit(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	var books []model.Book
	for i := 0; i < model.MaxActiveTransactions+1; i++ {
		books = append(books, e.book(t, "u1", false))
	}
	for i := 0; i < model.MaxActiveTransactions-1; i++ {
		_, err := e.svc.RequestBook(ctx, books[i].ID, "u2")
		require.NoError(t, err)
	}
	// a picked-up book still counts, as borrower
	last := books[model.MaxActiveTransactions-1]
	_, err := e.svc.RequestBook(ctx, last.ID, "u2")
	require.NoError(t, err)
	_, err = e.svc.ApproveRequest(ctx, last.ID, "u1")
	require.NoError(t, err)
	_, err = e.svc.ConfirmPickup(ctx, last.ID, "u2")
	require.NoError(t, err)

	_, err = e.svc.RequestBook(ctx, books[model.MaxActiveTransactions].ID, "u2")
	require.ErrorIs(t, err, errs.ErrLimitExceeded)

	_, err = e.svc.CancelRequest(ctx, books[0].ID, "u2")
	require.NoError(t, err)
	_, err = e.svc.RequestBook(ctx, books[model.MaxActiveTransactions].ID, "u2")
	require.NoError(t, err)
}

func TestService_ConcurrentRequestsOneWins(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	x := e.book(t, "u1", false)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     int
		lost    int
		start   = make(chan struct{})
		callers = []string{"u2", "u3"}
	)
	for _, actor := range callers {
		actor := actor
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := e.svc.RequestBook(ctx, x.ID, actor)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
				return
			}
			if errors.Is(err, errs.ErrConflict) {
				lost++
			}
		}()
	}
	close(start)
	wg.Wait()
	require.Equal(t, 1, won)
	require.Equal(t, 1, lost)
}

func TestService_SideEffectFailuresDoNotFail(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.notifier.err = errors.New("broker down")
	e.counters.err = errors.New("redis down")
	ctx := context.Background()
	x := e.book(t, "u1", false)

	for _, step := range []struct {
		call  func(context.Context, string, string) (model.Book, error)
		actor string
	}{
		{e.svc.RequestBook, "u2"},
		{e.svc.ApproveRequest, "u1"},
		{e.svc.ConfirmPickup, "u2"},
		{e.svc.MarkAsReturned, "u1"},
	} {
		_, err := step.call(ctx, x.ID, step.actor)
		require.NoError(t, err)
	}
	e.svc.Wait()
	require.Len(t, e.mail.sent, 3)
}

func TestService_NotFoundAndValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.RequestBook(ctx, "missing", "u2")
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = e.svc.RequestBook(ctx, "", "u2")
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = e.svc.CreateBook(ctx, "u1", model.CreateBookRequest{Title: " ", Author: "x"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_PausedBook(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	x := e.book(t, "u1", false)

	_, err := e.svc.SetPaused(ctx, x.ID, "u2", true)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	b, err := e.svc.SetPaused(ctx, x.ID, "u1", true)
	require.NoError(t, err)
	require.True(t, b.IsPausedByOwner)

	_, err = e.svc.RequestBook(ctx, x.ID, "u2")
	require.ErrorIs(t, err, errs.ErrConflict)

	_, err = e.svc.SetPaused(ctx, x.ID, "u1", false)
	require.NoError(t, err)
	_, err = e.svc.RequestBook(ctx, x.ID, "u2")
	require.NoError(t, err)
}

func TestService_NotificationInbox(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	ev := model.NotificationEvent{ID: "n1", UserID: "u1", Type: model.NotifyRequestReceived, Message: "hi", BookID: "b1"}
	require.NoError(t, e.svc.SaveNotification(ctx, ev))
	require.NoError(t, e.svc.SaveNotification(ctx, ev))
	require.ErrorIs(t, e.svc.SaveNotification(ctx, model.NotificationEvent{UserID: "u1"}), errs.ErrValidation)

	ns, err := e.svc.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, ns, 1)
	require.Equal(t, "b1", *ns[0].BookID)
	require.Nil(t, ns[0].ChatSessionID)

	require.ErrorIs(t, e.svc.MarkNotificationRead(ctx, "u2", "n1"), errs.ErrNotFound)
	require.NoError(t, e.svc.MarkNotificationRead(ctx, "u1", "n1"))
	ns, err = e.svc.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ns[0].IsRead)
}

func TestService_UpdateBook(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	x := e.book(t, "u1", false)
	str := func(s string) *string { return &s }
	yes := true

	_, err := e.svc.UpdateBook(ctx, x.ID, "u2", model.UpdateBookRequest{Title: str("Mine now")})
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = e.svc.UpdateBook(ctx, "missing", "u1", model.UpdateBookRequest{})
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = e.svc.UpdateBook(ctx, x.ID, "u1", model.UpdateBookRequest{Author: str("  ")})
	require.ErrorIs(t, err, errs.ErrValidation)

	b, err := e.svc.UpdateBook(ctx, x.ID, "u1", model.UpdateBookRequest{Title: str(" The Silmarillion "), Genre: str("Myth")})
	require.NoError(t, err)
	require.Equal(t, "The Silmarillion", b.Title)
	require.Equal(t, "Myth", b.Genre)
	require.Equal(t, "Tolkien", b.Author)
	require.Equal(t, model.StatusNone, b.BorrowRequestStatus)

	_, err = e.svc.RequestBook(ctx, x.ID, "u2")
	require.NoError(t, err)
	_, err = e.svc.UpdateBook(ctx, x.ID, "u1", model.UpdateBookRequest{IsGiveaway: &yes})
	require.ErrorIs(t, err, errs.ErrConflict)

	// listing text stays editable during a loan
	b, err = e.svc.UpdateBook(ctx, x.ID, "u1", model.UpdateBookRequest{Description: str("first edition")})
	require.NoError(t, err)
	require.Equal(t, "first edition", b.Description)
	require.Equal(t, model.StatusPending, b.BorrowRequestStatus)
}

func TestService_ReportBook(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	x := e.book(t, "u1", false)

	require.ErrorIs(t, e.svc.ReportBook(ctx, x.ID, "u2", ""), errs.ErrValidation)
	require.ErrorIs(t, e.svc.ReportBook(ctx, x.ID, "u2", " \t"), errs.ErrValidation)
	require.ErrorIs(t, e.svc.ReportBook(ctx, "missing", "u2", "spam"), errs.ErrNotFound)
	require.Empty(t, e.repo.reports)

	require.NoError(t, e.svc.ReportBook(ctx, x.ID, "u2", " spam listing "))
	require.Equal(t, []model.BookReport{{
		ID:         e.repo.reports[0].ID,
		BookID:     x.ID,
		ReporterID: "u2",
		Reason:     "spam listing",
		Timestamp:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}}, e.repo.reports)

	b, err := e.svc.GetBook(ctx, x.ID)
	require.NoError(t, err)
	require.True(t, b.IsReportedForReview)
}

func TestService_Wishlist(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	x := e.book(t, "u1", false)
	y := e.book(t, "u1", true)

	require.ErrorIs(t, e.svc.AddToWishlist(ctx, "u2", "missing"), errs.ErrNotFound)
	require.NoError(t, e.svc.AddToWishlist(ctx, "u2", x.ID))
	require.NoError(t, e.svc.AddToWishlist(ctx, "u2", y.ID))
	require.NoError(t, e.svc.AddToWishlist(ctx, "u2", x.ID))

	books, err := e.svc.ListWishlist(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, books, 2)

	require.NoError(t, e.svc.RemoveFromWishlist(ctx, "u2", x.ID))
	require.NoError(t, e.svc.RemoveFromWishlist(ctx, "u2", x.ID))
	books, err = e.svc.ListWishlist(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, y.ID, books[0].ID)

	books, err = e.svc.ListWishlist(ctx, "u3")
	require.NoError(t, err)
	require.Empty(t, books)
}
