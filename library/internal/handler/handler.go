package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/Astemirdum/bookshare-service/library/docs"
	"github.com/Astemirdum/bookshare-service/library/internal/errs"
	"github.com/Astemirdum/bookshare-service/library/internal/model"
	"github.com/Astemirdum/bookshare-service/pkg/auth"
	md "github.com/Astemirdum/bookshare-service/pkg/middleware"
	"github.com/Astemirdum/bookshare-service/pkg/validate"
)

type Handler struct {
	librarySvc LibraryService
	verifier   *auth.Verifier
	log        *zap.Logger
}

func New(librarySvc LibraryService, verifier *auth.Verifier, log *zap.Logger) *Handler {
	return &Handler{
		librarySvc: librarySvc,
		verifier:   verifier,
		log:        log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
		md.Authenticate(h.verifier),
	)

	api.POST("/books", h.CreateBook)
	api.GET("/books", h.ListBooks)
	api.GET("/books/:bookId", h.GetBook)
	api.PUT("/books/:bookId", h.UpdateBook)
	api.POST("/books/:bookId/report", h.ReportBook)
	api.POST("/books/:bookId/pause", h.PauseBook)
	api.POST("/books/:bookId/resume", h.ResumeBook)

	api.POST("/books/:bookId/request", h.RequestBook)
	api.POST("/books/:bookId/approve", h.ApproveRequest)
	api.POST("/books/:bookId/reject", h.RejectRequest)
	api.POST("/books/:bookId/cancel", h.CancelRequest)
	api.POST("/books/:bookId/revoke", h.RevokeApproval)
	api.POST("/books/:bookId/pickup", h.ConfirmPickup)
	api.POST("/books/:bookId/return", h.MarkAsReturned)

	api.GET("/wishlist", h.ListWishlist)
	api.PUT("/wishlist/:bookId", h.AddToWishlist)
	api.DELETE("/wishlist/:bookId", h.RemoveFromWishlist)

	api.GET("/notifications", h.ListNotifications)
	api.POST("/notifications/read-all", h.MarkAllNotificationsRead)
	api.POST("/notifications/:id/read", h.MarkNotificationRead)

	api.GET("/kpis", h.KPIs, md.AdminOnly)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func httpError(err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrLimitExceeded), errors.Is(err, errs.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func principal(c echo.Context) (auth.Principal, error) {
	p, err := auth.FromContext(c.Request().Context())
	if err != nil {
		return auth.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return p, nil
}

// CreateBook godoc
// @Summary list a book
// @Tags books
// @Accept json
// @Produce json
// @Param book body model.CreateBookRequest true "listing"
// @Success 201 {object} model.Book
// @Router /api/v1/books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.librarySvc.CreateBook(c.Request().Context(), p.UserID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// ListBooks godoc
// @Summary list books
// @Tags books
// @Produce json
// @Param owner query string false "owner id"
// @Param available query bool false "only requestable books"
// @Param page query int false "page"
// @Param size query int false "size"
// @Success 200 {object} model.ListBooks
// @Router /api/v1/books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	f := model.BookFilter{OwnerID: c.QueryParam("owner")}
	var err error
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if f.Page, err = strconv.Atoi(pageParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("page is invalid"))
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if f.Size, err = strconv.Atoi(sizeParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("size is invalid"))
		}
	}
	if availableParam := c.QueryParam("available"); availableParam != "" {
		if f.AvailableOnly, err = strconv.ParseBool(availableParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("available is invalid"))
		}
	}

	books, err := h.librarySvc.ListBooks(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary get a book
// @Tags books
// @Produce json
// @Param bookId path string true "book id"
// @Success 200 {object} model.Book
// @Failure 404 {object} errs.ErrorResponse
// @Router /api/v1/books/{bookId} [get]
func (h *Handler) GetBook(c echo.Context) error {
	book, err := h.librarySvc.GetBook(c.Request().Context(), c.Param("bookId"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// UpdateBook godoc
// @Summary owner edits the listing
// @Tags books
// @Accept json
// @Produce json
// @Param bookId path string true "book id"
// @Param book body model.UpdateBookRequest true "fields to change"
// @Success 200 {object} model.Book
// @Failure 403 {object} errs.ErrorResponse
// @Failure 409 {object} errs.ErrorResponse
// @Router /api/v1/books/{bookId} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.librarySvc.UpdateBook(c.Request().Context(), c.Param("bookId"), p.UserID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// ReportBook godoc
// @Summary flag a book for admin review
// @Tags books
// @Accept json
// @Param bookId path string true "book id"
// @Param req body model.ReportBookRequest true "reason"
// @Success 204
// @Failure 400 {object} errs.ErrorResponse
// @Failure 404 {object} errs.ErrorResponse
// @Router /api/v1/books/{bookId}/report [post]
func (h *Handler) ReportBook(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.ReportBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.librarySvc.ReportBook(c.Request().Context(), c.Param("bookId"), p.UserID, req.Reason); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) PauseBook(c echo.Context) error {
	return h.setPaused(c, true)
}

func (h *Handler) ResumeBook(c echo.Context) error {
	return h.setPaused(c, false)
}

func (h *Handler) setPaused(c echo.Context, paused bool) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	book, err := h.librarySvc.SetPaused(c.Request().Context(), c.Param("bookId"), p.UserID, paused)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

type transitionFunc func(ctx context.Context, bookID, actorID string) (model.Book, error)

func (h *Handler) transition(c echo.Context, fn transitionFunc) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	book, err := fn(c.Request().Context(), c.Param("bookId"), p.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// RequestBook godoc
// @Summary request to borrow a book
// @Tags transactions
// @Produce json
// @Param bookId path string true "book id"
// @Success 200 {object} model.Book
// @Failure 400 {object} errs.ErrorResponse "request limit reached"
// @Failure 403 {object} errs.ErrorResponse
// @Failure 409 {object} errs.ErrorResponse
// @Router /api/v1/books/{bookId}/request [post]
func (h *Handler) RequestBook(c echo.Context) error {
	return h.transition(c, h.librarySvc.RequestBook)
}

// ApproveRequest godoc
// @Summary approve the pending request
// @Tags transactions
// @Param bookId path string true "book id"
// @Success 200 {object} model.Book
// @Router /api/v1/books/{bookId}/approve [post]
func (h *Handler) ApproveRequest(c echo.Context) error {
	return h.transition(c, h.librarySvc.ApproveRequest)
}

// RejectRequest godoc
// @Summary reject the pending request
// @Tags transactions
// @Param bookId path string true "book id"
// @Success 200 {object} model.Book
// @Router /api/v1/books/{bookId}/reject [post]
func (h *Handler) RejectRequest(c echo.Context) error {
	return h.transition(c, h.librarySvc.RejectRequest)
}

// CancelRequest godoc
// @Summary requester withdraws a pending or approved request
// @Tags transactions
// @Param bookId path string true "book id"
// @Success 200 {object} model.Book
// @Router /api/v1/books/{bookId}/cancel [post]
func (h *Handler) CancelRequest(c echo.Context) error {
	return h.transition(c, h.librarySvc.CancelRequest)
}

// RevokeApproval godoc
// @Summary owner revokes an approval before pickup
// @Tags transactions
// @Param bookId path string true "book id"
// @Success 200 {object} model.Book
// @Router /api/v1/books/{bookId}/revoke [post]
func (h *Handler) RevokeApproval(c echo.Context) error {
	return h.transition(c, h.librarySvc.RevokeApproval)
}

// ConfirmPickup godoc
// @Summary requester confirms pickup
// @Tags transactions
// @Param bookId path string true "book id"
// @Success 200 {object} model.Book
// @Router /api/v1/books/{bookId}/pickup [post]
func (h *Handler) ConfirmPickup(c echo.Context) error {
	return h.transition(c, h.librarySvc.ConfirmPickup)
}

// MarkAsReturned godoc
// @Summary owner marks a borrowed book as returned
// @Tags transactions
// @Param bookId path string true "book id"
// @Success 200 {object} model.Book
// @Router /api/v1/books/{bookId}/return [post]
func (h *Handler) MarkAsReturned(c echo.Context) error {
	return h.transition(c, h.librarySvc.MarkAsReturned)
}

// ListWishlist godoc
// @Summary books on the caller's wishlist
// @Tags wishlist
// @Produce json
// @Success 200 {array} model.Book
// @Router /api/v1/wishlist [get]
func (h *Handler) ListWishlist(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	books, err := h.librarySvc.ListWishlist(c.Request().Context(), p.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) AddToWishlist(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.librarySvc.AddToWishlist(c.Request().Context(), p.UserID, c.Param("bookId")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveFromWishlist(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.librarySvc.RemoveFromWishlist(c.Request().Context(), p.UserID, c.Param("bookId")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListNotifications(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ns, err := h.librarySvc.ListNotifications(c.Request().Context(), p.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ns)
}

func (h *Handler) MarkNotificationRead(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.librarySvc.MarkNotificationRead(c.Request().Context(), p.UserID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.librarySvc.MarkAllNotificationsRead(c.Request().Context(), p.UserID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// KPIs godoc
// @Summary platform counters
// @Tags admin
// @Produce json
// @Success 200 {object} model.KPIs
// @Router /api/v1/kpis [get]
func (h *Handler) KPIs(c echo.Context) error {
	kpis, err := h.librarySvc.KPIs(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kpis)
}
