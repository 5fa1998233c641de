package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/Astemirdum/bookshare-service/chat/docs"
	"github.com/Astemirdum/bookshare-service/chat/internal/errs"
	"github.com/Astemirdum/bookshare-service/chat/internal/hub"
	"github.com/Astemirdum/bookshare-service/chat/internal/model"
	"github.com/Astemirdum/bookshare-service/pkg/auth"
	md "github.com/Astemirdum/bookshare-service/pkg/middleware"
	"github.com/Astemirdum/bookshare-service/pkg/validate"
)

// Connector attaches an authenticated websocket to the realtime hub.
type Connector interface {
	Connect(w http.ResponseWriter, r *http.Request, userID string, actions hub.Actions) error
}

type Handler struct {
	chatSvc  ChatService
	hub      Connector
	verifier *auth.Verifier
	log      *zap.Logger
}

func New(chatSvc ChatService, hub Connector, verifier *auth.Verifier, log *zap.Logger) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		hub:      hub,
		verifier: verifier,
		log:      log,
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
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPost},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)
	base.GET("/ws", h.Connect)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1/chat",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
		md.Authenticate(h.verifier),
	)

	api.POST("/initiate", h.InitiateChat)
	api.GET("/sessions", h.ListSessions)
	api.GET("/sessions/:sessionId/messages", h.GetMessages)
	api.POST("/sessions/:sessionId/messages", h.SendMessage)
	api.POST("/sessions/:sessionId/read", h.MarkRead)

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
	case errors.Is(err, errs.ErrValidation):
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

// InitiateChat godoc
// @Summary find or create the chat with another user
// @Tags chat
// @Accept json
// @Produce json
// @Param req body model.InitiateChatRequest true "recipient"
// @Success 200 {object} model.Session
// @Failure 400 {object} errs.ErrorResponse
// @Router /api/v1/chat/initiate [post]
func (h *Handler) InitiateChat(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.InitiateChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.chatSvc.InitiateChat(c.Request().Context(), p.UserID, req.RecipientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

// ListSessions godoc
// @Summary chats of the caller, most recent first
// @Tags chat
// @Produce json
// @Success 200 {array} model.Session
// @Router /api/v1/chat/sessions [get]
func (h *Handler) ListSessions(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	sessions, err := h.chatSvc.ListSessions(c.Request().Context(), p.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sessions)
}

// GetMessages godoc
// @Summary messages of the last seven days; marks the chat read
// @Tags chat
// @Produce json
// @Param sessionId path string true "session id"
// @Success 200 {array} model.Message
// @Failure 403 {object} errs.ErrorResponse
// @Failure 404 {object} errs.ErrorResponse
// @Router /api/v1/chat/sessions/{sessionId}/messages [get]
func (h *Handler) GetMessages(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	msgs, err := h.chatSvc.GetMessages(c.Request().Context(), c.Param("sessionId"), p.UserID, time.Now().UTC())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// SendMessage godoc
// @Summary send a message
// @Tags chat
// @Accept json
// @Produce json
// @Param sessionId path string true "session id"
// @Param req body model.SendMessageRequest true "message"
// @Success 201 {object} model.Message
// @Router /api/v1/chat/sessions/{sessionId}/messages [post]
func (h *Handler) SendMessage(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	msg, err := h.chatSvc.SendMessage(c.Request().Context(), c.Param("sessionId"), p.UserID, req.MessageText)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, msg)
}

// MarkRead godoc
// @Summary reset the caller's unread counter
// @Tags chat
// @Param sessionId path string true "session id"
// @Success 204
// @Router /api/v1/chat/sessions/{sessionId}/read [post]
func (h *Handler) MarkRead(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.chatSvc.MarkRead(c.Request().Context(), c.Param("sessionId"), p.UserID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Connect upgrades to a websocket. Browsers cannot set headers on the
// handshake, so the token may also come as a query parameter.
func (h *Handler) Connect(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		var err error
		if token, err = auth.BearerToken(c.Request().Header.Get(auth.AuthorizationHeader)); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
	}
	p, err := h.verifier.Verify(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if err := h.hub.Connect(c.Response(), c.Request(), p.UserID, h.chatSvc); err != nil {
		// the upgrader has already answered the client
		h.log.Warn("websocket connect", zap.String("user", p.UserID), zap.Error(err))
	}
	return nil
}
