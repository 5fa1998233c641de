package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	cb "github.com/Astemirdum/bookshare-service/pkg/circuit_breaker"
	"github.com/Astemirdum/bookshare-service/pkg/users"
)

// Kind selects the template the mail provider renders.
type Kind string

const (
	KindBookRequest     Kind = "book_request"
	KindRequestApproved Kind = "request_approved"
	KindRequestRejected Kind = "request_rejected"
	KindBookReturned    Kind = "book_returned"
)

type Config struct {
	APIURL  string        `envconfig:"MAIL_API_URL"`
	APIKey  string        `envconfig:"MAIL_API_KEY"`
	From    string        `envconfig:"MAIL_FROM" default:"no-reply@bookshare.local"`
	Timeout time.Duration `envconfig:"MAIL_TIMEOUT" default:"10s"`
	Breaker cb.Config
}

type Sender struct {
	cfg    Config
	log    *zap.Logger
	client *http.Client
	cb     cb.CircuitBreaker
}

func NewSender(cfg Config, log *zap.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		log:    log.Named("mailer"),
		client: &http.Client{Timeout: cfg.Timeout},
		cb:     cb.New(cfg.Breaker),
	}
}

type sendRequest struct {
	From     string            `json:"from"`
	To       string            `json:"to"`
	Name     string            `json:"name"`
	Template Kind              `json:"template"`
	Data     map[string]string `json:"data"`
}

// Send hands the message to the mail API. Recipients who opted out are skipped,
// and without a configured API the message is only logged.
func (s *Sender) Send(ctx context.Context, kind Kind, to users.User, payload map[string]string) error {
	if to.EmailOptOut || to.Email == "" {
		return nil
	}
	if s.cfg.APIURL == "" {
		s.log.Info("simulating email",
			zap.String("to", to.Email),
			zap.String("kind", string(kind)),
			zap.Any("payload", payload))
		return nil
	}

	body, err := json.Marshal(sendRequest{
		From:     s.cfg.From,
		To:       to.Email,
		Name:     to.Name,
		Template: kind,
		Data:     payload,
	})
	if err != nil {
		return err
	}
	return s.cb.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", echo.MIMEApplicationJSONCharsetUTF8)
		if s.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return errors.Wrap(err, "mail api")
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusMultipleChoices {
			return errors.Errorf("mail api: status %d", resp.StatusCode)
		}
		return nil
	})
}
