package users

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	cb "github.com/Astemirdum/bookshare-service/pkg/circuit_breaker"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	CommunityUnit string `json:"communityUnit"`
	IsActive      bool   `json:"isActive"`
	IsApproved    bool   `json:"isApproved"`
	EmailOptOut   bool   `json:"emailOptOut"`
}

type Config struct {
	Host    string        `envconfig:"USERS_HTTP_HOST" default:"localhost"`
	Port    string        `envconfig:"USERS_HTTP_PORT" default:"8070"`
	Timeout time.Duration `envconfig:"USERS_HTTP_TIMEOUT" default:"5s"`
	Breaker cb.Config
}

// Client resolves user profiles from the external user directory.
type Client struct {
	log     *zap.Logger
	client  *http.Client
	baseURL string
	cb      cb.CircuitBreaker
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	return &Client{
		log:     log.Named("users"),
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: fmt.Sprintf("http://%s", net.JoinHostPort(cfg.Host, cfg.Port)),
		cb:      cb.New(cfg.Breaker),
	}
}

func (c *Client) FindByID(ctx context.Context, id string) (User, error) {
	var u User
	err := c.cb.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, url.PathEscape(id)), http.NoBody)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", echo.MIMEApplicationJSON)
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			u = User{}
			return nil
		case resp.StatusCode != http.StatusOK:
			return errors.Errorf("users: unexpected status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&u)
	})
	if err != nil {
		return User{}, errors.Wrap(err, "users.FindByID")
	}
	// a 404 is a valid answer and must not count as a failure for the breaker
	if u.ID == "" {
		return User{}, ErrNotFound
	}
	return u, nil
}

type Directory interface {
	FindByID(ctx context.Context, id string) (User, error)
}

// DisplayName resolves a user's name, falling back when the directory fails.
func DisplayName(ctx context.Context, dir Directory, id, fallback string) string {
	if id == "" {
		return fallback
	}
	u, err := dir.FindByID(ctx, id)
	if err != nil || u.Name == "" {
		return fallback
	}
	return u.Name
}
