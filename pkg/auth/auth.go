package auth

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	AuthorizationHeader = "Authorization"
	bearer              = "Bearer "

	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	ErrNoToken      = errors.New("no token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoPrincipal  = errors.New("no principal in context")
)

type Config struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

// Principal is the authenticated caller. Handlers pass Principal.UserID to
// services explicitly; services never read it from the context.
type Principal struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Claims are issued by the identity service; only verification happens here.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{secret: []byte(cfg.Secret)}
}

func (v *Verifier) Verify(token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrNoToken
	}
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Principal{}, errors.Wrap(ErrInvalidToken, "empty subject")
	}
	role := claims.Role
	if role == "" {
		role = RoleUser
	}
	return Principal{UserID: claims.Subject, Role: role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	if !strings.HasPrefix(header, bearer) {
		return "", errors.Wrap(ErrInvalidToken, "invalid authorization header")
	}
	return strings.TrimPrefix(header, bearer), nil
}

type principalKey struct{}

func SetAuthContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, ErrNoPrincipal
	}
	return p, nil
}
