// Package auth turns HS256 bearer tokens issued by the identity service into actors.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret   = errors.New("jwt: empty secret key")
	ErrMissingToken  = errors.New("missing or malformed Authorization")
	ErrInvalidToken  = errors.New("invalid token")
	ErrRoleForbidden = errors.New("role not allowed in tokens")
)

// Claims carries the caller's role next to the standard claims. Subject is the user id.
type Claims struct {
	Role kernel.Role `json:"role"`
	jwtlib.RegisteredClaims
}

var _ jwtlib.Claims = (*Claims)(nil)

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	s := strings.TrimSpace(secret)
	if s == "" {
		return nil, ErrEmptySecret
	}
	return &Manager{secret: []byte(s), ttl: ttl}, nil
}

// Issue signs a token for userID. The service itself only needs it for tooling and tests.
func (m *Manager) Issue(userID kernel.UUID, role kernel.Role) (string, error) {
	if role == kernel.RoleSystem {
		return "", ErrRoleForbidden
	}
	if err := role.Validate(); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies the token and returns the actor it names. The system role
// cannot be claimed by a token.
func (m *Manager) Parse(token string) (kernel.Actor, error) {
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return kernel.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return kernel.Actor{}, ErrInvalidToken
	}
	if claims.Role == kernel.RoleSystem {
		return kernel.Actor{}, ErrRoleForbidden
	}

	userID, err := kernel.UUIDFromString(claims.Subject)
	if err != nil {
		return kernel.Actor{}, fmt.Errorf("%w: subject: %w", ErrInvalidToken, err)
	}
	actor, err := kernel.NewActor(userID, claims.Role)
	if err != nil {
		return kernel.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return actor, nil
}

// TokenFromRequest reads "Authorization: Bearer <token>", falling back to the
// token query parameter that browsers use for websocket upgrades.
func TokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", ErrMissingToken
		}
		return strings.TrimSpace(token), nil
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return strings.TrimPrefix(token, "Bearer "), nil
	}

	return "", ErrMissingToken
}
