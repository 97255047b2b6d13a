// README: JWT issuance and verification producing the request principal.
package identity

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Web-dev-ENT-302/transport-backend/internal/types"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

type Claims struct {
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens carrying {subject id, role}.
type Manager struct {
	secret    []byte
	expiresIn time.Duration
}

func NewManager(secret string, expiresIn time.Duration) *Manager {
	return &Manager{secret: []byte(secret), expiresIn: expiresIn}
}

func (m *Manager) Generate(p types.Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(int64(p.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates raw and returns the principal it asserts.
func (m *Manager) Parse(raw string) (types.Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return types.Principal{}, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return types.Principal{}, ErrInvalidToken
	}
	if !types.ValidRole(claims.Role) {
		return types.Principal{}, ErrInvalidToken
	}
	return types.Principal{ID: types.ID(id), Role: claims.Role}, nil
}
