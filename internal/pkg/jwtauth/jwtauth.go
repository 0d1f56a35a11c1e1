package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the token payload: {"user_id": ..., "exp": ...}.
type Claims struct {
	UserID int64 `json:"user_id"` //nolint:tagliatelle
	jwt.StandardClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used in tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now

	return m
}

func (m *Manager) GetToken(userID int64) (string, error) {
	claims := Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{ //nolint:exhaustruct
			ExpiresAt: m.now().Add(m.ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	s, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signed string error: %w", err)
	}

	return s, nil
}

// ValidateToken checks the signature and expiry and returns the user id.
// A token is valid while now < exp.
func (m *Manager) ValidateToken(tokenString string) (int64, error) {
	parser := jwt.Parser{ //nolint:exhaustruct
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}

	var claims Claims

	token, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return m.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}

	if claims.ExpiresAt == 0 || m.now().Unix() >= claims.ExpiresAt {
		return 0, ErrTokenExpired
	}

	return claims.UserID, nil
}
