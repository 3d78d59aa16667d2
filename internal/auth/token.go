// Package auth issues and verifies signed session tokens, hashes passwords,
// and exposes the gin middleware that turns a bearer token into an
// authz.Principal on the request context.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/authz"
)

// Claims is the token payload: the user id, email and role at issue time.
type Claims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into an authorization identity. An
// unknown role or a non-positive id is rejected.
func (c *Claims) Principal() (authz.Principal, error) {
	role, err := authz.ParseRole(c.Role)
	if err != nil {
		return authz.Principal{}, err
	}
	if c.ID <= 0 {
		return authz.Principal{}, errors.New("auth: token has no user id")
	}
	return authz.Principal{ID: c.ID, Role: role}, nil
}

// TokenService signs tokens with HS256 and a shared secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService. secret must not be empty.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for the given user.
func (s *TokenService) Issue(p authz.Principal, email string) (string, error) {
	now := s.now()
	claims := Claims{
		ID:    p.ID,
		Email: email,
		Role:  p.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm and expiry of raw and returns its
// claims. Every failure, including a valid token carrying an unknown role,
// is reported as Unauthenticated.
func (s *TokenService) Verify(raw string) (*Claims, authz.Principal, error) {
	if raw == "" {
		return nil, authz.Principal{}, apperrors.Unauthenticated("No token provided")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, authz.Principal{}, apperrors.Unauthenticated("Invalid or expired token").WithCause(err)
	}

	p, err := claims.Principal()
	if err != nil {
		return nil, authz.Principal{}, apperrors.Unauthenticated("Invalid or expired token").WithCause(err)
	}
	return claims, p, nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: unexpected signing method: %s", token.Method.Alg())
	}
	return s.secret, nil
}
