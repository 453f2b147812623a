// Package jwtmw issues and verifies signed access tokens and provides the gin middleware that consumes them.
package jwtmw

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"account_backend/internal/feature/account/domain/entity"
)

// DefaultTTL is the lifetime of an access token.
const DefaultTTL = time.Hour

const bearerPrefix = "Bearer "

// ErrMissingSecret is returned when the service is built without a signing key.
var ErrMissingSecret = errors.New("jwt signing secret must be provided")

// Claims is the payload of an access token.
type Claims struct {
	UserID  uint `json:"userId"`
	IsAdmin bool `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// TokenService signs tokens with HS256 using a process-wide secret.
// It holds no mutable state after construction and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService for secret. A non-positive ttl selects DefaultTTL.
func NewTokenService(secret string, ttl time.Duration, opts ...Option) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue returns a signed token for id that expires ttl after now.
func (s *TokenService) Issue(id entity.Identity) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:  id.UserID,
		IsAdmin: id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its identity.
// Every failure, whether malformed, forged or expired, yields entity.InvalidIdentity.
func (s *TokenService) Verify(token string) entity.Identity {
	if token == "" {
		return entity.InvalidIdentity
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return entity.InvalidIdentity
	}

	id := entity.Identity{UserID: claims.UserID, IsAdmin: claims.IsAdmin}
	if !id.IsValid() {
		return entity.InvalidIdentity
	}
	return id
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// ExtractBearer returns the token carried by an Authorization header value.
// The "Bearer " prefix is case-sensitive; a missing header, a different scheme
// or an empty token yields ok == false.
func ExtractBearer(header string) (token string, ok bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token = strings.TrimPrefix(header, bearerPrefix)
	if token == "" {
		return "", false
	}
	return token, true
}
