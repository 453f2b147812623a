// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"account_backend/internal/feature/account/adapters"
	"account_backend/internal/feature/account/usecase"
	"account_backend/internal/platform/config"
	"account_backend/internal/platform/hasher"
	jwtmw "account_backend/internal/platform/jwt"
	"account_backend/internal/platform/ratelimit"
)

const loginAttemptsPrefix = "login_attempts"

// NewLoginLimiter returns a Redis-backed limiter when Redis is available and a limit is set.
// Otherwise login attempts are not throttled.
func NewLoginLimiter(rdb *redis.Client, cfg config.Auth) usecase.LoginLimiter {
	if rdb == nil || cfg.LoginAttempts.Limit <= 0 || cfg.LoginAttempts.Window <= 0 {
		return ratelimit.Disabled{}
	}
	return ratelimit.NewFixedWindow(rdb, loginAttemptsPrefix, cfg.LoginAttempts.Limit, cfg.LoginAttempts.Window)
}

// NewTokenService builds the token service from the jwt section.
// Tokens always live jwtmw.DefaultTTL.
func NewTokenService(cfg *config.Config) (*jwtmw.TokenService, error) {
	return jwtmw.NewTokenService(cfg.JWT.Secret, jwtmw.DefaultTTL)
}

// NewAccountUsecase wires the account flow over db, the optional Redis client and tokens.
func NewAccountUsecase(db *gorm.DB, rdb *redis.Client, tokens *jwtmw.TokenService, cfg *config.Config) *usecase.AccountUsecase {
	return usecase.NewAccountUsecase(
		adapters.NewUserRepository(db),
		hasher.NewBcryptHasher(cfg.Auth.BcryptCost),
		tokens,
		jwtmw.ExtractBearer,
		NewLoginLimiter(rdb, cfg.Auth),
	)
}
