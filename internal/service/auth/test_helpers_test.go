package auth

import (
	"context"
	"time"

	"github.com/phrazzld/gallery-api/internal/config"
)

// DefaultJWTConfig returns a standard configuration for JWT authentication suitable for testing.
func DefaultJWTConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "test-jwt-secret-that-is-32-chars-long",
		TokenLifetimeMinutes: 60,
	}
}

// NewTestJWTService creates a JWT service with a fixed clock for tests.
func NewTestJWTService(secret string, lifetime time.Duration, now func() time.Time) JWTService {
	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: lifetime,
		timeFunc:      now,
		clockSkew:     2 * time.Minute,
	}
}

// GenerateTokenWithExpiry signs a token for userID that expires at expiresAt.
// It is used to exercise expiry handling.
func GenerateTokenWithExpiry(svc JWTService, userID string, expiresAt time.Time) (string, error) {
	impl, ok := svc.(*hmacJWTService)
	if !ok {
		return "", ErrInvalidToken
	}
	return impl.generate(context.Background(), userID, expiresAt)
}
