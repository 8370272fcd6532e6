package auth

import (
	"context"
	"time"
)

// TokenValidator resolves a bearer token to the identity it was issued for.
type TokenValidator interface {
	// ValidateToken validates the provided token string and extracts the claims.
	// Returns ErrExpiredToken for expired tokens and ErrInvalidToken for any
	// other failure (bad signature, malformed, missing subject).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// JWTService issues and validates signed identity tokens.
type JWTService interface {
	TokenValidator

	// GenerateToken creates a signed token whose subject is userID.
	GenerateToken(ctx context.Context, userID string) (string, error)
}

// Claims represents the identity carried by a validated token.
type Claims struct {
	// UserID is the opaque user identifier, taken from the "sub" claim.
	UserID string

	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
