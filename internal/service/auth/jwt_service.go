package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
)

// TokenService issues and verifies the bearer tokens that carry an actor's
// identity. Production tokens are minted by the external auth layer; this
// service only needs the shared secret to verify them.
type TokenService interface {
	// IssueToken signs an access token for actor.
	IssueToken(ctx context.Context, actor domain.Actor) (string, error)

	// ValidateToken verifies tokenString and extracts its claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid, ErrUnknownRole or
	// ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the verified content of an access token.
type Claims struct {
	UserID    uuid.UUID   `json:"uid,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	Subject   string      `json:"sub,omitempty"`
	Issuer    string      `json:"iss,omitempty"`
	IssuedAt  time.Time   `json:"iat,omitempty"`
	ExpiresAt time.Time   `json:"exp,omitempty"`
	ID        string      `json:"jti,omitempty"`
}

// Actor returns the identity the claims describe.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{ID: c.UserID, Role: c.Role}
}
