package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the subset of the hosted auth provider's access token
// the API relies on. The platform role is not trusted from the token; it is
// loaded from the profile row.
type AccessTokenClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim as the profile identifier.
func (c *AccessTokenClaims) UserID() (uuid.UUID, error) {
	if c == nil || c.Subject == "" {
		return uuid.Nil, fmt.Errorf("token subject is required")
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token subject is not a uuid: %w", err)
	}
	return id, nil
}
