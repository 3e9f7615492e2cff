package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// AccessTokenClaims represents the typed JWT issued to clients.
// IsAdmin is informational; authorization reloads the flag from the users table.
type AccessTokenClaims struct {
	UserID  uuid.UUID `json:"id"`
	IsAdmin bool      `json:"isAdmin"`
	jwt.RegisteredClaims
}
