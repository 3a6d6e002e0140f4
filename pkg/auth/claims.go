package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// SessionPayload captures the data available when minting a session token.
type SessionPayload struct {
	UserID   string
	Username string
	Roles    []enums.Role
	JTI      string
}

// SessionClaims is the typed JWT carried in the session cookie.
type SessionClaims struct {
	UserID   string       `json:"user_id"`
	Username string       `json:"username"`
	Roles    []enums.Role `json:"roles"`
	jwt.RegisteredClaims
}
