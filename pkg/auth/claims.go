package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   string
	Email    string
	IsAgent  bool
	Currency enums.Currency
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to the browser.
// The backend token pair never appears here; it stays server-side,
// keyed by the jti.
type AccessTokenClaims struct {
	UserID   string         `json:"user_id"`
	Email    string         `json:"email"`
	IsAgent  bool           `json:"is_agent,omitempty"`
	Currency enums.Currency `json:"currency,omitempty"`
	jwt.RegisteredClaims
}
