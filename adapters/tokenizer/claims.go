package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines the registered claims with the caller's role.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}
