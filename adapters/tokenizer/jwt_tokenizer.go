package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/artmint/gatehouse/core"
	"github.com/artmint/gatehouse/ports"
)

// SessionTTL is how long an issued session token remains valid.
const SessionTTL = 7 * 24 * time.Hour

// JWTTokenizer implements the Tokenizer interface with HMAC-signed JWTs.
// Tokens are self-contained; there is no server-side session state and
// no revocation, so the role claim may go stale and callers re-resolve
// it from the store.
type JWTTokenizer struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTTokenizer creates a new JWT tokenizer signing with the given
// shared secret.
func NewJWTTokenizer(secret []byte) *JWTTokenizer {
	return &JWTTokenizer{secret: secret, ttl: SessionTTL}
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// IssueSession signs a session token carrying subject, role, issuance
// and expiry.
func (j *JWTTokenizer) IssueSession(identity core.Identity) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		Role: string(identity.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifySession checks signature integrity first, then expiry, then
// decodes the identity. A tampered payload fails the signature check
// before its claims are interpreted.
func (j *JWTTokenizer) VerifySession(tokenStr string) (core.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return core.Identity{}, core.ErrTokenExpired
		}
		return core.Identity{}, core.ErrInvalidToken
	}

	if !token.Valid {
		return core.Identity{}, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return core.Identity{}, core.ErrInvalidToken
	}

	role, err := core.ParseRole(claims.Role)
	if err != nil {
		return core.Identity{}, core.ErrInvalidToken
	}

	return core.Identity{SubjectID: claims.Subject, Role: role}, nil
}
