package ports

import "github.com/artmint/gatehouse/core"

// Tokenizer converts between identities and session tokens.
type Tokenizer interface {
	// IssueSession signs a stateless session token for the identity.
	IssueSession(identity core.Identity) (string, error)

	// VerifySession checks signature integrity and expiry, then decodes
	// the identity. Signature failures surface as core.ErrInvalidToken,
	// expiry as core.ErrTokenExpired.
	VerifySession(token string) (core.Identity, error)
}
