package core

import (
	"fmt"
	"time"
)

// Role is the coarse privilege tier of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole validates a raw role string against the known tiers.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser, RoleAdmin:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Identity is the resolved (subject, role) pair for the authenticated
// caller of a single request. It is a view over the User record at a
// point in time and is never persisted on its own.
type Identity struct {
	SubjectID string
	Role      Role
}

// User is the account record as exposed by the persistence layer.
// Email/PasswordHash are empty for wallet-only accounts and
// WalletAddress is empty for email-only accounts; at least one pair
// must be present for the account to be usable.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	WalletAddress string
	Role          Role
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Identity returns the identity view of the user.
func (u *User) Identity() Identity {
	return Identity{SubjectID: u.ID, Role: u.Role}
}

// Nonce is a freshness proof handed to a wallet before signing. It is
// not tracked server-side once issued; see the wallet authenticator.
type Nonce struct {
	Value     string
	ExpiresAt time.Time
}

// challengeTemplate is the canonical wallet challenge. Signer and
// verifier must agree on it bit for bit.
const challengeTemplate = "Welcome to My DApp!\n\nSign this message to authenticate.\n\nNonce: %s"

// ChallengeMessage builds the exact message a wallet is expected to
// sign for the given nonce.
func ChallengeMessage(nonce string) string {
	return fmt.Sprintf(challengeTemplate, nonce)
}
