package ports

import (
	"context"

	"github.com/artmint/gatehouse/core"
)

// UserStore is the persistence collaborator for account records.
// Lookups return core.ErrUserNotFound when no row matches.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*core.User, error)
	FindByID(ctx context.Context, id string) (*core.User, error)
	FindByWallet(ctx context.Context, walletAddress string) (*core.User, error)
	Create(ctx context.Context, user *core.User) error
	UpdateRole(ctx context.Context, id string, role core.Role) (*core.User, error)
	List(ctx context.Context) ([]core.User, error)
	Delete(ctx context.Context, id string) error
}

// NonceLog records issued nonces for audit. Entries expire together
// with the nonce. The login path never consults it, so it enforces
// nothing; it only makes issuance observable.
type NonceLog interface {
	Record(ctx context.Context, nonce core.Nonce) error
}
