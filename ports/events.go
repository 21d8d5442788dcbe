package ports

import (
	"context"

	"github.com/artmint/gatehouse/core"
)

// EventPublisher notifies the rest of the marketplace about account
// lifecycle changes at the auth boundary.
type EventPublisher interface {
	PublishUserCreated(ctx context.Context, user *core.User, method string) error
	PublishRoleChanged(ctx context.Context, userID string, role core.Role) error
}
