package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/artmint/gatehouse/core"
	"github.com/artmint/gatehouse/ports"
)

// UserCreatedEvent is emitted when an account is provisioned, whether
// through signup or silently during a wallet login.
type UserCreatedEvent struct {
	UserID string `json:"user_id"`
	Method string `json:"method"`
	Role   string `json:"role"`
}

// RoleChangedEvent is emitted when an admin changes a user's role.
type RoleChangedEvent struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher        message.Publisher
	userCreatedTopic string
	roleChangedTopic string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher:        publisher,
		userCreatedTopic: "auth.user.created",
		roleChangedTopic: "auth.user.role_changed",
	}
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// PublishUserCreated publishes a user-created event.
func (p *WatermillPublisher) PublishUserCreated(ctx context.Context, user *core.User, method string) error {
	event := UserCreatedEvent{
		UserID: user.ID,
		Method: method,
		Role:   string(user.Role),
	}
	return p.publish(p.userCreatedTopic, event)
}

// PublishRoleChanged publishes a role-changed event.
func (p *WatermillPublisher) PublishRoleChanged(ctx context.Context, userID string, role core.Role) error {
	event := RoleChangedEvent{
		UserID: userID,
		Role:   string(role),
	}
	return p.publish(p.roleChangedTopic, event)
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
