// Package eventbus provides the publish/subscribe plumbing for workflow events.
package eventbus

import (
	"context"
	"fmt"

	"github.com/dukex/atelier/pkg/events"
)

// Event is any value published on the bus. Its type selects the handler on
// the consuming side.
type Event interface {
	GetType() events.EventType
}

// EventPublisher sends events keyed by workflow id, so events of one workflow
// stay ordered on partitioned transports.
type EventPublisher interface {
	Publish(ctx context.Context, workflowID string, event Event) error
}

// EventSubscriber routes received events to one handler per event type.
// Handlers must be registered before Subscribe.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event, e.g. *events.WorkflowSaved.
// A returned error nacks the message.
type EventHandler func(ctx context.Context, event any) error

// Handlers maps event types to their handler.
type Handlers map[events.EventType]EventHandler

// Register installs every handler of h on sub.
func (h Handlers) Register(sub EventSubscriber) error {
	for eventType, handler := range h {
		if err := sub.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to register handler for %s: %w", eventType, err)
		}
	}

	return nil
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
