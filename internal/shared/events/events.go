package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Event represents a domain event published after a successful mutation.
// The transition engine itself never publishes; the API layer does, after
// the transition reports success.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`

	ActorID   types.ID `json:"actor_id,omitempty"`
	ActorType string   `json:"actor_type,omitempty"` // resident, staff, system

	Data any `json:"data"`
}

// NewEvent creates a new event with generated ID and timestamp.
func NewEvent(eventType, source string, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// WithActor sets the actor information on the event.
func (e Event) WithActor(actorID types.ID, actorType string) Event {
	e.ActorID = actorID
	e.ActorType = actorType
	return e
}

// Handler is a function that handles an event.
type Handler func(ctx context.Context, event Event) error

// EventBus is the publish/subscribe seam between the case pipeline and its
// collaborators (notifications, audit). Publish failures are the caller's
// to log; they never undo the store mutation that preceded them.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, pattern string, consumerName string, handler Handler) error
	Close()
	Health() error
}

// matchesPattern checks if an event type matches a wildcard pattern like
// "case.*" or "*".
func matchesPattern(eventType, pattern string) bool {
	if pattern == "*" {
		return true
	}

	patternParts := splitDots(pattern)
	typeParts := splitDots(eventType)

	for i, pp := range patternParts {
		if pp == "*" {
			return true
		}
		if i >= len(typeParts) || pp != typeParts[i] {
			return false
		}
	}

	return len(patternParts) == len(typeParts)
}

func splitDots(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			result = append(result, s[start:i])
			start = i + 1
		}
	}
	return append(result, s[start:])
}
