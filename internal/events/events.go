package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ItemEventType names a gallery lifecycle transition.
type ItemEventType string

const (
	// ItemAdded is emitted after a new photo is stored.
	ItemAdded ItemEventType = "item.added"

	// ItemTrashed is emitted after an item moves to the recycle bin.
	ItemTrashed ItemEventType = "item.trashed"

	// ItemRestored is emitted after an item leaves the recycle bin.
	ItemRestored ItemEventType = "item.restored"

	// ItemPurged is emitted after an item is permanently deleted.
	ItemPurged ItemEventType = "item.purged"
)

// ItemEvent describes a change to one gallery item.
type ItemEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type   ItemEventType `json:"type"`
	ItemID string        `json:"item_id"`
	UserID string        `json:"user_id"`

	// URI is the durable image URI the item referenced at the time of the event.
	URI string `json:"uri"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewItemEvent creates an event of the given type for an item.
func NewItemEvent(eventType ItemEventType, itemID, userID, uri string) *ItemEvent {
	return &ItemEvent{
		ID:        uuid.New(),
		Type:      eventType,
		ItemID:    itemID,
		UserID:    userID,
		URI:       uri,
		CreatedAt: time.Now(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ItemEvent) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *ItemEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *ItemEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *ItemEvent) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *ItemEvent) error { return nil }
