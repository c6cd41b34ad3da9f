package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/wordreview/pkg/models"
)

// Type names a change in the wrong-word collection
type Type string

const (
	WordAdded         Type = "wordAdded"
	WordRemoved       Type = "wordRemoved"
	WordUpdated       Type = "wordUpdated"
	CollectionChanged Type = "collectionChanged"
)

// Event describes one change of the wrong-word collection.
// Entry is a copy taken at emit time and may be nil for removals.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      Type                   `json:"type"`
	Word      string                 `json:"word,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	Entry     *models.WrongWordEntry `json:"entry,omitempty"`
	Total     int                    `json:"total"`
	CreatedAt time.Time              `json:"createdAt"`
}

// NewEvent creates an event with a fresh id and timestamp
func NewEvent(eventType Type, word string) *Event {
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Word:      word,
		CreatedAt: time.Now(),
	}
}

// Handler processes events published by an Emitter
type Handler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a plain function to Handler
type HandlerFunc func(ctx context.Context, event *Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Emitter publishes events without waiting for handlers to finish
type Emitter interface {
	Emit(event *Event)
}

// Nop is an Emitter that drops every event
type Nop struct{}

func (Nop) Emit(*Event) {}
