package testutil

import (
	"context"
	"sync"

	"ripple_chat_server/internal/service/event"
)

// RecordedEvent is one publish call captured by the recorder.
type RecordedEvent struct {
	Type string
	Data any

	// Users is set for user-targeted publishes; ConversationID and
	// Exclude for conversation-targeted ones.
	Users          []string
	ConversationID string
	Exclude        string
}

// EventRecorder captures published events instead of delivering them.
type EventRecorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (r *EventRecorder) PublishToUsers(ctx context.Context, evt event.Event, userIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{
		Type:  evt.Type,
		Data:  evt.Data,
		Users: append([]string(nil), userIDs...),
	})
}

func (r *EventRecorder) PublishToConversation(ctx context.Context, evt event.Event, conversationID, excludeUserID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{
		Type:           evt.Type,
		Data:           evt.Data,
		ConversationID: conversationID,
		Exclude:        excludeUserID,
	})
}

// Events returns a snapshot of everything published so far.
func (r *EventRecorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent(nil), r.events...)
}

// OfType filters the snapshot by event type.
func (r *EventRecorder) OfType(eventType string) []RecordedEvent {
	var out []RecordedEvent
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears the captured events.
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
