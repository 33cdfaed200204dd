package service

import (
	"sync"

	"netcanvas/internal/adapter"
)

// EventType defines the type of event
type EventType string

const (
	EventNodeCreated       EventType = "node_created"
	EventNodeDeleted       EventType = "node_deleted"
	EventNodeDragged       EventType = "node_dragged"
	EventPositionCommitted EventType = "position_committed"
	EventPositionsSettled  EventType = "positions_settled"
	EventEdgeCreated       EventType = "edge_created"
	EventEdgeUpdated       EventType = "edge_updated"
	EventEdgeDeleted       EventType = "edge_deleted"
	EventStateChanged      EventType = "state_changed"
	EventLayoutApplied     EventType = "layout_applied"
	EventSnapshotSaved     EventType = "snapshot_saved"
	EventSnapshotLoaded    EventType = "snapshot_loaded"
	EventSnapshotDeleted   EventType = "snapshot_deleted"
	EventCandidatesUpdated EventType = adapter.EventCandidatesUpdated
	EventSyncFailed        EventType = adapter.EventSyncFailed
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes a subscriber
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

// Forward publishes an event raised outside the service layer.
// It matches adapter.EventFunc so the device syncer can report through the bus.
func (eb *EventBus) Forward(eventType string, payload any) {
	eb.Publish(Event{Type: EventType(eventType), Payload: payload})
}
