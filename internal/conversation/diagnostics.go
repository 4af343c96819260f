package conversation

import (
	"sync"
	"time"
)

// EventType represents the type of diagnostic event.
type EventType string

const (
	EventTurnStarted        EventType = "turn_started"
	EventSTTResult          EventType = "stt_result"
	EventSTTEmpty           EventType = "stt_empty"
	EventIntentExtracted    EventType = "intent_extracted"
	EventValidationFailed   EventType = "validation_failed"
	EventSpecialtyResolved  EventType = "specialty_resolved"
	EventLocationResolved   EventType = "location_resolved"
	EventSearchCompleted    EventType = "search_completed"
	EventCandidatePresented EventType = "candidate_presented"
	EventCandidateAdvanced  EventType = "candidate_advanced"
	EventBookingConfirmed   EventType = "booking_confirmed"
	EventBookingDeclined    EventType = "booking_declined"
	EventGatewayError       EventType = "gateway_error"
	EventSessionReset       EventType = "session_reset"
)

// Event is one diagnostic record. Raw gateway detail lands here, never
// in user-facing messages.
type Event struct {
	At   time.Time      `json:"at"`
	Type EventType      `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Diagnostics is a bounded in-memory event ring, one per session. It is
// the debug channel: surfaced only through the debug API.
type Diagnostics struct {
	mu     sync.Mutex
	events []Event
	max    int
}

// DefaultDiagnosticsSize bounds the per-session event ring.
const DefaultDiagnosticsSize = 200

// NewDiagnostics creates an event ring keeping at most max events.
func NewDiagnostics(max int) *Diagnostics {
	if max <= 0 {
		max = DefaultDiagnosticsSize
	}
	return &Diagnostics{max: max}
}

// Log records an event, evicting the oldest once the ring is full.
func (d *Diagnostics) Log(t EventType, data map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.events = append(d.events, Event{At: time.Now().UTC(), Type: t, Data: data})
	if len(d.events) > d.max {
		d.events = d.events[len(d.events)-d.max:]
	}
}

// Events returns a copy of the recorded events, oldest first.
func (d *Diagnostics) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}
