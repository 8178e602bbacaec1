package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventLeadCaptured      = "lead_captured"
	EventAppointmentBooked = "appointment_booked"
)

// LeadEventPayload is the lead snapshot carried by lead_captured.
type LeadEventPayload struct {
	LeadID           string   `json:"lead_id"`
	RestaurantName   string   `json:"restaurant_name"`
	OwnerName        string   `json:"owner_name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	CurrentSolution  string   `json:"current_solution,omitempty"`
	Locations        string   `json:"locations,omitempty"`
	BiggestChallenge string   `json:"biggest_challenge,omitempty"`
	EventID          string   `json:"event_id,omitempty"`
	ZoomMeetingID    string   `json:"zoom_meeting_id,omitempty"`
}

// BookingEventPayload is the booking snapshot carried by appointment_booked.
type BookingEventPayload struct {
	EventID        string `json:"event_id"`
	ZoomMeetingID  string `json:"zoom_meeting_id,omitempty"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	RestaurantName string `json:"restaurant_name"`
	Notes          string `json:"notes,omitempty"`
	StartDateTime  string `json:"start_date_time"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
