package domain

import (
	"context"
	"errors"
	"time"

	"bistrobytes/internal/models"
)

// Error taxonomy. Validation failures never reach upstream; upstream
// failures are logged in full and surfaced to callers as short generic
// messages.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUpstreamAuth = errors.New("upstream auth failed")
	ErrUpstreamAPI  = errors.New("upstream api failed")
)

// AccessTokenSource yields a bearer token for an upstream provider.
// Implementations must not be assumed to cache across requests.
type AccessTokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// CalendarAPI is the calendar provider surface the handlers depend on.
type CalendarAPI interface {
	EventsForDay(ctx context.Context, day time.Time) ([]models.CalendarEvent, error)
	CreateEvent(ctx context.Context, draft models.EventDraft) (string, error)
}

// MeetingAPI creates video meetings for bookings.
type MeetingAPI interface {
	CreateMeeting(ctx context.Context, draft models.MeetingDraft) (*models.MeetingInfo, error)
}

// Booker schedules a confirmed appointment.
type Booker interface {
	Book(ctx context.Context, req models.AppointmentRequest) (*models.BookingResult, error)
}

// SessionRepository stores open wizard sessions.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*models.WizardSession, error)
	Save(ctx context.Context, session *models.WizardSession) error
	Delete(ctx context.Context, id string) error
}

// LeadStore persists captured leads.
type LeadStore interface {
	SaveLead(ctx context.Context, lead *models.Lead) error
	ListLeads(ctx context.Context) ([]*models.Lead, error)
}

// EventPublisher fans a domain event out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
