package models

import "time"

// TimeSlot is one bookable half-hour candidate within business hours.
// Generated per request, never persisted.
type TimeSlot struct {
	Time        string `json:"time"` // "HH:MM", 24h, business timezone
	IsAvailable bool   `json:"isAvailable"`
}

// EventDateAndTime is Zoho's timezone-aware start/end pair. When present it
// takes precedence over the event's plain Start/End fields.
type EventDateAndTime struct {
	Timezone string `json:"timezone,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
}

// CalendarEvent mirrors what the calendar provider returns for a single day.
// Start/End carry compact stamps like "20170718T205000" or
// "20170718T205000+0530".
type CalendarEvent struct {
	Title       string            `json:"title"`
	IsAllDay    bool              `json:"isallday"`
	DateAndTime *EventDateAndTime `json:"dateandtime,omitempty"`
	Start       string            `json:"start,omitempty"`
	End         string            `json:"end,omitempty"`
}

// AvailabilityResponse is the public payload of GET /availability.
type AvailabilityResponse struct {
	Success     bool       `json:"success"`
	Date        string     `json:"date"`
	Slots       []TimeSlot `json:"slots"`
	EventsFound int        `json:"eventsFound"`
}

// AppointmentRequest is the POST /appointments body. All fields except
// AdditionalNotes and TimeZone are mandatory; TimeZone defaults to
// America/Chicago.
type AppointmentRequest struct {
	StartDateTime   string `json:"startDateTime"`
	EndDateTime     string `json:"endDateTime"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	RestaurantName  string `json:"restaurantName"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`
	TimeZone        string `json:"timeZone,omitempty"`
}

// BookingResult is what a successful booking returns to the caller.
type BookingResult struct {
	EventID       string
	ZoomMeetingID string
	ZoomJoinURL   string
}

// EventAttendee statuses follow the provider's vocabulary.
const (
	AttendeeNeedsAction = "NEEDS-ACTION"
	AttendeeAccepted    = "ACCEPTED"
)

type EventAttendee struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

type EventReminder struct {
	Action  string `json:"action"`
	Minutes int    `json:"minutes"`
}

// EventDraft is a provider-agnostic calendar event to be created upstream.
// StartUTC/EndUTC are compact UTC stamps ("20060102T150405Z").
type EventDraft struct {
	Title       string
	TimeZone    string
	StartUTC    string
	EndUTC      string
	Attendees   []EventAttendee
	Description string
	Reminders   []EventReminder
}

// MeetingDraft describes the video meeting to create for a booking.
type MeetingDraft struct {
	Topic           string
	StartTime       time.Time
	DurationMinutes int
	Timezone        string
	Agenda          string
	Passcode        string
}

// MeetingInfo is the created meeting's identity.
type MeetingInfo struct {
	ID       string
	JoinURL  string
	Passcode string
}
