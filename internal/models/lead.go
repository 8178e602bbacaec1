package models

import "time"

// Wizard steps, strictly forward.
const (
	StepStart         = "start"
	StepContact       = "contact"
	StepQuestionnaire = "questionnaire"
	StepCalendar      = "calendar"
	StepSuccess       = "success"
)

// LeadForm accumulates wizard input across steps. Discarded on close,
// immutable once the booking succeeds.
type LeadForm struct {
	RestaurantName   string   `json:"restaurant_name"`
	OwnerName        string   `json:"owner_name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	CurrentSolution  string   `json:"current_solution,omitempty"`
	Locations        string   `json:"locations,omitempty"`
	BiggestChallenge string   `json:"biggest_challenge,omitempty"`
	SelectedDate     string   `json:"selected_date,omitempty"` // YYYY-MM-DD
	SelectedTime     string   `json:"selected_time,omitempty"` // HH:MM
}

// WizardSession is one open lead-capture modal. One session per modal,
// no sharing across sessions.
type WizardSession struct {
	ID        string    `json:"id"`
	Step      string    `json:"step"`
	Form      LeadForm  `json:"form"`
	EventID   string    `json:"event_id,omitempty"`
	MeetingID string    `json:"meeting_id,omitempty"`
	JoinURL   string    `json:"join_url,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lead is the persisted record of a captured prospect.
type Lead struct {
	ID               string    `json:"id"`
	RestaurantName   string    `json:"restaurant_name"`
	OwnerName        string    `json:"owner_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Interests        []string  `json:"interests,omitempty"`
	CurrentSolution  string    `json:"current_solution,omitempty"`
	Locations        string    `json:"locations,omitempty"`
	BiggestChallenge string    `json:"biggest_challenge,omitempty"`
	EventID          string    `json:"event_id,omitempty"`
	ZoomMeetingID    string    `json:"zoom_meeting_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
