package wizard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bistrobytes/internal/domain"
	"bistrobytes/internal/events"
	"bistrobytes/internal/metrics"
	"bistrobytes/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

const bookingFailedMessage = "Failed to schedule appointment. Please try again or contact us directly."

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactInput is the payload advancing start -> contact -> questionnaire.
type ContactInput struct {
	RestaurantName string `json:"restaurantName"`
	OwnerName      string `json:"ownerName"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
}

// QuestionnaireInput advances questionnaire -> calendar.
type QuestionnaireInput struct {
	Interests        []string `json:"interests"`
	CurrentSolution  string   `json:"currentSolution"`
	Locations        string   `json:"locations"`
	BiggestChallenge string   `json:"biggestChallenge,omitempty"`
}

// CalendarInput advances calendar -> success by booking the appointment.
type CalendarInput struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Time     string `json:"time"` // HH:MM
	TimeZone string `json:"timeZone,omitempty"`
}

// Machine drives the lead-capture wizard. Transitions are strictly forward:
// start, contact, questionnaire, calendar, success. Close discards the
// session at any point.
type Machine struct {
	sessions  domain.SessionRepository
	booker    domain.Booker
	publisher domain.EventPublisher
	defaultTZ string
	slotLen   time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewMachine(sessions domain.SessionRepository, booker domain.Booker, publisher domain.EventPublisher, defaultTZ string, slotMinutes int, logger *zerolog.Logger) *Machine {
	if defaultTZ == "" {
		defaultTZ = "America/Chicago"
	}
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	return &Machine{
		sessions:  sessions,
		booker:    booker,
		publisher: publisher,
		defaultTZ: defaultTZ,
		slotLen:   time.Duration(slotMinutes) * time.Minute,
		logger:    logger.With().Str("component", "wizard").Logger(),
		now:       time.Now,
	}
}

// Start opens a fresh session in the start step.
func (m *Machine) Start(ctx context.Context) (*models.WizardSession, error) {
	session := &models.WizardSession{
		ID:        uuid.NewString(),
		Step:      models.StepStart,
		UpdatedAt: m.now(),
	}
	if err := m.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	metrics.IncWizardTransition(models.StepStart)
	m.logger.Debug().Str("session_id", session.ID).Msg("wizard session started")
	return session, nil
}

// Get returns the current session state.
func (m *Machine) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	session, err := m.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close discards the session. Closing an unknown session is not an error.
func (m *Machine) Close(ctx context.Context, id string) error {
	return m.sessions.Delete(ctx, id)
}

// Begin moves start -> contact with no input.
func (m *Machine) Begin(ctx context.Context, id string) (*models.WizardSession, error) {
	session, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != models.StepStart {
		return nil, stepError(session.Step, models.StepStart)
	}
	return m.transition(ctx, session, models.StepContact)
}

// SubmitContact validates contact details and moves contact -> questionnaire.
func (m *Machine) SubmitContact(ctx context.Context, id string, input ContactInput) (*models.WizardSession, error) {
	session, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != models.StepContact {
		return nil, stepError(session.Step, models.StepContact)
	}
	if err := validateContact(input); err != nil {
		return nil, err
	}

	session.Form.RestaurantName = strings.TrimSpace(input.RestaurantName)
	session.Form.OwnerName = strings.TrimSpace(input.OwnerName)
	session.Form.Email = strings.TrimSpace(input.Email)
	session.Form.Phone = strings.TrimSpace(input.Phone)
	return m.transition(ctx, session, models.StepQuestionnaire)
}

// SubmitQuestionnaire validates business answers and moves
// questionnaire -> calendar.
func (m *Machine) SubmitQuestionnaire(ctx context.Context, id string, input QuestionnaireInput) (*models.WizardSession, error) {
	session, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != models.StepQuestionnaire {
		return nil, stepError(session.Step, models.StepQuestionnaire)
	}
	if err := validateQuestionnaire(input); err != nil {
		return nil, err
	}

	session.Form.Interests = input.Interests
	session.Form.CurrentSolution = strings.TrimSpace(input.CurrentSolution)
	session.Form.Locations = strings.TrimSpace(input.Locations)
	session.Form.BiggestChallenge = strings.TrimSpace(input.BiggestChallenge)
	return m.transition(ctx, session, models.StepCalendar)
}

// SubmitCalendar validates the slot choice, books the appointment, and on
// success moves calendar -> success. A failed booking keeps the session in
// the calendar step with a generic error recorded, so the caller can retry.
func (m *Machine) SubmitCalendar(ctx context.Context, id string, input CalendarInput) (*models.WizardSession, error) {
	session, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != models.StepCalendar {
		return nil, stepError(session.Step, models.StepCalendar)
	}

	start, err := m.slotStart(input)
	if err != nil {
		return nil, err
	}

	session.Form.SelectedDate = input.Date
	session.Form.SelectedTime = input.Time

	timeZone := input.TimeZone
	if timeZone == "" {
		timeZone = m.defaultTZ
	}

	req := models.AppointmentRequest{
		StartDateTime:   start.Format(time.RFC3339),
		EndDateTime:     start.Add(m.slotLen).Format(time.RFC3339),
		CustomerName:    session.Form.OwnerName,
		CustomerEmail:   session.Form.Email,
		RestaurantName:  session.Form.RestaurantName,
		AdditionalNotes: session.Form.BiggestChallenge,
		TimeZone:        timeZone,
	}

	result, err := m.booker.Book(ctx, req)
	if err != nil {
		m.logger.Error().Err(err).Str("session_id", session.ID).Msg("wizard booking failed")
		session.LastError = bookingFailedMessage
		session.UpdatedAt = m.now()
		if saveErr := m.sessions.Save(ctx, session); saveErr != nil {
			return nil, fmt.Errorf("save session: %w", saveErr)
		}
		return session, nil
	}

	session.LastError = ""
	session.EventID = result.EventID
	session.MeetingID = result.ZoomMeetingID
	session.JoinURL = result.ZoomJoinURL

	updated, err := m.transition(ctx, session, models.StepSuccess)
	if err != nil {
		return nil, err
	}
	m.publishLead(updated)
	return updated, nil
}

func (m *Machine) transition(ctx context.Context, session *models.WizardSession, step string) (*models.WizardSession, error) {
	session.Step = step
	session.UpdatedAt = m.now()
	if err := m.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	metrics.IncWizardTransition(step)
	return session, nil
}

// slotStart validates the chosen date and time. Demos happen Monday through
// Friday and never in the past.
func (m *Machine) slotStart(input CalendarInput) (time.Time, error) {
	loc, err := time.LoadLocation(m.defaultTZ)
	if err != nil {
		loc = time.Local
	}

	day, err := time.ParseInLocation("2006-01-02", input.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date format, expected YYYY-MM-DD", domain.ErrValidation)
	}
	if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		return time.Time{}, fmt.Errorf("%w: demos are scheduled Monday through Friday", domain.ErrValidation)
	}

	var hour, minute int
	if _, err := fmt.Sscanf(input.Time, "%d:%d", &hour, &minute); err != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: invalid time format, expected HH:MM", domain.ErrValidation)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	if start.Before(m.now()) {
		return time.Time{}, fmt.Errorf("%w: selected slot is in the past", domain.ErrValidation)
	}
	return start, nil
}

func validateContact(input ContactInput) error {
	if strings.TrimSpace(input.RestaurantName) == "" ||
		strings.TrimSpace(input.OwnerName) == "" ||
		strings.TrimSpace(input.Email) == "" {
		return fmt.Errorf("%w: restaurant name, owner name and email are required", domain.ErrValidation)
	}
	if !emailPattern.MatchString(strings.TrimSpace(input.Email)) {
		return fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" && digitCount(phone) < 10 {
		return fmt.Errorf("%w: phone number must contain at least 10 digits", domain.ErrValidation)
	}
	return nil
}

func validateQuestionnaire(input QuestionnaireInput) error {
	if len(input.Interests) == 0 {
		return fmt.Errorf("%w: select at least one area of interest", domain.ErrValidation)
	}
	if strings.TrimSpace(input.CurrentSolution) == "" || strings.TrimSpace(input.Locations) == "" {
		return fmt.Errorf("%w: current solution and locations are required", domain.ErrValidation)
	}
	return nil
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func stepError(current, expected string) error {
	return fmt.Errorf("%w: step is %s, expected %s", domain.ErrValidation, current, expected)
}

func (m *Machine) publishLead(session *models.WizardSession) {
	if m.publisher == nil {
		return
	}
	err := m.publisher.PublishJSON(events.EventLeadCaptured, events.LeadEventPayload{
		LeadID:           session.ID,
		RestaurantName:   session.Form.RestaurantName,
		OwnerName:        session.Form.OwnerName,
		Email:            session.Form.Email,
		Phone:            session.Form.Phone,
		Interests:        session.Form.Interests,
		CurrentSolution:  session.Form.CurrentSolution,
		Locations:        session.Form.Locations,
		BiggestChallenge: session.Form.BiggestChallenge,
		EventID:          session.EventID,
		ZoomMeetingID:    session.MeetingID,
	})
	if err != nil {
		m.logger.Warn().Err(err).Msg("publish lead event failed")
	}
}
