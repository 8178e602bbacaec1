package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"bistrobytes/internal/domain"
	"bistrobytes/internal/events"
	"bistrobytes/internal/metrics"
	"bistrobytes/internal/models"
	"bistrobytes/internal/zoom"

	"github.com/rs/zerolog"
)

// BookingService turns a confirmed slot into upstream resources: an optional
// video meeting, then a calendar event. There is no rollback — a meeting
// created before a failed event creation is left standing, and nothing here
// prevents two concurrent bookings of the same slot; the calendar provider
// is the only arbiter.
type BookingService struct {
	calendar  domain.CalendarAPI
	meetings  domain.MeetingAPI // nil when the video step is not configured
	owners    []string
	defaultTZ string
	publisher domain.EventPublisher
	logger    zerolog.Logger
}

func NewBookingService(calendar domain.CalendarAPI, meetings domain.MeetingAPI, owners []string, defaultTZ string, publisher domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	if defaultTZ == "" {
		defaultTZ = "America/Chicago"
	}
	return &BookingService{
		calendar:  calendar,
		meetings:  meetings,
		owners:    owners,
		defaultTZ: defaultTZ,
		publisher: publisher,
		logger:    logger.With().Str("component", "booking").Logger(),
	}
}

func (s *BookingService) Book(ctx context.Context, req models.AppointmentRequest) (*models.BookingResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	start, err := time.Parse(time.RFC3339, req.StartDateTime)
	if err != nil {
		return nil, fmt.Errorf("%w: startDateTime is not a valid timestamp", domain.ErrValidation)
	}
	end, err := time.Parse(time.RFC3339, req.EndDateTime)
	if err != nil {
		return nil, fmt.Errorf("%w: endDateTime is not a valid timestamp", domain.ErrValidation)
	}

	timeZone := req.TimeZone
	if timeZone == "" {
		timeZone = s.defaultTZ
	}

	var meeting *models.MeetingInfo
	if s.meetings != nil {
		meeting, err = s.createMeeting(ctx, req, start, end, timeZone)
		if err != nil {
			metrics.IncBooking("failed")
			return nil, err
		}
	}

	draft := models.EventDraft{
		Title:       "BistroBytes Demo: " + req.RestaurantName,
		TimeZone:    timeZone,
		StartUTC:    compactUTC(start),
		EndUTC:      compactUTC(end),
		Attendees:   s.attendees(req.CustomerEmail),
		Description: description(req, meeting),
		Reminders: []models.EventReminder{
			{Action: "email", Minutes: -30},
			{Action: "popup", Minutes: -15},
		},
	}

	eventID, err := s.calendar.CreateEvent(ctx, draft)
	if err != nil {
		// The meeting, if any, is not cleaned up here.
		s.logger.Error().Err(err).Str("restaurant", req.RestaurantName).Msg("event creation failed")
		metrics.IncUpstreamError("zoho")
		metrics.IncBooking("failed")
		return nil, ErrCreateEvent
	}

	result := &models.BookingResult{EventID: eventID}
	if meeting != nil {
		result.ZoomMeetingID = meeting.ID
		result.ZoomJoinURL = meeting.JoinURL
	}

	metrics.IncBooking("created")
	s.publishBooked(req, result)
	s.logger.Info().
		Str("event_id", eventID).
		Str("restaurant", req.RestaurantName).
		Msg("appointment booked")

	return result, nil
}

func (s *BookingService) createMeeting(ctx context.Context, req models.AppointmentRequest, start, end time.Time, timeZone string) (*models.MeetingInfo, error) {
	duration := int(math.Round(end.Sub(start).Minutes()))

	meeting, err := s.meetings.CreateMeeting(ctx, models.MeetingDraft{
		Topic:           "BistroBytes Demo: " + req.RestaurantName,
		StartTime:       start,
		DurationMinutes: duration,
		Timezone:        timeZone,
		Agenda:          "Demo consultation for " + req.RestaurantName,
		Passcode:        zoom.GeneratePasscode(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("restaurant", req.RestaurantName).Msg("meeting creation failed")
		metrics.IncUpstreamError("zoom")
		return nil, ErrCreateMeeting
	}
	return meeting, nil
}

// validateRequest runs before any network call. Absence of a required field
// is a caller error, never an upstream one.
func validateRequest(req models.AppointmentRequest) error {
	missing := req.StartDateTime == "" ||
		req.EndDateTime == "" ||
		strings.TrimSpace(req.CustomerName) == "" ||
		strings.TrimSpace(req.CustomerEmail) == "" ||
		strings.TrimSpace(req.RestaurantName) == ""
	if missing {
		return fmt.Errorf("%w: missing required fields", domain.ErrValidation)
	}
	return nil
}

// attendees lists the customer first (needs action), then every configured
// owner (accepted).
func (s *BookingService) attendees(customerEmail string) []models.EventAttendee {
	out := make([]models.EventAttendee, 0, len(s.owners)+1)
	out = append(out, models.EventAttendee{Email: customerEmail, Status: models.AttendeeNeedsAction})
	for _, owner := range s.owners {
		out = append(out, models.EventAttendee{Email: owner, Status: models.AttendeeAccepted})
	}
	return out
}

func description(req models.AppointmentRequest, meeting *models.MeetingInfo) string {
	notes := req.AdditionalNotes
	if notes == "" {
		notes = "N/A"
	}

	var b strings.Builder
	b.WriteString("<div>Demo consultation for BistroBytes online ordering system.<br/><br/>")
	if meeting != nil {
		fmt.Fprintf(&b, "Zoom Meeting: %s<br/>Meeting ID: %s<br/>Passcode: %s<br/><br/>",
			meeting.JoinURL, meeting.ID, meeting.Passcode)
	}
	fmt.Fprintf(&b, "Customer: %s<br/>Restaurant: %s<br/>Email: %s<br/><br/>Additional Notes:<br/>%s</div>",
		req.CustomerName, req.RestaurantName, req.CustomerEmail, notes)
	return b.String()
}

// compactUTC renders an instant in the provider's wire format.
func compactUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405") + "Z"
}

func (s *BookingService) publishBooked(req models.AppointmentRequest, result *models.BookingResult) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishJSON(events.EventAppointmentBooked, events.BookingEventPayload{
		EventID:        result.EventID,
		ZoomMeetingID:  result.ZoomMeetingID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		RestaurantName: req.RestaurantName,
		Notes:          req.AdditionalNotes,
		StartDateTime:  req.StartDateTime,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("publish booking event failed")
	}
}

var _ domain.Booker = (*BookingService)(nil)
