package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bistrobytes/internal/config"
	"bistrobytes/internal/domain"
	"bistrobytes/internal/models"

	"github.com/rs/zerolog"
)

// CalendarClient talks to the Zoho Calendar REST API for a single calendar.
type CalendarClient struct {
	cfg    config.ZohoConfig
	tokens domain.AccessTokenSource
	http   *http.Client
	logger zerolog.Logger
}

func NewCalendarClient(cfg config.ZohoConfig, tokens domain.AccessTokenSource, client *http.Client, logger *zerolog.Logger) *CalendarClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &CalendarClient{
		cfg:    cfg,
		tokens: tokens,
		http:   client,
		logger: logger.With().Str("component", "zoho-calendar").Logger(),
	}
}

// EventsForDay fetches events for one calendar day. The provider wants a
// range parameter of compact dates: range={"start":"YYYYMMDD","end":"YYYYMMDD"}.
// An empty or differently-shaped response normalizes to an empty list rather
// than an error.
func (c *CalendarClient) EventsForDay(ctx context.Context, day time.Time) ([]models.CalendarEvent, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	compact := day.Format("20060102")
	rangeJSON, _ := json.Marshal(map[string]string{"start": compact, "end": compact})

	u := fmt.Sprintf("%s/calendars/%s/events?range=%s",
		c.cfg.APIBaseURL, url.PathEscape(c.cfg.CalendarID), url.QueryEscape(string(rangeJSON)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build events request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch events: %v", domain.ErrUpstreamAPI, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read events response: %v", domain.ErrUpstreamAPI, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error().Int("status", resp.StatusCode).Bytes("body", body).Msg("events request rejected")
		return nil, fmt.Errorf("%w: events request returned %d", domain.ErrUpstreamAPI, resp.StatusCode)
	}

	return normalizeEvents(body), nil
}

// normalizeEvents tolerates the provider's two observed shapes (an object
// with an events array, or a bare array) and anything else collapses to
// empty.
func normalizeEvents(body []byte) []models.CalendarEvent {
	var wrapped struct {
		Events []models.CalendarEvent `json:"events"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Events != nil {
		return wrapped.Events
	}

	var bare []models.CalendarEvent
	if err := json.Unmarshal(body, &bare); err == nil && bare != nil {
		return bare
	}

	return []models.CalendarEvent{}
}

// wireEvent is the JSON the provider expects in the eventdata parameter.
type wireEvent struct {
	Title       string                  `json:"title"`
	DateAndTime models.EventDateAndTime `json:"dateandtime"`
	Attendees   []models.EventAttendee  `json:"attendees"`
	Description string                  `json:"richtext_description"`
	Reminders   []models.EventReminder  `json:"reminders,omitempty"`
}

// CreateEvent creates a calendar event. The provider takes the whole event
// as a URL-encoded JSON query parameter rather than a request body.
func (c *CalendarClient) CreateEvent(ctx context.Context, draft models.EventDraft) (string, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(wireEvent{
		Title: draft.Title,
		DateAndTime: models.EventDateAndTime{
			Timezone: draft.TimeZone,
			Start:    draft.StartUTC,
			End:      draft.EndUTC,
		},
		Attendees:   draft.Attendees,
		Description: draft.Description,
		Reminders:   draft.Reminders,
	})
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	u := fmt.Sprintf("%s/calendars/%s/events?eventdata=%s",
		c.cfg.APIBaseURL, url.PathEscape(c.cfg.CalendarID), url.QueryEscape(string(payload)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return "", fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: create event: %v", domain.ErrUpstreamAPI, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read create response: %v", domain.ErrUpstreamAPI, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error().Int("status", resp.StatusCode).Bytes("body", body).Msg("create event rejected")
		return "", fmt.Errorf("%w: create event returned %d", domain.ErrUpstreamAPI, resp.StatusCode)
	}

	id := extractEventID(body)
	if id == "" {
		c.logger.Warn().Bytes("body", body).Msg("created event but found no id in response")
	}
	return id, nil
}

func extractEventID(body []byte) string {
	var flat struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.ID != "" {
		return flat.ID
	}

	var wrapped struct {
		Events []struct {
			ID  string `json:"id"`
			UID string `json:"uid"`
		} `json:"events"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Events) > 0 {
		if wrapped.Events[0].ID != "" {
			return wrapped.Events[0].ID
		}
		return wrapped.Events[0].UID
	}
	return ""
}

var _ domain.CalendarAPI = (*CalendarClient)(nil)
