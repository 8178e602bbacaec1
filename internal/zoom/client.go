package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bistrobytes/internal/config"
	"bistrobytes/internal/domain"
	"bistrobytes/internal/models"

	"github.com/rs/zerolog"
)

// Client talks to the Zoom REST API using the server-to-server OAuth app.
// The account_credentials grant is Zoom-specific, so the token fetch is a
// plain form POST rather than an oauth2 token source.
type Client struct {
	cfg    config.ZoomConfig
	http   *http.Client
	logger zerolog.Logger
}

func NewClient(cfg config.ZoomConfig, client *http.Client, logger *zerolog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		cfg:    cfg,
		http:   client,
		logger: logger.With().Str("component", "zoom").Logger(),
	}
}

// TokenResponse is the raw provider token payload, relayed verbatim by the
// pass-through /auth/zoom endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// AccessToken fetches a fresh server-to-server token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	tok, err := c.FetchToken(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (c *Client) FetchToken(ctx context.Context) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", c.cfg.AccountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.AccountsURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch zoom token: %v", domain.ErrUpstreamAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read token response: %v", domain.ErrUpstreamAuth, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Bytes("body", body).Msg("token request rejected")
		return nil, fmt.Errorf("%w: token request returned %d", domain.ErrUpstreamAuth, resp.StatusCode)
	}

	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %v", domain.ErrUpstreamAuth, err)
	}
	return &tok, nil
}

// meetingPayload follows the create-meeting API; type 2 is a scheduled
// meeting.
type meetingPayload struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime string          `json:"start_time"`
	Duration  int             `json:"duration"`
	Timezone  string          `json:"timezone,omitempty"`
	Agenda    string          `json:"agenda,omitempty"`
	Password  string          `json:"password,omitempty"`
	Settings  meetingSettings `json:"settings"`
}

type meetingSettings struct {
	HostVideo        bool `json:"host_video"`
	ParticipantVideo bool `json:"participant_video"`
	JoinBeforeHost   bool `json:"join_before_host"`
}

type meetingResponse struct {
	ID       int64  `json:"id"`
	JoinURL  string `json:"join_url"`
	Password string `json:"password"`
}

// CreateMeeting acquires its own token and schedules the meeting for the
// configured user.
func (c *Client) CreateMeeting(ctx context.Context, draft models.MeetingDraft) (*models.MeetingInfo, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := meetingPayload{
		Topic:     draft.Topic,
		Type:      2,
		StartTime: draft.StartTime.UTC().Format(time.RFC3339),
		Duration:  draft.DurationMinutes,
		Timezone:  draft.Timezone,
		Agenda:    draft.Agenda,
		Password:  draft.Passcode,
		Settings: meetingSettings{
			HostVideo:        true,
			ParticipantVideo: true,
			JoinBeforeHost:   true,
		},
	}

	status, body, err := c.doJSON(ctx, http.MethodPost, c.meetingsURL(), token, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: create meeting: %v", domain.ErrUpstreamAPI, err)
	}
	if status < 200 || status >= 300 {
		c.logger.Error().Int("status", status).Bytes("body", body).Msg("create meeting rejected")
		return nil, fmt.Errorf("%w: create meeting returned %d", domain.ErrUpstreamAPI, status)
	}

	var mr meetingResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return nil, fmt.Errorf("%w: decode meeting response: %v", domain.ErrUpstreamAPI, err)
	}

	return &models.MeetingInfo{
		ID:       strconv.FormatInt(mr.ID, 10),
		JoinURL:  mr.JoinURL,
		Passcode: mr.Password,
	}, nil
}

// CreateMeetingRaw relays a caller-supplied meeting payload with a
// caller-supplied token, passing the provider's status and body through
// untouched. Used by the auxiliary endpoints only.
func (c *Client) CreateMeetingRaw(ctx context.Context, accessToken string, payload json.RawMessage) (int, []byte, error) {
	return c.doJSON(ctx, http.MethodPost, c.meetingsURL(), accessToken, payload)
}

// ListMeetingsRaw relays the user's meeting list the same way.
func (c *Client) ListMeetingsRaw(ctx context.Context, accessToken string) (int, []byte, error) {
	return c.doJSON(ctx, http.MethodGet, c.meetingsURL(), accessToken, nil)
}

func (c *Client) meetingsURL() string {
	return fmt.Sprintf("%s/users/%s/meetings", c.cfg.APIBaseURL, url.PathEscape(c.cfg.UserID))
}

func (c *Client) doJSON(ctx context.Context, method, u, token string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

var _ domain.MeetingAPI = (*Client)(nil)
