package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"bistrobytes/internal/metrics"
	"bistrobytes/internal/zoho"
)

// handleZohoAuth trades an authorization code for tokens. Used once during
// setup to obtain the long-lived refresh token.
func (s *HTTPServer) handleZohoAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("auth_zoho")

	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &body); err != nil || strings.TrimSpace(body.Code) == "" {
		writeError(w, http.StatusBadRequest, "Authorization code is required")
		return
	}

	result, err := zoho.ExchangeCode(r.Context(), s.cfg.Zoho, nil, body.Code)
	if err != nil {
		s.logger.Error().Err(err).Msg("zoho code exchange failed")
		metrics.IncUpstreamError("zoho")
		writeFailure(w, http.StatusInternalServerError, "failed to exchange authorization code")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleZoomAuth relays a fresh server-to-server token.
func (s *HTTPServer) handleZoomAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("auth_zoom")

	if s.cfg.Zoom.AccountID == "" || s.cfg.Zoom.ClientID == "" || s.cfg.Zoom.ClientSecret == "" {
		writeFailure(w, http.StatusInternalServerError, "zoom credentials not configured")
		return
	}

	token, err := s.zoomClient.FetchToken(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("zoom token fetch failed")
		metrics.IncUpstreamError("zoom")
		writeFailure(w, http.StatusInternalServerError, "failed to fetch zoom token")
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// handleZoomMeetings relays a create-meeting call with a caller-supplied
// token. Without meetingData a short test meeting an hour from now is
// created.
func (s *HTTPServer) handleZoomMeetings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("zoom_meetings")

	var body struct {
		AccessToken string          `json:"accessToken"`
		MeetingData json.RawMessage `json:"meetingData"`
	}
	if err := decodeJSON(r, &body); err != nil || strings.TrimSpace(body.AccessToken) == "" {
		writeError(w, http.StatusBadRequest, "Access token is required")
		return
	}

	payload := body.MeetingData
	if len(payload) == 0 {
		payload = defaultTestMeeting()
	}

	status, respBody, err := s.zoomClient.CreateMeetingRaw(r.Context(), body.AccessToken, payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("zoom meeting relay failed")
		metrics.IncUpstreamError("zoom")
		writeFailure(w, http.StatusInternalServerError, "failed to create meeting")
		return
	}
	relay(w, status, respBody)
}

// handleZoomMeetingsList relays the configured user's meeting list.
func (s *HTTPServer) handleZoomMeetingsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("zoom_meetings_list")

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decodeJSON(r, &body); err != nil || strings.TrimSpace(body.AccessToken) == "" {
		writeError(w, http.StatusBadRequest, "Access token is required")
		return
	}

	status, respBody, err := s.zoomClient.ListMeetingsRaw(r.Context(), body.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Msg("zoom meeting list relay failed")
		metrics.IncUpstreamError("zoom")
		writeFailure(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}
	relay(w, status, respBody)
}

// relay passes the provider's status and body through untouched.
func relay(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func defaultTestMeeting() json.RawMessage {
	payload := map[string]any{
		"topic":      "Test BistroBytes Meeting",
		"type":       2,
		"start_time": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"duration":   30,
		"settings": map[string]any{
			"host_video":        true,
			"participant_video": true,
			"join_before_host":  true,
		},
	}
	raw, _ := json.Marshal(payload)
	return raw
}
