package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"bistrobytes/internal/config"
	"bistrobytes/internal/database"
	"bistrobytes/internal/events"
	"bistrobytes/internal/models"
	"bistrobytes/internal/repository"
	"bistrobytes/internal/schedule"
	"bistrobytes/internal/service"
	"bistrobytes/internal/wizard"
	"bistrobytes/internal/zoho"
	"bistrobytes/internal/zoom"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminKey = "test-admin-key"

type staticTokens string

func (s staticTokens) AccessToken(ctx context.Context) (string, error) {
	return string(s), nil
}

type testEnv struct {
	server   *httptest.Server
	db       *database.DB
	zohoHits *atomic.Int64
	zohoFail *atomic.Bool
	zoomHits *atomic.Int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	env := &testEnv{
		zohoHits: &atomic.Int64{},
		zohoFail: &atomic.Bool{},
		zoomHits: &atomic.Int64{},
	}

	zohoUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.zohoHits.Add(1)
		if env.zohoFail.Load() {
			http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"events":[{"title":"Busy","dateandtime":{"timezone":"America/Chicago","start":"20250602T100000","end":"20250602T103000"}}]}`))
		case http.MethodPost:
			_, _ = w.Write([]byte(`{"events":[{"id":"evt-100"}]}`))
		}
	}))
	t.Cleanup(zohoUpstream.Close)

	zoomUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.zoomHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/oauth/token":
			_, _ = w.Write([]byte(`{"access_token":"ztok","token_type":"bearer","expires_in":3599}`))
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":86412345678,"join_url":"https://zoom.us/j/86412345678","password":"abc123"}`))
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"meetings":[{"id":86412345678}]}`))
		}
	}))
	t.Cleanup(zoomUpstream.Close)

	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Zoho = config.ZohoConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		CalendarID:   "cal-1",
		AccountsURL:  zohoUpstream.URL,
		APIBaseURL:   zohoUpstream.URL,
	}
	cfg.Zoom = config.ZoomConfig{
		Enabled:      true,
		AccountID:    "acc",
		ClientID:     "zcid",
		ClientSecret: "zsecret",
		UserID:       "me",
		AccountsURL:  zoomUpstream.URL,
		APIBaseURL:   zoomUpstream.URL,
	}
	cfg.Booking = config.BookingConfig{
		OwnerEmails:     "owner@bistrobytes.io",
		DefaultTimezone: "America/Chicago",
		StartHour:       9,
		EndHour:         17,
		SlotMinutes:     30,
	}
	cfg.Admin = config.AdminConfig{
		APIKey:    testAdminKey,
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
	}

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	env.db = db

	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	calendar := zoho.NewCalendarClient(cfg.Zoho, staticTokens("tok"), zohoUpstream.Client(), &logger)
	zoomClient := zoom.NewClient(cfg.Zoom, zoomUpstream.Client(), &logger)

	slots := schedule.SlotConfig{StartHour: 9, EndHour: 17, SlotMinutes: 30}
	availability := service.NewAvailabilityService(calendar, slots, loc, nil, time.Minute, &logger)

	bus := events.NewEventBus()
	booker := service.NewBookingService(calendar, zoomClient, cfg.Booking.OwnerList(), "America/Chicago", bus, &logger)

	sessions := repository.NewMemorySessionRepository(time.Hour)
	machine := wizard.NewMachine(sessions, booker, bus, "America/Chicago", 30, &logger)

	srv := NewHTTPServer(cfg, availability, booker, machine, db, zoomClient, &logger)
	env.server = httptest.NewServer(srv.Handler())
	t.Cleanup(env.server.Close)

	return env
}

func (e *testEnv) request(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reqBody)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && json.Valid(raw) {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAvailabilityEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Scenario", func(t *testing.T) {
		resp, body := env.request(t, http.MethodGet, "/availability?date=2025-06-02", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Equal(t, true, body["success"])
		assert.Equal(t, "2025-06-02", body["date"])
		assert.Equal(t, float64(1), body["eventsFound"])

		slots := body["slots"].([]any)
		require.Len(t, slots, 16)

		available, blocked := 0, 0
		for _, raw := range slots {
			slot := raw.(map[string]any)
			if slot["isAvailable"].(bool) {
				available++
			} else {
				blocked++
				assert.Equal(t, "10:00", slot["time"])
			}
		}
		assert.Equal(t, 15, available)
		assert.Equal(t, 1, blocked)
	})

	t.Run("MissingDate", func(t *testing.T) {
		resp, body := env.request(t, http.MethodGet, "/availability", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Date parameter is required (YYYY-MM-DD format)", body["error"])
	})

	t.Run("BadDate", func(t *testing.T) {
		resp, body := env.request(t, http.MethodGet, "/availability?date=06/02/2025", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid date format. Use YYYY-MM-DD", body["error"])
	})

	t.Run("UpstreamFailure", func(t *testing.T) {
		env.zohoFail.Store(true)
		defer env.zohoFail.Store(false)

		resp, body := env.request(t, http.MethodGet, "/availability?date=2025-06-02", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "failed to fetch calendar events", body["error"])
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/availability", nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("Preflight", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodOptions, "/availability", nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestAppointmentsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	validBody := map[string]any{
		"startDateTime":  "2025-06-02T10:00:00-05:00",
		"endDateTime":    "2025-06-02T10:30:00-05:00",
		"customerName":   "Rosa Marino",
		"customerEmail":  "rosa@mamarosa.com",
		"restaurantName": "Mama Rosa",
	}

	t.Run("Success", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/appointments", validBody, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Appointment scheduled successfully", body["message"])
		assert.Equal(t, "evt-100", body["eventId"])
		assert.Equal(t, "86412345678", body["zoomMeetingId"])
		assert.Equal(t, "https://zoom.us/j/86412345678", body["zoomJoinUrl"])
	})

	t.Run("MissingFields", func(t *testing.T) {
		zohoBefore := env.zohoHits.Load()
		zoomBefore := env.zoomHits.Load()

		resp, body := env.request(t, http.MethodPost, "/appointments", map[string]any{
			"startDateTime": "2025-06-02T10:00:00-05:00",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "missing required fields", body["error"])

		// Validation failures never hit the providers.
		assert.Equal(t, zohoBefore, env.zohoHits.Load())
		assert.Equal(t, zoomBefore, env.zoomHits.Load())
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, env.server.URL+"/appointments", bytes.NewReader([]byte("{broken")))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("CalendarFailure", func(t *testing.T) {
		env.zohoFail.Store(true)
		defer env.zohoFail.Store(false)

		resp, body := env.request(t, http.MethodPost, "/appointments", validBody, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "failed to create calendar event", body["error"])
	})
}

func TestAuxEndpoints(t *testing.T) {
	env := newTestEnv(t)

	t.Run("ZohoAuthMissingCode", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/auth/zoho", map[string]any{}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Authorization code is required", body["error"])
	})

	t.Run("ZoomAuth", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/auth/zoom", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ztok", body["access_token"])
	})

	t.Run("ZoomMeetingsMissingToken", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/zoom/meetings", map[string]any{}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Access token is required", body["error"])
	})

	t.Run("ZoomMeetingsRelay", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/zoom/meetings", map[string]any{
			"accessToken": "caller-tok",
		}, nil)
		// Provider status is passed through untouched.
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, float64(86412345678), body["id"])
	})

	t.Run("ZoomMeetingsList", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/zoom/meetings/list", map[string]any{
			"accessToken": "caller-tok",
		}, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotNil(t, body["meetings"])
	})
}

func nextWeekday(t *testing.T) string {
	t.Helper()
	day := time.Now().AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return day.Format("2006-01-02")
}

func TestWizardFlow(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodPost, "/wizard", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "start", body["step"])

	advance := func(payload any) (*http.Response, map[string]any) {
		return env.request(t, http.MethodPost, "/wizard/"+id+"/advance", payload, nil)
	}

	resp, body = advance(nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "contact", body["step"])

	// Contact validation failure keeps the step.
	resp, body = advance(map[string]any{"restaurantName": "Mama Rosa"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = advance(map[string]any{
		"restaurantName": "Mama Rosa",
		"ownerName":      "Rosa Marino",
		"email":          "rosa@mamarosa.com",
		"phone":          "(312) 555-0142",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "questionnaire", body["step"])

	resp, body = advance(map[string]any{
		"interests":        []string{"online_ordering"},
		"currentSolution":  "phone orders",
		"locations":        "2",
		"biggestChallenge": "missed calls",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "calendar", body["step"])

	// Weekend date is rejected at the calendar step.
	resp, _ = advance(map[string]any{"date": "2030-06-01", "time": "10:00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = advance(map[string]any{"date": nextWeekday(t), "time": "10:00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["step"])
	assert.Equal(t, "evt-100", body["event_id"])
	assert.Equal(t, "86412345678", body["meeting_id"])

	// Session is still readable, then closed.
	resp, _ = env.request(t, http.MethodGet, "/wizard/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.request(t, http.MethodDelete, "/wizard/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.request(t, http.MethodGet, "/wizard/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWizardUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodGet, "/wizard/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.request(t, http.MethodPost, "/wizard/nope/advance", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.db.SaveLead(ctx, &models.Lead{
		ID:             "lead-1",
		RestaurantName: "Mama Rosa",
		OwnerName:      "Rosa Marino",
		Email:          "rosa@mamarosa.com",
	}))

	adminHeaders := map[string]string{"X-API-Key": testAdminKey}

	t.Run("MissingKey", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodGet, "/admin/leads", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("WrongKey", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodGet, "/admin/leads", nil, map[string]string{"X-API-Key": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("ListLeads", func(t *testing.T) {
		resp, body := env.request(t, http.MethodGet, "/admin/leads", nil, adminHeaders)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		leads := body["leads"].([]any)
		require.Len(t, leads, 1)
		lead := leads[0].(map[string]any)
		assert.Equal(t, "Mama Rosa", lead["restaurant_name"])
	})

	t.Run("Export", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/admin/leads/export", nil)
		require.NoError(t, err)
		req.Header.Set("X-API-Key", testAdminKey)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.NotEmpty(t, raw)
	})
}

func TestAdminRateLimit(t *testing.T) {
	// A standalone auth wrapper with a tight limit exercises 429.
	auth := NewAdminAuth(config.AdminConfig{
		APIKey:    testAdminKey,
		RateLimit: config.RateLimitConfig{RPS: 1, Burst: 1},
	})
	handler := auth.Wrap(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"ok": "true"})
	})

	srv := httptest.NewServer(handler)
	defer srv.Close()

	statuses := map[int]int{}
	for i := 0; i < 5; i++ {
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		req.Header.Set("X-API-Key", testAdminKey)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		statuses[resp.StatusCode]++
	}

	assert.NotZero(t, statuses[http.StatusOK])
	assert.NotZero(t, statuses[http.StatusTooManyRequests])
}
