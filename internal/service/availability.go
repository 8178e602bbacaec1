package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"bistrobytes/internal/domain"
	"bistrobytes/internal/metrics"
	"bistrobytes/internal/models"
	"bistrobytes/internal/schedule"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Caller-visible failures. Upstream detail stays in the logs.
var (
	ErrFetchEvents   = errors.New("failed to fetch calendar events")
	ErrCreateMeeting = errors.New("failed to create meeting")
	ErrCreateEvent   = errors.New("failed to create calendar event")
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// AvailabilityService answers "which half-hour slots are free on this date".
// Each call is an independent, stateless request cycle; the optional redis
// cache only short-circuits identical queries inside a small TTL.
type AvailabilityService struct {
	calendar domain.CalendarAPI
	slots    schedule.SlotConfig
	loc      *time.Location
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

func NewAvailabilityService(calendar domain.CalendarAPI, slots schedule.SlotConfig, loc *time.Location, cache *redis.Client, cacheTTL time.Duration, logger *zerolog.Logger) *AvailabilityService {
	if loc == nil {
		loc = time.Local
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &AvailabilityService{
		calendar: calendar,
		slots:    slots,
		loc:      loc,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "availability").Logger(),
	}
}

// ForDate validates the date string, pulls the day's events, and overlays
// them on the slot grid. Token failures and fetch failures are deliberately
// indistinguishable to the caller.
func (s *AvailabilityService) ForDate(ctx context.Context, dateStr string) (*models.AvailabilityResponse, error) {
	if !datePattern.MatchString(dateStr) {
		return nil, fmt.Errorf("%w: invalid date format, expected YYYY-MM-DD", domain.ErrValidation)
	}

	day, err := time.ParseInLocation("2006-01-02", dateStr, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date format, expected YYYY-MM-DD", domain.ErrValidation)
	}

	metrics.IncAvailabilityRequest()

	if cached := s.cacheGet(ctx, dateStr); cached != nil {
		return cached, nil
	}

	events, err := s.calendar.EventsForDay(ctx, day)
	if err != nil {
		s.logger.Error().Err(err).Str("date", dateStr).Msg("event fetch failed")
		metrics.IncUpstreamError("zoho")
		return nil, ErrFetchEvents
	}

	slots := schedule.Filter(schedule.Slots(s.slots), events, day, s.slots, s.loc, &s.logger)

	resp := &models.AvailabilityResponse{
		Success:     true,
		Date:        dateStr,
		Slots:       slots,
		EventsFound: len(events),
	}
	s.cacheSet(ctx, dateStr, resp)

	s.logger.Debug().Str("date", dateStr).Int("events", len(events)).Msg("availability computed")
	return resp, nil
}

func (s *AvailabilityService) cacheGet(ctx context.Context, dateStr string) *models.AvailabilityResponse {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, cacheKey(dateStr)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("availability cache read failed")
		}
		return nil
	}
	var resp models.AvailabilityResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *AvailabilityService) cacheSet(ctx context.Context, dateStr string, resp *models.AvailabilityResponse) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(dateStr), data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("availability cache write failed")
	}
}

func cacheKey(dateStr string) string {
	return "availability:" + dateStr
}
