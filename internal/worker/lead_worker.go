package worker

import (
	"context"
	"encoding/json"
	"time"

	"bistrobytes/internal/domain"
	"bistrobytes/internal/events"
	"bistrobytes/internal/metrics"
	"bistrobytes/internal/models"

	"github.com/rs/zerolog"
)

// LeadWorker drains captured leads off the event bus and persists them,
// retrying with backoff so a slow or briefly unavailable store never blocks
// the wizard's success path.
type LeadWorker struct {
	store       domain.LeadStore
	retryPolicy RetryPolicy
	queue       chan models.Lead
	logger      zerolog.Logger
}

// NewLeadWorker builds a worker with sane defaults.
func NewLeadWorker(store domain.LeadStore, retry RetryPolicy, logger *zerolog.Logger) *LeadWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 30 * time.Second
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &LeadWorker{
		store:       store,
		retryPolicy: retry,
		queue:       make(chan models.Lead, 128),
		logger:      logger.With().Str("component", "lead_worker").Logger(),
	}
}

// SubscribeTo wires the worker to the bus. The handler only enqueues, so
// publishers never wait on the database.
func (w *LeadWorker) SubscribeTo(bus *events.EventBus) {
	bus.Subscribe(events.EventLeadCaptured, func(event *events.Event) error {
		var payload events.LeadEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			w.logger.Error().Err(err).Msg("decode lead payload failed")
			return err
		}
		w.Enqueue(leadFromPayload(payload, event.CreatedAt))
		return nil
	})
}

// Enqueue schedules a lead for persistence. A full queue drops the lead
// rather than blocking the caller.
func (w *LeadWorker) Enqueue(lead models.Lead) {
	select {
	case w.queue <- lead:
	default:
		w.logger.Error().Str("lead_id", lead.ID).Msg("lead queue full, lead dropped")
		metrics.IncLeadSaved("dropped")
	}
}

// Run drains the queue until ctx is done.
func (w *LeadWorker) Run(ctx context.Context) {
	w.logger.Info().Msg("lead worker started")
	defer w.logger.Info().Msg("lead worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case lead := <-w.queue:
			w.persist(ctx, &lead)
		}
	}
}

func (w *LeadWorker) persist(ctx context.Context, lead *models.Lead) {
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		err := w.store.SaveLead(ctx, lead)
		if err == nil {
			metrics.IncLeadSaved("saved")
			w.logger.Info().Str("lead_id", lead.ID).Msg("lead saved")
			return
		}

		w.logger.Warn().Err(err).
			Str("lead_id", lead.ID).
			Int("attempt", attempt).
			Msg("lead save failed")

		if attempt == w.retryPolicy.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempt)):
		}
	}

	metrics.IncLeadSaved("failed")
	w.logger.Error().Str("lead_id", lead.ID).Msg("lead save gave up")
}

func leadFromPayload(payload events.LeadEventPayload, createdAt time.Time) models.Lead {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return models.Lead{
		ID:               payload.LeadID,
		RestaurantName:   payload.RestaurantName,
		OwnerName:        payload.OwnerName,
		Email:            payload.Email,
		Phone:            payload.Phone,
		Interests:        payload.Interests,
		CurrentSolution:  payload.CurrentSolution,
		Locations:        payload.Locations,
		BiggestChallenge: payload.BiggestChallenge,
		EventID:          payload.EventID,
		ZoomMeetingID:    payload.ZoomMeetingID,
		CreatedAt:        createdAt,
	}
}
