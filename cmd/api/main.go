package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bistrobytes/internal/api"
	"bistrobytes/internal/config"
	"bistrobytes/internal/database"
	"bistrobytes/internal/domain"
	"bistrobytes/internal/events"
	"bistrobytes/internal/logging"
	"bistrobytes/internal/metrics"
	"bistrobytes/internal/repository"
	"bistrobytes/internal/schedule"
	"bistrobytes/internal/service"
	"bistrobytes/internal/wizard"
	"bistrobytes/internal/worker"
	"bistrobytes/internal/zoho"
	"bistrobytes/internal/zoom"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()
	logger.Info().Str("path", cfg.Database.Path).Msg("database ready")

	redisClient, sessions := initSessionStore(ctx, cfg, logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	loc, err := time.LoadLocation(cfg.Booking.DefaultTimezone)
	if err != nil {
		return fmt.Errorf("load timezone %s: %w", cfg.Booking.DefaultTimezone, err)
	}

	tokens := zoho.NewRefreshTokenSource(cfg.Zoho, nil)
	calendar := zoho.NewCalendarClient(cfg.Zoho, tokens, nil, logger)
	zoomClient := zoom.NewClient(cfg.Zoom, nil, logger)

	eventBus := events.NewEventBus()
	leadWorker := worker.NewLeadWorker(db, worker.RetryPolicy{}, logger)
	leadWorker.SubscribeTo(eventBus)
	go leadWorker.Run(ctx)

	slots := schedule.SlotConfig{
		StartHour:   cfg.Booking.StartHour,
		EndHour:     cfg.Booking.EndHour,
		SlotMinutes: cfg.Booking.SlotMinutes,
	}
	cacheTTL := time.Duration(cfg.Booking.CacheTTLSeconds) * time.Second
	availability := service.NewAvailabilityService(calendar, slots, loc, redisClient, cacheTTL, logger)

	// meetings stays a nil interface unless the video step is configured
	var meetings domain.MeetingAPI
	if cfg.Zoom.Enabled {
		meetings = zoomClient
	}
	booker := service.NewBookingService(calendar, meetings, cfg.Booking.OwnerList(), cfg.Booking.DefaultTimezone, eventBus, logger)

	machine := wizard.NewMachine(sessions, booker, eventBus, cfg.Booking.DefaultTimezone, cfg.Booking.SlotMinutes, logger)

	if cfg.Monitoring.PrometheusEnabled {
		startMetricsServer(cfg.Monitoring.PrometheusPort, logger)
	}

	server := api.NewHTTPServer(cfg, availability, booker, machine, db, zoomClient, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closer, nil
}

// initSessionStore prefers redis with an in-memory failover; without a
// configured address the wizard runs purely in memory.
func initSessionStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *repository.FailoverSessionRepository) {
	ttl := time.Duration(cfg.Booking.SessionTTLMinutes) * time.Minute
	memory := repository.NewMemorySessionRepository(ttl)

	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, using in-memory sessions")
		return nil, repository.NewFailoverSessionRepository(memory, memory, logger)
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable at startup, failover will cover it")
	}

	primary := repository.NewRedisSessionRepository(client, ttl)
	return client, repository.NewFailoverSessionRepository(primary, memory, logger)
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}
