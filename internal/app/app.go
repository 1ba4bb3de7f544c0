package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/live-scores/external/livescore"
	"github.com/riskibarqy/live-scores/internal/config"
	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/infrastructure/kvstore"
	"github.com/riskibarqy/live-scores/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/live-scores/internal/infrastructure/repository/kv"
	"github.com/riskibarqy/live-scores/internal/interfaces/httpapi"
	"github.com/riskibarqy/live-scores/internal/platform/logging"
	"github.com/riskibarqy/live-scores/internal/platform/pubsub"
	"github.com/riskibarqy/live-scores/internal/platform/resilience"
	"github.com/riskibarqy/live-scores/internal/platform/scheduler"
	"github.com/riskibarqy/live-scores/internal/usecase"
)

const storePingTimeout = 5 * time.Second

// App holds the wired process: the read façade, the pollers and the shared store.
type App struct {
	Server    *http.Server
	Scheduler *scheduler.Scheduler

	cfg      config.Config
	logger   *logging.Logger
	store    kvstore.Store
	hub      *pubsub.Hub
	fixtures *usecase.FixtureIngestionService
	live     *usecase.LiveReconcileService
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	var states match.StateRepository = kv.NewStateRepository(store)
	if cfg.CacheEnabled {
		states = cache.NewStateRepository(states, cfg.CacheTTL)
	}

	hub := pubsub.NewHub(cfg.HubSubscriberBuffer, logger.Named("hub"))
	guard := usecase.NewUpstreamGuard(resilience.NewCircuitBreaker(nil), resilience.CooldownConfig{
		QuotaExceeded: cfg.CooldownQuota,
		Unauthorized:  cfg.CooldownUnauthorized,
		Transient:     cfg.CooldownTransient,
		PayloadShape:  cfg.CooldownPayload,
	}, logger.Named("upstream"))
	gate := livescore.NewQuotaGate(kv.NewQuotaCounter(store), cfg.LiveScoreQuotaPerDay, logger.Named("quota"))

	competitionIDs := livescore.ParseCompetitionIDs(strings.Join(cfg.LiveScoreCompetitionIDs, ","))
	if len(competitionIDs) != len(cfg.LiveScoreCompetitionIDs) {
		logger.Warn("ignored invalid competition ids", "configured", cfg.LiveScoreCompetitionIDs, "used", competitionIDs)
	}

	provider := usecase.NewDisabledProvider()
	if cfg.LiveScoreEnabled {
		provider = livescore.NewClient(livescore.ClientConfig{
			BaseURL:        cfg.LiveScoreBaseURL,
			Key:            cfg.LiveScoreKey,
			Secret:         cfg.LiveScoreSecret,
			CompetitionIDs: competitionIDs,
			Timeout:        cfg.LiveScoreTimeout,
			Gate:           gate,
			Logger:         logger.Named("livescore"),
		})
	}

	standingsSvc := usecase.NewStandingsService(kv.NewStandingsCache(store), provider, guard, logger)
	matchSvc := usecase.NewMatchService(
		states,
		kv.NewKeySetRepository(store),
		standingsSvc,
		hub,
		usecase.MatchServiceConfig{KeepLast: cfg.EventsKeepLast},
		logger,
	)
	liveSvc := usecase.NewLiveReconcileService(matchSvc, provider, guard, logger.Named("live"))
	eventSvc := usecase.NewEventRotationService(
		matchSvc,
		provider,
		guard,
		kv.NewEventDedupRepository(store),
		usecase.EventRotationConfig{Workers: cfg.PollEventsWorkers},
		logger.Named("events"),
	)
	fixtureSvc := usecase.NewFixtureIngestionService(
		matchSvc,
		provider,
		guard,
		usecase.FixtureIngestionConfig{CompetitionIDs: competitionIDs},
		logger.Named("fixtures"),
	)

	sched := scheduler.New(logger.Named("scheduler"))
	if cfg.LiveScoreEnabled {
		if err := registerJobs(sched, cfg, liveSvc, eventSvc, fixtureSvc); err != nil {
			_ = store.Close()
			return nil, err
		}
	} else {
		logger.Info("live score polling disabled", "reason", "LIVESCORE_ENABLED=false")
	}

	handler := httpapi.NewHandler(
		matchSvc,
		standingsSvc,
		hub,
		guard,
		gate,
		httpapi.HandlerConfig{KeepAlive: cfg.StreamKeepAlive},
		logger.Named("http"),
	)
	router := httpapi.NewRouter(handler, logger.Named("http"), cfg.SwaggerEnabled, cfg.CORSAllowedOrigins)

	return &App{
		Server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		Scheduler: sched,
		cfg:       cfg,
		logger:    logger,
		store:     store,
		hub:       hub,
		fixtures:  fixtureSvc,
		live:      liveSvc,
	}, nil
}

func newStore(cfg config.Config) (kvstore.Store, error) {
	if cfg.StoreBackend == config.StoreMemory {
		return kvstore.NewMemoryStore(nil), nil
	}

	client, err := kvstore.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	store := kvstore.NewRedisStore(client)

	ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ping state store: %w", err)
	}
	return store, nil
}

// registerJobs bounds every firing by its interval so a slow tick never overlaps the next.
func registerJobs(
	sched *scheduler.Scheduler,
	cfg config.Config,
	live *usecase.LiveReconcileService,
	events *usecase.EventRotationService,
	fixtures *usecase.FixtureIngestionService,
) error {
	if err := sched.Every("live_reconcile", cfg.PollLiveInterval, cfg.PollLiveInterval, live.Tick); err != nil {
		return err
	}
	if err := sched.Every("event_rotation", cfg.PollEventsInterval, cfg.PollEventsInterval, events.Tick); err != nil {
		return err
	}
	return sched.DailyAt("fixture_ingestion", cfg.PollFixturesAt, 5*time.Minute, fixtures.IngestToday)
}

// Seed loads today's fixtures and one live snapshot so the board is populated before the first tick.
func (a *App) Seed(ctx context.Context) {
	if !a.cfg.StartupSeedEnabled || !a.cfg.LiveScoreEnabled {
		return
	}

	if err := a.fixtures.IngestToday(ctx); err != nil {
		a.logger.WarnContext(ctx, "startup fixture ingestion failed", "error", err)
	}
	if err := a.live.Tick(ctx); err != nil {
		a.logger.WarnContext(ctx, "startup live reconciliation failed", "error", err)
	}
	a.logger.InfoContext(ctx, "startup seed done")
}

// Shutdown ends open streams, drains the server and releases the store.
// Stop the scheduler first so no tick writes to a closed store.
func (a *App) Shutdown(ctx context.Context) error {
	a.hub.Close()
	serverErr := a.Server.Shutdown(ctx)
	if err := a.store.Close(); err != nil {
		a.logger.WarnContext(ctx, "close state store failed", "error", err)
	}
	return serverErr
}
