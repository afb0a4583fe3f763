package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/riskibarqy/last-man-standing/external/sportsdb"
	"github.com/riskibarqy/last-man-standing/internal/config"
	"github.com/riskibarqy/last-man-standing/internal/domain/deadline"
	"github.com/riskibarqy/last-man-standing/internal/domain/pick"
	"github.com/riskibarqy/last-man-standing/internal/domain/team"
	"github.com/riskibarqy/last-man-standing/internal/domain/winner"
	"github.com/riskibarqy/last-man-standing/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/last-man-standing/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/last-man-standing/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/last-man-standing/internal/interfaces/httpapi"
	"github.com/riskibarqy/last-man-standing/internal/platform/cache"
	idgen "github.com/riskibarqy/last-man-standing/internal/platform/id"
	"github.com/riskibarqy/last-man-standing/internal/platform/logging"
	"github.com/riskibarqy/last-man-standing/internal/platform/resilience"
	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

type repositories struct {
	teams     team.Repository
	picks     pick.Repository
	deadlines deadline.Repository
	winners   winner.Repository
	close     func() error
}

// NewHTTPServer wires repositories, services and the HTTP router from config.
// The returned cleanup func releases storage resources and must be called
// after the server has shut down.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	gen := idgen.NewRandomGenerator()

	deadlineSvc := usecase.NewDeadlineService(repos.deadlines, gen, cfg.MaxWeek, nil)
	pickSvc := usecase.NewPickService(repos.teams, repos.picks, repos.winners, deadlineSvc, gen, cfg.MaxWeek, nil)

	var catalog *cache.Store
	if cfg.CacheEnabled {
		catalog = cache.NewStore(cfg.CacheTTL)
	}
	teamSvc := usecase.NewTeamService(repos.teams, catalog)

	var schedule usecase.ScheduleSource
	if cfg.SportsDBEnabled {
		schedule = sportsdb.NewClient(sportsdb.ClientConfig{
			BaseURL:     cfg.SportsDBBaseURL,
			APIKey:      cfg.SportsDBAPIKey,
			LeagueID:    cfg.SportsDBLeagueID,
			Season:      cfg.SportsDBSeason,
			Timeout:     cfg.SportsDBTimeout,
			MaxRetries:  cfg.SportsDBMaxRetries,
			ScanWorkers: cfg.CurrentWeekScanWorkers,
			MaxRound:    cfg.MaxWeek,
			Logger:      logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.SportsDBCircuitEnabled,
				FailureThreshold: cfg.SportsDBCircuitFailureCount,
				OpenTimeout:      cfg.SportsDBCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.SportsDBCircuitHalfOpenMaxReq,
			},
		})
	}

	settlementSvc := usecase.NewSettlementService(
		repos.teams,
		repos.winners,
		repos.deadlines,
		pickSvc,
		deadlineSvc,
		schedule,
		usecase.NewNameResolver(nil),
		gen,
		logger,
		usecase.SettlementOptions{
			DeadlineLead:    cfg.DeadlineLead,
			FallbackDelay:   cfg.DeadlineFallbackDelay,
			FallbackHour:    cfg.DeadlineFallbackHour,
			ScheduleTimeout: cfg.SportsDBTimeout,
			Workers:         cfg.SettlementWorkers,
			MaxWeek:         cfg.MaxWeek,
		},
		nil,
	)

	anubisClient := anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout},
		cfg.AnubisBaseURL,
		cfg.AnubisIntrospectURL,
		cfg.AnubisAdminKey,
		resilience.CircuitBreakerConfig{
			Enabled:          cfg.AnubisCircuitEnabled,
			FailureThreshold: cfg.AnubisCircuitFailureCount,
			OpenTimeout:      cfg.AnubisCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AnubisCircuitHalfOpenMaxReq,
		},
		logger,
	)

	handler := httpapi.NewHandler(teamSvc, pickSvc, deadlineSvc, settlementSvc, logger)
	router := httpapi.NewRouter(handler, anubisClient, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		repos.close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, repos.close, nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		return buildPostgresRepositories(cfg, logger)
	default:
		logger.Info("storage driver", "driver", config.StorageMemory)
		return repositories{
			teams:     memory.NewTeamRepository(memory.SeedTeams()),
			picks:     memory.NewPickRepository(),
			deadlines: memory.NewDeadlineRepository(),
			winners:   memory.NewWinnerRepository(),
			close:     func() error { return nil },
		}, nil
	}
}

func buildPostgresRepositories(cfg config.Config, logger *logging.Logger) (repositories, error) {
	db, err := openPostgres(cfg)
	if err != nil {
		return repositories{}, fmt.Errorf("open postgres: %w", err)
	}

	logger.Info("storage driver",
		"driver", config.StoragePostgres,
		"database", dbNameFromURL(cfg.DBURL),
	)

	teamRepo := postgres.NewTeamRepository(db)
	if err := teamRepo.SeedCatalog(context.Background(), memory.SeedTeams()); err != nil {
		db.Close()
		return repositories{}, fmt.Errorf("seed team catalog: %w", err)
	}

	return repositories{
		teams:     teamRepo,
		picks:     postgres.NewPickRepository(db),
		deadlines: postgres.NewDeadlineRepository(db),
		winners:   postgres.NewWinnerRepository(db),
		close:     db.Close,
	}, nil
}

func openPostgres(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return db, nil
}
