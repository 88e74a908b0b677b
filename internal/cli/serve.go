package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"gridpool-service/internal/app"
	"gridpool-service/internal/config"
	"gridpool-service/internal/domain"
	"gridpool-service/internal/infra/memory"
	pgstore "gridpool-service/internal/infra/postgres"
	redisinfra "gridpool-service/internal/infra/redis"
	transport "gridpool-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the prediction league server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores is the full set of persistence interfaces the services need;
// both the memory and the Postgres store satisfy it.
type stores interface {
	app.EventStore
	app.PredictionStore
	app.ResultStore
	app.TenantStore
	app.StandingStore
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var store stores = seededMemoryStore()
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		store = pgstore.NewStore(db, pgstore.NewCatalogLoader(pool))
	}

	lifecycle := app.NewLifecycle(store, store)
	standings := app.NewStandings(store, store)
	notifier := app.NewStandingsNotifier()
	scoring := app.NewScoring(store, store, store, store, store, standings).WithNotifier(notifier)

	var boards transport.LeaderboardReader = standings
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cacheTTL := config.TTLDuration(cfg.Standings.CacheTTL, 10*time.Minute)
		cache := redisinfra.NewStandingsCache(redisClient, standings, cacheTTL)
		scoring.WithCacheInvalidator(cache)
		boards = cache
	}

	wsHandler := transport.NewWSHandler(notifier, boards)
	handler := transport.NewHandler(lifecycle, scoring, standings, boards, wsHandler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting gridpool service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seededMemoryStore provides a small demo calendar for running without a
// database; swap in Postgres for production.
func seededMemoryStore() *memory.Store {
	store := memory.NewStore()
	now := time.Now()

	store.SeedEvent(domain.Event{
		ID:       "gp-1",
		Season:   "2026",
		Round:    1,
		Name:     "Season Opener",
		Status:   domain.StatusCreated,
		Deadline: now.Add(48 * time.Hour),
		RaceAt:   now.Add(50 * time.Hour),
	})
	store.SeedQuestion(domain.EventQuestion{
		ID: "q-pole", EventID: "gp-1", Type: domain.QuestionDriverPick,
		Text: "Who takes pole position?", Points: 10, Category: "qualifying", Position: 1,
		Options: domain.OptionSpec{Kind: domain.OptionsRoster, Roster: "drivers"},
	})
	store.SeedQuestion(domain.EventQuestion{
		ID: "q-safety-car", EventID: "gp-1", Type: domain.QuestionBoolean,
		Text: "Safety car during the race?", Points: 5, Category: "race", Position: 2,
		Options: domain.OptionSpec{Kind: domain.OptionsBoolean},
	})
	store.SeedQuestion(domain.EventQuestion{
		ID: "q-finishers", EventID: "gp-1", Type: domain.QuestionNumeric,
		Text: "How many cars finish?", Points: 8, Category: "race", Position: 3,
		Options: domain.OptionSpec{Kind: domain.OptionsCustom, Values: []string{"<16", "16", "17", "18", "19", "20"}},
	})
	store.SeedTenantSeason(domain.TenantSeason{
		ID: "demo-league", Tenant: "Demo League", Season: "2026",
		Members: []domain.Member{
			{UserID: "u1", JoinedAt: now.Add(-72 * time.Hour)},
			{UserID: "u2", JoinedAt: now.Add(-48 * time.Hour)},
		},
	})
	return store
}
