package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"waitlistlottery/config"
	_ "waitlistlottery/docs"
	"waitlistlottery/internal/adapters/auth"
	httpdelivery "waitlistlottery/internal/delivery/http"
	"waitlistlottery/internal/delivery/http/controllers"
	"waitlistlottery/internal/delivery/http/middleware"
	"waitlistlottery/internal/domain"
	"waitlistlottery/internal/repository/memory"
	"waitlistlottery/internal/repository/postgres"
	"waitlistlottery/internal/services"
)

const shutdownTimeout = 15 * time.Second

// @title Waitlist Lottery API
// @version 1.0
// @description Waiting list, lottery draw and pool replacement for events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(os.Stdout, cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

type stores struct {
	events domain.EventRepository
	status domain.StatusStore
	close  func() error
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	seeds := make([]domain.Event, 0, len(cfg.SeedEvents))
	for _, s := range cfg.SeedEvents {
		seeds = append(seeds, domain.Event{ID: s.ID, OrganizerID: s.OrganizerID, EntrantLimit: s.EntrantLimit})
	}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		if err := postgres.SeedEvents(ctx, db, seeds); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed events: %w", err)
		}
		logger.Info("using postgres store", "seeded_events", len(seeds))
		return &stores{
			events: postgres.NewEventRepository(db),
			status: postgres.NewStatusStore(db),
			close:  db.Close,
		}, nil
	default:
		mem := memory.NewStore()
		for i := range seeds {
			mem.PutEvent(&seeds[i])
		}
		logger.Warn("using in-memory store, state is lost on restart", "seeded_events", len(seeds))
		return &stores{events: mem, status: mem, close: func() error { return nil }}, nil
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	eventService := services.NewEventService(st.events, cfg.RequestTimeout)
	entrantService := services.NewEntrantService(st.events, eventService, st.status, logger, cfg.RequestTimeout)
	lotteryService := services.NewSingleFlightLottery(services.NewLotteryService(st.status, logger, services.LotteryOptions{
		RanCheck:             cfg.RanCheck,
		ZeroLimitIsUnlimited: cfg.PoolZeroLimitUnlimited,
		Timeout:              cfg.LotteryTimeout,
	}))

	verifier := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	router := httpdelivery.NewRouter(
		controllers.NewLotteryController(logger, lotteryService, eventService),
		controllers.NewEntrantController(logger, entrantService, eventService),
		controllers.NewEventController(logger, eventService),
		middleware.RequireAuth(verifier, logger),
	)

	var handler http.Handler = router
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.RequestID(handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment, "store", cfg.StoreDriver, "ran_check", cfg.RanCheck)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
