package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/partyledger/internal/adapter/http"
	"github.com/iho/partyledger/internal/adapter/http/handler"
	"github.com/iho/partyledger/internal/adapter/http/middleware"
	"github.com/iho/partyledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/partyledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/partyledger/internal/adapter/repository/redis"
	"github.com/iho/partyledger/internal/adapter/repository/sqlite"
	"github.com/iho/partyledger/internal/infrastructure/auth"
	"github.com/iho/partyledger/internal/infrastructure/config"
	"github.com/iho/partyledger/internal/infrastructure/eventpublisher"
	"github.com/iho/partyledger/internal/infrastructure/idgen"
	"github.com/iho/partyledger/internal/infrastructure/logger"
	"github.com/iho/partyledger/internal/infrastructure/metrics"
	"github.com/iho/partyledger/internal/infrastructure/postgres"
	"github.com/iho/partyledger/internal/infrastructure/redis"
	"github.com/iho/partyledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// store bundles the repositories of one storage driver.
type store struct {
	txManager usecase.TransactionManager
	parties   usecase.PartyRepository
	txRepo    usecase.LedgerTransactionRepository
	retrier   usecase.Retrier
	pinger    handler.Pinger
	close     func()
}

// openStore connects the driver named by cfg.StoreDriver.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log).Up(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		return &store{
			txManager: postgresRepo.NewTxManager(pool),
			parties:   postgresRepo.NewPartyRepository(pool),
			txRepo:    postgresRepo.NewTransactionRepository(),
			retrier:   postgresRepo.NewRetrier(log),
			pinger:    pool,
			close:     pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite store")

		return &store{
			txManager: sqlite.NewTxManager(db),
			parties:   sqlite.NewPartyRepository(db),
			txRepo:    sqlite.NewTransactionRepository(db),
			pinger:    db,
			close:     func() { _ = db.Close() },
		}, nil

	case config.DriverMemory:
		mem := memory.NewStore()
		log.Warn().Msg("using in-memory store, data is lost on restart")

		return &store{
			txManager: memory.NewTxManager(mem),
			parties:   memory.NewPartyRepository(mem),
			txRepo:    memory.NewTransactionRepository(mem),
			close:     func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// app is everything run needs after wiring.
type app struct {
	router     http.Handler
	dispatcher *eventpublisher.Dispatcher
	limiter    *middleware.RateLimiter
	close      func()
}

// build wires storage, Redis, use cases and the router. Redis is optional:
// without it there is no idempotency, no stats cache and events are only logged.
func build(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*app, error) {
	m := metrics.New(reg)

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	redisClient, err := redis.NewOptionalClient(ctx, cfg.RedisURL)
	if err != nil {
		st.close()
		return nil, err
	}

	var (
		cache       usecase.Cache
		idempotency usecase.IdempotencyStore
		publisher   eventpublisher.Publisher = eventpublisher.NewLogPublisher(log)
		redisPinger handler.Pinger
	)
	if redisClient != nil {
		log.Info().Msg("connected to redis")
		cache = redisRepo.NewCache(redisClient)
		idempotency = redisRepo.NewIdempotencyStore(redisClient)
		publisher = redisRepo.NewEventPublisher(redisClient, cfg.EventsChannel)
		redisPinger = pingRedis(redisClient)
	}

	dispatcher := eventpublisher.NewDispatcher(eventpublisher.Config{
		Publisher: publisher,
		Logger:    log,
		Metrics:   m,
	})

	idGen := idgen.NewULIDGenerator()

	// Initialize use cases
	partyUC := usecase.NewPartyUseCase(st.parties, idGen, dispatcher, cache, m, log)
	if st.retrier != nil {
		partyUC.WithRetrier(st.retrier)
	}
	paymentUC := usecase.NewPaymentUseCase(st.txManager, st.parties, st.txRepo, idGen, st.retrier, dispatcher, cache, m, log)
	transactionUC := usecase.NewTransactionUseCase(st.txManager, st.parties, st.txRepo, idGen, st.retrier, dispatcher, cache, m, log)
	ledgerUC := usecase.NewLedgerUseCase(st.parties, m, log)
	statsUC := usecase.NewStatsUseCase(st.parties, cache, cfg.StatsCacheTTL, m, log)
	reconciliationUC := usecase.NewReconciliationUseCase(st.parties, m, log)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		PartyHandler:          handler.NewPartyHandler(partyUC),
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC),
		StatsHandler:          handler.NewStatsHandler(statsUC),
		PaymentHandler:        handler.NewPaymentHandler(paymentUC),
		TransactionHandler:    handler.NewTransactionHandler(transactionUC, partyUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		HealthHandler:         handler.NewHealthHandler(st.pinger, redisPinger),
		Logger:                log,
		Metrics:               m,
		MetricsHandler:        promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		IdempotencyStore:      idempotency,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           limiter,
		JWTManager:            jwtManager,
		AllowedOrigins:        cfg.CORSAllowedOrigins,
	})

	return &app{
		router:     router,
		dispatcher: dispatcher,
		limiter:    limiter,
		close: func() {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			st.close()
		},
	}, nil
}

func pingRedis(client *goredis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// run serves HTTP until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a, err := build(ctx, cfg, log, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	defer a.close()

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		_ = a.dispatcher.Start(dispatchCtx)
	}()

	stopCleanup := make(chan struct{})
	if a.limiter != nil {
		go a.limiter.RunCleanup(time.Minute, 10*time.Minute, stopCleanup)
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stopDispatch()
			<-dispatchDone
			close(stopCleanup)
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)

	// Stop accepting events only after in-flight requests are done.
	close(stopCleanup)
	stopDispatch()
	<-dispatchDone

	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
