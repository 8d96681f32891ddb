package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/walletledger/internal/adapter/http"
	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/walletledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/walletledger/internal/adapter/repository/redis"
	"github.com/iho/walletledger/internal/infrastructure/auth"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/eventpublisher"
	"github.com/iho/walletledger/internal/infrastructure/logger"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/infrastructure/redis"
	"github.com/iho/walletledger/internal/infrastructure/sweeper"
	"github.com/iho/walletledger/internal/usecase"
)

// limiterIdleTimeout is how long an idle client keeps its rate limiter.
const limiterIdleTimeout = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.SetGlobal(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	wg := a.startWorkers(workerCtx)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	cancelWorkers()
	wg.Wait()

	return nil
}

// app is the wired server: the HTTP handler, background workers and the
// resources to release on exit.
type app struct {
	handler http.Handler
	workers map[string]func(ctx context.Context) error
	closers []func()
}

func (a *app) startWorkers(ctx context.Context) *sync.WaitGroup {
	var wg sync.WaitGroup
	for name, worker := range a.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("worker", name).Msg("worker stopped")
			}
		}()
	}
	return &wg
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{workers: make(map[string]func(ctx context.Context) error)}
	appLogger := log.Logger.With().Str("service", "walletledger").Logger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewWithRegisterer(reg)

	deps := usecase.Deps{
		IDGen:   postgresRepo.NewULIDGenerator(),
		RefGen:  postgresRepo.NewReferenceGenerator(),
		Retrier: postgresRepo.NewRetrier().WithLogger(appLogger),
		Metrics: m,
		Logger:  &appLogger,
	}

	var (
		checks []handler.HealthCheck
		outbox usecase.OutboxRepository
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memory.NewStore()
		deps.TxManager = store
		deps.Wallets = memory.NewWalletRepository(store)
		deps.Entries = memory.NewEntryRepository(store)
		deps.Holds = memory.NewHoldRepository(store)
		deps.Withdrawals = memory.NewWithdrawalRepository(store)
		deps.Audit = memory.NewAuditRepository(store)
		deps.Notifier = eventpublisher.NewLogNotifier(appLogger)
		checks = append(checks, handler.HealthCheck{Name: "memory", Check: store.Ping})
		log.Warn().Msg("using in-memory storage; data is lost on restart")

	default:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		log.Info().Msg("connected to postgres")

		deps.TxManager = postgresRepo.NewTxManager(pool, cfg.DatabaseLockTimeout)
		deps.Wallets = postgresRepo.NewWalletRepository(pool)
		deps.Entries = postgresRepo.NewEntryRepository(pool)
		deps.Holds = postgresRepo.NewHoldRepository(pool)
		deps.Withdrawals = postgresRepo.NewWithdrawalRepository(pool)
		deps.Audit = postgresRepo.NewAuditRepository(pool)
		outbox = postgresRepo.NewOutboxRepository(pool)
		deps.Notifier = eventpublisher.NewOutboxNotifier(outbox, deps.IDGen)
		checks = append(checks, handler.HealthCheck{Name: "postgres", Check: pool.Ping})
	}

	var (
		idempotency usecase.IdempotencyStore
		publisher   eventpublisher.Publisher = eventpublisher.NewLogPublisher(&appLogger)
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		log.Info().Msg("connected to redis")

		deps.Cache = redisRepo.NewCache(client)
		idempotency = redisRepo.NewIdempotencyStore(client)
		publisher = redisRepo.NewPublisher(client, cfg.NotifyChannel)
		checks = append(checks, handler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redis.Ping(ctx, client) },
		})
	}

	// Use cases
	walletUC := usecase.NewWalletUseCase(deps)
	holdUC := usecase.NewHoldUseCase(deps)
	withdrawalUC := usecase.NewWithdrawalUseCase(deps)
	queryUC := usecase.NewQueryUseCase(deps)
	reconUC := usecase.NewReconciliationUseCase(deps)

	// Background workers
	holdSweeper := sweeper.New(sweeper.Config{
		Holds:    holdUC,
		Logger:   &appLogger,
		Interval: cfg.HoldSweepInterval,
	})
	a.workers["hold_sweeper"] = holdSweeper.Start

	if outbox != nil {
		relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outbox,
			Publisher:  publisher,
			Logger:     &appLogger,
			Metrics:    m,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		})
		a.workers["event_publisher"] = relay.Start
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithHits(m.RateLimitHits)
		a.workers["rate_limiter_cleanup"] = func(ctx context.Context) error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					rateLimiter.CleanupLimiters(limiterIdleTimeout)
				}
			}
		}
	}

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	} else {
		log.Warn().Msg("authentication disabled; actor headers are trusted")
	}

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:         handler.NewWalletHandler(walletUC, queryUC),
		EntryHandler:          handler.NewEntryHandler(walletUC, queryUC),
		HoldHandler:           handler.NewHoldHandler(holdUC),
		WithdrawalHandler:     handler.NewWithdrawalHandler(withdrawalUC, queryUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconUC),
		HealthHandler:         handler.NewHealthHandler(checks...),
		MetricsHandler:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		HTTPMetrics:           middleware.NewHTTPMetrics(reg),
		IdempotencyStore:      idempotency,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           rateLimiter,
		JWTManager:            jwtManager,
		Logger:                &appLogger,
	})

	return a, nil
}
