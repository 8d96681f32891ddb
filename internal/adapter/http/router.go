package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/auth"
	"github.com/iho/walletledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler         *handler.WalletHandler
	EntryHandler          *handler.EntryHandler
	HoldHandler           *handler.HoldHandler
	WithdrawalHandler     *handler.WithdrawalHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	HTTPMetrics    *middleware.HTTPMetrics

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	// JWTManager enables bearer auth. Without it the actor headers are trusted.
	JWTManager *auth.JWTManager
	Logger     *zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(*cfg.Logger).Wrap)
	}
	r.Use(middleware.Recovery)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		} else {
			r.Use(middleware.HeaderActor)
		}
		r.Use(middleware.RequireActor)

		// Limits are keyed by actor, so they run after authentication.
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		// Wallets
		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", cfg.WalletHandler.Create)
			r.Get("/", cfg.WalletHandler.List)
			r.Get("/{id}", cfg.WalletHandler.Get)
			r.Put("/{id}/active", cfg.WalletHandler.SetActive)
			r.Get("/{id}/balance", cfg.WalletHandler.Balance)
			r.Get("/{id}/balance/at", cfg.WalletHandler.BalanceAt)
			r.Get("/{id}/can-withdraw", cfg.WalletHandler.CanWithdraw)
			r.Get("/{id}/entries", cfg.EntryHandler.List)
			r.Get("/{id}/holds", cfg.HoldHandler.ListByWallet)
			r.Get("/{id}/withdrawals", cfg.WithdrawalHandler.List)
		})
		r.Get("/owners/{ownerID}/wallet", cfg.WalletHandler.GetByOwner)

		// Ledger entries
		r.Route("/entries", func(r chi.Router) {
			r.Post("/", cfg.EntryHandler.Apply)
			r.Get("/", cfg.EntryHandler.List)
			r.Post("/{id}/settle", cfg.EntryHandler.Settle)
		})

		// Holds
		r.Route("/holds", func(r chi.Router) {
			r.Post("/", cfg.HoldHandler.Place)
			r.Get("/{id}", cfg.HoldHandler.Get)
			r.Post("/{id}/release", cfg.HoldHandler.Release)
			r.Post("/{id}/cancel", cfg.HoldHandler.Cancel)
			r.Post("/{id}/capture", cfg.HoldHandler.Capture)
		})

		// Withdrawals
		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", cfg.WithdrawalHandler.Request)
			r.Get("/", cfg.WithdrawalHandler.List)
			r.Get("/{id}", cfg.WithdrawalHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Post("/{id}/complete", cfg.WithdrawalHandler.Complete)
				r.Post("/{id}/reject", cfg.WithdrawalHandler.Reject)
			})
		})

		// Reconciliation
		r.Route("/reconciliation", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleSystem))
			r.Get("/", cfg.ReconciliationHandler.Report)
			r.Get("/wallets/{id}", cfg.ReconciliationHandler.Wallet)
		})
	})

	return r
}
