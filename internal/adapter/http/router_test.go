package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/auth"
	"github.com/iho/walletledger/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_APIRequiresActor(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/wallets/w-1", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", rec.Code)
	}
}

func TestNewRouter_HeaderActorReachesHandler(t *testing.T) {
	router := NewRouter(newRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/w-1", nil)
	req.Header.Set(apimiddleware.ActorIDHeader, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_JWTReplacesHeaderActor(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.JWTManager = jwtManager
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/w-1", nil)
	req.Header.Set(apimiddleware.ActorIDHeader, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected headers to be ignored with auth enabled, got %d", rec.Code)
	}

	token, err := jwtManager.Generate(domain.Actor{UserID: "user-1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/wallets/w-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected bearer token to authenticate, got %d", rec.Code)
	}
}

func TestNewRouter_WithdrawalResolutionRequiresAdmin(t *testing.T) {
	router := NewRouter(newRouterConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals/wd-1/reject", nil)
	req.Header.Set(apimiddleware.ActorIDHeader, "user-1")
	req.Header.Set(apimiddleware.ActorRoleHeader, "user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals/wd-1/reject", nil)
	req.Header.Set(apimiddleware.ActorIDHeader, "admin-1")
	req.Header.Set(apimiddleware.ActorRoleHeader, "admin")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/w-1", nil)
		req.Header.Set(apimiddleware.ActorIDHeader, "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"owner_id":"user-1","currency":"IRR"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	req.Header.Set(apimiddleware.ActorIDHeader, "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if store.lastKey != "user-1:key-123" {
		t.Fatalf("expected key scoped to actor, got %q", store.lastKey)
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.HTTPMetrics = apimiddleware.NewHTTPMetrics(reg)
		cfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `path="/health"`) {
		t.Fatalf("expected request metrics for /health, got %s", rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/wallets/",
		"GET /api/v1/wallets/{id}/balance",
		"GET /api/v1/wallets/{id}/can-withdraw",
		"POST /api/v1/entries/",
		"POST /api/v1/holds/",
		"POST /api/v1/holds/{id}/capture",
		"POST /api/v1/withdrawals/",
		"POST /api/v1/withdrawals/{id}/reject",
		"GET /api/v1/reconciliation/",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:         handler.NewHealthHandler(),
		WalletHandler:         handler.NewWalletHandler(stubWalletService{}, nil),
		EntryHandler:          handler.NewEntryHandler(nil, nil),
		HoldHandler:           handler.NewHoldHandler(nil),
		WithdrawalHandler:     handler.NewWithdrawalHandler(stubWithdrawalService{}, nil),
		ReconciliationHandler: handler.NewReconciliationHandler(nil),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubWalletService struct{}

func (stubWalletService) CreateWallet(ctx context.Context, actor domain.Actor, input usecase.CreateWalletInput) (*domain.Wallet, error) {
	return &domain.Wallet{ID: "w", OwnerID: input.OwnerID, Currency: input.Currency}, nil
}

func (stubWalletService) GetWallet(ctx context.Context, actor domain.Actor, id string) (*domain.Wallet, error) {
	return &domain.Wallet{ID: id, OwnerID: actor.UserID}, nil
}

func (stubWalletService) GetWalletByOwner(ctx context.Context, actor domain.Actor, ownerID, currency string) (*domain.Wallet, error) {
	return &domain.Wallet{ID: "w", OwnerID: ownerID, Currency: currency}, nil
}

func (stubWalletService) ListWallets(ctx context.Context, actor domain.Actor, limit, offset int) ([]*domain.Wallet, error) {
	return []*domain.Wallet{}, nil
}

func (stubWalletService) SetActive(ctx context.Context, actor domain.Actor, id string, active bool) (*domain.Wallet, error) {
	return &domain.Wallet{ID: id, Active: active}, nil
}

func (stubWalletService) GetAvailableBalance(ctx context.Context, actor domain.Actor, walletID string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (stubWalletService) CanWithdraw(ctx context.Context, actor domain.Actor, walletID string, amount decimal.Decimal) (bool, error) {
	return false, nil
}

type stubWithdrawalService struct{}

func (stubWithdrawalService) RequestWithdrawal(ctx context.Context, actor domain.Actor, input usecase.RequestWithdrawalInput) (*domain.Withdrawal, error) {
	return &domain.Withdrawal{ID: "wd", WalletID: input.WalletID}, nil
}

func (stubWithdrawalService) GetWithdrawal(ctx context.Context, actor domain.Actor, id string) (*domain.Withdrawal, error) {
	return &domain.Withdrawal{ID: id}, nil
}

func (stubWithdrawalService) Complete(ctx context.Context, actor domain.Actor, id string, input usecase.ResolveWithdrawalInput) (*domain.Withdrawal, error) {
	return &domain.Withdrawal{ID: id, Status: domain.WithdrawalStatusCompleted}, nil
}

func (stubWithdrawalService) Reject(ctx context.Context, actor domain.Actor, id string, input usecase.ResolveWithdrawalInput) (*domain.Withdrawal, error) {
	return &domain.Withdrawal{ID: id, Status: domain.WithdrawalStatusRejected}, nil
}

type stubIdempotencyStore struct {
	checkCalled bool
	lastKey     string
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	s.lastKey = key
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
