package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/iho/walletledger/internal/domain"
)

func TestRateLimiterKeysByActorThenIP(t *testing.T) {
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "hits"}, []string{"path"})
	rl := NewRateLimiter(1, 1).WithHits(hits)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func(remote string, actor *domain.Actor) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
		req.RemoteAddr = remote
		if actor != nil {
			req = req.WithContext(WithActor(req.Context(), *actor))
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("1.2.3.4:1000", nil))
	assert.Equal(t, http.StatusTooManyRequests, send("1.2.3.4:2000", nil), "same IP on another port shares the bucket")
	assert.Equal(t, http.StatusOK, send("5.6.7.8:1000", nil))

	alice := domain.Actor{UserID: "alice", Role: domain.RoleUser}
	assert.Equal(t, http.StatusOK, send("1.2.3.4:1000", &alice))
	assert.Equal(t, http.StatusTooManyRequests, send("9.9.9.9:1000", &alice))

	assert.Equal(t, float64(2), testutil.ToFloat64(hits.WithLabelValues("/api/v1/wallets")))
}

func TestGetIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
	assert.Equal(t, "10.0.0.1", getIP(req))
}

func TestCleanupLimitersDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("old")
	now = now.Add(time.Hour)
	rl.getLimiter("fresh")

	assert.Equal(t, 1, rl.CleanupLimiters(30*time.Minute))
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "fresh")
}

func TestRecoveryReturnsJSON500(t *testing.T) {
	rr := httptest.NewRecorder()
	Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
}
