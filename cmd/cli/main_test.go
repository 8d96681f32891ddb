package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "lon...", truncate("longerstring", 6))
	assert.Equal(t, "lo", truncate("longerstring", 2))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1}))

	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestWalletBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/wallets/w-1/balance", r.URL.Path)
		assert.Equal(t, "ops", r.Header.Get(middleware.ActorIDHeader))
		assert.Equal(t, "admin", r.Header.Get(middleware.ActorRoleHeader))

		_ = json.NewEncoder(w).Encode(dto.BalanceResponse{
			WalletID:  "w-1",
			Currency:  "IRR",
			Balance:   decimal.NewFromInt(500000),
			Available: decimal.NewFromInt(400000),
		})
	}))
	defer srv.Close()

	out, err := execute(t, "--url", srv.URL, "--actor", "ops", "wallet", "balance", "w-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance:   500000 IRR")
	assert.Contains(t, out, "Available: 400000 IRR")
}

func TestWithdrawalReject_SendsReasonWithBearerToken(t *testing.T) {
	var got dto.ResolveWithdrawalRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/withdrawals/wd-1/reject", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get(middleware.ActorIDHeader))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(dto.WithdrawalResponse{ID: "wd-1", Status: "REJECT", RefundEntryID: "e-9"})
	}))
	defer srv.Close()

	out, err := execute(t, "--url", srv.URL, "--token", "tkn", "withdrawal", "reject", "wd-1", "--reason", "invalid sheba")
	require.NoError(t, err)
	assert.Equal(t, "invalid sheba", got.Reason)
	assert.Contains(t, out, `"refund_entry_id": "e-9"`)
}

func TestAPIErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "failed to complete withdrawal", Message: "invalid state transition"})
	}))
	defer srv.Close()

	_, err := execute(t, "--url", srv.URL, "withdrawal", "complete", "wd-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
	assert.Contains(t, err.Error(), "invalid state transition")
}

func TestReconcile_FailsOnDiscrepancy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.ReconciliationReportResponse{
			TotalWallets:      2,
			ReconciledWallets: 1,
			Discrepancies: []*dto.ReconciliationResponse{{
				WalletID:          "w-2",
				RecordedBalance:   decimal.NewFromInt(10),
				CalculatedBalance: decimal.NewFromInt(0),
				Difference:        decimal.NewFromInt(10),
			}},
		})
	}))
	defer srv.Close()

	out, err := execute(t, "--url", srv.URL, "reconcile")
	require.Error(t, err)
	assert.Contains(t, out, "w-2 recorded=10")
	assert.Contains(t, err.Error(), "1 wallet(s) out of balance")
}

func TestReconcile_Passes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.ReconciliationReportResponse{TotalWallets: 2, ReconciledWallets: 2})
	}))
	defer srv.Close()

	out, err := execute(t, "--url", srv.URL, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "Reconciliation PASSED")
}

func TestEntryApply_RejectsBadAmount(t *testing.T) {
	_, err := execute(t, "--url", "http://127.0.0.1:1", "entry", "apply", "--wallet", "w-1", "--amount", "ten", "--description", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestTokenMint(t *testing.T) {
	out, err := execute(t, "token", "--secret", "s3cret", "--user", "user-1", "--user-role", "user", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.NewJWTManager("s3cret", time.Hour).Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{UserID: "user-1", Role: domain.RoleUser}, claims.Actor())
}

func TestTokenMint_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "token", "--user", "user-1")
	require.Error(t, err)
}
