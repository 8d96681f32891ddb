package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

type entryServiceStub struct {
	applyFn  func(ctx context.Context, actor domain.Actor, input usecase.ApplyLedgerEntryInput) (*domain.LedgerEntry, error)
	settleFn func(ctx context.Context, actor domain.Actor, entryID string, status domain.EntryStatus) (*domain.LedgerEntry, error)
}

func (s *entryServiceStub) ApplyLedgerEntry(ctx context.Context, actor domain.Actor, input usecase.ApplyLedgerEntryInput) (*domain.LedgerEntry, error) {
	return s.applyFn(ctx, actor, input)
}

func (s *entryServiceStub) SettleEntry(ctx context.Context, actor domain.Actor, entryID string, status domain.EntryStatus) (*domain.LedgerEntry, error) {
	return s.settleFn(ctx, actor, entryID, status)
}

type entryQueryStub struct {
	listFn func(ctx context.Context, actor domain.Actor, filter domain.EntryFilter) ([]*domain.LedgerEntry, error)
}

func (s *entryQueryStub) ListEntries(ctx context.Context, actor domain.Actor, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	return s.listFn(ctx, actor, filter)
}

func sampleEntry() *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:          "e-1",
		WalletID:    "w-1",
		Type:        domain.EntryTypeDeposit,
		Amount:      decimal.NewFromInt(100000),
		Currency:    "IRR",
		Status:      domain.EntryStatusCompleted,
		Reference:   "1234567890",
		Description: "top up",
	}
}

func TestEntryHandler_Apply_Success(t *testing.T) {
	var captured usecase.ApplyLedgerEntryInput
	h := NewEntryHandler(&entryServiceStub{
		applyFn: func(ctx context.Context, actor domain.Actor, input usecase.ApplyLedgerEntryInput) (*domain.LedgerEntry, error) {
			captured = input
			return sampleEntry(), nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	h.Apply(rec, newRequest(t, http.MethodPost, "/entries", dto.ApplyEntryRequest{
		WalletID:    "w-1",
		Amount:      decimal.NewFromInt(100000),
		Type:        "DEPOSIT",
		Description: "top up",
	}, &adminActor, nil))

	expectStatus(t, rec, http.StatusCreated)
	if captured.Type != domain.EntryTypeDeposit || !captured.Amount.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("unexpected input %+v", captured)
	}
	resp := decodeBody[dto.EntryResponse](t, rec)
	if resp.Reference != "1234567890" {
		t.Fatalf("expected reference in response, got %+v", resp)
	}
}

func TestEntryHandler_Apply_InsufficientFunds(t *testing.T) {
	h := NewEntryHandler(&entryServiceStub{
		applyFn: func(ctx context.Context, actor domain.Actor, input usecase.ApplyLedgerEntryInput) (*domain.LedgerEntry, error) {
			return nil, domain.ErrInsufficientFunds
		},
	}, nil)

	rec := httptest.NewRecorder()
	h.Apply(rec, newRequest(t, http.MethodPost, "/entries", dto.ApplyEntryRequest{
		WalletID:    "w-1",
		Amount:      decimal.NewFromInt(-900000),
		Type:        "PURCHASE",
		Description: "order",
	}, &adminActor, nil))

	expectStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestEntryHandler_Settle_UppercasesStatus(t *testing.T) {
	var gotStatus domain.EntryStatus
	h := NewEntryHandler(&entryServiceStub{
		settleFn: func(ctx context.Context, actor domain.Actor, entryID string, status domain.EntryStatus) (*domain.LedgerEntry, error) {
			gotStatus = status
			return sampleEntry(), nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	h.Settle(rec, newRequest(t, http.MethodPost, "/entries/e-1/settle", dto.SettleEntryRequest{Status: "completed"}, &adminActor, map[string]string{"id": "e-1"}))

	expectStatus(t, rec, http.StatusOK)
	if gotStatus != domain.EntryStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", gotStatus)
	}
}

func TestEntryHandler_Settle_AlreadySettled(t *testing.T) {
	h := NewEntryHandler(&entryServiceStub{
		settleFn: func(ctx context.Context, actor domain.Actor, entryID string, status domain.EntryStatus) (*domain.LedgerEntry, error) {
			return nil, domain.ErrInvalidStateTransition
		},
	}, nil)

	rec := httptest.NewRecorder()
	h.Settle(rec, newRequest(t, http.MethodPost, "/entries/e-1/settle", dto.SettleEntryRequest{Status: "FAILED"}, &adminActor, map[string]string{"id": "e-1"}))

	expectStatus(t, rec, http.StatusConflict)
}

func TestEntryHandler_List_BuildsFilter(t *testing.T) {
	var got domain.EntryFilter
	h := NewEntryHandler(nil, &entryQueryStub{
		listFn: func(ctx context.Context, actor domain.Actor, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
			got = filter
			return []*domain.LedgerEntry{sampleEntry()}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(t, http.MethodGet, "/wallets/w-1/entries?type=refund&from=2024-01-01T00:00:00Z&limit=5", nil, &userActor, map[string]string{"id": "w-1"}))

	expectStatus(t, rec, http.StatusOK)
	if got.WalletID != "w-1" || got.Type != domain.EntryTypeRefund || got.From == nil || got.To != nil || got.Limit != 5 {
		t.Fatalf("unexpected filter %+v", got)
	}
	resp := decodeBody[dto.ListEntriesResponse](t, rec)
	if resp.Total != 1 {
		t.Fatalf("expected one entry, got %+v", resp)
	}
}

func TestEntryHandler_List_InvalidTimestamp(t *testing.T) {
	h := NewEntryHandler(nil, &entryQueryStub{
		listFn: func(ctx context.Context, actor domain.Actor, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
			t.Fatal("ListEntries should not be called")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(t, http.MethodGet, "/entries?to=tomorrow", nil, &adminActor, nil))

	expectStatus(t, rec, http.StatusBadRequest)
}
