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

type holdServiceStub struct {
	placeFn   func(ctx context.Context, actor domain.Actor, input usecase.PlaceHoldInput) (*domain.Hold, error)
	getFn     func(ctx context.Context, actor domain.Actor, id string) (*domain.Hold, error)
	releaseFn func(ctx context.Context, actor domain.Actor, holdID string) (*domain.Hold, error)
	cancelFn  func(ctx context.Context, actor domain.Actor, holdID string) (*domain.Hold, error)
	captureFn func(ctx context.Context, actor domain.Actor, input usecase.CaptureHoldInput) (*usecase.CaptureResult, error)
	listFn    func(ctx context.Context, actor domain.Actor, input usecase.ListHoldsByWalletInput) ([]*domain.Hold, error)
}

func (s *holdServiceStub) PlaceHold(ctx context.Context, actor domain.Actor, input usecase.PlaceHoldInput) (*domain.Hold, error) {
	return s.placeFn(ctx, actor, input)
}

func (s *holdServiceStub) GetHold(ctx context.Context, actor domain.Actor, id string) (*domain.Hold, error) {
	return s.getFn(ctx, actor, id)
}

func (s *holdServiceStub) Release(ctx context.Context, actor domain.Actor, holdID string) (*domain.Hold, error) {
	return s.releaseFn(ctx, actor, holdID)
}

func (s *holdServiceStub) Cancel(ctx context.Context, actor domain.Actor, holdID string) (*domain.Hold, error) {
	return s.cancelFn(ctx, actor, holdID)
}

func (s *holdServiceStub) Capture(ctx context.Context, actor domain.Actor, input usecase.CaptureHoldInput) (*usecase.CaptureResult, error) {
	return s.captureFn(ctx, actor, input)
}

func (s *holdServiceStub) ListHoldsByWallet(ctx context.Context, actor domain.Actor, input usecase.ListHoldsByWalletInput) ([]*domain.Hold, error) {
	return s.listFn(ctx, actor, input)
}

func sampleHold(status domain.HoldStatus) *domain.Hold {
	return &domain.Hold{
		ID:       "h-1",
		WalletID: "w-1",
		Target:   domain.ClaimTarget{ClaimID: "claim-9"},
		Amount:   decimal.NewFromInt(100000),
		Status:   status,
	}
}

func TestHoldHandler_Place_Success(t *testing.T) {
	var captured usecase.PlaceHoldInput
	h := NewHoldHandler(&holdServiceStub{
		placeFn: func(ctx context.Context, actor domain.Actor, input usecase.PlaceHoldInput) (*domain.Hold, error) {
			captured = input
			return sampleHold(domain.HoldStatusPending), nil
		},
	})

	rec := httptest.NewRecorder()
	h.Place(rec, newRequest(t, http.MethodPost, "/holds", dto.PlaceHoldRequest{
		WalletID:   "w-1",
		TargetKind: "claim",
		TargetID:   "claim-9",
		Amount:     decimal.NewFromInt(100000),
	}, &userActor, nil))

	expectStatus(t, rec, http.StatusCreated)
	if captured.Target == nil || captured.Target.Kind() != domain.TargetKindClaim || captured.Target.TargetID() != "claim-9" {
		t.Fatalf("unexpected target %+v", captured.Target)
	}
	resp := decodeBody[dto.HoldResponse](t, rec)
	if resp.TargetKind != "claim" || resp.Status != "PENDING" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHoldHandler_Place_InvalidTarget(t *testing.T) {
	h := NewHoldHandler(&holdServiceStub{
		placeFn: func(ctx context.Context, actor domain.Actor, input usecase.PlaceHoldInput) (*domain.Hold, error) {
			t.Fatal("PlaceHold should not be called for an unknown target kind")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Place(rec, newRequest(t, http.MethodPost, "/holds", dto.PlaceHoldRequest{
		WalletID:   "w-1",
		TargetKind: "invoice",
		TargetID:   "x",
		Amount:     decimal.NewFromInt(1),
	}, &userActor, nil))

	expectStatus(t, rec, http.StatusBadRequest)
}

func TestHoldHandler_Release_Terminal(t *testing.T) {
	h := NewHoldHandler(&holdServiceStub{
		releaseFn: func(ctx context.Context, actor domain.Actor, holdID string) (*domain.Hold, error) {
			return nil, domain.ErrInvalidStateTransition
		},
	})

	rec := httptest.NewRecorder()
	h.Release(rec, newRequest(t, http.MethodPost, "/holds/h-1/release", nil, &adminActor, map[string]string{"id": "h-1"}))

	expectStatus(t, rec, http.StatusConflict)
}

func TestHoldHandler_Cancel(t *testing.T) {
	var gotID string
	h := NewHoldHandler(&holdServiceStub{
		cancelFn: func(ctx context.Context, actor domain.Actor, holdID string) (*domain.Hold, error) {
			gotID = holdID
			return sampleHold(domain.HoldStatusCancelled), nil
		},
	})

	rec := httptest.NewRecorder()
	h.Cancel(rec, newRequest(t, http.MethodPost, "/holds/h-1/cancel", nil, &adminActor, map[string]string{"id": "h-1"}))

	expectStatus(t, rec, http.StatusOK)
	if gotID != "h-1" {
		t.Fatalf("expected hold id from URL, got %s", gotID)
	}
}

func TestHoldHandler_Capture(t *testing.T) {
	var captured usecase.CaptureHoldInput
	h := NewHoldHandler(&holdServiceStub{
		captureFn: func(ctx context.Context, actor domain.Actor, input usecase.CaptureHoldInput) (*usecase.CaptureResult, error) {
			captured = input
			debit := sampleEntry()
			debit.Type = domain.EntryTypeTransfer
			debit.Amount = decimal.NewFromInt(-100000)
			credit := sampleEntry()
			credit.WalletID = "w-2"
			credit.Type = domain.EntryTypeTransfer
			return &usecase.CaptureResult{
				Hold:   sampleHold(domain.HoldStatusReleased),
				Debit:  debit,
				Credit: credit,
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Capture(rec, newRequest(t, http.MethodPost, "/holds/h-1/capture", dto.CaptureHoldRequest{PayeeWalletID: "w-2"}, &adminActor, map[string]string{"id": "h-1"}))

	expectStatus(t, rec, http.StatusOK)
	if captured.HoldID != "h-1" || captured.PayeeWalletID != "w-2" {
		t.Fatalf("unexpected input %+v", captured)
	}
	resp := decodeBody[dto.CaptureResponse](t, rec)
	if resp.Hold.Status != "RELEASED" || resp.Credit.WalletID != "w-2" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHoldHandler_ListByWallet(t *testing.T) {
	var got usecase.ListHoldsByWalletInput
	h := NewHoldHandler(&holdServiceStub{
		listFn: func(ctx context.Context, actor domain.Actor, input usecase.ListHoldsByWalletInput) ([]*domain.Hold, error) {
			got = input
			return []*domain.Hold{sampleHold(domain.HoldStatusPending)}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.ListByWallet(rec, newRequest(t, http.MethodGet, "/wallets/w-1/holds?offset=3", nil, &userActor, map[string]string{"id": "w-1"}))

	expectStatus(t, rec, http.StatusOK)
	if got.WalletID != "w-1" || got.Offset != 3 || got.Limit != domain.DefaultPageSize {
		t.Fatalf("unexpected input %+v", got)
	}
	resp := decodeBody[[]dto.HoldResponse](t, rec)
	if len(resp) != 1 {
		t.Fatalf("expected one hold, got %d", len(resp))
	}
}

func TestHoldHandler_Get_Forbidden(t *testing.T) {
	h := NewHoldHandler(&holdServiceStub{
		getFn: func(ctx context.Context, actor domain.Actor, id string) (*domain.Hold, error) {
			return nil, domain.ErrForbidden
		},
	})

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(t, http.MethodGet, "/holds/h-1", nil, &userActor, map[string]string{"id": "h-1"}))

	expectStatus(t, rec, http.StatusForbidden)
}
