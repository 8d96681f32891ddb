package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWallet_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		held        decimal.Decimal
		amount      decimal.Decimal
		expectError error
	}{
		{
			name:    "debit within available balance",
			balance: decimal.NewFromInt(100000),
			held:    decimal.Zero,
			amount:  decimal.NewFromInt(30000),
		},
		{
			name:    "debit exact available balance",
			balance: decimal.NewFromInt(100000),
			held:    decimal.NewFromInt(40000),
			amount:  decimal.NewFromInt(60000),
		},
		{
			name:        "pending holds reduce available balance",
			balance:     decimal.NewFromInt(100000),
			held:        decimal.NewFromInt(40000),
			amount:      decimal.NewFromInt(60001),
			expectError: ErrInsufficientFunds,
		},
		{
			name:        "zero amount rejected",
			balance:     decimal.NewFromInt(100),
			held:        decimal.Zero,
			amount:      decimal.Zero,
			expectError: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Wallet{Balance: tt.balance, Active: true}
			err := w.ValidateDebit(tt.amount, tt.held)
			if tt.expectError == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Fatalf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestWallet_AvailableBalance(t *testing.T) {
	w := &Wallet{Balance: decimal.NewFromInt(100000)}
	got := w.AvailableBalance(decimal.NewFromInt(25000))
	if !got.Equal(decimal.NewFromInt(75000)) {
		t.Fatalf("expected 75000, got %s", got)
	}
}

func TestWallet_EnsureActive(t *testing.T) {
	if err := (&Wallet{Active: true}).EnsureActive(); err != nil {
		t.Fatalf("expected active wallet to pass, got %v", err)
	}
	if err := (&Wallet{}).EnsureActive(); !errors.Is(err, ErrWalletInactive) {
		t.Fatalf("expected ErrWalletInactive, got %v", err)
	}
}

func TestActor_CanAccess(t *testing.T) {
	w := &Wallet{OwnerID: "user-1"}

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"owner", Actor{UserID: "user-1", Role: RoleUser}, true},
		{"other user", Actor{UserID: "user-2", Role: RoleUser}, false},
		{"admin", Actor{UserID: "admin-1", Role: RoleAdmin}, true},
		{"system", SystemActor(), true},
		{"anonymous", Actor{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.actor.CanAccess(w); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestActor_RequireAdmin(t *testing.T) {
	if err := (Actor{Role: RoleAdmin}).RequireAdmin(); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
	if err := SystemActor().RequireAdmin(); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected system actor to be rejected, got %v", err)
	}
	if err := (Actor{Role: RoleUser}).RequireElevated(); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected user to be rejected, got %v", err)
	}
}
