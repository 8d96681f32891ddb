package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrHoldNotFound  = errors.New("hold not found")
	ErrInvalidTarget = errors.New("hold target must reference exactly one of claim, plan or identity")
	ErrInvalidExpiry = errors.New("hold expiry must be in the future")
)

// HoldStatus is the lifecycle state of a payment hold.
type HoldStatus string

const (
	HoldStatusPending   HoldStatus = "PENDING"
	HoldStatusReleased  HoldStatus = "RELEASED"
	HoldStatusCancelled HoldStatus = "CANCELLED"
)

// TargetKind names the business object a hold secures.
type TargetKind string

const (
	TargetKindClaim    TargetKind = "claim"
	TargetKindPlan     TargetKind = "plan"
	TargetKindIdentity TargetKind = "identity"
)

// HoldTarget is the object a hold is placed for. Exactly one of
// ClaimTarget, PlanTarget or IdentityTarget.
type HoldTarget interface {
	Kind() TargetKind
	TargetID() string
	isHoldTarget()
}

// ClaimTarget secures funds for a shipping claim.
type ClaimTarget struct{ ClaimID string }

func (t ClaimTarget) Kind() TargetKind { return TargetKindClaim }
func (t ClaimTarget) TargetID() string { return t.ClaimID }
func (ClaimTarget) isHoldTarget()      {}

// PlanTarget secures funds for a travel plan.
type PlanTarget struct{ PlanID string }

func (t PlanTarget) Kind() TargetKind { return TargetKindPlan }
func (t PlanTarget) TargetID() string { return t.PlanID }
func (PlanTarget) isHoldTarget()      {}

// IdentityTarget secures funds for an identity verification.
type IdentityTarget struct{ IdentityID string }

func (t IdentityTarget) Kind() TargetKind { return TargetKindIdentity }
func (t IdentityTarget) TargetID() string { return t.IdentityID }
func (IdentityTarget) isHoldTarget()      {}

// NewHoldTarget builds a target from its kind and id.
func NewHoldTarget(kind TargetKind, id string) (HoldTarget, error) {
	if id == "" {
		return nil, ErrInvalidTarget
	}
	switch kind {
	case TargetKindClaim:
		return ClaimTarget{ClaimID: id}, nil
	case TargetKindPlan:
		return PlanTarget{PlanID: id}, nil
	case TargetKindIdentity:
		return IdentityTarget{IdentityID: id}, nil
	}
	return nil, ErrInvalidTarget
}

// Hold reserves part of a wallet's balance without moving it.
type Hold struct {
	ID        string
	WalletID  string
	Target    HoldTarget
	Amount    decimal.Decimal
	Status    HoldStatus
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if hold is valid.
func (h *Hold) Validate() error {
	if h.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if h.Target == nil || h.Target.TargetID() == "" {
		return ErrInvalidTarget
	}
	if h.ExpiresAt != nil && !h.ExpiresAt.After(h.CreatedAt) {
		return ErrInvalidExpiry
	}
	return nil
}

// Transition moves a pending hold to a terminal status.
func (h *Hold) Transition(to HoldStatus, at time.Time) error {
	if h.Status != HoldStatusPending {
		return ErrInvalidStateTransition
	}
	if to != HoldStatusReleased && to != HoldStatusCancelled {
		return ErrInvalidStateTransition
	}
	h.Status = to
	h.UpdatedAt = at
	return nil
}

// IsExpired reports whether a pending hold has passed its expiry.
func (h *Hold) IsExpired(now time.Time) bool {
	return h.Status == HoldStatusPending && h.ExpiresAt != nil && !now.Before(*h.ExpiresAt)
}
