package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records who changed which resource and how.
type AuditLog struct {
	ID           string
	UserID       string // Who performed the action
	Action       string
	ResourceType string
	ResourceID   string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionWalletCreate     AuditAction = "wallet.create"
	AuditActionWalletActivate   AuditAction = "wallet.activate"
	AuditActionWalletDeactivate AuditAction = "wallet.deactivate"
	AuditActionEntryApply       AuditAction = "entry.apply"
	AuditActionEntrySettle      AuditAction = "entry.settle"

	AuditActionHoldPlace   AuditAction = "hold.place"
	AuditActionHoldRelease AuditAction = "hold.release"
	AuditActionHoldCancel  AuditAction = "hold.cancel"
	AuditActionHoldCapture AuditAction = "hold.capture"

	AuditActionWithdrawalRequest  AuditAction = "withdrawal.request"
	AuditActionWithdrawalComplete AuditAction = "withdrawal.complete"
	AuditActionWithdrawalReject   AuditAction = "withdrawal.reject"
)

// Resource types
const (
	ResourceTypeWallet     = "wallet"
	ResourceTypeEntry      = "entry"
	ResourceTypeHold       = "hold"
	ResourceTypeWithdrawal = "withdrawal"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}
