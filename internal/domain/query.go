package domain

import "time"

// EntryFilter narrows ledger entry queries. Zero values are ignored.
type EntryFilter struct {
	WalletID string
	OwnerID  string
	Type     EntryType
	Status   EntryStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// WithdrawalFilter narrows withdrawal queries. Zero values are ignored.
type WithdrawalFilter struct {
	WalletID string
	OwnerID  string
	Status   WithdrawalStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
