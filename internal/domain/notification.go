package domain

// Notification categories
const (
	NotificationCategoryWallet     = "wallet"
	NotificationCategoryWithdrawal = "withdrawal"
	NotificationCategoryHold       = "hold"
)

// Notification is a user-facing message emitted after a wallet change.
type Notification struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	UserID   string `json:"user_id"`
	Category string `json:"category"`
}
