package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EntriesApplied *prometheus.CounterVec
	EntryAmount    prometheus.Histogram
	WalletsCreated prometheus.Counter

	// Hold metrics
	HoldsPlaced    prometheus.Counter
	HoldsReleased  prometheus.Counter
	HoldsCancelled prometheus.Counter
	HoldsCaptured  prometheus.Counter
	HoldsExpired   prometheus.Counter

	// Withdrawal metrics
	WithdrawalsRequested prometheus.Counter
	WithdrawalsCompleted prometheus.Counter
	WithdrawalsRejected  prometheus.Counter

	// Operation metrics
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Notification metrics
	NotificationFailures prometheus.Counter
	OutboxPublished      prometheus.Counter
	OutboxFailures       prometheus.Counter

	// Reconciliation metrics
	ReconciliationMismatches prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics and registers them on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntriesApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_entries_applied_total",
				Help: "Total ledger entries written by type and status",
			},
			[]string{"type", "status"},
		),
		EntryAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_entry_amount",
			Help:    "Absolute ledger entry amounts",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000, 100000000},
		}),
		WalletsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_wallets_created_total",
			Help: "Total number of wallets created",
		}),

		HoldsPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_holds_placed_total",
			Help: "Total number of holds placed",
		}),
		HoldsReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_holds_released_total",
			Help: "Total number of holds released",
		}),
		HoldsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_holds_cancelled_total",
			Help: "Total number of holds cancelled",
		}),
		HoldsCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_holds_captured_total",
			Help: "Total number of holds captured into transfers",
		}),
		HoldsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_holds_expired_total",
			Help: "Total number of holds cancelled by the expiry sweeper",
		}),

		WithdrawalsRequested: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_withdrawals_requested_total",
			Help: "Total number of withdrawal requests",
		}),
		WithdrawalsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_withdrawals_completed_total",
			Help: "Total number of withdrawals completed",
		}),
		WithdrawalsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_withdrawals_rejected_total",
			Help: "Total number of withdrawals rejected and refunded",
		}),

		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_operation_duration_seconds",
				Help:    "Duration of wallet operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_operation_errors_total",
				Help: "Total wallet operation errors by kind",
			},
			[]string{"operation", "kind"},
		),

		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_notification_failures_total",
			Help: "Notifications that could not be dispatched",
		}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_outbox_published_total",
			Help: "Outbox events relayed to subscribers",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_outbox_failures_total",
			Help: "Outbox events that failed to relay",
		}),

		ReconciliationMismatches: factory.NewGauge(prometheus.GaugeOpts{
			Name: "walletledger_reconciliation_mismatches",
			Help: "Wallets whose balance differs from their ledger in the last run",
		}),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),
	}
}
