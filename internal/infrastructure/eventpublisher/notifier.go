package eventpublisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// OutboxNotifier implements usecase.Notifier by queueing notifications in
// the outbox for the EventPublisher to relay. The insert runs on its own
// connection after the wallet transaction has committed.
type OutboxNotifier struct {
	outbox usecase.OutboxRepository
	ids    usecase.IDGenerator
	now    func() time.Time
}

// NewOutboxNotifier creates an OutboxNotifier.
func NewOutboxNotifier(outbox usecase.OutboxRepository, ids usecase.IDGenerator) *OutboxNotifier {
	return &OutboxNotifier{outbox: outbox, ids: ids, now: time.Now}
}

// Notify queues n.
func (n *OutboxNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	return n.outbox.Insert(ctx, domain.NotificationEvent(n.ids.Generate(), notification, n.now().UTC()))
}

// LogNotifier writes notifications to the log only.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n.
func (n *LogNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	n.logger.Info().
		Str("user_id", notification.UserID).
		Str("category", notification.Category).
		Str("title", notification.Title).
		Msg(notification.Body)
	return nil
}

var (
	_ usecase.Notifier = (*OutboxNotifier)(nil)
	_ usecase.Notifier = (*LogNotifier)(nil)
)
