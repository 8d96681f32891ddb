package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HoldExpirer cancels pending holds whose expiry has passed.
type HoldExpirer interface {
	ExpireHolds(ctx context.Context, now time.Time, limit int) (int, error)
}

// Config for Sweeper.
type Config struct {
	Holds     HoldExpirer
	Logger    *zerolog.Logger
	Interval  time.Duration
	BatchSize int
}

// Sweeper periodically cancels expired holds.
type Sweeper struct {
	holds     HoldExpirer
	logger    zerolog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// New creates a Sweeper.
func New(cfg Config) *Sweeper {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Sweeper{
		holds:     cfg.Holds,
		logger:    logger.With().Str("component", "hold_sweeper").Logger(),
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		now:       time.Now,
	}
}

// Start runs sweeps until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("hold sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("hold sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("hold sweep failed")
			}
		}
	}
}

// Sweep drains expired holds in batches and returns how many were cancelled.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := s.holds.ExpireHolds(ctx, s.now(), s.batchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n < s.batchSize || ctx.Err() != nil {
			break
		}
	}

	if total > 0 {
		s.logger.Info().Int("cancelled", total).Msg("expired holds cancelled")
	}
	return total, nil
}
