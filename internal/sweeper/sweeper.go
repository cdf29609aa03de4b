// Package sweeper runs the scheduled purge of expired refresh tokens.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// TokenPurger deletes refresh tokens that expired before the cutoff.
type TokenPurger interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper purges expired refresh tokens once a week. Expired tokens are
// already unusable, the sweep only reclaims their storage.
type Sweeper struct {
	purger TokenPurger
	logger *slog.Logger
	now    func() time.Time
}

func New(purger TokenPurger, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		purger: purger,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock returns a copy using the given time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	clone := *s
	clone.now = now
	return &clone
}

// Run blocks until ctx is cancelled, sweeping every Tuesday at 02:00.
func (s *Sweeper) Run(ctx context.Context) {
	for {
		next := s.nextRun(s.now())
		s.logger.Info("next token sweep scheduled", slog.Time("at", next))

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep purges expired tokens once. Failures are logged and never fatal,
// the next scheduled run retries.
func (s *Sweeper) Sweep(ctx context.Context) {
	purged, err := s.purger.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("token sweep failed", slog.Any("error", err))
		return
	}
	s.logger.Info("token sweep completed", slog.Int64("purged", purged))
}

// nextRun returns the next Tuesday 02:00 strictly after the given time,
// in its location.
func (s *Sweeper) nextRun(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(), 2, 0, 0, 0, after.Location())
	days := (int(time.Tuesday) - int(after.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(after) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
