package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/online-movie-api/internal/metrics"
)

// ExpiredSessionDeleter removes sessions whose expiry has passed.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SweepSessions deletes expired sessions every interval until ctx is done.
// A failed sweep is logged and retried on the next tick.
func SweepSessions(ctx context.Context, store ExpiredSessionDeleter, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := store.DeleteExpired(ctx, now.UTC())
			if err != nil {
				if ctx.Err() == nil {
					log.Warn().Err(err).Msg("session sweep failed")
				}
				continue
			}
			if n > 0 {
				metrics.SessionsSwept.Add(float64(n))
				log.Debug().Int64("removed", n).Msg("expired sessions swept")
			}
		}
	}
}
