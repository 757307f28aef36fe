package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/registration"
)

// expireSessions discards sessions idle for longer than ttl, checking
// every interval, until ctx is done.
func expireSessions(ctx context.Context, sessions *registration.Sessions, ttl, interval time.Duration, log *slog.Logger) {
	if ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ids := sessions.Expire(ttl); len(ids) > 0 {
				log.Info("expired idle registration sessions",
					slog.Int("count", len(ids)),
					slog.Duration("ttl", ttl))
			}
		}
	}
}
