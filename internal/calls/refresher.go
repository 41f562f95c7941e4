package calls

import (
	"context"
	"time"

	"voice-campaigns/pkg/logger"
)

// RunRefresher refreshes the records every interval until ctx is done.
// An interval of 0 disables it.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	log := logger.From(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("call refresher stopped")
			return
		case <-t.C:
			s.Refresh(ctx)
		}
	}
}
