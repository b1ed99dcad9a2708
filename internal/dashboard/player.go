package dashboard

import (
	"context"
	"time"
)

// play fires the session's ticks. The timer is re-armed only after a tick has
// been fully applied, so ticks never overlap.
func (s *Session) play(ctx context.Context, gen uint64) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if !s.tick(gen) {
				return
			}
			timer.Reset(s.interval)
		}
	}
}
