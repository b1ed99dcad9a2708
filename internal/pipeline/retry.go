package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"epidash/internal/model"
)

// errPermanent marks a fetch failure that retrying cannot fix.
var errPermanent = errors.New("permanent failure")

// fetch GETs url, retrying transport errors, 429 and 5xx responses with
// exponential backoff. The caller closes the returned body.
func (r *Runner) fetch(ctx context.Context, url string, cfg model.RetryConfig) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := cfg.Delay(attempt)
			r.logger.Warn("🔁 retrying source", "url", url, "attempt", attempt, "delay", delay, "err", lastErr)
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, err := r.get(ctx, url)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, errPermanent) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("giving up on %s after %d retries: %w", url, cfg.MaxRetries, lastErr)
}

func (r *Runner) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errPermanent, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET CSV: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.Body, nil
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return nil, fmt.Errorf("%w: GET %s: %s", errPermanent, url, resp.Status)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
