package backlogapi

import (
	"context"
	"time"

	"github.com/mwhitford/backlogctl/internal/errors"
)

// WatchJob polls a job's status every interval until it reaches a terminal
// state, the deadline passes, or ctx is cancelled. onUpdate fires once per
// observed state change (including the first snapshot). The final status is
// returned alongside any error.
//
// Transient endpoint failures during polling are tolerated: the watch keeps
// going and only reports them if they persist until the deadline.
func (c *Client) WatchJob(ctx context.Context, id string, interval, deadline time.Duration, onUpdate func(*JobStatus)) (*JobStatus, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *JobStatus
	var lastErr error

	poll := func() (bool, error) {
		status, err := c.JobStatus(ctx, id)
		if err != nil {
			if errors.CategoryOf(err).Retryable() {
				lastErr = err
				return false, nil
			}
			return false, err
		}
		lastErr = nil

		if last == nil || status.State != last.State {
			if onUpdate != nil {
				onUpdate(status)
			}
		}
		last = status
		return status.Terminal(), nil
	}

	if done, err := poll(); err != nil || done {
		return last, err
	}

	for {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return last, errors.ErrWatchTimeout(id).WithCause(lastErr)
			}
			if ctx.Err() == context.DeadlineExceeded {
				return last, errors.ErrWatchTimeout(id)
			}
			return last, ctx.Err()
		case <-ticker.C:
			if done, err := poll(); err != nil || done {
				return last, err
			}
		}
	}
}
