package client

import (
	"context"
	"time"

	"github.com/yukikurage/timesheet-api/internal/dto"
)

// Watch polls a task once immediately and then every interval until ctx is
// done. fn runs for the first poll and whenever the timer status or running
// flag changes. A failed poll is passed to fn with a nil timer; polling goes on.
func (c *Client) Watch(ctx context.Context, taskID uint64, interval time.Duration, fn func(*dto.TaskTimerDTO, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *dto.TaskTimerDTO
	poll := func() {
		task, err := c.Task(ctx, taskID)
		if err != nil {
			if ctx.Err() == nil {
				fn(nil, err)
			}
			return
		}
		timer := task.Timer
		if last == nil || last.Status != timer.Status || last.IsRunning != timer.IsRunning {
			fn(&timer, nil)
		}
		last = &timer
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			poll()
		}
	}
}
