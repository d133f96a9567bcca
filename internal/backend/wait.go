// Package backend holds helpers shared by the remote store implementations.
package backend

import (
	"context"
	"time"
)

// Wait blocks for d or until ctx is done, whichever comes first.
// A non-positive d returns immediately unless ctx is already done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
