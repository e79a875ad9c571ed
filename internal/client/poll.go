package client

import (
	"context"
	"errors"
	"time"
)

// Refresh intervals for the polling views.
const (
	StreamInterval       = 5 * time.Second
	UnitsInterval        = 15 * time.Second
	UnitDetailInterval   = 5 * time.Second
	InteractionsInterval = 3 * time.Second
	MergeInterval        = 5 * time.Second
	ActivityInterval     = 2 * time.Second
	AgentsInterval       = 20 * time.Second
)

// ErrStopPolling ends a Poll loop without reporting an error.
var ErrStopPolling = errors.New("stop polling")

// Poll calls fn immediately and then every interval until ctx is done or fn
// returns an error. A cancelled context or ErrStopPolling is not reported as
// an error.
func Poll(ctx context.Context, interval time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := fn(ctx); err != nil {
			if errors.Is(err, ErrStopPolling) {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}
