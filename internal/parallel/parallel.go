// Package parallel runs independent callers concurrently and bounds each one in time.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ErrTimeout is reported for a caller that did not finish within Config.Timeout.
var ErrTimeout = errors.New("parallel: caller timed out")

// Config controls parallel execution behavior.
type Config struct {
	Workers int           // Number of concurrent callers.
	Timeout time.Duration // Per-caller bound measured from start. Zero means unbounded.
}

// DefaultConfig returns eight callers bounded by ten seconds each.
func DefaultConfig() Config {
	return Config{
		Workers: 8,
		Timeout: 10 * time.Second,
	}
}

// Run starts cfg.Workers goroutines, each calling f once with its index.
// It waits for every caller. A caller that misses the bound yields ErrTimeout;
// its goroutine is left to finish on its own since GPU work cannot be
// interrupted. All failures are aggregated and annotated with the caller index.
func Run(ctx context.Context, cfg Config, f func(ctx context.Context, i int) error) error {
	if cfg.Workers <= 0 {
		return nil
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var (
		mu   sync.Mutex
		errs *multierror.Error
		wg   sync.WaitGroup
	)
	record := func(i int, err error) {
		mu.Lock()
		errs = multierror.Append(errs, fmt.Errorf("caller %d: %w", i, err))
		mu.Unlock()
	}

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			done := make(chan error, 1)
			go func() { done <- f(ctx, i) }()

			select {
			case err := <-done:
				if err != nil {
					record(i, err)
				}
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					record(i, ErrTimeout)
				} else {
					record(i, ctx.Err())
				}
			}
		}(i)
	}
	wg.Wait()

	if errs == nil {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()
	return errs.ErrorOrNil()
}
