package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestRun(t *testing.T) {
	var counter int64
	seen := make([]int32, 8)

	err := Run(context.Background(), DefaultConfig(), func(_ context.Context, i int) error {
		atomic.AddInt64(&counter, 1)
		atomic.AddInt32(&seen[i], 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), counter)
	for i, n := range seen {
		assert.Equal(t, int32(1), n, "caller %d", i)
	}
}

func TestRun_NoWorkers(t *testing.T) {
	called := false
	err := Run(context.Background(), Config{}, func(context.Context, int) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestRun_AggregatesErrors(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), Config{Workers: 4}, func(_ context.Context, i int) error {
		if i%2 == 1 {
			return boom
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.Contains(t, err.Error(), "caller 1")
	assert.Contains(t, err.Error(), "caller 3")
}

func TestRun_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	cfg := Config{Workers: 2, Timeout: 20 * time.Millisecond}
	err := Run(context.Background(), cfg, func(_ context.Context, i int) error {
		if i == 0 {
			return nil
		}
		<-release
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "caller 1")
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release := make(chan struct{})
	defer close(release)

	err := Run(ctx, Config{Workers: 1}, func(context.Context, int) error {
		<-release
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func BenchmarkRun(b *testing.B) {
	cfg := Config{Workers: 8}
	for i := 0; i < b.N; i++ {
		_ = Run(context.Background(), cfg, func(context.Context, int) error { return nil })
	}
}
