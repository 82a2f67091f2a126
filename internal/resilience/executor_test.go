package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fastOptions() Options {
	return Options{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		ResetTimeout:     50 * time.Millisecond,
		MaxConcurrent:    2,
		Timeout:          time.Second,
		MaxRetries:       0,
		InitialBackoff:   time.Millisecond,
		MaxBackoff:       2 * time.Millisecond,
	}
}

func TestExecuteSuccessPassesThrough(t *testing.T) {
	e := NewExecutor(fastOptions())

	var calls int32
	err := e.Execute(context.Background(), "weather", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls)
	assert.Equal(t, StateClosed, e.State("weather"))
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	opts := fastOptions()
	opts.MaxRetries = 3
	opts.FailureThreshold = 10
	e := NewExecutor(opts)

	var calls int32
	err := e.Execute(context.Background(), "flights", func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls)
}

func TestExecuteExhaustsRetries(t *testing.T) {
	opts := fastOptions()
	opts.MaxRetries = 2
	opts.FailureThreshold = 10
	e := NewExecutor(opts)

	boom := errors.New("boom")
	var calls int32
	err := e.Execute(context.Background(), "flights", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), calls)
}

func TestExecuteFailsFastWhenOpen(t *testing.T) {
	e := NewExecutor(fastOptions())
	boom := errors.New("down")

	// Trip the breaker: threshold is 3, no retries.
	for i := 0; i < 3; i++ {
		_ = e.Execute(context.Background(), "websearch", func(ctx context.Context) error {
			return boom
		})
	}
	require.Equal(t, StateOpen, e.State("websearch"))

	var calls int32
	err := e.Execute(context.Background(), "websearch", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(0), calls, "open breaker must not invoke the call")
}

func TestExecuteRecoversThroughHalfOpen(t *testing.T) {
	e := NewExecutor(fastOptions())
	boom := errors.New("down")

	for i := 0; i < 3; i++ {
		_ = e.Execute(context.Background(), "policy", func(ctx context.Context) error {
			return boom
		})
	}
	require.Equal(t, StateOpen, e.State("policy"))

	time.Sleep(60 * time.Millisecond)

	err := e.Execute(context.Background(), "policy", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, e.State("policy"))
}

func TestExecuteStopsRetryingOnceOpen(t *testing.T) {
	opts := fastOptions()
	opts.MaxRetries = 10
	opts.FailureThreshold = 2
	e := NewExecutor(opts)

	var calls int32
	err := e.Execute(context.Background(), "attractions", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("down")
	})

	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls, "retries stop the moment the breaker opens")
}

func TestExecutePerAttemptTimeout(t *testing.T) {
	opts := fastOptions()
	opts.Timeout = 20 * time.Millisecond
	e := NewExecutor(opts)

	err := e.Execute(context.Background(), "slow", func(ctx context.Context) error {
		select {
		case <-time.After(200 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecuteHonorsParentCancellation(t *testing.T) {
	opts := fastOptions()
	opts.MaxRetries = 5
	opts.InitialBackoff = 50 * time.Millisecond
	e := NewExecutor(opts)

	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := e.Execute(ctx, "slow", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.LessOrEqual(t, calls, int32(2), "cancellation must cut the retry loop short")
}

func TestConfigurePinsPerTargetOptions(t *testing.T) {
	e := NewExecutor(fastOptions())

	strict := fastOptions()
	strict.FailureThreshold = 1
	e.Configure("fragile", strict)

	_ = e.Execute(context.Background(), "fragile", func(ctx context.Context) error {
		return errors.New("down")
	})
	assert.Equal(t, StateOpen, e.State("fragile"))

	// Other targets keep the default threshold.
	_ = e.Execute(context.Background(), "sturdy", func(ctx context.Context) error {
		return errors.New("down")
	})
	assert.Equal(t, StateClosed, e.State("sturdy"))
}

func TestLimiterBoundsConcurrency(t *testing.T) {
	opts := fastOptions()
	opts.MaxConcurrent = 1
	e := NewExecutor(opts)

	var inFlight, peak int32
	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_ = e.Execute(context.Background(), "paced", func(ctx context.Context) error {
				cur := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	<-done
	<-done

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}
