package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	logx "github.com/tripdesk-core/server/pkg/logger"
)

// Options holds the per-target tuning knobs. The zero value is unusable;
// start from DefaultOptions.
type Options struct {
	// Breaker.
	FailureThreshold int
	SuccessThreshold int
	ResetTimeout     time.Duration

	// Limiter.
	MaxConcurrent int
	MinInterval   time.Duration

	// Per-attempt call budget.
	Timeout time.Duration

	// Retry.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultOptions mirrors the documented defaults: open after 5 consecutive
// failures, close after 2 half-open successes, 30s reset window, modest
// pacing, 3 retries with 200ms..2s exponential backoff.
func DefaultOptions() Options {
	return Options{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		ResetTimeout:     30 * time.Second,
		MaxConcurrent:    4,
		MinInterval:      0,
		Timeout:          5 * time.Second,
		MaxRetries:       3,
		InitialBackoff:   200 * time.Millisecond,
		MaxBackoff:       2 * time.Second,
	}
}

type targetState struct {
	opts    Options
	breaker *Breaker
	limiter *Limiter
}

// Executor owns the per-target registry of breakers and limiters. Targets
// materialize lazily with the executor defaults; Configure overrides a
// single target before (or between) calls. There are no package-level
// globals: every Executor instance is independent, so tests can build and
// throw away their own.
type Executor struct {
	mu       sync.Mutex
	defaults Options
	targets  map[string]*targetState
}

// NewExecutor builds an executor whose unnamed targets use defaults.
func NewExecutor(defaults Options) *Executor {
	return &Executor{
		defaults: defaults,
		targets:  make(map[string]*targetState),
	}
}

// Configure pins dedicated options for one target, resetting its breaker
// and limiter.
func (e *Executor) Configure(target string, opts Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.targets[target] = newTargetState(opts)
}

// State exposes the breaker state for a target; unknown targets read as
// closed.
func (e *Executor) State(target string) BreakerState {
	e.mu.Lock()
	ts, ok := e.targets[target]
	e.mu.Unlock()
	if !ok {
		return StateClosed
	}
	return ts.breaker.State()
}

// Execute runs fn against the named target: limiter admission, breaker
// check, per-attempt timeout, exponential-backoff retries. An open breaker
// fails fast with ErrCircuitOpen and consumes no retries. Context.Canceled
// and DeadlineExceeded from the parent are not retried either; there is no
// point hammering a call the caller already gave up on.
func (e *Executor) Execute(ctx context.Context, target string, fn func(context.Context) error) error {
	ts := e.target(target)

	if err := ts.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer ts.limiter.Release()

	var lastErr error
	attempts := ts.opts.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if !ts.breaker.Allow() {
			logx.Debug().
				Str("target", target).
				Str("breaker", ts.breaker.State().String()).
				Msg("call rejected: circuit open")
			return ErrCircuitOpen
		}

		lastErr = e.attempt(ctx, ts, fn)
		if lastErr == nil {
			ts.breaker.Success()
			return nil
		}
		ts.breaker.Failure()

		if ctx.Err() != nil {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		wait := backoffFor(ts.opts.InitialBackoff, ts.opts.MaxBackoff, attempt)
		logx.Debug().
			Str("target", target).
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Err(lastErr).
			Msg("call failed, backing off")
		if err := sleepCtx(ctx, wait); err != nil {
			return lastErr
		}
	}

	return errors.Join(ErrRetriesExhausted, lastErr)
}

func (e *Executor) attempt(ctx context.Context, ts *targetState, fn func(context.Context) error) error {
	callCtx := ctx
	if ts.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, ts.opts.Timeout)
		defer cancel()
	}
	return fn(callCtx)
}

func (e *Executor) target(name string) *targetState {
	e.mu.Lock()
	defer e.mu.Unlock()
	ts, ok := e.targets[name]
	if !ok {
		ts = newTargetState(e.defaults)
		e.targets[name] = ts
	}
	return ts
}

func newTargetState(opts Options) *targetState {
	return &targetState{
		opts:    opts,
		breaker: NewBreaker(opts.FailureThreshold, opts.SuccessThreshold, opts.ResetTimeout),
		limiter: NewLimiter(opts.MaxConcurrent, opts.MinInterval),
	}
}
