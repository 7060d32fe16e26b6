package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/reservoir-project/reservoir/pkg/allocation"
	"github.com/reservoir-project/reservoir/pkg/monitoring"
	"github.com/reservoir-project/reservoir/pkg/pooling"
	"github.com/reservoir-project/reservoir/pkg/reservation"
	"github.com/reservoir-project/reservoir/pkg/scaling"
)

// Default intervals for the periodic concerns.
const (
	DefaultExpiryInterval     = 30 * time.Second
	DefaultRetryInterval      = 30 * time.Second
	DefaultIdleSweepInterval  = time.Minute
	DefaultCollectInterval    = 15 * time.Second
	DefaultEvaluationInterval = time.Minute
)

// RunnerParams wires the periodic concerns into a Runner. Every dependency
// is optional; a nil dependency simply disables its loop.
type RunnerParams struct {
	// Reservations has its expired holds swept periodically.
	Reservations *reservation.Manager

	// Allocator has its deferred requests retried periodically.
	Allocator *allocation.Allocator

	// Pools has idle members evicted periodically.
	Pools *pooling.PoolManager

	// Metrics has utilization collected periodically.
	Metrics *monitoring.ResourceCollector

	// Scaler has its policies evaluated periodically.
	Scaler *scaling.Scaler

	// Clock is the time source (defaults to the real clock if nil).
	Clock clock.Clock

	// Zero intervals take the defaults above.
	ExpiryInterval     time.Duration
	RetryInterval      time.Duration
	IdleSweepInterval  time.Duration
	CollectInterval    time.Duration
	EvaluationInterval time.Duration
}

// Runner owns the background loops that keep the system tidy: reservation
// expiry, deferred allocation retries, idle pool eviction, metric
// collection and scaling evaluation. Each enabled concern runs on its own
// ticker; every pass is a single bounded sweep.
type Runner struct {
	params  RunnerParams
	clock   clock.Clock
	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

func NewRunner(params RunnerParams) *Runner {
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	if params.ExpiryInterval <= 0 {
		params.ExpiryInterval = DefaultExpiryInterval
	}
	if params.RetryInterval <= 0 {
		params.RetryInterval = DefaultRetryInterval
	}
	if params.IdleSweepInterval <= 0 {
		params.IdleSweepInterval = DefaultIdleSweepInterval
	}
	if params.CollectInterval <= 0 {
		params.CollectInterval = DefaultCollectInterval
	}
	if params.EvaluationInterval <= 0 {
		params.EvaluationInterval = DefaultEvaluationInterval
	}
	return &Runner{
		params: params,
		clock:  params.Clock,
	}
}

// Start launches the loops for every configured concern. Starting a running
// runner is an error.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("maintenance runner already started")
	}
	r.stopCh = make(chan struct{})
	r.running = true

	if r.params.Reservations != nil {
		r.loop(ctx, r.params.ExpiryInterval, func(ctx context.Context) {
			r.params.Reservations.CleanupExpired(ctx)
		})
	}
	if r.params.Allocator != nil {
		r.loop(ctx, r.params.RetryInterval, func(ctx context.Context) {
			r.params.Allocator.RetryPendingAllocations(ctx)
		})
	}
	if r.params.Pools != nil {
		r.loop(ctx, r.params.IdleSweepInterval, func(ctx context.Context) {
			r.params.Pools.CleanupIdleResources()
		})
	}
	if r.params.Metrics != nil {
		r.loop(ctx, r.params.CollectInterval, func(ctx context.Context) {
			r.params.Metrics.CollectUtilization(ctx)
			r.params.Metrics.Collect(ctx)
		})
	}
	if r.params.Scaler != nil {
		r.loop(ctx, r.params.EvaluationInterval, func(ctx context.Context) {
			r.params.Scaler.EvaluateScaling(ctx)
		})
	}

	log.Ctx(ctx).Debug().Msg("Maintenance runner started")
	return nil
}

func (r *Runner) loop(ctx context.Context, interval time.Duration, tick func(ctx context.Context)) {
	r.wg.Add(1)
	ticker := r.clock.Ticker(interval)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tick(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loops and waits for in-flight sweeps to finish, or for the
// context to give up.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loops are active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
