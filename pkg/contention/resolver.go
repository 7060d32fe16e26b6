package contention

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
)

// defaultStrategies maps each severity to the resolution approach applied
// when the caller does not pick one explicitly.
var defaultStrategies = map[Severity]ResolutionStrategy{
	SeverityLow:      StrategyWait,
	SeverityMedium:   StrategyRedistribute,
	SeverityHigh:     StrategyPriority,
	SeverityCritical: StrategyPreempt,
}

// ResolverParams holds configuration for creating a Resolver.
type ResolverParams struct {
	// Clock is the time source (defaults to the real clock if nil).
	Clock clock.Clock
}

// Resolver applies resolution strategies to contention events. Resolution
// here records the decision and stamps the event; acting on the decision
// (queueing, scaling, preempting) is the caller's job.
type Resolver struct {
	clock clock.Clock
	mu    sync.Mutex
}

func NewResolver(params ResolverParams) *Resolver {
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return &Resolver{clock: params.Clock}
}

// RecommendedStrategy returns the default strategy for the event's severity.
func (r *Resolver) RecommendedStrategy(event *Event) ResolutionStrategy {
	if strategy, ok := defaultStrategies[event.Severity]; ok {
		return strategy
	}
	return StrategyWait
}

// Resolve handles the event with the default strategy for its severity.
func (r *Resolver) Resolve(ctx context.Context, event *Event) (bool, string) {
	return r.ResolveWith(ctx, event, r.RecommendedStrategy(event))
}

// ResolveWith handles the event with an explicit strategy. Resolving is
// idempotent: an already resolved event is left untouched and the call
// reports failure.
func (r *Resolver) ResolveWith(ctx context.Context, event *Event, strategy ResolutionStrategy) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.IsResolved() {
		return false, fmt.Sprintf("event %s already resolved", event.ID)
	}

	var message string
	switch strategy {
	case StrategyWait:
		message = "waiting for resources to become available"
	case StrategyPriority:
		message = fmt.Sprintf("prioritizing among %d competing reservations", len(event.CompetingReservationIDs))
	case StrategyPreempt:
		message = "preempting lower priority reservations"
	case StrategyScale:
		message = fmt.Sprintf("scaling up %s resources", event.ResourceType)
	case StrategyRedistribute:
		message = "redistributing load across resources"
	default:
		return false, fmt.Sprintf("unknown resolution strategy: %s", strategy)
	}

	event.ResolvedAt = r.clock.Now()
	event.ResolutionStrategy = strategy

	log.Ctx(ctx).Debug().
		Str("event", event.ID).
		Stringer("severity", event.Severity).
		Stringer("strategy", strategy).
		Msg("Resolved contention event")
	return true, message
}
