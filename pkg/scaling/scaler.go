package scaling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/reservoir-project/reservoir/pkg/lib/math"
	"github.com/reservoir-project/reservoir/pkg/models"
	"github.com/reservoir-project/reservoir/pkg/monitoring"
)

// ResourceFactory creates one new resource when a scale-up fires.
type ResourceFactory func() (*models.Resource, error)

// ScaleUpHook is called once per resource created by a scale-up, letting
// the caller register the resource wherever it needs to live.
type ScaleUpHook func(resource *models.Resource)

// ScalerParams holds the dependencies for creating a Scaler.
type ScalerParams struct {
	// Collector supplies the metric series policies evaluate.
	Collector *monitoring.ResourceCollector

	// OnScaleUp, when set, receives each resource created by a scale-up.
	OnScaleUp ScaleUpHook

	// Clock is the time source (defaults to the real clock if nil).
	Clock clock.Clock
}

// Scaler evaluates scaling policies against observed metrics and executes
// the resulting actions. It tracks a logical resource count per type;
// creating real resources is delegated to registered factories, and
// decommissioning is left to the caller via the recorded actions.
type Scaler struct {
	collector *monitoring.ResourceCollector
	onScaleUp ScaleUpHook
	clock     clock.Clock

	mu         sync.Mutex
	policies   map[models.ResourceType]*Policy
	factories  map[models.ResourceType]ResourceFactory
	counts     map[models.ResourceType]int
	lastAction map[models.ResourceType]time.Time
	history    []*Action
}

func NewScaler(params ScalerParams) *Scaler {
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return &Scaler{
		collector:  params.Collector,
		onScaleUp:  params.OnScaleUp,
		clock:      params.Clock,
		policies:   make(map[models.ResourceType]*Policy),
		factories:  make(map[models.ResourceType]ResourceFactory),
		counts:     make(map[models.ResourceType]int),
		lastAction: make(map[models.ResourceType]time.Time),
	}
}

// RegisterPolicy installs the policy for its resource type, replacing any
// previous one.
func (s *Scaler) RegisterPolicy(policy *Policy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.ResourceType] = policy
	return nil
}

// UnregisterPolicy removes the policy for a resource type.
func (s *Scaler) UnregisterPolicy(resourceType models.ResourceType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[resourceType]; !ok {
		return false
	}
	delete(s.policies, resourceType)
	return true
}

// GetPolicy returns the policy registered for a resource type.
func (s *Scaler) GetPolicy(resourceType models.ResourceType) (*Policy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy, ok := s.policies[resourceType]
	return policy, ok
}

// RegisterResourceFactory installs the factory used to create resources of
// the given type on scale-up.
func (s *Scaler) RegisterResourceFactory(resourceType models.ResourceType, factory ResourceFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[resourceType] = factory
}

// UpdateResourceCount sets the logical resource count for a type, keeping
// the scaler's bookkeeping in line with reality.
func (s *Scaler) UpdateResourceCount(resourceType models.ResourceType, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[resourceType] = count
}

// ResourceCount returns the logical resource count for a type.
func (s *Scaler) ResourceCount(resourceType models.ResourceType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[resourceType]
}

// EvaluateScaling evaluates every registered policy once and executes the
// actions it decides on. Policies still inside their cooldown are skipped.
// Returns the actions taken this pass, successful or not.
func (s *Scaler) EvaluateScaling(ctx context.Context) []*Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var actions []*Action
	for resourceType, policy := range s.policies {
		if last, ok := s.lastAction[resourceType]; ok && now.Before(last.Add(policy.Cooldown)) {
			continue
		}

		metrics := s.readMetrics(policy, now)
		direction, trigger := policy.EvaluateDirection(metrics)
		if direction == DirectionNone {
			continue
		}

		var action *Action
		switch direction {
		case DirectionUp:
			action = s.scaleUpLocked(ctx, policy, trigger, policy.ScaleUpIncrement, now)
		case DirectionDown:
			action = s.scaleDownLocked(ctx, policy, trigger, policy.ScaleDownIncrement, now)
		}

		s.lastAction[resourceType] = now
		s.history = append(s.history, action)
		actions = append(actions, action)

		log.Ctx(ctx).Debug().
			Str("policy", policy.Name).
			Stringer("type", resourceType).
			Stringer("direction", action.Direction).
			Stringer("trigger", action.Trigger).
			Stringer("status", action.Status).
			Int("count", action.Count).
			Msg("Executed scaling action")
	}
	return actions
}

// readMetrics snapshots the signals a policy needs over its window.
func (s *Scaler) readMetrics(policy *Policy, now time.Time) Metrics {
	metrics := Metrics{}
	if s.collector == nil {
		return metrics
	}

	if series, ok := s.collector.GetMetric(monitoring.UtilizationMetricName(policy.ResourceType)); ok {
		metrics.UtilizationPercent = series.Average(now, policy.EvaluationWindow)
	}
	if series, ok := s.collector.GetMetric(monitoring.MetricContentionRate); ok {
		values := series.Window(now, policy.EvaluationWindow)
		for _, v := range values {
			if v.Labels["type"] == policy.ResourceType.String() {
				metrics.ContentionCount += v.Value
			}
		}
	}
	if series, ok := s.collector.GetMetric(monitoring.MetricWaitTime); ok {
		metrics.AverageWaitTime = time.Duration(
			series.Average(now, policy.EvaluationWindow) * float64(time.Second))
	}
	return metrics
}

// scaleUpLocked creates resources through the registered factory, clamping
// the increment to the policy's maximum. Hitting the maximum records a
// failed action so the history keeps a trace of the attempt. Factory
// failures, including panics, fail the action; counts move only for
// resources actually created.
func (s *Scaler) scaleUpLocked(
	ctx context.Context,
	policy *Policy,
	trigger TriggerKind,
	increment int,
	now time.Time,
) *Action {
	current := s.counts[policy.ResourceType]
	if policy.MaxResources > 0 {
		increment = math.Min(increment, policy.MaxResources-current)
	}
	if increment <= 0 {
		action := newAction(policy.Name, policy.ResourceType, DirectionUp, trigger, 0, now)
		action.MarkFailed(
			fmt.Sprintf("already at the maximum of %d %s resources", policy.MaxResources, policy.ResourceType), now)
		return action
	}

	action := newAction(policy.Name, policy.ResourceType, DirectionUp, trigger, increment, now)

	factory, ok := s.factories[policy.ResourceType]
	if !ok {
		action.MarkFailed(fmt.Sprintf("no resource factory registered for %s", policy.ResourceType), now)
		return action
	}

	created := 0
	var failure error
	for i := 0; i < increment; i++ {
		resource, err := createResource(factory)
		if err != nil {
			failure = err
			break
		}
		created++
		if s.onScaleUp != nil {
			s.onScaleUp(resource)
		}
	}
	s.counts[policy.ResourceType] = current + created

	if failure != nil {
		action.MarkFailed(fmt.Sprintf("created %d of %d resources: %s", created, increment, failure), now)
		return action
	}
	action.MarkSuccess(fmt.Sprintf("created %d resources", created), now)
	return action
}

// createResource isolates factory panics so one broken factory cannot take
// the evaluation loop down.
func createResource(factory ResourceFactory) (resource *models.Resource, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resource factory panicked: %v", r)
		}
	}()
	return factory()
}

// scaleDownLocked lowers the logical count, clamping at the policy minimum.
// Hitting the minimum records a failed action. Which concrete resources to
// retire is the caller's decision, made from the recorded action.
func (s *Scaler) scaleDownLocked(
	_ context.Context,
	policy *Policy,
	trigger TriggerKind,
	decrement int,
	now time.Time,
) *Action {
	current := s.counts[policy.ResourceType]
	decrement = math.Min(decrement, current-policy.MinResources)
	if decrement <= 0 {
		action := newAction(policy.Name, policy.ResourceType, DirectionDown, trigger, 0, now)
		action.MarkFailed(
			fmt.Sprintf("already at the minimum of %d %s resources", policy.MinResources, policy.ResourceType), now)
		return action
	}

	action := newAction(policy.Name, policy.ResourceType, DirectionDown, trigger, decrement, now)
	s.counts[policy.ResourceType] = current - decrement
	action.MarkSuccess(fmt.Sprintf("retired %d resources", decrement), now)
	return action
}

// ScaleManually executes an immediate scale by count, positive for up and
// negative for down. Manual actions bypass policy thresholds but still
// honor min and max bounds when a policy exists (a scale past the bounds
// comes back as a failed action), and they reset the cooldown clock.
func (s *Scaler) ScaleManually(ctx context.Context, resourceType models.ResourceType, count int) (*Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count == 0 {
		return nil, fmt.Errorf("manual scale count cannot be zero")
	}

	now := s.clock.Now()
	policy, ok := s.policies[resourceType]
	if !ok {
		policy = NewPolicy("manual", resourceType)
		policy.MinResources = 0
	}

	var action *Action
	if count > 0 {
		action = s.scaleUpLocked(ctx, policy, TriggerManual, count, now)
	} else {
		action = s.scaleDownLocked(ctx, policy, TriggerManual, -count, now)
	}

	s.lastAction[resourceType] = now
	s.history = append(s.history, action)
	return action, nil
}

// History returns recorded actions newest first, optionally filtered by
// resource type (pass a zero limit for everything).
func (s *Scaler) History(resourceType *models.ResourceType, limit int) []*Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	var actions []*Action
	for i := len(s.history) - 1; i >= 0; i-- {
		action := s.history[i]
		if resourceType != nil && action.ResourceType != *resourceType {
			continue
		}
		actions = append(actions, action)
		if limit > 0 && len(actions) >= limit {
			break
		}
	}
	return actions
}
