package scaling

import (
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/reservoir-project/reservoir/pkg/lib/validate"
	"github.com/reservoir-project/reservoir/pkg/models"
)

// Default thresholds applied by NewPolicy.
const (
	DefaultScaleUpUtilization   = 80.0
	DefaultScaleDownUtilization = 20.0
	DefaultScaleUpContention    = 5.0
	DefaultScaleDownContention  = 0.0
	DefaultScaleUpWaitTime      = 10 * time.Second
	DefaultScaleDownWaitTime    = time.Second
	DefaultCooldown             = 5 * time.Minute
	DefaultEvaluationWindow     = 5 * time.Minute
)

// Policy defines when and how one resource type scales. Scale-up triggers
// are checked in a fixed order (utilization, then contention, then wait
// time) and the first one past its threshold wins; scale-down needs low
// utilization, or calm contention and wait time together.
type Policy struct {
	Name         string              `json:"Name"`
	ResourceType models.ResourceType `json:"ResourceType"`

	ScaleUpUtilizationPercent   float64 `json:"ScaleUpUtilizationPercent"`
	ScaleDownUtilizationPercent float64 `json:"ScaleDownUtilizationPercent"`
	ScaleUpContentionCount      float64 `json:"ScaleUpContentionCount"`
	ScaleDownContentionCount    float64 `json:"ScaleDownContentionCount"`

	ScaleUpWaitTime   time.Duration `json:"ScaleUpWaitTime"`
	ScaleDownWaitTime time.Duration `json:"ScaleDownWaitTime"`

	// Cooldown is the minimum spacing between actions for this policy's
	// resource type.
	Cooldown time.Duration `json:"Cooldown"`

	// EvaluationWindow bounds how far back metric reads look.
	EvaluationWindow time.Duration `json:"EvaluationWindow"`

	ScaleUpIncrement   int `json:"ScaleUpIncrement"`
	ScaleDownIncrement int `json:"ScaleDownIncrement"`

	// MinResources floors the logical resource count; MaxResources caps it,
	// zero meaning uncapped.
	MinResources int `json:"MinResources"`
	MaxResources int `json:"MaxResources"`
}

// NewPolicy creates a policy with the default thresholds for one resource
// type.
func NewPolicy(name string, resourceType models.ResourceType) *Policy {
	return &Policy{
		Name:                        name,
		ResourceType:                resourceType,
		ScaleUpUtilizationPercent:   DefaultScaleUpUtilization,
		ScaleDownUtilizationPercent: DefaultScaleDownUtilization,
		ScaleUpContentionCount:      DefaultScaleUpContention,
		ScaleDownContentionCount:    DefaultScaleDownContention,
		ScaleUpWaitTime:             DefaultScaleUpWaitTime,
		ScaleDownWaitTime:           DefaultScaleDownWaitTime,
		Cooldown:                    DefaultCooldown,
		EvaluationWindow:            DefaultEvaluationWindow,
		ScaleUpIncrement:            1,
		ScaleDownIncrement:          1,
		MinResources:                1,
		MaxResources:                0,
	}
}

// Validate checks the policy for inconsistent thresholds and bounds.
func (p *Policy) Validate() error {
	mErr := multierror.Append(nil,
		validate.NotBlank(p.Name, "scaling policy name cannot be blank"),
		validate.IsGreaterThanZero(p.ScaleUpIncrement, "scale up increment must be positive"),
		validate.IsGreaterThanZero(p.ScaleDownIncrement, "scale down increment must be positive"),
		validate.IsGreaterOrEqualToZero(p.MinResources, "min resources cannot be negative"),
		validate.IsGreaterOrEqual(p.ScaleUpUtilizationPercent, p.ScaleDownUtilizationPercent,
			"scale up utilization %g cannot be below scale down utilization %g",
			p.ScaleUpUtilizationPercent, p.ScaleDownUtilizationPercent),
	)
	if p.MaxResources > 0 {
		mErr = multierror.Append(mErr, validate.IsGreaterOrEqual(p.MaxResources, p.MinResources,
			"max resources %d cannot be below min resources %d", p.MaxResources, p.MinResources))
	}
	return mErr.ErrorOrNil()
}

// Metrics is a snapshot of the signals a policy evaluates.
type Metrics struct {
	UtilizationPercent float64
	ContentionCount    float64
	AverageWaitTime    time.Duration
}

// EvaluateDirection decides which way to scale given the current signals,
// and which trigger forced the decision.
func (p *Policy) EvaluateDirection(m Metrics) (Direction, TriggerKind) {
	switch {
	case m.UtilizationPercent >= p.ScaleUpUtilizationPercent:
		return DirectionUp, TriggerUtilization
	case m.ContentionCount >= p.ScaleUpContentionCount && p.ScaleUpContentionCount > 0:
		return DirectionUp, TriggerContention
	case m.AverageWaitTime >= p.ScaleUpWaitTime && p.ScaleUpWaitTime > 0:
		return DirectionUp, TriggerWaitTime
	}

	if m.UtilizationPercent <= p.ScaleDownUtilizationPercent {
		return DirectionDown, TriggerUtilization
	}
	if m.ContentionCount <= p.ScaleDownContentionCount && m.AverageWaitTime <= p.ScaleDownWaitTime {
		return DirectionDown, TriggerContention
	}
	return DirectionNone, triggerUndefined
}
