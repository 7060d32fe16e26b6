package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/reservoir-project/reservoir/pkg/models"
)

// CollectorFunc produces an observation for a custom metric each time the
// collector runs.
type CollectorFunc func() (float64, error)

// CollectorParams holds configuration for creating a Collector.
type CollectorParams struct {
	// Clock is the time source (defaults to the real clock if nil).
	Clock clock.Clock
}

// Collector owns a registry of metric series and records observations into
// them, either pushed by callers or pulled from registered collector
// functions.
type Collector struct {
	clock      clock.Clock
	mu         sync.Mutex
	metrics    map[string]*Series
	collectors map[string]CollectorFunc
}

func NewCollector(params CollectorParams) *Collector {
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return &Collector{
		clock:      params.Clock,
		metrics:    make(map[string]*Series),
		collectors: make(map[string]CollectorFunc),
	}
}

// Clock exposes the collector's time source so consumers reading windows
// share the same notion of now.
func (c *Collector) Clock() clock.Clock {
	return c.clock
}

// RegisterMetric creates a series under the given name. Registering an
// existing name returns the series already in place.
func (c *Collector) RegisterMetric(name string, metricType MetricType, unit string) *Series {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.metrics[name]; ok {
		return existing
	}
	series := NewSeries(name, metricType, unit)
	c.metrics[name] = series
	return series
}

// RecordMetric appends an observation to a registered series.
func (c *Collector) RecordMetric(name string, value float64, labels map[string]string) error {
	c.mu.Lock()
	series, ok := c.metrics[name]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("metric %s is not registered", name)
	}

	series.Record(Value{Value: value, Timestamp: c.clock.Now(), Labels: labels})
	return nil
}

// GetMetric returns a registered series by name.
func (c *Collector) GetMetric(name string) (*Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	series, ok := c.metrics[name]
	return series, ok
}

// AllMetrics returns a snapshot of every registered series.
func (c *Collector) AllMetrics() []*Series {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Values(c.metrics)
}

// RegisterCollectorFunc attaches a function producing observations for the
// named metric every time Collect runs. The metric must already be
// registered.
func (c *Collector) RegisterCollectorFunc(name string, fn CollectorFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.metrics[name]; !ok {
		return fmt.Errorf("metric %s is not registered", name)
	}
	c.collectors[name] = fn
	return nil
}

// Collect runs every registered collector function once. A failing
// collector is logged and skipped; the rest still run.
func (c *Collector) Collect(ctx context.Context) {
	c.mu.Lock()
	collectors := make(map[string]CollectorFunc, len(c.collectors))
	for name, fn := range c.collectors {
		collectors[name] = fn
	}
	c.mu.Unlock()

	for name, fn := range collectors {
		value, err := fn()
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("metric", name).Msg("Metric collector failed")
			continue
		}
		if err := c.RecordMetric(name, value, nil); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("metric", name).Msg("Failed to record collected metric")
		}
	}
}

// Standard series names recorded by the ResourceCollector.
const (
	MetricUtilizationOverall = "resource_utilization_overall"
	MetricAllocationRate     = "resource_allocation_rate"
	MetricContentionRate     = "resource_contention_rate"
	MetricWaitTime           = "resource_wait_time"
)

// UtilizationMetricName is the per-type utilization series name.
func UtilizationMetricName(resourceType models.ResourceType) string {
	return "resource_utilization_" + resourceType.String()
}

// ResourceCollector layers resource semantics over a Collector: it tracks a
// set of resources and records utilization, allocation and contention
// series for them under well-known names.
type ResourceCollector struct {
	*Collector
	mu        sync.Mutex
	resources map[string]*models.Resource
}

func NewResourceCollector(params CollectorParams) *ResourceCollector {
	rc := &ResourceCollector{
		Collector: NewCollector(params),
		resources: make(map[string]*models.Resource),
	}
	rc.RegisterMetric(MetricUtilizationOverall, MetricTypeUtilization, "percent")
	rc.RegisterMetric(MetricAllocationRate, MetricTypeAllocationRate, "allocations")
	rc.RegisterMetric(MetricContentionRate, MetricTypeContentionRate, "events")
	rc.RegisterMetric(MetricWaitTime, MetricTypeWaitTime, "seconds")
	return rc
}

// RegisterResource adds a resource to the utilization census.
func (rc *ResourceCollector) RegisterResource(resource *models.Resource) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.resources[resource.ID] = resource
	rc.Collector.RegisterMetric(UtilizationMetricName(resource.Type), MetricTypeUtilization, "percent")
}

// UnregisterResource removes a resource from the census.
func (rc *ResourceCollector) UnregisterResource(resourceID string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.resources, resourceID)
}

// CollectUtilization records the overall and per-type utilization across
// the registered resources, weighted by capacity.
func (rc *ResourceCollector) CollectUtilization(ctx context.Context) {
	rc.mu.Lock()
	typeCurrent := make(map[models.ResourceType]float64)
	typeMaximum := make(map[models.ResourceType]float64)
	for _, resource := range rc.resources {
		typeCurrent[resource.Type] += resource.Capacity.Current
		typeMaximum[resource.Type] += resource.Capacity.Maximum
	}
	rc.mu.Unlock()

	totalCurrent, totalMaximum := 0.0, 0.0
	for resourceType, maximum := range typeMaximum {
		totalCurrent += typeCurrent[resourceType]
		totalMaximum += maximum
		if maximum == 0 {
			continue
		}
		name := UtilizationMetricName(resourceType)
		if err := rc.RecordMetric(name, typeCurrent[resourceType]/maximum*100,
			map[string]string{"type": resourceType.String()}); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("metric", name).Msg("Failed to record utilization")
		}
	}

	overall := 0.0
	if totalMaximum > 0 {
		overall = totalCurrent / totalMaximum * 100
	}
	//nolint:errcheck // series is registered in the constructor
	rc.RecordMetric(MetricUtilizationOverall, overall, nil)
}

// RecordAllocation notes one served allocation and how long the requester
// waited for it.
func (rc *ResourceCollector) RecordAllocation(resourceType models.ResourceType, waitTime time.Duration) {
	labels := map[string]string{"type": resourceType.String()}
	//nolint:errcheck // both series are registered in the constructor
	rc.RecordMetric(MetricAllocationRate, 1, labels)
	//nolint:errcheck
	rc.RecordMetric(MetricWaitTime, waitTime.Seconds(), labels)
}

// RecordContention notes one detected contention event.
func (rc *ResourceCollector) RecordContention(resourceType models.ResourceType) {
	//nolint:errcheck // series is registered in the constructor
	rc.RecordMetric(MetricContentionRate, 1, map[string]string{"type": resourceType.String()})
}
