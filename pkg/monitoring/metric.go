package monitoring

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// MetricType classifies what a metric series measures.
type MetricType int

const (
	metricTypeUndefined MetricType = iota
	MetricTypeUtilization
	MetricTypeAllocationRate
	MetricTypeContentionRate
	MetricTypeWaitTime
	MetricTypeThroughput
	MetricTypeEfficiency
	MetricTypeCustom
)

var metricTypeNames = map[MetricType]string{
	MetricTypeUtilization:    "utilization",
	MetricTypeAllocationRate: "allocation_rate",
	MetricTypeContentionRate: "contention_rate",
	MetricTypeWaitTime:       "wait_time",
	MetricTypeThroughput:     "throughput",
	MetricTypeEfficiency:     "efficiency",
	MetricTypeCustom:         "custom",
}

func (t MetricType) String() string {
	if name, ok := metricTypeNames[t]; ok {
		return name
	}
	return "undefined"
}

func ParseMetricType(s string) (MetricType, error) {
	for t := MetricTypeUtilization; t <= MetricTypeCustom; t++ {
		if strings.EqualFold(t.String(), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return metricTypeUndefined, fmt.Errorf("invalid metric type: %s", s)
}

func (t MetricType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *MetricType) UnmarshalText(text []byte) (err error) {
	*t, err = ParseMetricType(string(text))
	return
}

// Value is one recorded observation.
type Value struct {
	Value     float64           `json:"Value"`
	Timestamp time.Time         `json:"Timestamp"`
	Labels    map[string]string `json:"Labels,omitempty"`
}

// DefaultMaxHistory bounds a series when no explicit limit is given.
const DefaultMaxHistory = 1000

// Series is a bounded in-memory time series for one metric. When the bound
// is reached the oldest values fall off first.
type Series struct {
	Name       string
	Type       MetricType
	Unit       string
	MaxHistory int

	mu     sync.Mutex
	values []Value
}

func NewSeries(name string, metricType MetricType, unit string) *Series {
	return &Series{
		Name:       name,
		Type:       metricType,
		Unit:       unit,
		MaxHistory: DefaultMaxHistory,
	}
}

// Record appends an observation, evicting the oldest when the series is at
// its bound.
func (s *Series) Record(value Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = append(s.values, value)
	if s.MaxHistory > 0 && len(s.values) > s.MaxHistory {
		s.values = s.values[len(s.values)-s.MaxHistory:]
	}
}

// Latest returns the most recent observation, if any.
func (s *Series) Latest() (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) == 0 {
		return Value{}, false
	}
	return s.values[len(s.values)-1], true
}

// Len returns the number of retained observations.
func (s *Series) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// Window returns the observations recorded at or after the cutoff. A zero
// window returns everything retained.
func (s *Series) Window(now time.Time, window time.Duration) []Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windowLocked(now, window)
}

func (s *Series) windowLocked(now time.Time, window time.Duration) []Value {
	if window <= 0 {
		return append([]Value(nil), s.values...)
	}
	cutoff := now.Add(-window)
	return lo.Filter(s.values, func(v Value, _ int) bool {
		return !v.Timestamp.Before(cutoff)
	})
}

// Average returns the mean of the observations in the window, or zero when
// the window is empty.
func (s *Series) Average(now time.Time, window time.Duration) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.windowLocked(now, window)
	if len(values) == 0 {
		return 0
	}
	return lo.SumBy(values, func(v Value) float64 { return v.Value }) / float64(len(values))
}

// Percentile returns the nearest-rank percentile of the observations in the
// window, or zero when the window is empty. p is in [0, 100].
func (s *Series) Percentile(now time.Time, window time.Duration, p float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.windowLocked(now, window)
	if len(values) == 0 {
		return 0
	}

	sorted := lo.Map(values, func(v Value, _ int) float64 { return v.Value })
	sort.Float64s(sorted)

	rank := int(p / 100 * float64(len(sorted)))
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
