package monitoring

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// WidgetKind is the visual form a dashboard widget takes.
type WidgetKind int

const (
	widgetKindUndefined WidgetKind = iota
	WidgetKindGauge
	WidgetKindChart
	WidgetKindTable
	WidgetKindAlert
	WidgetKindStatus
)

var widgetKindNames = map[WidgetKind]string{
	WidgetKindGauge:  "gauge",
	WidgetKindChart:  "chart",
	WidgetKindTable:  "table",
	WidgetKindAlert:  "alert",
	WidgetKindStatus: "status",
}

func (k WidgetKind) String() string {
	if name, ok := widgetKindNames[k]; ok {
		return name
	}
	return "undefined"
}

func ParseWidgetKind(s string) (WidgetKind, error) {
	for kind := WidgetKindGauge; kind <= WidgetKindStatus; kind++ {
		if strings.EqualFold(kind.String(), strings.TrimSpace(s)) {
			return kind, nil
		}
	}
	return widgetKindUndefined, fmt.Errorf("invalid widget kind: %s", s)
}

// GaugeData is the payload of a gauge widget.
type GaugeData struct {
	Value float64 `json:"Value"`
	Unit  string  `json:"Unit"`
}

// ChartData is the payload of a chart widget.
type ChartData struct {
	Values []Value `json:"Values"`
}

// TableRow summarizes one metric for a table widget.
type TableRow struct {
	Metric  string  `json:"Metric"`
	Latest  float64 `json:"Latest"`
	Average float64 `json:"Average"`
}

// TableData is the payload of a table widget.
type TableData struct {
	Rows []TableRow `json:"Rows"`
}

// AlertData is the payload of an alert widget.
type AlertData struct {
	Triggered bool    `json:"Triggered"`
	Value     float64 `json:"Value"`
	Threshold float64 `json:"Threshold"`
}

// StatusData is the payload of a status widget.
type StatusData struct {
	Healthy bool   `json:"Healthy"`
	Message string `json:"Message"`
}

// Widget is one dashboard tile bound to a metric. Widgets refresh lazily:
// data is recomputed only when read after the refresh interval has passed.
type Widget struct {
	ID              string        `json:"ID"`
	Title           string        `json:"Title"`
	Kind            WidgetKind    `json:"Kind"`
	Metric          string        `json:"Metric,omitempty"`
	Window          time.Duration `json:"Window,omitempty"`
	RefreshInterval time.Duration `json:"RefreshInterval"`

	// Threshold arms alert widgets; other kinds ignore it.
	Threshold float64 `json:"Threshold,omitempty"`

	lastRefresh time.Time
	data        any
}

// ShouldRefresh reports whether the widget's data is stale.
func (w *Widget) ShouldRefresh(now time.Time) bool {
	return w.lastRefresh.IsZero() || !now.Before(w.lastRefresh.Add(w.RefreshInterval))
}

// Refresh recomputes the widget's payload from the collector.
func (w *Widget) Refresh(collector *Collector, now time.Time) {
	w.lastRefresh = now

	switch w.Kind {
	case WidgetKindGauge:
		data := GaugeData{}
		if series, ok := collector.GetMetric(w.Metric); ok {
			data.Unit = series.Unit
			if latest, ok := series.Latest(); ok {
				data.Value = latest.Value
			}
		}
		w.data = data

	case WidgetKindChart:
		data := ChartData{}
		if series, ok := collector.GetMetric(w.Metric); ok {
			data.Values = series.Window(now, w.Window)
		}
		w.data = data

	case WidgetKindTable:
		rows := lo.Map(collector.AllMetrics(), func(series *Series, _ int) TableRow {
			row := TableRow{Metric: series.Name, Average: series.Average(now, w.Window)}
			if latest, ok := series.Latest(); ok {
				row.Latest = latest.Value
			}
			return row
		})
		w.data = TableData{Rows: rows}

	case WidgetKindAlert:
		data := AlertData{Threshold: w.Threshold}
		if series, ok := collector.GetMetric(w.Metric); ok {
			data.Value = series.Average(now, w.Window)
			data.Triggered = data.Value > w.Threshold
		}
		w.data = data

	case WidgetKindStatus:
		healthy := true
		message := "all metrics reporting"
		if series, ok := collector.GetMetric(w.Metric); ok {
			if _, hasData := series.Latest(); !hasData {
				healthy = false
				message = fmt.Sprintf("metric %s has no data", w.Metric)
			}
		} else if w.Metric != "" {
			healthy = false
			message = fmt.Sprintf("metric %s is not registered", w.Metric)
		}
		w.data = StatusData{Healthy: healthy, Message: message}
	}
}

// Data returns the widget's last computed payload.
func (w *Widget) Data() any {
	return w.data
}

// Dashboard is a pull-based view over a collector: reading it refreshes
// only the widgets whose interval has lapsed.
type Dashboard struct {
	collector *Collector
	mu        sync.Mutex
	widgets   map[string]*Widget
	order     []string
}

// NewDashboard creates a dashboard with the default widget layout over the
// standard resource metric series.
func NewDashboard(collector *Collector) *Dashboard {
	d := &Dashboard{
		collector: collector,
		widgets:   make(map[string]*Widget),
	}
	for _, w := range defaultWidgets() {
		d.AddWidget(w)
	}
	return d
}

func defaultWidgets() []*Widget {
	return []*Widget{
		{
			ID:              "utilization-gauge",
			Title:           "Overall Utilization",
			Kind:            WidgetKindGauge,
			Metric:          MetricUtilizationOverall,
			RefreshInterval: 10 * time.Second,
		},
		{
			ID:              "utilization-chart",
			Title:           "Utilization History",
			Kind:            WidgetKindChart,
			Metric:          MetricUtilizationOverall,
			Window:          time.Hour,
			RefreshInterval: time.Minute,
		},
		{
			ID:              "allocation-chart",
			Title:           "Allocation Rate",
			Kind:            WidgetKindChart,
			Metric:          MetricAllocationRate,
			Window:          time.Hour,
			RefreshInterval: time.Minute,
		},
		{
			ID:              "wait-time-gauge",
			Title:           "Latest Wait Time",
			Kind:            WidgetKindGauge,
			Metric:          MetricWaitTime,
			RefreshInterval: 10 * time.Second,
		},
		{
			ID:              "contention-alert",
			Title:           "Contention",
			Kind:            WidgetKindAlert,
			Metric:          MetricContentionRate,
			Window:          5 * time.Minute,
			Threshold:       0,
			RefreshInterval: 30 * time.Second,
		},
		{
			ID:              "utilization-alert",
			Title:           "High Utilization",
			Kind:            WidgetKindAlert,
			Metric:          MetricUtilizationOverall,
			Window:          5 * time.Minute,
			Threshold:       90,
			RefreshInterval: 30 * time.Second,
		},
		{
			ID:              "metrics-table",
			Title:           "All Metrics",
			Kind:            WidgetKindTable,
			Window:          time.Hour,
			RefreshInterval: time.Minute,
		},
		{
			ID:              "collector-status",
			Title:           "Collector Status",
			Kind:            WidgetKindStatus,
			Metric:          MetricUtilizationOverall,
			RefreshInterval: time.Minute,
		},
	}
}

// AddWidget installs a widget, replacing any widget with the same ID.
func (d *Dashboard) AddWidget(widget *Widget) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.widgets[widget.ID]; !ok {
		d.order = append(d.order, widget.ID)
	}
	d.widgets[widget.ID] = widget
}

// RemoveWidget deletes a widget by ID.
func (d *Dashboard) RemoveWidget(widgetID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.widgets[widgetID]; !ok {
		return false
	}
	delete(d.widgets, widgetID)
	d.order = lo.Without(d.order, widgetID)
	return true
}

// GetWidget returns a widget by ID.
func (d *Dashboard) GetWidget(widgetID string) (*Widget, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	widget, ok := d.widgets[widgetID]
	return widget, ok
}

// Widgets returns the widgets in their display order.
func (d *Dashboard) Widgets() []*Widget {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Map(d.order, func(id string, _ int) *Widget {
		return d.widgets[id]
	})
}

// Data refreshes the widgets whose interval has lapsed and returns every
// widget's payload keyed by widget ID.
func (d *Dashboard) Data() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.collector.Clock().Now()
	data := make(map[string]any, len(d.widgets))
	for id, widget := range d.widgets {
		if widget.ShouldRefresh(now) {
			widget.Refresh(d.collector, now)
		}
		data[id] = widget.Data()
	}
	return data
}

// RefreshAll forces every widget to recompute regardless of staleness.
func (d *Dashboard) RefreshAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.collector.Clock().Now()
	for _, widget := range d.widgets {
		widget.Refresh(d.collector, now)
	}
}
