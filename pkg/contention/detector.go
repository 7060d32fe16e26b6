package contention

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/reservoir-project/reservoir/pkg/models"
)

// Event records one detected episode of contention over a resource type,
// from detection until a resolver marks it resolved.
type Event struct {
	ID                      string              `json:"ID"`
	ResourceType            models.ResourceType `json:"ResourceType"`
	CompetingReservationIDs []string            `json:"CompetingReservationIDs"`
	Severity                Severity            `json:"Severity"`
	DetectedAt              time.Time           `json:"DetectedAt"`
	ResolvedAt              time.Time           `json:"ResolvedAt,omitempty"`
	ResolutionStrategy      ResolutionStrategy  `json:"ResolutionStrategy,omitempty"`
}

// IsResolved reports whether a resolver has already handled the event.
func (e *Event) IsResolved() bool {
	return !e.ResolvedAt.IsZero()
}

// DetectorParams holds configuration for creating a Detector.
type DetectorParams struct {
	// Clock is the time source (defaults to the real clock if nil).
	Clock clock.Clock
}

// Detector tracks declared demand and supply per resource type and flags
// the types where demand outstrips supply. It works entirely from the
// numbers it is told about; it never inspects resources directly.
type Detector struct {
	clock  clock.Clock
	mu     sync.Mutex
	demand map[models.ResourceType]map[string]float64
	supply map[models.ResourceType]float64
	events map[string]*Event
}

func NewDetector(params DetectorParams) *Detector {
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return &Detector{
		clock:  params.Clock,
		demand: make(map[models.ResourceType]map[string]float64),
		supply: make(map[models.ResourceType]float64),
		events: make(map[string]*Event),
	}
}

// RegisterReservation declares a reservation's demand against each resource
// type it requires.
func (d *Detector) RegisterReservation(reservationID string, requirements []*models.Requirement) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, requirement := range requirements {
		byReservation, ok := d.demand[requirement.Type]
		if !ok {
			byReservation = make(map[string]float64)
			d.demand[requirement.Type] = byReservation
		}
		byReservation[reservationID] += requirement.Amount
	}
}

// UnregisterReservation withdraws all demand declared for a reservation.
func (d *Detector) UnregisterReservation(reservationID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for resourceType, byReservation := range d.demand {
		delete(byReservation, reservationID)
		if len(byReservation) == 0 {
			delete(d.demand, resourceType)
		}
	}
}

// UpdateResourceSupply sets the total available supply for a resource type.
func (d *Detector) UpdateResourceSupply(resourceType models.ResourceType, supply float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.supply[resourceType] = supply
}

// DetectContention compares demand against supply for every resource type
// with declared demand, recording and returning an event for each contended
// type. Severity grows with the demand-to-supply ratio; zero supply against
// any demand is always critical.
func (d *Detector) DetectContention(ctx context.Context) []*Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	var detected []*Event
	for resourceType, byReservation := range d.demand {
		totalDemand := lo.Sum(lo.Values(byReservation))
		supply := d.supply[resourceType]
		if totalDemand <= 0 || supply >= totalDemand {
			continue
		}

		event := &Event{
			ID:                      uuid.NewString(),
			ResourceType:            resourceType,
			CompetingReservationIDs: lo.Keys(byReservation),
			Severity:                severityFor(totalDemand, supply),
			DetectedAt:              d.clock.Now(),
		}
		d.events[event.ID] = event
		detected = append(detected, event)

		log.Ctx(ctx).Debug().
			Stringer("type", resourceType).
			Float64("demand", totalDemand).
			Float64("supply", supply).
			Stringer("severity", event.Severity).
			Int("competitors", len(event.CompetingReservationIDs)).
			Msg("Detected resource contention")
	}
	return detected
}

// GetEvent returns a previously detected event by ID.
func (d *Detector) GetEvent(eventID string) (*Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	event, ok := d.events[eventID]
	return event, ok
}

// ActiveEvents returns the detected events that have not been resolved yet.
func (d *Detector) ActiveEvents() []*Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Filter(lo.Values(d.events), func(e *Event, _ int) bool {
		return !e.IsResolved()
	})
}

// severityFor grades the demand-to-supply ratio. Boundaries are inclusive:
// a ratio of exactly 1.2 is still low.
func severityFor(demand, supply float64) Severity {
	if supply == 0 {
		return SeverityCritical
	}
	ratio := demand / supply
	switch {
	case ratio <= 1.2:
		return SeverityLow
	case ratio <= 1.5:
		return SeverityMedium
	case ratio <= 2.0:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}
