package reservation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/exp/maps"

	"github.com/reservoir-project/reservoir/pkg/models"
)

const DefaultTimeout = 5 * time.Minute

// strategyFunc applies one resource-selection algorithm to a pending
// reservation, reserving capacity and recording allocations as it goes.
type strategyFunc func(m *Manager, r *Reservation)

// strategyTable dispatches strategies without runtime type inspection.
var strategyTable = map[Strategy]strategyFunc{
	StrategyGreedy:    (*Manager).applyGreedy,
	StrategyBalanced:  (*Manager).applyBalanced,
	StrategyOptimized: (*Manager).applyOptimized,
	StrategyPriority:  (*Manager).applyPriority,
}

// ManagerParams holds configuration for creating a reservation Manager.
type ManagerParams struct {
	// Clock is the time source (defaults to the real clock if nil).
	Clock clock.Clock
}

// Manager owns the authoritative resource registry and the reservation
// table. All access to both is mediated through the manager's methods under
// a single mutex; resources handed to the manager must not be mutated by
// other owners.
type Manager struct {
	clock        clock.Clock
	mu           sync.Mutex
	resources    map[string]*models.Resource
	reservations map[string]*Reservation
}

func NewManager(params ManagerParams) *Manager {
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return &Manager{
		clock:        params.Clock,
		resources:    make(map[string]*models.Resource),
		reservations: make(map[string]*Reservation),
	}
}

// RegisterResource adds a resource to the registry, making it a candidate
// for future reservations.
func (m *Manager) RegisterResource(resource *models.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[resource.ID] = resource
}

// UnregisterResource removes a resource from the registry, returning false
// if it was not registered. Amounts already reserved against it remain
// attached to their reservations.
func (m *Manager) UnregisterResource(resourceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[resourceID]; !ok {
		return false
	}
	delete(m.resources, resourceID)
	return true
}

// GetResource returns the registered resource with the given ID, if any.
func (m *Manager) GetResource(resourceID string) (*models.Resource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resource, ok := m.resources[resourceID]
	return resource, ok
}

// ResourceCount returns the number of registered resources of the given type.
func (m *Manager) ResourceCount(resourceType models.ResourceType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.CountBy(maps.Values(m.resources), func(r *models.Resource) bool {
		return r.Type == resourceType
	})
}

// AvailableResources returns every registered resource that could satisfy
// the given requirement right now.
func (m *Manager) AvailableResources(requirement *models.Requirement) []*models.Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.availableResourcesLocked(requirement)
}

func (m *Manager) availableResourcesLocked(requirement *models.Requirement) []*models.Resource {
	return lo.Filter(maps.Values(m.resources), func(r *models.Resource, _ int) bool {
		return r.IsAvailable() && requirement.CanBeSatisfiedBy(r)
	})
}

// CreateReservation attempts to reserve capacity for every requirement using
// the given strategy, and stores the resulting reservation whatever its
// outcome. The reservation ends up pending when all requirements matched,
// partial when only some did, and failed when none did. Reserved amounts are
// committed immediately; a partial outcome leaves the matched amounts held
// (release or expiry returns them).
func (m *Manager) CreateReservation(
	ctx context.Context,
	requesterID string,
	requirements []*models.Requirement,
	strategy Strategy,
	timeout time.Duration,
) *Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	r := newReservation(requesterID, requirements, strategy, m.clock.Now(), timeout)

	if apply, ok := strategyTable[strategy]; ok {
		apply(m, r)
	}

	switch {
	case len(r.AllocatedResources) == 0:
		r.Status = StatusFailed
		r.Message = "failed to allocate any required resources"
	case len(r.UnsatisfiedRequirements()) == 0:
		r.Status = StatusPending
		r.Message = "all required resources allocated"
	default:
		r.Status = StatusPartial
		r.Message = "only some required resources could be allocated"
	}

	m.reservations[r.ID] = r

	log.Ctx(ctx).Debug().
		Str("reservation", r.ID).
		Str("requester", requesterID).
		Stringer("strategy", strategy).
		Stringer("status", r.Status).
		Int("requirements", len(requirements)).
		Int("allocated", len(r.AllocatedResources)).
		Msg("Created reservation")

	return r
}

// Confirm flips a pending reservation to confirmed, marking every allocated
// resource in use. Expiry is checked at call time: confirming an expired
// reservation marks it expired and returns false.
func (m *Manager) Confirm(ctx context.Context, reservationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[reservationID]
	if !ok {
		return false
	}
	wasPending := r.Status == StatusPending
	confirmed := r.confirm(m.clock.Now())
	if !confirmed && wasPending && r.Status == StatusExpired {
		// The confirmation window closed while the holds were still out;
		// return them now rather than waiting for the next sweep to miss
		// an already expired record.
		for _, alloc := range r.AllocatedResources {
			alloc.Resource.Release(alloc.Amount)
		}
	}
	log.Ctx(ctx).Debug().
		Str("reservation", reservationID).
		Bool("confirmed", confirmed).
		Stringer("status", r.Status).
		Msg("Confirm reservation")
	return confirmed
}

// Release returns all amounts held by a confirmed or partial reservation.
// The release is not transactional: a failing resource does not stop the
// remaining resources from being released, and the call reports failure.
func (m *Manager) Release(ctx context.Context, reservationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reservations[reservationID]
	if !ok {
		return false
	}
	released := r.release()
	log.Ctx(ctx).Debug().
		Str("reservation", reservationID).
		Bool("released", released).
		Stringer("status", r.Status).
		Msg("Release reservation")
	return released
}

// GetReservation returns the reservation with the given ID, if present.
func (m *Manager) GetReservation(reservationID string) (*Reservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[reservationID]
	return r, ok
}

// CleanupExpired releases the amounts held by pending reservations whose
// confirmation window has passed and marks them expired, returning how many
// were swept. Callers are expected to run this periodically; expiry is not
// enforced by timers.
func (m *Manager) CleanupExpired(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	count := 0
	for _, r := range m.reservations {
		if r.Status != StatusPending || !r.IsExpired(now) {
			continue
		}
		for _, alloc := range r.AllocatedResources {
			alloc.Resource.Release(alloc.Amount)
		}
		r.Status = StatusExpired
		r.Message = "reservation expired"
		count++
	}
	if count > 0 {
		log.Ctx(ctx).Debug().Int("count", count).Msg("Swept expired reservations")
	}
	return count
}

// PurgeHistory deletes terminal (released or expired) reservations created
// before the given cutoff, returning how many records were removed. This is
// the only way reservation records are ever destroyed.
func (m *Manager) PurgeHistory(olderThan time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.clock.Now().Add(-olderThan)
	count := 0
	for id, r := range m.reservations {
		if r.Status.IsTerminal() && r.CreatedAt.Before(cutoff) {
			delete(m.reservations, id)
			count++
		}
	}
	return count
}

// applyGreedy takes, per requirement, the candidate with the most free
// capacity.
func (m *Manager) applyGreedy(r *Reservation) {
	for _, requirement := range r.Requirements {
		candidates := m.availableResourcesLocked(requirement)
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].Capacity.Available() > candidates[j].Capacity.Available()
		})
		m.reserveFirst(r, requirement, candidates)
	}
}

// applyBalanced spreads load by preferring the least utilized candidate.
func (m *Manager) applyBalanced(r *Reservation) {
	for _, requirement := range r.Requirements {
		candidates := m.availableResourcesLocked(requirement)
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].Capacity.UtilizationPercent() < candidates[j].Capacity.UtilizationPercent()
		})
		m.reserveFirst(r, requirement, candidates)
	}
}

// applyOptimized scores each candidate by free headroom and whether the
// requirement prefers it, and takes the best scoring one.
func (m *Manager) applyOptimized(r *Reservation) {
	for _, requirement := range r.Requirements {
		candidates := m.availableResourcesLocked(requirement)

		scores := make(map[string]float64, len(candidates))
		for _, candidate := range candidates {
			utilizationScore := 1.0 - candidate.Capacity.UtilizationPercent()/100
			preferenceScore := 0.5
			if lo.Contains(requirement.PreferredResources, candidate.ID) {
				preferenceScore = 1.0
			}
			scores[candidate.ID] = (utilizationScore + preferenceScore) / 2
		}
		sort.Slice(candidates, func(i, j int) bool {
			return scores[candidates[i].ID] > scores[candidates[j].ID]
		})
		m.reserveFirst(r, requirement, candidates)
	}
}

// applyPriority processes requirements most urgent first; within each, it
// prefers resources the requirement names, breaking ties by free capacity.
func (m *Manager) applyPriority(r *Reservation) {
	ordered := make([]*models.Requirement, len(r.Requirements))
	copy(ordered, r.Requirements)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, requirement := range ordered {
		candidates := m.availableResourcesLocked(requirement)
		sort.Slice(candidates, func(i, j int) bool {
			iPreferred := lo.Contains(requirement.PreferredResources, candidates[i].ID)
			jPreferred := lo.Contains(requirement.PreferredResources, candidates[j].ID)
			if iPreferred != jPreferred {
				return iPreferred
			}
			return candidates[i].Capacity.Available() > candidates[j].Capacity.Available()
		})
		m.reserveFirst(r, requirement, candidates)
	}
}

func (m *Manager) reserveFirst(r *Reservation, requirement *models.Requirement, candidates []*models.Resource) {
	for _, candidate := range candidates {
		if candidate.Reserve(requirement.Amount, r.RequesterID) {
			r.addAllocation(candidate, requirement.Amount)
			return
		}
	}
}
