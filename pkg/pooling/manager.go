package pooling

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/reservoir-project/reservoir/pkg/models"
)

// PoolFactory creates a pool on demand when a resource of its type arrives
// and no existing pool can take it.
type PoolFactory func(resourceType models.ResourceType) (*Pool, error)

// PoolManager routes resources and reservations across a set of pools. Each
// resource belongs to at most one pool, and the manager tracks the mapping
// so releases find their way back without the caller naming the pool.
type PoolManager struct {
	mu             sync.Mutex
	pools          map[string]*Pool
	resourceToPool map[string]string
	typeToPools    map[models.ResourceType][]string
	factories      map[models.ResourceType]PoolFactory
}

func NewPoolManager() *PoolManager {
	return &PoolManager{
		pools:          make(map[string]*Pool),
		resourceToPool: make(map[string]string),
		typeToPools:    make(map[models.ResourceType][]string),
		factories:      make(map[models.ResourceType]PoolFactory),
	}
}

// CreatePool creates a pool from the given parameters and registers it.
func (m *PoolManager) CreatePool(params PoolParams) (*Pool, error) {
	pool, err := NewPool(params)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerPoolLocked(pool)
	return pool, nil
}

func (m *PoolManager) registerPoolLocked(pool *Pool) {
	m.pools[pool.ID] = pool
	m.typeToPools[pool.Type] = append(m.typeToPools[pool.Type], pool.ID)
}

// RemovePool deletes an empty pool. Pools still holding members cannot be
// removed; move or evict the members first.
func (m *PoolManager) RemovePool(poolID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool, ok := m.pools[poolID]
	if !ok {
		return fmt.Errorf("pool %s not found", poolID)
	}
	if pool.Size() > 0 {
		return fmt.Errorf("pool %s still has %d members", pool.Name, pool.Size())
	}

	delete(m.pools, poolID)
	m.typeToPools[pool.Type] = lo.Without(m.typeToPools[pool.Type], poolID)
	return nil
}

// GetPool returns a pool by ID.
func (m *PoolManager) GetPool(poolID string) (*Pool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pool, ok := m.pools[poolID]
	return pool, ok
}

// PoolsByType returns the pools registered for a resource type.
func (m *PoolManager) PoolsByType(resourceType models.ResourceType) []*Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Map(m.typeToPools[resourceType], func(id string, _ int) *Pool {
		return m.pools[id]
	})
}

// RegisterPoolFactory installs a factory used to create a pool when a
// resource of the given type arrives and no existing pool can take it.
func (m *PoolManager) RegisterPoolFactory(resourceType models.ResourceType, factory PoolFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[resourceType] = factory
}

// AddResourceToPool places a resource into the emptiest matching pool. When
// no pool of the resource's type has room, a registered factory is asked
// for a new pool; without one the add fails.
func (m *PoolManager) AddResourceToPool(resource *models.Resource) (*Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if poolID, ok := m.resourceToPool[resource.ID]; ok {
		return nil, fmt.Errorf("resource %s is already in pool %s", resource.ID, poolID)
	}

	if pool := m.emptiestPoolLocked(resource.Type); pool != nil {
		if err := pool.AddResource(resource); err == nil {
			m.resourceToPool[resource.ID] = pool.ID
			return pool, nil
		}
	}

	factory, ok := m.factories[resource.Type]
	if !ok {
		return nil, fmt.Errorf("no pool can take resource %s and no factory is registered for %s",
			resource.ID, resource.Type)
	}
	pool, err := factory(resource.Type)
	if err != nil {
		return nil, fmt.Errorf("pool factory for %s failed: %w", resource.Type, err)
	}
	if err := pool.AddResource(resource); err != nil {
		return nil, err
	}

	m.registerPoolLocked(pool)
	m.resourceToPool[resource.ID] = pool.ID
	log.Debug().
		Str("pool", pool.Name).
		Stringer("type", resource.Type).
		Msg("Created pool from factory")
	return pool, nil
}

// emptiestPoolLocked picks the matching pool with the lowest utilization
// that still has room for one more member.
func (m *PoolManager) emptiestPoolLocked(resourceType models.ResourceType) *Pool {
	var best *Pool
	for _, poolID := range m.typeToPools[resourceType] {
		pool := m.pools[poolID]
		if pool.MaxSize > 0 && pool.Size() >= pool.MaxSize {
			continue
		}
		if best == nil || pool.UtilizationPercent() < best.UtilizationPercent() {
			best = pool
		}
	}
	return best
}

// RemoveResourceFromPool takes a resource out of whichever pool holds it.
func (m *PoolManager) RemoveResourceFromPool(resourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	poolID, ok := m.resourceToPool[resourceID]
	if !ok {
		return fmt.Errorf("resource %s is not pooled", resourceID)
	}
	if err := m.pools[poolID].RemoveResource(resourceID); err != nil {
		return err
	}
	delete(m.resourceToPool, resourceID)
	return nil
}

// ReserveResource reserves a member for the requester, trying the preferred
// pool first (when given) and then every pool of the requirement's type.
func (m *PoolManager) ReserveResource(
	requesterID string,
	requirement *models.Requirement,
	preferredPoolID string,
) (*models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var tried []string
	if preferredPoolID != "" {
		if pool, ok := m.pools[preferredPoolID]; ok {
			if resource, err := pool.ReserveResource(requesterID, requirement); err == nil {
				return resource, nil
			}
			tried = append(tried, preferredPoolID)
		}
	}

	for _, poolID := range m.typeToPools[requirement.Type] {
		if lo.Contains(tried, poolID) {
			continue
		}
		if resource, err := m.pools[poolID].ReserveResource(requesterID, requirement); err == nil {
			return resource, nil
		}
	}
	return nil, fmt.Errorf("no pooled resource satisfies the %s requirement", requirement.Type)
}

// ReleaseResource returns a reserved member to its pool.
func (m *PoolManager) ReleaseResource(resourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	poolID, ok := m.resourceToPool[resourceID]
	if !ok {
		return fmt.Errorf("resource %s is not pooled", resourceID)
	}
	return m.pools[poolID].ReleaseResource(resourceID)
}

// CleanupIdleResources runs idle eviction on every pool, unmapping evicted
// resources, and returns the total number evicted.
func (m *PoolManager) CleanupIdleResources() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, pool := range m.pools {
		evicted := pool.CleanupIdleResources()
		total += evicted
	}
	if total > 0 {
		// Drop mappings for resources no longer in any pool.
		for resourceID, poolID := range m.resourceToPool {
			if !m.pools[poolID].Contains(resourceID) {
				delete(m.resourceToPool, resourceID)
			}
		}
		log.Debug().Int("count", total).Msg("Evicted idle pooled resources")
	}
	return total
}
