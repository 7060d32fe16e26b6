package pooling

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"

	"github.com/reservoir-project/reservoir/pkg/lib/validate"
	"github.com/reservoir-project/reservoir/pkg/models"
)

// PoolParams holds configuration for creating a Pool.
type PoolParams struct {
	Name     string
	Type     models.ResourceType
	Strategy Strategy

	// MinSize is the membership floor idle eviction never goes below.
	// Defaults to 1.
	MinSize int

	// MaxSize caps membership; zero means unbounded.
	MaxSize int

	// IdleTimeout is how long an unreserved member may sit before becoming
	// an eviction candidate; zero disables idle eviction.
	IdleTimeout time.Duration

	// Clock is the time source (defaults to the real clock if nil).
	Clock clock.Clock
}

func (p *PoolParams) validate() error {
	mErr := multierror.Append(nil,
		validate.NotBlank(p.Name, "pool name cannot be blank"),
		validate.IsGreaterOrEqualToZero(p.MinSize, "pool min size cannot be negative"),
	)
	if p.MaxSize > 0 {
		mErr = multierror.Append(mErr, validate.IsGreaterOrEqual(
			p.MaxSize, p.MinSize, "pool max size %d cannot be below min size %d", p.MaxSize, p.MinSize))
	}
	return mErr.ErrorOrNil()
}

// Pool groups resources of one type and hands them out to requesters. A
// member is either available or reserved by exactly one requester; pooled
// resources are reserved whole, not sliced by amount.
type Pool struct {
	ID          string
	Name        string
	Type        models.ResourceType
	Strategy    Strategy
	MinSize     int
	MaxSize     int
	IdleTimeout time.Duration

	clock        clock.Clock
	mu           sync.Mutex
	members      map[string]*models.Resource
	available    map[string]struct{}
	reserved     map[string]string
	lastActivity map[string]time.Time
}

func NewPool(params PoolParams) (*Pool, error) {
	if params.MinSize == 0 {
		params.MinSize = 1
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	return &Pool{
		ID:           uuid.NewString(),
		Name:         params.Name,
		Type:         params.Type,
		Strategy:     params.Strategy,
		MinSize:      params.MinSize,
		MaxSize:      params.MaxSize,
		IdleTimeout:  params.IdleTimeout,
		clock:        params.Clock,
		members:      make(map[string]*models.Resource),
		available:    make(map[string]struct{}),
		reserved:     make(map[string]string),
		lastActivity: make(map[string]time.Time),
	}, nil
}

// AddResource adds a resource to the pool. The resource must match the
// pool's type, and the pool must have room.
func (p *Pool) AddResource(resource *models.Resource) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if resource.Type != p.Type {
		return fmt.Errorf("resource type %s does not match pool type %s", resource.Type, p.Type)
	}
	if p.MaxSize > 0 && len(p.members) >= p.MaxSize {
		return fmt.Errorf("pool %s is at maximum size %d", p.Name, p.MaxSize)
	}
	if _, ok := p.members[resource.ID]; ok {
		return fmt.Errorf("resource %s is already in pool %s", resource.ID, p.Name)
	}

	p.members[resource.ID] = resource
	p.available[resource.ID] = struct{}{}
	p.lastActivity[resource.ID] = p.clock.Now()
	return nil
}

// RemoveResource takes a resource out of the pool. Reserved members cannot
// be removed.
func (p *Pool) RemoveResource(resourceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.members[resourceID]; !ok {
		return fmt.Errorf("resource %s is not in pool %s", resourceID, p.Name)
	}
	if _, ok := p.reserved[resourceID]; ok {
		return fmt.Errorf("resource %s is reserved and cannot be removed", resourceID)
	}

	delete(p.members, resourceID)
	delete(p.available, resourceID)
	delete(p.lastActivity, resourceID)
	return nil
}

// ReserveResource hands an available member to the requester, committing
// its capacity. A nil requirement reserves the first member with any free
// capacity; a requirement narrows the candidates to those satisfying it.
func (p *Pool) ReserveResource(requesterID string, requirement *models.Requirement) (*models.Resource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for resourceID := range p.available {
		resource := p.members[resourceID]
		if requirement != nil && !requirement.CanBeSatisfiedBy(resource) {
			continue
		}

		amount := resource.Capacity.Available()
		if requirement != nil {
			amount = requirement.Amount
		}
		if !resource.Reserve(amount, requesterID) {
			continue
		}

		delete(p.available, resourceID)
		p.reserved[resourceID] = requesterID
		p.lastActivity[resourceID] = p.clock.Now()
		return resource, nil
	}
	return nil, fmt.Errorf("no available resource in pool %s satisfies the request", p.Name)
}

// ReleaseResource returns a reserved member to the pool, releasing all of
// its committed capacity.
func (p *Pool) ReleaseResource(resourceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.reserved[resourceID]; !ok {
		return fmt.Errorf("resource %s is not reserved in pool %s", resourceID, p.Name)
	}

	resource := p.members[resourceID]
	resource.Release(resource.Capacity.Current)
	delete(p.reserved, resourceID)
	p.available[resourceID] = struct{}{}
	p.lastActivity[resourceID] = p.clock.Now()
	return nil
}

// Size returns the total number of members.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members)
}

// AvailableCount returns the number of unreserved members.
func (p *Pool) AvailableCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available)
}

// ReservedCount returns the number of reserved members.
func (p *Pool) ReservedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reserved)
}

// UtilizationPercent is the share of members currently reserved.
func (p *Pool) UtilizationPercent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.members) == 0 {
		return 0
	}
	return float64(len(p.reserved)) / float64(len(p.members)) * 100
}

// Members returns a snapshot of the pool's resources.
func (p *Pool) Members() []*models.Resource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo.Values(p.members)
}

// Contains reports whether the resource is a member of the pool.
func (p *Pool) Contains(resourceID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.members[resourceID]
	return ok
}

// CleanupIdleResources evicts available members that have been idle past
// the pool's timeout, never shrinking membership below MinSize. Returns the
// number of members evicted. Pools without an idle timeout never evict.
func (p *Pool) CleanupIdleResources() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.IdleTimeout <= 0 {
		return 0
	}
	excess := len(p.members) - p.MinSize
	if excess <= 0 {
		return 0
	}

	cutoff := p.clock.Now().Add(-p.IdleTimeout)
	evicted := 0
	for resourceID := range p.available {
		if evicted >= excess {
			break
		}
		if p.lastActivity[resourceID].After(cutoff) {
			continue
		}
		delete(p.members, resourceID)
		delete(p.available, resourceID)
		delete(p.lastActivity, resourceID)
		evicted++
	}
	return evicted
}
