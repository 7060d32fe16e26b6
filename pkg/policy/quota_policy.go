package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/reservoir-project/reservoir/pkg/allocation"
	"github.com/reservoir-project/reservoir/pkg/models"
)

// QuotaPolicy enforces per-requester quotas before the allocator ever sees
// the request. Unlike the fair and weighted policies, quotas are hard
// limits: a request over quota fails without reserving anything.
type QuotaPolicy struct {
	allocator *allocation.Allocator
	mu        sync.Mutex
	quotas    map[string]map[models.ResourceType]*Quota
}

func NewQuotaPolicy(allocator *allocation.Allocator) *QuotaPolicy {
	return &QuotaPolicy{
		allocator: allocator,
		quotas:    make(map[string]map[models.ResourceType]*Quota),
	}
}

// SetQuota installs or replaces the quota for one requester and resource
// type. Existing usage carries over when a quota is replaced.
func (p *QuotaPolicy) SetQuota(quota *Quota) {
	p.mu.Lock()
	defer p.mu.Unlock()

	byType, ok := p.quotas[quota.RequesterID]
	if !ok {
		byType = make(map[models.ResourceType]*Quota)
		p.quotas[quota.RequesterID] = byType
	}
	if existing, ok := byType[quota.ResourceType]; ok {
		quota.CurrentCount = existing.CurrentCount
		quota.CurrentCapacity = existing.CurrentCapacity
	}
	byType[quota.ResourceType] = quota
}

// GetQuota returns the quota for one requester and resource type, if set.
func (p *QuotaPolicy) GetQuota(requesterID string, resourceType models.ResourceType) (*Quota, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	quota, ok := p.quotas[requesterID][resourceType]
	return quota, ok
}

// Allocate rejects the request outright if any requirement would exceed the
// requester's quota, and otherwise serves it through the allocator. Granted
// requests are charged against the quota; types without a quota are
// unconstrained.
func (p *QuotaPolicy) Allocate(ctx context.Context, request *allocation.Request) *allocation.Result {
	totals := allocation.RequirementsTotal(request.Requirements)

	p.mu.Lock()
	for resourceType, amount := range totals {
		quota, ok := p.quotas[request.RequesterID][resourceType]
		if !ok {
			continue
		}
		if !quota.CanAllocate(amount) {
			p.mu.Unlock()
			log.Ctx(ctx).Debug().
				Str("requester", request.RequesterID).
				Stringer("type", resourceType).
				Float64("amount", amount).
				Msg("Allocation rejected by quota")
			return &allocation.Result{
				Status:                  allocation.StatusFailed,
				RequesterID:             request.RequesterID,
				Message:                 fmt.Sprintf("quota exceeded for %s resources", resourceType),
				UnsatisfiedRequirements: request.Requirements,
			}
		}
	}
	p.mu.Unlock()

	result := p.allocator.Allocate(ctx, request)
	if result.IsSuccess() {
		p.mu.Lock()
		for resourceType, amount := range totals {
			if quota, ok := p.quotas[request.RequesterID][resourceType]; ok {
				quota.UpdateUsage(1, amount)
			}
		}
		p.mu.Unlock()
	}
	return result
}

// Release returns a reservation's capacity and refunds the requester's
// quota by the amounts it held.
func (p *QuotaPolicy) Release(ctx context.Context, reservationID string) bool {
	r, ok := p.allocator.Reservations().GetReservation(reservationID)
	if !ok {
		return false
	}
	if !p.allocator.Release(ctx, reservationID) {
		return false
	}

	held := make(map[models.ResourceType]float64)
	for _, alloc := range r.AllocatedResources {
		held[alloc.Resource.Type] += alloc.Amount
	}

	p.mu.Lock()
	for resourceType, amount := range held {
		if quota, ok := p.quotas[r.RequesterID][resourceType]; ok {
			quota.UpdateUsage(-1, -amount)
		}
	}
	p.mu.Unlock()
	return true
}
