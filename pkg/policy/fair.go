package policy

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/reservoir-project/reservoir/pkg/allocation"
	"github.com/reservoir-project/reservoir/pkg/lib/math"
)

// FairPolicy tracks cumulative capacity held per requester and warns when a
// requester grows past an equal share of the total. The share is advisory:
// requests over the share are logged and still served, on the grounds that
// idle capacity should never be withheld to enforce fairness on paper.
type FairPolicy struct {
	allocator *allocation.Allocator
	mu        sync.Mutex
	usage     map[string]float64
}

func NewFairPolicy(allocator *allocation.Allocator) *FairPolicy {
	return &FairPolicy{
		allocator: allocator,
		usage:     make(map[string]float64),
	}
}

// Allocate serves the request through the underlying allocator, recording
// the granted capacity against the requester.
func (p *FairPolicy) Allocate(ctx context.Context, request *allocation.Request) *allocation.Result {
	p.mu.Lock()
	requested := 0.0
	for _, totals := range allocation.RequirementsTotal(request.Requirements) {
		requested += totals
	}
	share := p.fairShareLocked()
	current := p.usage[request.RequesterID]
	total := p.totalUsageLocked()
	if total > 0 && (current+requested)/(total+requested)*100 > share {
		log.Ctx(ctx).Warn().
			Str("requester", request.RequesterID).
			Float64("fairSharePercent", share).
			Float64("currentUsage", current).
			Msg("Requester exceeding fair share, allocation proceeds")
	}
	p.mu.Unlock()

	result := p.allocator.Allocate(ctx, request)
	if result.IsSuccess() {
		p.mu.Lock()
		p.usage[request.RequesterID] += requested
		p.mu.Unlock()
	}
	return result
}

// Release returns a reservation's capacity and reduces the requester's
// tracked usage by the amounts it held.
func (p *FairPolicy) Release(ctx context.Context, reservationID string) bool {
	r, ok := p.allocator.Reservations().GetReservation(reservationID)
	if !ok {
		return false
	}
	if !p.allocator.Release(ctx, reservationID) {
		return false
	}

	held := 0.0
	for _, alloc := range r.AllocatedResources {
		held += alloc.Amount
	}

	p.mu.Lock()
	p.usage[r.RequesterID] = math.Max(0, p.usage[r.RequesterID]-held)
	p.mu.Unlock()
	return true
}

// Usage returns the capacity currently tracked against a requester.
func (p *FairPolicy) Usage(requesterID string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usage[requesterID]
}

// fairShareLocked is the advisory share percentage: an equal split across
// every requester seen so far.
func (p *FairPolicy) fairShareLocked() float64 {
	if len(p.usage) == 0 {
		return 100
	}
	return 100 / float64(len(p.usage))
}

func (p *FairPolicy) totalUsageLocked() float64 {
	total := 0.0
	for _, usage := range p.usage {
		total += usage
	}
	return total
}
