package policy

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/reservoir-project/reservoir/pkg/allocation"
	"github.com/reservoir-project/reservoir/pkg/lib/math"
)

// WeightedPolicy is FairPolicy with unequal shares: each requester gets an
// advisory share proportional to its configured weight. Like the fair
// policy, exceeding the share is logged but never blocks the allocation.
type WeightedPolicy struct {
	allocator   *allocation.Allocator
	mu          sync.Mutex
	weights     map[string]float64
	totalWeight float64
	usage       map[string]float64
}

func NewWeightedPolicy(allocator *allocation.Allocator) *WeightedPolicy {
	return &WeightedPolicy{
		allocator: allocator,
		weights:   make(map[string]float64),
		usage:     make(map[string]float64),
	}
}

// SetWeight assigns a requester's weight, replacing any previous one. A
// weight of zero removes the requester from the weighted split.
func (p *WeightedPolicy) SetWeight(requesterID string, weight float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalWeight += weight - p.weights[requesterID]
	if weight == 0 {
		delete(p.weights, requesterID)
		return
	}
	p.weights[requesterID] = weight
}

// SharePercent returns the requester's advisory share of total capacity.
// Requesters with no weight get no share.
func (p *WeightedPolicy) SharePercent(requesterID string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sharePercentLocked(requesterID)
}

func (p *WeightedPolicy) sharePercentLocked(requesterID string) float64 {
	if p.totalWeight == 0 {
		return 0
	}
	return p.weights[requesterID] / p.totalWeight * 100
}

// Allocate serves the request through the underlying allocator, recording
// granted capacity and warning when the requester's holdings outgrow its
// weighted share.
func (p *WeightedPolicy) Allocate(ctx context.Context, request *allocation.Request) *allocation.Result {
	p.mu.Lock()
	requested := 0.0
	for _, total := range allocation.RequirementsTotal(request.Requirements) {
		requested += total
	}
	share := p.sharePercentLocked(request.RequesterID)
	current := p.usage[request.RequesterID]
	total := p.totalUsageLocked()
	if total > 0 && (current+requested)/(total+requested)*100 > share {
		log.Ctx(ctx).Warn().
			Str("requester", request.RequesterID).
			Float64("sharePercent", share).
			Float64("currentUsage", current).
			Msg("Requester exceeding weighted share, allocation proceeds")
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
func (p *WeightedPolicy) Release(ctx context.Context, reservationID string) bool {
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
func (p *WeightedPolicy) Usage(requesterID string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usage[requesterID]
}

func (p *WeightedPolicy) totalUsageLocked() float64 {
	total := 0.0
	for _, usage := range p.usage {
		total += usage
	}
	return total
}
