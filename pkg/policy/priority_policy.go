package policy

import (
	"context"
	"sync"

	"github.com/reservoir-project/reservoir/pkg/allocation"
)

// PriorityPolicy routes allocations through a priority queue using
// per-requester priorities. Requests that cannot be served immediately wait
// in strict priority order; ProcessPending drains the queue as capacity
// frees up.
type PriorityPolicy struct {
	allocator  *allocation.PriorityAllocator
	mu         sync.Mutex
	priorities map[string]int64
}

func NewPriorityPolicy(allocator *allocation.PriorityAllocator) *PriorityPolicy {
	return &PriorityPolicy{
		allocator:  allocator,
		priorities: make(map[string]int64),
	}
}

// SetPriority assigns a requester's priority. Requesters without one are
// served at priority zero.
func (p *PriorityPolicy) SetPriority(requesterID string, priority int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.priorities[requesterID] = priority
}

// Priority returns the requester's configured priority.
func (p *PriorityPolicy) Priority(requesterID string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.priorities[requesterID]
}

// Allocate attempts the request immediately, queueing it at the requester's
// priority when capacity is short.
func (p *PriorityPolicy) Allocate(ctx context.Context, request *allocation.Request) *allocation.Result {
	return p.allocator.AllocateWithPriority(ctx, request, p.Priority(request.RequesterID))
}

// Release returns a reservation's capacity.
func (p *PriorityPolicy) Release(ctx context.Context, reservationID string) bool {
	return p.allocator.Release(ctx, reservationID)
}

// ProcessPending serves queued requests in priority order, stopping at the
// first one that still cannot be satisfied.
func (p *PriorityPolicy) ProcessPending(ctx context.Context) []*allocation.Result {
	return p.allocator.ProcessQueue(ctx)
}

// PendingCount returns the number of requests waiting in the queue.
func (p *PriorityPolicy) PendingCount() int {
	return p.allocator.QueueLength()
}
