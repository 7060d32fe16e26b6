package allocation

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/reservoir-project/reservoir/pkg/lib/collections"
	"github.com/reservoir-project/reservoir/pkg/models"
)

// PriorityAllocator wraps an Allocator with a priority queue for requests
// that cannot be satisfied immediately. The queue is strict: requests are
// served in priority order, and a request that still cannot be satisfied
// blocks everything behind it until capacity frees up.
type PriorityAllocator struct {
	*Allocator
	queue *collections.PriorityQueue[*Request]
}

func NewPriorityAllocator(params AllocatorParams) *PriorityAllocator {
	return &PriorityAllocator{
		Allocator: NewAllocator(params),
		queue:     collections.NewPriorityQueue[*Request](),
	}
}

// AllocateWithPriority attempts the allocation immediately; anything short of
// full success is enqueued at the given priority and reported as queued.
func (a *PriorityAllocator) AllocateWithPriority(
	ctx context.Context,
	request *Request,
	priority int64,
) *Result {
	attempt := *request
	attempt.WaitIfUnavailable = false
	result := a.Allocate(ctx, &attempt)
	if result.IsSuccess() {
		return result
	}

	// Preemption of lower priority holders is not attempted; the request
	// waits for capacity to be released instead.
	a.queue.Enqueue(request, priority)
	log.Ctx(ctx).Debug().
		Str("requester", request.RequesterID).
		Int64("priority", priority).
		Msg("Queued allocation request")
	return &Result{
		Status:      StatusQueued,
		RequesterID: request.RequesterID,
		Message:     "resources unavailable, request queued",
	}
}

// QueueLength returns the number of requests waiting in the queue.
func (a *PriorityAllocator) QueueLength() int {
	return a.queue.Len()
}

// ProcessQueue serves queued requests in priority order, stopping at the
// first request that cannot be fully satisfied. That request is put back at
// its original priority so lower priority requests cannot jump ahead of it.
// Returns the results of the requests that were satisfied.
func (a *PriorityAllocator) ProcessQueue(ctx context.Context) []*Result {
	var results []*Result
	for {
		item := a.queue.Dequeue()
		if item == nil {
			break
		}

		attempt := *item.Value
		attempt.WaitIfUnavailable = false
		if !a.canSatisfy(&attempt) {
			a.queue.Enqueue(item.Value, item.Priority)
			break
		}

		result := a.Allocate(ctx, &attempt)
		if !result.IsSuccess() {
			a.queue.Enqueue(item.Value, item.Priority)
			break
		}
		results = append(results, result)
	}
	return results
}

// canSatisfy checks every requirement against the current registry without
// reserving anything, so a hopeless request can be requeued without the
// reserve and release churn of a doomed attempt.
func (a *PriorityAllocator) canSatisfy(request *Request) bool {
	for _, requirement := range request.Requirements {
		if len(a.reservations.AvailableResources(requirement)) == 0 {
			return false
		}
	}
	return true
}

// RequirementsTotal sums the requested amounts per resource type, used by
// policies that budget by capacity rather than by count.
func RequirementsTotal(requirements []*models.Requirement) map[models.ResourceType]float64 {
	totals := make(map[models.ResourceType]float64)
	for _, requirement := range requirements {
		totals[requirement.Type] += requirement.Amount
	}
	return totals
}
