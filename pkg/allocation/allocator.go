package allocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/reservoir-project/reservoir/pkg/models"
	"github.com/reservoir-project/reservoir/pkg/reservation"
)

// Request describes one allocation attempt. WaitIfUnavailable parks a
// partially satisfiable request for later retry instead of reporting the
// partial result.
type Request struct {
	RequesterID       string
	Requirements      []*models.Requirement
	Strategy          reservation.Strategy
	Timeout           time.Duration
	WaitIfUnavailable bool
}

// AllocatorParams holds the dependencies for creating an Allocator.
type AllocatorParams struct {
	Reservations *reservation.Manager
}

// Allocator turns allocation requests into confirmed reservations. Anything
// short of a full match is released immediately; callers never end up
// holding a partial grant without asking for it.
type Allocator struct {
	reservations *reservation.Manager
	mu           sync.Mutex
	pending      map[string]*Request
}

func NewAllocator(params AllocatorParams) *Allocator {
	return &Allocator{
		reservations: params.Reservations,
		pending:      make(map[string]*Request),
	}
}

// Reservations exposes the underlying reservation manager, mainly so
// policies wrapping the allocator can inspect resources.
func (a *Allocator) Reservations() *reservation.Manager {
	return a.reservations
}

// Allocate attempts to reserve and confirm capacity for every requirement in
// the request. A full match is confirmed and returned as a success. A
// partial match has its holds released; with WaitIfUnavailable set the
// request is then parked for RetryPendingAllocations, otherwise the result
// reports which requirements could not be covered. A request that matches
// nothing fails outright regardless of WaitIfUnavailable.
func (a *Allocator) Allocate(ctx context.Context, request *Request) *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocateLocked(ctx, request)
}

func (a *Allocator) allocateLocked(ctx context.Context, request *Request) *Result {
	r := a.reservations.CreateReservation(
		ctx, request.RequesterID, request.Requirements, request.Strategy, request.Timeout)

	switch r.Status {
	case reservation.StatusPending:
		if !a.reservations.Confirm(ctx, r.ID) {
			return &Result{
				Status:        StatusFailed,
				ReservationID: r.ID,
				RequesterID:   request.RequesterID,
				Message:       fmt.Sprintf("failed to confirm reservation: %s", r.Message),
			}
		}
		return &Result{
			Status:             StatusSuccess,
			ReservationID:      r.ID,
			RequesterID:        request.RequesterID,
			Message:            "all requirements allocated",
			AllocatedResources: allocatedAmounts(r),
		}

	case reservation.StatusPartial:
		unsatisfied := r.UnsatisfiedRequirements()
		a.reservations.Release(ctx, r.ID)
		if request.WaitIfUnavailable {
			return a.deferLocked(ctx, request)
		}
		return &Result{
			Status:                  StatusPartial,
			ReservationID:           r.ID,
			RequesterID:             request.RequesterID,
			Message:                 fmt.Sprintf("unsatisfied requirement types: %v", requirementTypes(unsatisfied)),
			UnsatisfiedRequirements: unsatisfied,
		}

	default:
		return &Result{
			Status:                  StatusFailed,
			ReservationID:           r.ID,
			RequesterID:             request.RequesterID,
			Message:                 "no requirements could be allocated",
			UnsatisfiedRequirements: request.Requirements,
		}
	}
}

// deferLocked parks the request under its own table entry, so one requester
// can have several requests waiting at once.
func (a *Allocator) deferLocked(ctx context.Context, request *Request) *Result {
	id := uuid.NewString()
	a.pending[id] = request
	log.Ctx(ctx).Debug().
		Str("requester", request.RequesterID).
		Str("pending", id).
		Int("requirements", len(request.Requirements)).
		Msg("Deferred allocation request")
	return &Result{
		Status:      StatusDeferred,
		RequesterID: request.RequesterID,
		Message:     "resources unavailable, request deferred",
	}
}

// Release returns the capacity held by a confirmed reservation.
func (a *Allocator) Release(ctx context.Context, reservationID string) bool {
	return a.reservations.Release(ctx, reservationID)
}

// PendingCount returns how many deferred requests are waiting for a retry.
func (a *Allocator) PendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// RetryPendingAllocations makes a single pass over the deferred requests,
// retrying each with its original strategy. Requests that succeed leave the
// table; the rest stay parked for the next sweep. Returns the number of
// requests satisfied.
func (a *Allocator) RetryPendingAllocations(ctx context.Context) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	satisfied := 0
	for id, request := range a.pending {
		retry := *request
		retry.WaitIfUnavailable = false
		result := a.allocateLocked(ctx, &retry)
		if result.IsSuccess() {
			delete(a.pending, id)
			satisfied++
			log.Ctx(ctx).Debug().
				Str("requester", request.RequesterID).
				Str("reservation", result.ReservationID).
				Msg("Deferred allocation satisfied")
		}
	}
	return satisfied
}

func allocatedAmounts(r *reservation.Reservation) map[string]float64 {
	amounts := make(map[string]float64, len(r.AllocatedResources))
	for id, alloc := range r.AllocatedResources {
		amounts[id] = alloc.Amount
	}
	return amounts
}

func requirementTypes(requirements []*models.Requirement) []string {
	return lo.Uniq(lo.Map(requirements, func(r *models.Requirement, _ int) string {
		return r.Type.String()
	}))
}
