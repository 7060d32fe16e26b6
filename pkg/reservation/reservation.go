package reservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/reservoir-project/reservoir/pkg/models"
)

// Allocation binds a concrete resource to the amount reserved from it. The
// amount is already reflected in the resource's committed capacity.
type Allocation struct {
	Resource *models.Resource `json:"Resource"`
	Amount   float64          `json:"Amount"`
}

// Reservation binds a requester's requirements to specific resources and
// amounts. Its lifecycle is independent of the resources it references:
// released and expired reservations remain as records until explicitly
// purged.
type Reservation struct {
	ID           string                `json:"ID"`
	RequesterID  string                `json:"RequesterID"`
	Requirements []*models.Requirement `json:"Requirements"`
	Strategy     Strategy              `json:"Strategy"`
	Status       Status                `json:"Status"`
	CreatedAt    time.Time             `json:"CreatedAt"`
	ConfirmedAt  time.Time             `json:"ConfirmedAt,omitempty"`
	ExpiresAt    time.Time             `json:"ExpiresAt"`

	// AllocatedResources maps resource ID to the resource and amount held.
	AllocatedResources map[string]*Allocation `json:"AllocatedResources"`

	// Message carries a human readable description of the last transition.
	Message string `json:"Message"`
}

func newReservation(
	requesterID string,
	requirements []*models.Requirement,
	strategy Strategy,
	now time.Time,
	timeout time.Duration,
) *Reservation {
	return &Reservation{
		ID:                 uuid.NewString(),
		RequesterID:        requesterID,
		Requirements:       requirements,
		Strategy:           strategy,
		Status:             StatusPending,
		CreatedAt:          now,
		ExpiresAt:          now.Add(timeout),
		AllocatedResources: make(map[string]*Allocation),
	}
}

// IsExpired reports whether the reservation's confirmation window has passed.
func (r *Reservation) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// addAllocation records that amount has been reserved from the resource.
// Amounts accumulate when a resource serves more than one requirement so
// that release always returns exactly what was taken.
func (r *Reservation) addAllocation(resource *models.Resource, amount float64) {
	if existing, ok := r.AllocatedResources[resource.ID]; ok {
		existing.Amount += amount
		return
	}
	r.AllocatedResources[resource.ID] = &Allocation{Resource: resource, Amount: amount}
}

// UnsatisfiedRequirements returns the requirements that no allocated amount
// covers. A resource serving several requirements has its amount consumed
// requirement by requirement, so the answer is exact even when allocations
// were accumulated onto one resource.
func (r *Reservation) UnsatisfiedRequirements() []*models.Requirement {
	remaining := make(map[string]float64, len(r.AllocatedResources))
	for id, alloc := range r.AllocatedResources {
		remaining[id] = alloc.Amount
	}

	var unsatisfied []*models.Requirement
	for _, requirement := range r.Requirements {
		matched := false
		for id, alloc := range r.AllocatedResources {
			if alloc.Resource.Type == requirement.Type && remaining[id] >= requirement.Amount {
				remaining[id] -= requirement.Amount
				matched = true
				break
			}
		}
		if !matched {
			unsatisfied = append(unsatisfied, requirement)
		}
	}
	return unsatisfied
}

// confirm marks the reservation as officially in use, flipping every
// allocated resource to the in-use state. It fails if the reservation is not
// pending, or has expired (in which case the status becomes expired).
func (r *Reservation) confirm(now time.Time) bool {
	if r.Status != StatusPending {
		r.Message = "cannot confirm reservation with status " + r.Status.String()
		return false
	}
	if r.IsExpired(now) {
		r.Status = StatusExpired
		r.Message = "reservation expired before confirmation"
		return false
	}

	for _, alloc := range r.AllocatedResources {
		alloc.Resource.State = models.ResourceStateInUse
	}
	r.Status = StatusConfirmed
	r.ConfirmedAt = now
	r.Message = "reservation confirmed"
	return true
}

// release returns every allocated amount to its resource. A failing resource
// release does not stop the loop: remaining resources are still attempted
// and the overall call reports failure. There is deliberately no rollback of
// the amounts already returned.
func (r *Reservation) release() bool {
	if r.Status != StatusConfirmed && r.Status != StatusPartial {
		r.Message = "cannot release reservation with status " + r.Status.String()
		return false
	}

	success := true
	for resourceID, alloc := range r.AllocatedResources {
		if !alloc.Resource.Release(alloc.Amount) {
			r.Message = "failed to release resource " + resourceID
			success = false
		}
	}
	if success {
		r.Status = StatusReleased
		r.Message = "all resources released"
	}
	return success
}
