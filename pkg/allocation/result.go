package allocation

import (
	"github.com/reservoir-project/reservoir/pkg/models"
)

// Result describes the outcome of a single allocation attempt. Only a
// success carries a confirmed reservation; partial and failed attempts
// have had their holds returned already.
type Result struct {
	Status        Status `json:"Status"`
	ReservationID string `json:"ReservationID,omitempty"`
	RequesterID   string `json:"RequesterID"`
	Message       string `json:"Message,omitempty"`

	// AllocatedResources maps resource ID to the amount confirmed on it.
	AllocatedResources map[string]float64 `json:"AllocatedResources,omitempty"`

	// UnsatisfiedRequirements lists the requirements no resource could cover.
	UnsatisfiedRequirements []*models.Requirement `json:"UnsatisfiedRequirements,omitempty"`
}

// IsSuccess reports whether every requirement was allocated and confirmed.
func (r *Result) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// IsTerminal reports whether the attempt is finished; deferred and queued
// requests may still succeed later.
func (r *Result) IsTerminal() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartial || r.Status == StatusFailed
}
