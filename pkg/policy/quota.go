package policy

import (
	"github.com/reservoir-project/reservoir/pkg/lib/math"
	"github.com/reservoir-project/reservoir/pkg/models"
)

// Quota caps one requester's holdings of one resource type, by number of
// allocations and by total capacity. A zero limit means unlimited.
type Quota struct {
	RequesterID     string              `json:"RequesterID"`
	ResourceType    models.ResourceType `json:"ResourceType"`
	MaxCount        int                 `json:"MaxCount"`
	MaxCapacity     float64             `json:"MaxCapacity"`
	CurrentCount    int                 `json:"CurrentCount"`
	CurrentCapacity float64             `json:"CurrentCapacity"`
}

// CanAllocate reports whether one more allocation of the given amount fits
// inside the quota.
func (q *Quota) CanAllocate(amount float64) bool {
	if q.MaxCount > 0 && q.CurrentCount >= q.MaxCount {
		return false
	}
	if q.MaxCapacity > 0 && q.CurrentCapacity+amount > q.MaxCapacity {
		return false
	}
	return true
}

// UpdateUsage adjusts the tracked usage, clamping at zero so unbalanced
// releases can never drive usage negative.
func (q *Quota) UpdateUsage(countDelta int, capacityDelta float64) {
	q.CurrentCount = math.Max(0, q.CurrentCount+countDelta)
	q.CurrentCapacity = math.Max(0, q.CurrentCapacity+capacityDelta)
}
