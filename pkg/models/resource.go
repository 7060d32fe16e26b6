package models

import (
	"github.com/google/uuid"
)

// Resource is a single allocatable unit of capacity tracked by the system.
// A resource is owned by exactly one manager at a time (either a pool or the
// reservation manager's registry) and all mutation goes through that owner.
type Resource struct {
	ID            string        `json:"ID"`
	Name          string        `json:"Name"`
	Type          ResourceType  `json:"Type"`
	Capacity      Capacity      `json:"Capacity"`
	State         ResourceState `json:"State"`
	Specification Specification `json:"Specification"`
	OwnerID       string        `json:"OwnerID,omitempty"`
	Tags          []string      `json:"Tags,omitempty"`
}

// NewResource creates a resource in the available state with a fresh ID and
// the given maximum capacity.
func NewResource(name string, resourceType ResourceType, maximum float64, unit string) *Resource {
	return &Resource{
		ID:    uuid.NewString(),
		Name:  name,
		Type:  resourceType,
		State: ResourceStateAvailable,
		Capacity: Capacity{
			Current: 0,
			Maximum: maximum,
			Unit:    unit,
		},
		Specification: Specification{
			Type:         resourceType,
			Capabilities: make(map[string]any),
		},
	}
}

// IsAvailable reports whether the resource can accept new reservations.
func (r *Resource) IsAvailable() bool {
	return r.State == ResourceStateAvailable && r.Capacity.Available() > 0
}

// Reserve commits the given amount of capacity to ownerID. It fails when the
// resource is not available or the amount exceeds the remaining capacity, so
// the capacity invariant can never be violated through this path. Once the
// resource is fully committed its state flips to reserved.
func (r *Resource) Reserve(amount float64, ownerID string) bool {
	if !r.IsAvailable() || amount > r.Capacity.Available() {
		return false
	}

	r.Capacity.Current += amount
	if r.Capacity.Current >= r.Capacity.Maximum {
		r.State = ResourceStateReserved
	}
	r.OwnerID = ownerID
	return true
}

// Release returns the given amount of capacity. It fails when more is
// released than is currently committed. Any release out of the reserved or
// in-use states makes the resource available again, and the owner is cleared
// once nothing remains committed.
func (r *Resource) Release(amount float64) bool {
	if r.Capacity.Current < amount {
		return false
	}

	r.Capacity.Current -= amount
	if r.State == ResourceStateReserved || r.State == ResourceStateInUse {
		r.State = ResourceStateAvailable
	}
	if r.Capacity.Current == 0 {
		r.OwnerID = ""
	}
	return true
}
