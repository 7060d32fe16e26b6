package models

import (
	"fmt"
	"strings"
)

// ResourceState tracks where a resource is in its allocation lifecycle.
// Available, Reserved and InUse transition into each other through
// Reserve/Release. Scaling, Maintenance and Failed are set by external
// signals only and are never entered by this package.
type ResourceState int

const (
	resourceStateUndefined ResourceState = iota
	ResourceStateAvailable
	ResourceStateReserved
	ResourceStateInUse
	ResourceStateScaling
	ResourceStateMaintenance
	ResourceStateFailed
)

var resourceStateNames = map[ResourceState]string{
	ResourceStateAvailable:   "available",
	ResourceStateReserved:    "reserved",
	ResourceStateInUse:       "in_use",
	ResourceStateScaling:     "scaling",
	ResourceStateMaintenance: "maintenance",
	ResourceStateFailed:      "failed",
}

func (s ResourceState) String() string {
	if name, ok := resourceStateNames[s]; ok {
		return name
	}
	return "undefined"
}

func ParseResourceState(s string) (ResourceState, error) {
	for state := ResourceStateAvailable; state <= ResourceStateFailed; state++ {
		if strings.EqualFold(state.String(), strings.TrimSpace(s)) {
			return state, nil
		}
	}
	return resourceStateUndefined, fmt.Errorf("invalid resource state: %s", s)
}

func (s ResourceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ResourceState) UnmarshalText(text []byte) (err error) {
	*s, err = ParseResourceState(string(text))
	return
}
