package models

// Requirement declares what a requester needs from a single resource: a
// type, an amount, and the constraints the chosen resource must satisfy.
// Requirements are value objects and must not be mutated after being
// submitted to an allocation call.
type Requirement struct {
	Type   ResourceType `json:"Type"`
	Amount float64      `json:"Amount"`
	Unit   string       `json:"Unit"`

	// Priority orders requirements when the priority selection strategy is
	// used. e.g. 50 is more urgent than 10 and will be placed first.
	Priority int `json:"Priority"`

	Constraints []*Constraint `json:"Constraints,omitempty"`

	// PreferredResources lists resource IDs that selection strategies should
	// favor when scoring candidates.
	PreferredResources []string `json:"PreferredResources,omitempty"`

	// Elastic marks requirements that may be satisfied with varying amounts.
	Elastic bool `json:"Elastic,omitempty"`
}

// CanBeSatisfiedBy reports whether the given resource could serve this
// requirement: matching type, enough free capacity, and every constraint
// satisfied by the capability it names. A constraint naming a capability the
// resource does not declare is not satisfied.
func (q *Requirement) CanBeSatisfiedBy(resource *Resource) bool {
	if resource.Type != q.Type {
		return false
	}
	if resource.Capacity.Available() < q.Amount {
		return false
	}
	for _, constraint := range q.Constraints {
		value, ok := resource.Specification.Capabilities[constraint.Name]
		if !ok {
			return false
		}
		if !constraint.Validate(value) {
			return false
		}
	}
	return true
}
