package models

// Specification describes what a resource is capable of, beyond its raw
// capacity. Capabilities hold scalar values (numbers, strings, bools) keyed
// by name; Constraints restrict what the resource itself will accept.
type Specification struct {
	Type         ResourceType      `json:"Type"`
	Capabilities map[string]any    `json:"Capabilities,omitempty"`
	Constraints  []*Constraint     `json:"Constraints,omitempty"`
	Metadata     map[string]string `json:"Metadata,omitempty"`
}

// MeetsCapabilities reports whether this specification satisfies the given
// capability requirements. Numeric requirements are satisfied by any equal or
// greater capability value; everything else requires equality. A requirement
// naming an absent capability is not satisfied.
func (s *Specification) MeetsCapabilities(required map[string]any) bool {
	for key, requiredValue := range required {
		currentValue, ok := s.Capabilities[key]
		if !ok {
			return false
		}

		requiredNumber, requiredIsNumber := asFloat(requiredValue)
		currentNumber, currentIsNumber := asFloat(currentValue)
		if requiredIsNumber && currentIsNumber {
			if currentNumber < requiredNumber {
				return false
			}
		} else if currentValue != requiredValue {
			return false
		}
	}
	return true
}
