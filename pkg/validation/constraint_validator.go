package validation

import (
	"github.com/reservoir-project/reservoir/pkg/models"
)

// ConstraintValidator provides targeted checks for individual constraint
// kinds, used when callers want to validate one aspect of a resource rather
// than a full requirement.
type ConstraintValidator struct{}

func NewConstraintValidator() *ConstraintValidator {
	return &ConstraintValidator{}
}

// ValidateCapacity checks that the resource's free capacity falls within
// [minCapacity, maxCapacity]. maxCapacity <= 0 disables the upper bound.
func (v *ConstraintValidator) ValidateCapacity(
	resource *models.Resource,
	minCapacity float64,
	maxCapacity float64,
) *Result {
	result := NewResult()

	available := resource.Capacity.Available()
	if available < minCapacity {
		result.AddViolation("insufficient capacity: %g < %g", available, minCapacity)
	}
	if maxCapacity > 0 && available > maxCapacity {
		result.AddViolation("excessive capacity: %g > %g", available, maxCapacity)
	}
	return result
}

// ValidateCapability checks one named capability against the given
// constraint, reporting each bound or list violation separately.
func (v *ConstraintValidator) ValidateCapability(
	resource *models.Resource,
	constraint *models.Constraint,
) *Result {
	result := NewResult()

	value, ok := resource.Specification.Capabilities[constraint.Name]
	if !ok {
		result.AddViolation("missing capability: %s not found in resource", constraint.Name)
		return result
	}

	if !constraint.Validate(value) {
		result.AddViolation("capability %s value %v does not satisfy constraint", constraint.Name, value)
	}
	return result
}

// ValidateCompatibility checks that a resource declares no capability value
// that conflicts with the same capability on any of the given resources.
func (v *ConstraintValidator) ValidateCompatibility(
	resource *models.Resource,
	compatibleWith []*models.Resource,
) *Result {
	result := NewResult()

	for _, other := range compatibleWith {
		for key, value := range resource.Specification.Capabilities {
			otherValue, ok := other.Specification.Capabilities[key]
			if ok && value != otherValue {
				result.AddViolation(
					"compatibility issue: %s has %s=%v but %s has %s=%v",
					resource.Name, key, value, other.Name, key, otherValue)
			}
		}
	}
	return result
}
