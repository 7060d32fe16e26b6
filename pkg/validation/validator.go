package validation

import (
	"sync"

	"github.com/reservoir-project/reservoir/pkg/models"
)

// ValidatorFunc is a custom check run against every resource/requirement
// pair in addition to the built-in checks.
type ValidatorFunc func(resource *models.Resource, requirement *models.Requirement) *Result

// ResourceValidator checks resources against requirement constraints,
// accumulating every violation found rather than stopping at the first.
type ResourceValidator struct {
	mu               sync.RWMutex
	customValidators map[string]ValidatorFunc
}

func NewResourceValidator() *ResourceValidator {
	return &ResourceValidator{
		customValidators: make(map[string]ValidatorFunc),
	}
}

// RegisterCustomValidator adds a named custom check applied on every
// validation call. Registering the same name again replaces the previous
// check.
func (v *ResourceValidator) RegisterCustomValidator(name string, fn ValidatorFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.customValidators[name] = fn
}

// UnregisterCustomValidator removes a named custom check, returning false if
// no check with that name was registered.
func (v *ResourceValidator) UnregisterCustomValidator(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.customValidators[name]; !ok {
		return false
	}
	delete(v.customValidators, name)
	return true
}

// ValidateResourceForRequirement checks a single resource against a single
// requirement. A type mismatch short-circuits; every other problem is
// accumulated so the result lists them all.
func (v *ResourceValidator) ValidateResourceForRequirement(
	resource *models.Resource,
	requirement *models.Requirement,
) *Result {
	result := NewResult()

	if resource.Type != requirement.Type {
		result.AddViolation("resource type mismatch: %s != %s", resource.Type, requirement.Type)
		return result
	}

	if resource.Capacity.Available() < requirement.Amount {
		result.AddViolation("insufficient capacity: %g < %g", resource.Capacity.Available(), requirement.Amount)
	}

	for _, constraint := range requirement.Constraints {
		value, ok := resource.Specification.Capabilities[constraint.Name]
		if !ok {
			result.AddViolation("missing capability: %s not found in resource", constraint.Name)
			continue
		}
		if !constraint.Validate(value) {
			result.AddViolation("constraint violation for %s: value %v does not satisfy constraint", constraint.Name, value)
		}
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, fn := range v.customValidators {
		result.Merge(fn(resource, requirement))
	}

	return result
}

// ValidateResourcesForRequirements checks whether the given resource set can
// cover the given requirements, reporting a violation per requirement that
// no resource of the right type satisfies.
func (v *ResourceValidator) ValidateResourcesForRequirements(
	resources []*models.Resource,
	requirements []*models.Requirement,
) *Result {
	result := NewResult()

	byType := make(map[models.ResourceType][]*models.Resource)
	for _, resource := range resources {
		byType[resource.Type] = append(byType[resource.Type], resource)
	}

	for _, requirement := range requirements {
		candidates, ok := byType[requirement.Type]
		if !ok {
			result.AddViolation("no resources of type %s available", requirement.Type)
			continue
		}

		satisfied := false
		for _, resource := range candidates {
			if v.ValidateResourceForRequirement(resource, requirement).IsValid() {
				satisfied = true
				break
			}
		}
		if !satisfied {
			result.AddViolation("no resource of type %s satisfies the requirement", requirement.Type)
		}
	}

	return result
}
