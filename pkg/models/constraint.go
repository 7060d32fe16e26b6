package models

import "github.com/samber/lo"

// Constraint is a named condition a resource capability must satisfy for the
// resource to serve a requirement. Numeric capabilities are checked against
// the min/max bounds, categorical (string) capabilities against the
// required/excluded value lists.
type Constraint struct {
	Name           string   `json:"Name"`
	MinValue       *float64 `json:"MinValue,omitempty"`
	MaxValue       *float64 `json:"MaxValue,omitempty"`
	RequiredValues []string `json:"RequiredValues,omitempty"`
	ExcludedValues []string `json:"ExcludedValues,omitempty"`
}

// Validate reports whether the given capability value satisfies this
// constraint. Values that are neither numeric nor categorical pass.
func (c *Constraint) Validate(value any) bool {
	if number, ok := asFloat(value); ok {
		if c.MinValue != nil && number < *c.MinValue {
			return false
		}
		if c.MaxValue != nil && number > *c.MaxValue {
			return false
		}
		return true
	}

	if s, ok := value.(string); ok {
		if len(c.RequiredValues) > 0 && !lo.Contains(c.RequiredValues, s) {
			return false
		}
		if lo.Contains(c.ExcludedValues, s) {
			return false
		}
	}
	return true
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	}
	return 0, false
}
