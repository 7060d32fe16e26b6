package validation

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Result accumulates constraint violations. Validation never stops at the
// first problem (except on a type mismatch, where further checks are
// meaningless), so callers can surface every violation at once.
type Result struct {
	violations []string
}

func NewResult() *Result {
	return &Result{}
}

// IsValid reports whether no violations have been recorded.
func (r *Result) IsValid() bool {
	return len(r.violations) == 0
}

// AddViolation records a violation described by the given format string.
func (r *Result) AddViolation(format string, args ...any) {
	r.violations = append(r.violations, fmt.Sprintf(format, args...))
}

// Violations returns the recorded violation messages in order.
func (r *Result) Violations() []string {
	return r.violations
}

// Merge folds another result's violations into this one.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.violations = append(r.violations, other.violations...)
}

// Err returns all violations as a single error, or nil when valid.
func (r *Result) Err() error {
	if r.IsValid() {
		return nil
	}
	var err *multierror.Error
	for _, violation := range r.violations {
		err = multierror.Append(err, errors.New(violation))
	}
	return err.ErrorOrNil()
}
