package validate

import "fmt"

// createError is the single place validation failures are turned into errors,
// so that callers get consistently formatted messages.
func createError(msg string, args ...any) error {
	return fmt.Errorf(msg, args...)
}

// NotBlank checks that the provided string is not empty.
func NotBlank(value string, msg string, args ...any) error {
	if value == "" {
		return createError(msg, args...)
	}
	return nil
}
