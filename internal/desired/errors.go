package desired

import "fmt"

// ParseError describes one malformed configuration value.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %q: %s", e.Field, e.Value, e.Reason)
}

func parseErr(field, value, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}
