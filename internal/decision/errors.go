package decision

import (
	"errors"
	"fmt"
)

// ErrSchemaValidation is wrapped by every ValidationError. It is fatal to the
// whole batch: no trade may be attempted once it is seen.
var ErrSchemaValidation = errors.New("schema validation failed")

// ValidationError reports the first violated constraint of a decision batch.
type ValidationError struct {
	Section  string // "batch", "decisions" or "stopLossUpdates"
	Index    int    // element index inside Section, -1 at batch level
	Field    string
	Expected string
	Actual   any
	Missing  bool
}

func (e *ValidationError) Error() string {
	actual := fmt.Sprintf("%v", e.Actual)
	if s, ok := e.Actual.(string); ok {
		actual = fmt.Sprintf("%q", s)
	}
	if e.Missing {
		actual = "<absent>"
	}
	return fmt.Sprintf("%v: %s: expected %s, got %s", ErrSchemaValidation, e.Path(), e.Expected, actual)
}

func (e *ValidationError) Unwrap() error { return ErrSchemaValidation }

// Path renders the offending location, e.g. "decisions[2].ticker".
func (e *ValidationError) Path() string {
	switch {
	case e.Index >= 0 && e.Field != "":
		return fmt.Sprintf("%s[%d].%s", e.Section, e.Index, e.Field)
	case e.Index >= 0:
		return fmt.Sprintf("%s[%d]", e.Section, e.Index)
	case e.Field != "":
		return e.Field
	default:
		return e.Section
	}
}
