package models

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// ERRORS
// ============================================================================

var (
	ErrMalformedConditionKey = errors.New("malformed condition key")
	ErrUnknownOperator       = errors.New("unknown operator")
	ErrUnknownAttributePath  = errors.New("unknown attribute path")
	ErrConversionFailure     = errors.New("conversion failure")
	ErrNonComparableType     = errors.New("non-comparable type")
)

// FilterError carries the offending key, path or value of a failed parse or compile.
// Match the category with errors.Is(err, ErrUnknownOperator) etc.
type FilterError struct {
	Err        error    // one of the sentinels above
	Key        string   // condition key, when known
	Path       string   // attribute path, when known
	Segment    string   // missing path segment (ErrUnknownAttributePath)
	Value      any      // offending value
	Target     string   // target type name (ErrConversionFailure, ErrNonComparableType)
	Formats    []string // accepted formats (ErrConversionFailure)
	Suggestion string   // closest registered operator (ErrUnknownOperator)
	Cause      error
}

func (e *FilterError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())

	switch {
	case e.Key != "":
		fmt.Fprintf(&b, " %q", e.Key)
	case e.Path != "":
		fmt.Fprintf(&b, " %q", e.Path)
	}
	if e.Segment != "" {
		fmt.Fprintf(&b, ": no attribute %q", e.Segment)
	}
	if e.Target != "" {
		fmt.Fprintf(&b, ": %v is not %s", e.Value, e.Target)
	}
	if len(e.Formats) > 0 {
		fmt.Fprintf(&b, " (accepted formats: %s, input [%v])", strings.Join(e.Formats, ", "), e.Value)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, ". Did you mean '%s'?", e.Suggestion)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes both the category sentinel and the underlying cause.
func (e *FilterError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}
