package ilerr

import (
	"fmt"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/pkg/errors"
)

// AnalysisError is an invariant violation inside the analyzer, such as a malformed AST
// or missing metadata. Unlike an Issue it aborts the analysis of the current file.
type AnalysisError struct {
	ast.Range
	Message string
}

func (e *AnalysisError) Error() string {
	if e.Range.IsZero() {
		return "analysis error: " + e.Message
	}
	return fmt.Sprintf("analysis error at %v: %s", e.Range, e.Message)
}

// NewAnalysisError builds an AnalysisError carrying the current stack
func NewAnalysisError(at ast.Positioner, format string, args ...any) error {
	return errors.WithStack(&AnalysisError{
		Range:   ast.RangeOf(at),
		Message: fmt.Sprintf(format, args...),
	})
}

// AsAnalysisError finds the AnalysisError in err's chain, if any
func AsAnalysisError(err error) (*AnalysisError, bool) {
	var target *AnalysisError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// FormatWithStack renders err with the stack it was created with, when it has one
func FormatWithStack(err error) string {
	return fmt.Sprintf("%+v", err)
}
