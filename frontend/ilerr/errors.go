package ilerr

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/cottand/narrow/frontend/ast"
)

type IssueCode int

const (
	None IssueCode = iota
	ImpossibleCondition
	RedundantCondition
	RedundantComparison
	ImpossibleTypeComparison
	RedundantTypeComparison
	ImpossibleKeyCheck
	RedundantKeyCheck
	ParadoxicalCondition
	ConditionIsTooComplex
	InvalidOperand
	InvalidTypeCast
	RedundantCast
	ArrayToStringConversion
	MixedOperand
	NoValue
	UndefinedVariable
	PossiblyUndefinedVariable
	NonExistentFunction
	NonExistentMethod
	NonExistentClass
	InvalidArgument
	TooFewArguments
	TemplateTooDeep
)

var codeNames = [...]string{
	None:                      "None",
	ImpossibleCondition:       "ImpossibleCondition",
	RedundantCondition:        "RedundantCondition",
	RedundantComparison:       "RedundantComparison",
	ImpossibleTypeComparison:  "ImpossibleTypeComparison",
	RedundantTypeComparison:   "RedundantTypeComparison",
	ImpossibleKeyCheck:        "ImpossibleKeyCheck",
	RedundantKeyCheck:         "RedundantKeyCheck",
	ParadoxicalCondition:      "ParadoxicalCondition",
	ConditionIsTooComplex:     "ConditionIsTooComplex",
	InvalidOperand:            "InvalidOperand",
	InvalidTypeCast:           "InvalidTypeCast",
	RedundantCast:             "RedundantCast",
	ArrayToStringConversion:   "ArrayToStringConversion",
	MixedOperand:              "MixedOperand",
	NoValue:                   "NoValue",
	UndefinedVariable:         "UndefinedVariable",
	PossiblyUndefinedVariable: "PossiblyUndefinedVariable",
	NonExistentFunction:       "NonExistentFunction",
	NonExistentMethod:         "NonExistentMethod",
	NonExistentClass:          "NonExistentClass",
	InvalidArgument:           "InvalidArgument",
	TooFewArguments:           "TooFewArguments",
	TemplateTooDeep:           "TemplateTooDeep",
}

func (c IssueCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("IssueCode(%d)", int(c))
}

// ParseIssueCode finds a code by name, case-insensitively
func ParseIssueCode(name string) (IssueCode, bool) {
	for code, n := range codeNames {
		if strings.EqualFold(n, name) {
			return IssueCode(code), true
		}
	}
	return None, false
}

// DefaultSeverity is the severity issues of code c are reported with unless overridden
func (c IssueCode) DefaultSeverity() Severity {
	switch c {
	case RedundantCondition, RedundantComparison, RedundantTypeComparison, RedundantKeyCheck,
		RedundantCast, ConditionIsTooComplex, PossiblyUndefinedVariable, InvalidTypeCast,
		ArrayToStringConversion, MixedOperand, TemplateTooDeep:
		return Warning
	case None:
		return Help
	}
	return Error
}

type Severity int

const (
	Help Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Help:
		return "help"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "help", "info", "note":
		return Help, true
	case "warning", "warn":
		return Warning, true
	case "error":
		return Error, true
	}
	return Help, false
}

// Annotation points an Issue at a span of source
type Annotation struct {
	ast.Range
	Message string
	Primary bool
}

// Issue is a finding about the analysed code. Issues are values: the With* methods return copies.
type Issue struct {
	Code        IssueCode
	Severity    Severity
	Message     string
	Annotations []Annotation
	Notes       []string
	Help        string
}

func NewIssue(code IssueCode, format string, args ...any) Issue {
	return Issue{
		Code:     code,
		Severity: code.DefaultSeverity(),
		Message:  fmt.Sprintf(format, args...),
	}
}

func (i Issue) WithPrimary(at ast.Positioner, message string) Issue {
	i.Annotations = append(append([]Annotation(nil), i.Annotations...), Annotation{Range: ast.RangeOf(at), Message: message, Primary: true})
	return i
}

func (i Issue) WithSecondary(at ast.Positioner, message string) Issue {
	i.Annotations = append(append([]Annotation(nil), i.Annotations...), Annotation{Range: ast.RangeOf(at), Message: message})
	return i
}

func (i Issue) WithNote(note string) Issue {
	i.Notes = append(append([]string(nil), i.Notes...), note)
	return i
}

func (i Issue) WithHelp(help string) Issue {
	i.Help = help
	return i
}

// PrimarySpan is the range of the first primary annotation
func (i Issue) PrimarySpan() (ast.Range, bool) {
	for _, a := range i.Annotations {
		if a.Primary {
			return a.Range, true
		}
	}
	return ast.Range{}, false
}

func (i Issue) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[E%03d %s]: %s", i.Severity, int(i.Code), i.Code, i.Message)
	if span, ok := i.PrimarySpan(); ok {
		fmt.Fprintf(&sb, " (at %v)", span)
	}
	for _, note := range i.Notes {
		sb.WriteString("\n  note: " + note)
	}
	if i.Help != "" {
		sb.WriteString("\n  help: " + i.Help)
	}
	return sb.String()
}

// Format renders i with the positions of its annotations resolved against fset,
// each secondary annotation on a line of its own
func (i Issue) Format(fset *token.FileSet) string {
	var sb strings.Builder
	if span, ok := i.PrimarySpan(); ok {
		fmt.Fprintf(&sb, "%s: ", fset.Position(span.PosStart))
	}
	fmt.Fprintf(&sb, "%s[E%03d %s]: %s", i.Severity, int(i.Code), i.Code, i.Message)
	for _, a := range i.Annotations {
		if a.Message == "" {
			continue
		}
		marker := "-"
		if a.Primary {
			marker = "^"
		}
		fmt.Fprintf(&sb, "\n  %s %s: %s", marker, fset.Position(a.PosStart), a.Message)
	}
	for _, note := range i.Notes {
		sb.WriteString("\n  note: " + note)
	}
	if i.Help != "" {
		sb.WriteString("\n  help: " + i.Help)
	}
	return sb.String()
}
