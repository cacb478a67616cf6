package ilerr

import (
	"fmt"
	"log/slog"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/hashicorp/go-set/v3"
)

type issueKey struct {
	code IssueCode
	span ast.Range
}

// Collector accumulates the issues found while analysing one file, in the order they
// are reported. The same code reported twice at the same primary span is kept once.
type Collector struct {
	issues     []Issue
	seen       map[issueKey]struct{}
	overrides  map[IssueCode]Severity
	suppressed *set.Set[IssueCode]
}

func NewCollector() *Collector {
	return &Collector{
		seen:       map[issueKey]struct{}{},
		overrides:  map[IssueCode]Severity{},
		suppressed: set.New[IssueCode](0),
	}
}

// WithSeverity makes issues of code be reported as severity
func (c *Collector) WithSeverity(code IssueCode, severity Severity) *Collector {
	c.overrides[code] = severity
	return c
}

// Suppress drops any later report of codes
func (c *Collector) Suppress(codes ...IssueCode) *Collector {
	c.suppressed.InsertSlice(codes)
	return c
}

// Report records issue, returning false if it was suppressed or already reported
func (c *Collector) Report(issue Issue) bool {
	if c.suppressed.Contains(issue.Code) {
		return false
	}
	if span, ok := issue.PrimarySpan(); ok {
		key := issueKey{code: issue.Code, span: span}
		if _, seen := c.seen[key]; seen {
			return false
		}
		c.seen[key] = struct{}{}
	}
	if severity, ok := c.overrides[issue.Code]; ok {
		issue.Severity = severity
	}
	c.issues = append(c.issues, issue)
	return true
}

func (c *Collector) Issues() []Issue {
	if c == nil {
		return nil
	}
	return c.issues
}

// Codes lists the code of each reported issue, in order
func (c *Collector) Codes() []IssueCode {
	codes := make([]IssueCode, len(c.Issues()))
	for i, issue := range c.Issues() {
		codes[i] = issue.Code
	}
	return codes
}

func (c *Collector) Count(code IssueCode) int {
	n := 0
	for _, issue := range c.Issues() {
		if issue.Code == code {
			n++
		}
	}
	return n
}

func (c *Collector) HasErrors() bool {
	for _, issue := range c.Issues() {
		if issue.Severity == Error {
			return true
		}
	}
	return false
}

// Merge appends the issues of other, subject to the deduplication and overrides of c
func (c *Collector) Merge(other *Collector) *Collector {
	for _, issue := range other.Issues() {
		c.Report(issue)
	}
	return c
}

func (c *Collector) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range c.Issues() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("i", i),
			Value: slog.GroupValue(
				slog.String("code", v.Code.String()),
				slog.String("msg", v.Message),
			),
		})
	}
	return slog.GroupValue(vals...)
}
