package config

import (
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func issueAt(code ilerr.IssueCode, pos int) ilerr.Issue {
	return ilerr.Issue{
		Code:     code,
		Severity: ilerr.Warning,
		Message:  code.String(),
		Annotations: []ilerr.Annotation{{
			Range:   ast.Range{PosStart: token.Pos(1 + pos), PosEnd: token.Pos(2 + pos)},
			Primary: true,
		}},
	}
}

func TestDecodeOverDefaults(t *testing.T) {
	s, err := Decode(strings.NewReader("max_template_depth: 4\nlog_sections: [loader]\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, s.MaxTemplateDepth)
	assert.Equal(t, Default().FormulaComplexity, s.FormulaComplexity)
	assert.True(t, s.ReportRedundantConditions)
	assert.Equal(t, []string{"loader"}, s.LogSections)
}

func TestDecodeEmpty(t *testing.T) {
	s, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestDecodeRejects(t *testing.T) {
	testCases := []struct {
		name   string
		src    string
		errors int
	}{
		{"unknown key", "formula_complexty: 3", 1},
		{"negative budget", "formula_complexity: -1", 1},
		{"bad level", "log_level: loud", 1},
		{"bad override", "severity_overrides: {NoSuchCode: error, UndefinedVariable: fatal}", 2},
		{"all at once", "formula_complexity: -1\nmax_template_depth: -2\nlog_level: loud", 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.src))
			require.Error(t, err)
			assert.Len(t, multierr.Errors(err), tc.errors)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "narrow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report_redundant_conditions: false\nlog_level: debug\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.False(t, s.ReportRedundantConditions)
	l, err := s.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAnalyzerOptions(t *testing.T) {
	s := Default()
	s.FormulaComplexity = 10
	opts := s.AnalyzerOptions()
	assert.Equal(t, 10, opts.FormulaComplexity)
	assert.Equal(t, s.MaxTemplateDepth, opts.MaxTemplateDepth)
}

func TestCollectorOverridesSeverity(t *testing.T) {
	s := Default()
	s.SeverityOverrides = map[string]string{"possiblyundefinedvariable": "error"}
	c := s.NewCollector()

	require.True(t, c.Report(issueAt(ilerr.PossiblyUndefinedVariable, 0)))
	require.True(t, c.Report(issueAt(ilerr.MixedOperand, 0)))
	issues := c.Issues()
	assert.Equal(t, ilerr.Error, issues[0].Severity)
	assert.Equal(t, ilerr.Warning, issues[1].Severity)
	assert.True(t, c.HasErrors())
}

func TestCollectorSuppressesRedundantConditions(t *testing.T) {
	testCases := []struct {
		report bool
		codes  []ilerr.IssueCode
	}{
		{true, []ilerr.IssueCode{ilerr.RedundantCondition, ilerr.RedundantKeyCheck, ilerr.ImpossibleCondition}},
		{false, []ilerr.IssueCode{ilerr.ImpossibleCondition}},
	}
	for _, tc := range testCases {
		s := Default()
		s.ReportRedundantConditions = tc.report
		c := s.NewCollector()
		c.Report(issueAt(ilerr.RedundantCondition, 0))
		c.Report(issueAt(ilerr.RedundantKeyCheck, 1))
		c.Report(issueAt(ilerr.ImpossibleCondition, 2))
		assert.Equal(t, tc.codes, c.Codes())
	}
}

func TestStringRoundTrips(t *testing.T) {
	s := Default()
	s.SeverityOverrides = map[string]string{"MixedOperand": "help"}
	back, err := Decode(strings.NewReader(s.String()))
	require.NoError(t, err)
	assert.Equal(t, s, back)
}
