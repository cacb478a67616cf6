// Package config reads the settings of an analysis run from YAML:
//
//	formula_complexity: 2000
//	max_template_depth: 32
//	report_redundant_conditions: false
//	log_level: debug
//	log_sections: [analyzer, reconciler]
//	severity_overrides:
//	  PossiblyUndefinedVariable: error
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/cottand/narrow/frontend/algebra"
	"github.com/cottand/narrow/frontend/analyzer"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/template"
	"github.com/cottand/narrow/internal/log"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	FormulaComplexity         int               `yaml:"formula_complexity"`
	MaxTemplateDepth          int               `yaml:"max_template_depth"`
	ReportRedundantConditions bool              `yaml:"report_redundant_conditions"`
	LogLevel                  string            `yaml:"log_level"`
	LogSections               []string          `yaml:"log_sections"`
	SeverityOverrides         map[string]string `yaml:"severity_overrides"`
}

func Default() Settings {
	return Settings{
		FormulaComplexity:         algebra.DefaultComplexity,
		MaxTemplateDepth:          template.DefaultMaxDepth,
		ReportRedundantConditions: true,
		LogLevel:                  "error",
		LogSections:               []string{"analyzer", "reconciler"},
	}
}

// Load reads the settings at path over Default
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, errors.Wrap(err, "opening config")
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return Settings{}, errors.Wrapf(err, "reading config %s", path)
	}
	return s, nil
}

// Decode reads settings from r over Default, rejecting unknown keys
func Decode(r io.Reader) (Settings, error) {
	s := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, errors.WithStack(err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports every invalid setting at once
func (s Settings) Validate() error {
	var err error
	if s.FormulaComplexity < 0 {
		err = multierr.Append(err, errors.Errorf("formula_complexity must not be negative, got %d", s.FormulaComplexity))
	}
	if s.MaxTemplateDepth < 0 {
		err = multierr.Append(err, errors.Errorf("max_template_depth must not be negative, got %d", s.MaxTemplateDepth))
	}
	if _, lvlErr := s.Level(); lvlErr != nil {
		err = multierr.Append(err, lvlErr)
	}
	for _, name := range s.overrideNames() {
		if _, ok := ilerr.ParseIssueCode(name); !ok {
			err = multierr.Append(err, errors.Errorf("unknown issue code %q", name))
		}
		if _, ok := ilerr.ParseSeverity(s.SeverityOverrides[name]); !ok {
			err = multierr.Append(err, errors.Errorf("unknown severity %q for %s", s.SeverityOverrides[name], name))
		}
	}
	return err
}

func (s Settings) overrideNames() []string {
	names := make([]string, 0, len(s.SeverityOverrides))
	for name := range s.SeverityOverrides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s Settings) Level() (slog.Level, error) {
	var l slog.Level
	if s.LogLevel == "" {
		return slog.LevelError, nil
	}
	if err := l.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return l, errors.Errorf("invalid log_level %q", s.LogLevel)
	}
	return l, nil
}

// ApplyLogging sets the level and the sections of log.DefaultLogger
func (s Settings) ApplyLogging() error {
	l, err := s.Level()
	if err != nil {
		return err
	}
	log.SetLevel(l)
	log.EnableSections(s.LogSections...)
	return nil
}

func (s Settings) AnalyzerOptions() analyzer.Options {
	return analyzer.Options{
		FormulaComplexity: s.FormulaComplexity,
		MaxTemplateDepth:  s.MaxTemplateDepth,
	}
}

var redundantCodes = []ilerr.IssueCode{
	ilerr.RedundantCondition,
	ilerr.RedundantComparison,
	ilerr.RedundantTypeComparison,
	ilerr.RedundantKeyCheck,
}

// NewCollector returns a collector reporting with the severities and suppressions of s.
// Invalid overrides are skipped, see Validate.
func (s Settings) NewCollector() *ilerr.Collector {
	c := ilerr.NewCollector()
	for _, name := range s.overrideNames() {
		code, ok := ilerr.ParseIssueCode(name)
		if !ok {
			continue
		}
		if severity, ok := ilerr.ParseSeverity(s.SeverityOverrides[name]); ok {
			c.WithSeverity(code, severity)
		}
	}
	if !s.ReportRedundantConditions {
		c.Suppress(redundantCodes...)
	}
	return c
}

func (s Settings) String() string {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	_ = enc.Encode(s)
	return buf.String()
}
