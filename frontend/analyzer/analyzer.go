// Package analyzer walks the statements of a file, inferring the type of every
// expression and narrowing variables through the conditions that guard them
package analyzer

import (
	"strings"

	"github.com/cottand/narrow/frontend/algebra"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/codebase"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/reconciler"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/cottand/narrow/frontend/template"
	"github.com/cottand/narrow/frontend/typehint"
	"github.com/cottand/narrow/frontend/types"
	"github.com/cottand/narrow/internal/log"
	"github.com/pkg/errors"
)

var logger = ast.ExprLogger(log.DefaultLogger).With("section", "analyzer")

type Options struct {
	// FormulaComplexity bounds the clause combinations explored for one condition,
	// algebra.DefaultComplexity when zero
	FormulaComplexity int
	// MaxTemplateDepth bounds how deep template inference descends into nested
	// types, template.DefaultMaxDepth when zero
	MaxTemplateDepth int
}

// Analyzer holds the state shared by the analysis of a single file. It is not
// safe for concurrent use.
type Analyzer struct {
	codebase   codebase.Codebase
	collector  *ilerr.Collector
	reconciler *reconciler.Reconciler
	replacer   *template.Replacer
	opts       Options
	artifacts  *Artifacts

	// functions are those declared by the file, by lowercase name
	functions map[string]*codebase.Function
	loops     []*loopScope
}

// New returns an Analyzer resolving names against cb, the builtins when nil, and
// reporting to collector
func New(cb codebase.Codebase, collector *ilerr.Collector, opts Options) *Analyzer {
	if cb == nil {
		cb = codebase.Builtins()
	}
	if collector == nil {
		collector = ilerr.NewCollector()
	}
	return &Analyzer{
		codebase:   cb,
		collector:  collector,
		reconciler: reconciler.New(cb, collector),
		replacer:   template.NewReplacer(cb, opts.MaxTemplateDepth),
		opts:       opts,
		artifacts:  NewArtifacts(),
		functions:  map[string]*codebase.Function{},
	}
}

func (a *Analyzer) Artifacts() *Artifacts {
	return a.artifacts
}

func (a *Analyzer) Collector() *ilerr.Collector {
	return a.collector
}

// AnalyzeFile analyses the top-level statements of file, then the body of every
// function it declares. The context returned is the state after the top-level
// statements, and is returned alongside any error so far.
func (a *Analyzer) AnalyzeFile(file *ast.File) (*scope.BlockContext, error) {
	for _, fn := range file.Functions() {
		a.declareFunction(fn)
	}
	ctx := scope.New()
	if err := a.AnalyzeStatements(file.Stmts, ctx); err != nil {
		return ctx, errors.Wrapf(err, "analysing %s", file.Name)
	}
	for _, fn := range file.Functions() {
		if err := a.analyzeFunction(fn); err != nil {
			return ctx, errors.Wrapf(err, "analysing function %s in %s", fn.Name, file.Name)
		}
	}
	logger.Debug("analysed file", "file", file.Name, "issues", len(a.collector.Issues()), "expressions", a.artifacts.Len())
	return ctx, nil
}

func (a *Analyzer) declareFunction(fn *ast.Function) {
	templates := typehint.Templates{}
	declared := &codebase.Function{Name: fn.Name}
	for _, tp := range fn.Templates {
		constraint := types.GetMixed()
		if tp.Constraint != nil {
			constraint = typehint.ToUnion(tp.Constraint, templates)
		}
		templates[tp.Name] = typehint.Template{DefiningEntity: fn.Name, Constraint: constraint}
		declared.Templates = append(declared.Templates, codebase.TemplateParam{Name: tp.Name, Constraint: constraint})
	}
	for _, p := range fn.Params {
		declared.Params = append(declared.Params, codebase.Param{
			Name:     p.Name,
			Type:     typehint.ToUnion(p.Type, templates),
			Optional: p.Default != nil,
		})
	}
	declared.Return = typehint.ToUnion(fn.ReturnType, templates)
	a.functions[strings.ToLower(fn.Name)] = declared
}

func (a *Analyzer) analyzeFunction(fn *ast.Function) error {
	declared := a.functions[strings.ToLower(fn.Name)]
	ctx := scope.New()
	for i, p := range fn.Params {
		key := "$" + p.Name
		ctx.SetLocal(key, declared.Params[i].Type)
		ctx.AssignedVariableIDs.Insert(key)
	}
	if fn.Body == nil {
		return nil
	}
	return a.AnalyzeStatements(fn.Body.Stmts, ctx)
}

func (a *Analyzer) function(name string) (*codebase.Function, bool) {
	if fn, ok := a.functions[strings.ToLower(strings.TrimPrefix(name, "\\"))]; ok {
		return fn, true
	}
	return a.codebase.GetFunction(name)
}

func (a *Analyzer) formulaOptions() algebra.Options {
	return algebra.Options{
		Complexity: a.opts.FormulaComplexity,
		TypeOf:     a.artifacts.TypeOf,
	}
}

func (a *Analyzer) complexity() int {
	if a.opts.FormulaComplexity <= 0 {
		return algebra.DefaultComplexity
	}
	return a.opts.FormulaComplexity
}

func (a *Analyzer) report(code ilerr.IssueCode, at ast.Positioner, label, format string, args ...any) {
	a.collector.Report(ilerr.NewIssue(code, format, args...).WithPrimary(at, label))
}

// reportAs reports with severity rather than the default severity of code
func (a *Analyzer) reportAs(severity ilerr.Severity, code ilerr.IssueCode, at ast.Positioner, label, format string, args ...any) {
	issue := ilerr.NewIssue(code, format, args...).WithPrimary(at, label)
	issue.Severity = severity
	a.collector.Report(issue)
}

// quietly runs f discarding whatever it reports
func (a *Analyzer) quietly(f func() error) error {
	saved := a.collector
	a.setCollector(ilerr.NewCollector())
	defer a.setCollector(saved)
	return f()
}

func (a *Analyzer) setCollector(c *ilerr.Collector) {
	a.collector = c
	a.reconciler.Collector = c
}
