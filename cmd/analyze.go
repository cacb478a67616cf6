package cmd

import (
	"fmt"
	"go/token"
	"io"
	"runtime"

	"github.com/cottand/narrow/frontend/analyzer"
	"github.com/cottand/narrow/frontend/codebase"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/loader"
	"github.com/cottand/narrow/frontend/types"
	"github.com/cottand/narrow/internal/config"
	"github.com/cottand/narrow/internal/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var logger = log.DefaultLogger.With("section", "cmd")

type analyzeFlags struct {
	stubs      string
	config     string
	logLevel   string
	dumpLocals bool
	jobs       int
}

var AnalyzeCmd = NewAnalyzeCmd()

// NewAnalyzeCmd returns the analyze command with flags of its own
func NewAnalyzeCmd() *cobra.Command {
	flags := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze file.yaml...",
		Short: "Narrow the types of the variables of each file and report the conditions that cannot hold",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, flags, args)
		},
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&flags.stubs, "stubs", "s", "", "YAML stubs declaring classes and functions beyond the builtins")
	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "YAML settings")
	cmd.Flags().StringVarP(&flags.logLevel, "log-level", "l", "", "log level, overriding the settings")
	cmd.Flags().BoolVar(&flags.dumpLocals, "dump-locals", false, "print the variables in scope after the top-level statements of each file")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "files analysed at once")
	return cmd
}

// fileResult is what analysing one file produced
type fileResult struct {
	path   string
	issues []ilerr.Issue
	locals map[string]string
	err    error
}

func runAnalyze(cmd *cobra.Command, flags *analyzeFlags, args []string) error {
	settings := config.Default()
	if flags.config != "" {
		var err error
		if settings, err = config.Load(flags.config); err != nil {
			return err
		}
	}
	if flags.logLevel != "" {
		settings.LogLevel = flags.logLevel
	}
	if err := settings.ApplyLogging(); err != nil {
		return err
	}

	cb := codebase.Builtins()
	if flags.stubs != "" {
		stubs, err := codebase.LoadStubs(flags.stubs)
		if err != nil {
			return err
		}
		cb.Merge(stubs)
	}

	fset := token.NewFileSet()
	results := make([]fileResult, len(args))
	var g errgroup.Group
	g.SetLimit(max(flags.jobs, 1))
	for i, path := range args {
		g.Go(func() error {
			results[i] = analyzeFile(fset, cb, settings, path)
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	var fatal error
	errorCount := 0
	for _, r := range results {
		if r.err != nil {
			fatal = multierr.Append(fatal, r.err)
		}
		for _, issue := range r.issues {
			if issue.Severity == ilerr.Error {
				errorCount++
			}
			_, _ = fmt.Fprintln(out, issue.Format(fset))
		}
		if flags.dumpLocals && r.locals != nil {
			dumpLocals(out, r.path, r.locals)
		}
	}
	if fatal != nil {
		return fatal
	}
	if errorCount > 0 {
		return errors.Errorf("%d errors found", errorCount)
	}
	return nil
}

// analyzeFile runs on its own analyzer and collector, sharing only cb and fset
// with the other files
func analyzeFile(fset *token.FileSet, cb codebase.Codebase, settings config.Settings, path string) fileResult {
	result := fileResult{path: path}
	file, err := loader.Load(fset, path)
	if err != nil {
		result.err = err
		return result
	}
	a := analyzer.New(cb, settings.NewCollector(), settings.AnalyzerOptions())
	ctx, err := a.AnalyzeFile(file)
	result.issues = a.Collector().Issues()
	if err != nil {
		result.err = err
		logger.Debug("analysis failed", "file", path, "stack", ilerr.FormatWithStack(err))
	}
	if ctx != nil {
		result.locals = map[string]string{}
		for key, typ := range ctx.Locals() {
			result.locals[key] = localString(typ)
		}
	}
	logger.Info("analysed", "file", path, "issues", a.Collector())
	return result
}

func localString(typ *types.Union) string {
	if typ.PossiblyUndefined {
		return typ.String() + " (possibly undefined)"
	}
	return typ.String()
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

func dumpLocals(w io.Writer, path string, locals map[string]string) {
	_, _ = fmt.Fprintf(w, "%s:\n", path)
	dumpConfig.Fdump(w, locals)
}
