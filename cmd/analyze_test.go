package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewAnalyzeCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyze(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantErr bool
		output  []string
	}{
		{
			name: "clean file",
			args: []string{"testdata/clean.yaml"},
		},
		{
			name:    "undefined variable",
			args:    []string{"testdata/undefined.yaml"},
			wantErr: true,
			output:  []string{"testdata/undefined.yaml:3:12: error[", "UndefinedVariable"},
		},
		{
			name:   "severity lowered by config",
			args:   []string{"--config", "testdata/lenient.yaml", "testdata/undefined.yaml"},
			output: []string{"warning[", "UndefinedVariable"},
		},
		{
			name:    "function missing without stubs",
			args:    []string{"testdata/greet.yaml"},
			wantErr: true,
			output:  []string{"NonExistentFunction"},
		},
		{
			name: "function declared by stubs",
			args: []string{"--stubs", "testdata/stubs.yaml", "testdata/greet.yaml"},
		},
		{
			name:    "several files",
			args:    []string{"-j", "2", "testdata/clean.yaml", "testdata/undefined.yaml", "testdata/greet.yaml"},
			wantErr: true,
			output:  []string{"UndefinedVariable", "NonExistentFunction"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, tc.args...)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			for _, want := range tc.output {
				assert.Contains(t, out, want)
			}
			if len(tc.output) == 0 {
				assert.NotContains(t, out, "[E")
			}
		})
	}
}

func TestDumpLocals(t *testing.T) {
	out, err := execute(t, "--dump-locals", "--stubs", "testdata/stubs.yaml", "testdata/greet.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "testdata/greet.yaml:")
	assert.Contains(t, out, `"$g": (string) (len=16) "non-empty-string"`)
}

func TestFatalErrorsAreCollected(t *testing.T) {
	_, err := execute(t, "testdata/missing.yaml", "testdata/clean.yaml", "testdata/stubs.yaml")
	require.Error(t, err)
	// stubs.yaml is no list of statements
	assert.Len(t, multierr.Errors(err), 2)
}

func TestInvalidSettings(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "testdata/clean.yaml")
	assert.Error(t, err)
	_, err = execute(t, "--config", "testdata/stubs.yaml", "testdata/clean.yaml")
	assert.Error(t, err)
}
