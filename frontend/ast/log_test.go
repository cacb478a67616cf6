package ast

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExprLoggerRendersExpressions(t *testing.T) {
	cond := &Binary{Op: OpIdentical, Left: &Variable{Name: "x"}, Right: &StringLiteral{Value: "a"}}
	testCases := []struct {
		name   string
		log    func(l *slog.Logger)
		expect string
	}{
		{
			name:   "record attribute",
			log:    func(l *slog.Logger) { l.Info("narrowing", "cond", cond) },
			expect: `cond="($x === 'a')"`,
		},
		{
			name:   "logger attribute",
			log:    func(l *slog.Logger) { l.With("operand", cond.Left).Info("incremented") },
			expect: "operand=$x",
		},
		{
			name:   "grouped attribute",
			log:    func(l *slog.Logger) { l.WithGroup("if").Info("merged", "cond", cond.Right) },
			expect: "if.cond='a'",
		},
		{
			name:   "other values untouched",
			log:    func(l *slog.Logger) { l.Info("done", "branches", 2) },
			expect: "branches=2",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			tc.log(ExprLogger(slog.New(slog.NewTextHandler(&buf, nil))))
			assert.Contains(t, buf.String(), tc.expect)
		})
	}
}
