package loader

import (
	"go/token"
	"testing"

	"github.com/cottand/narrow/frontend/analyzer"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	file, err := Decode(token.NewFileSet(), "expr.yaml", []byte("- expr: "+src))
	require.NoError(t, err)
	require.Len(t, file.Stmts, 1)
	stmt, ok := file.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok)
	return stmt.X
}

func TestDecodeLiterals(t *testing.T) {
	testCases := []struct {
		src    string
		expect ast.Expr
	}{
		{"1", &ast.IntLiteral{Value: 1}},
		{"-3", &ast.IntLiteral{Value: -3}},
		{"2.5", &ast.FloatLiteral{Value: 2.5}},
		{"true", &ast.BoolLiteral{Value: true}},
		{"null", &ast.NullLiteral{}},
		{"~", &ast.NullLiteral{}},
		{"hello", &ast.StringLiteral{Value: "hello"}},
		{"'$x'", &ast.StringLiteral{Value: "$x"}},
		{"$x", &ast.Variable{Name: "x"}},
		{"{var: x}", &ast.Variable{Name: "x"}},
		{"{str: '12'}", &ast.StringLiteral{Value: "12"}},
		{"{int: 7}", &ast.IntLiteral{Value: 7}},
		{"{float: 1}", &ast.FloatLiteral{Value: 1}},
		{"{null: ~}", &ast.NullLiteral{}},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			got := decodeExpr(t, tc.src)
			assert.IsType(t, tc.expect, got)
			assert.Equal(t, ast.ExprString(tc.expect), ast.ExprString(got))
		})
	}
}

func TestDecodeOperators(t *testing.T) {
	testCases := []struct {
		src    string
		expect string
	}{
		{"{add: [1, 2.5]}", "(1 + 2.5)"},
		{"{'===': [$x, null]}", "($x === null)"},
		{"{concat: [a, $b]}", "('a' . $b)"},
		{"{or: [{not: $x}, {less: [$y, 0]}]}", "(!$x || ($y < 0))"},
		{"{not: $x}", "!$x"},
		{"{cast: [int, '12']}", "(int)'12'"},
		{"{post_inc: $i}", "$i++"},
		{"{pre_dec: $i}", "--$i"},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.expect, ast.ExprString(decodeExpr(t, tc.src)))
		})
	}
}

func TestDecodeCompoundExpressions(t *testing.T) {
	t.Run("keyed array", func(t *testing.T) {
		lit, ok := decodeExpr(t, "{array: {a: 1, 2: b}}").(*ast.ArrayLiteral)
		require.True(t, ok)
		require.Len(t, lit.Items, 2)
		assert.Equal(t, "['a' => 1, 2 => 'b']", ast.ExprString(lit))
		assert.IsType(t, &ast.IntLiteral{}, lit.Items[1].Key)
	})
	t.Run("list", func(t *testing.T) {
		lit, ok := decodeExpr(t, "{list: [1, 2, 3]}").(*ast.ArrayLiteral)
		require.True(t, ok)
		require.Len(t, lit.Items, 3)
		for _, item := range lit.Items {
			assert.Nil(t, item.Key)
		}
	})
	t.Run("method call", func(t *testing.T) {
		call, ok := decodeExpr(t, "{nullsafe_method: [$it, current, 1]}").(*ast.MethodCall)
		require.True(t, ok)
		assert.Equal(t, "current", call.Method)
		assert.True(t, call.NullSafe)
		assert.Len(t, call.Args, 1)
	})
	t.Run("function call", func(t *testing.T) {
		call, ok := decodeExpr(t, "{call: [strlen, $s]}").(*ast.Call)
		require.True(t, ok)
		assert.Equal(t, "strlen", call.Name)
		assert.Len(t, call.Args, 1)
	})
	t.Run("class constant", func(t *testing.T) {
		fetch, ok := decodeExpr(t, "{const: 'Foo::BAR'}").(*ast.ClassConstFetch)
		require.True(t, ok)
		assert.Equal(t, "Foo", fetch.Class)
		assert.Equal(t, "BAR", fetch.Name)
	})
	t.Run("short ternary", func(t *testing.T) {
		ternary, ok := decodeExpr(t, "{short_ternary: [$x, 0]}").(*ast.Ternary)
		require.True(t, ok)
		assert.Nil(t, ternary.Then)
	})
	t.Run("append", func(t *testing.T) {
		access, ok := decodeExpr(t, "{index: [$arr]}").(*ast.ArrayAccess)
		require.True(t, ok)
		assert.Nil(t, access.Index)
	})
}

func TestDecodeStatements(t *testing.T) {
	src := `
name: loop.php
stmts:
  - let: [$i, 0]
  - while:
      cond: {less: [$i, 10]}
      body:
        - if:
            cond: {identical: [$i, 5]}
            then:
              - break
            elseif:
              - cond: {identical: [$i, 3]}
                then:
                  - continue
            else:
              - echo: [$i]
        - post_inc: $i
  - return
`
	fset := token.NewFileSet()
	file, err := Decode(fset, "fallback.yaml", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "loop.php", file.Name)
	require.Len(t, file.Stmts, 3)

	assign, ok := file.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok)
	assert.IsType(t, &ast.Assign{}, assign.X)
	assert.Equal(t, 4, fset.Position(assign.Pos()).Line)

	loop, ok := file.Stmts[1].(*ast.While)
	require.True(t, ok)
	require.Len(t, loop.Body.Stmts, 2)
	branch, ok := loop.Body.Stmts[0].(*ast.If)
	require.True(t, ok)
	assert.IsType(t, &ast.Break{}, branch.Then.Stmts[0])
	require.Len(t, branch.ElseIfs, 1)
	assert.IsType(t, &ast.Continue{}, branch.ElseIfs[0].Body.Stmts[0])
	require.NotNil(t, branch.Else)
	assert.IsType(t, &ast.Echo{}, branch.Else.Stmts[0])
	increment, ok := loop.Body.Stmts[1].(*ast.ExprStmt)
	require.True(t, ok)
	assert.IsType(t, &ast.UnaryPostfix{}, increment.X)

	assert.IsType(t, &ast.Return{}, file.Stmts[2])
}

func TestDecodeFunction(t *testing.T) {
	src := `
- function:
    name: first
    templates:
      - {name: T, of: array-key}
    params:
      - {name: $items, type: "list<T>"}
      - {name: fallback, type: "?T", default: null}
    return: "T|null"
    body:
      - return: {index: [$items, 0]}
`
	file, err := Decode(token.NewFileSet(), "first.yaml", []byte(src))
	require.NoError(t, err)
	functions := file.Functions()
	require.Len(t, functions, 1)
	fn := functions[0]
	assert.Equal(t, "first", fn.Name)
	require.Len(t, fn.Templates, 1)
	assert.Equal(t, "T", fn.Templates[0].Name)
	require.NotNil(t, fn.Templates[0].Constraint)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "items", fn.Params[0].Name)
	assert.Equal(t, "fallback", fn.Params[1].Name)
	assert.True(t, fn.Params[1].Type.Nullable)
	assert.IsType(t, &ast.NullLiteral{}, fn.Params[1].Default)
	require.NotNil(t, fn.ReturnType)
	require.Len(t, fn.Body.Stmts, 1)
}

func TestSyntaxErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		line int
	}{
		{"unknown statement", "- jump", 1},
		{"unknown expression", "- frobnicate: 1", 1},
		{"missing operand", "- expr: {add: [1]}", 1},
		{"unknown cast", "- expr: {cast: [bytes, 1]}", 1},
		{"bad class constant", "- expr: {const: Foo}", 1},
		{"missing condition", "- let: [$x, 1]\n- while: {body: [break]}", 2},
		{"bad type", "- function: {name: f, params: [{name: x, type: 'array<'}]}", 1},
		{"two keys", "- {echo: [1], return: 2}", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(token.NewFileSet(), "bad.yaml", []byte(tc.src))
			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, "bad.yaml", syntaxErr.File)
			assert.Equal(t, tc.line, syntaxErr.Line)
		})
	}
}

func TestMalformedYAML(t *testing.T) {
	_, err := Decode(token.NewFileSet(), "bad.yaml", []byte("- [unterminated"))
	require.Error(t, err)
	var syntaxErr *SyntaxError
	assert.False(t, errors.As(err, &syntaxErr))
}

func TestLoadReportsUnknownKeys(t *testing.T) {
	_, err := Load(token.NewFileSet(), "testdata/broken.yaml")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 5, syntaxErr.Line)
	assert.Contains(t, syntaxErr.Message, "than")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(token.NewFileSet(), "testdata/nowhere.yaml")
	assert.Error(t, err)
}

func TestEmptyDocument(t *testing.T) {
	file, err := Decode(token.NewFileSet(), "empty.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, "empty.yaml", file.Name)
	assert.Empty(t, file.Stmts)
}

func TestAnalyzeLoadedFile(t *testing.T) {
	testCases := []struct {
		path   string
		locals map[string]string
		codes  []ilerr.IssueCode
	}{
		{
			path:   "testdata/choice.yaml",
			locals: map[string]string{"$x": "'a'|'b'"},
			codes:  []ilerr.IssueCode{ilerr.ImpossibleCondition, ilerr.UndefinedVariable},
		},
		{
			path:   "testdata/greet.yaml",
			locals: map[string]string{"$greeting": "string"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			fset := token.NewFileSet()
			file, err := Load(fset, tc.path)
			require.NoError(t, err)

			a := analyzer.New(nil, nil, analyzer.Options{})
			ctx, err := a.AnalyzeFile(file)
			require.NoError(t, err)
			for name, expect := range tc.locals {
				typ, ok := ctx.GetLocal(name)
				require.True(t, ok, "%s is not in scope", name)
				assert.Equal(t, expect, typ.String())
			}
			for _, code := range tc.codes {
				assert.Contains(t, a.Collector().Codes(), code)
			}
			if len(tc.codes) == 0 {
				assert.Empty(t, a.Collector().Codes())
			}
			for _, issue := range a.Collector().Issues() {
				span, ok := issue.PrimarySpan()
				require.True(t, ok, "%s has no primary span", issue.Code)
				pos := fset.Position(span.Pos())
				assert.True(t, pos.IsValid(), "%s has no position", issue.Code)
			}
		})
	}
}
