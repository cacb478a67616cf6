package analyzer

import (
	"strings"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/codebase"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/cottand/narrow/frontend/template"
	"github.com/cottand/narrow/frontend/types"
)

func (a *Analyzer) analyzeArgs(args []ast.Expr, ctx *scope.BlockContext) ([]*types.Union, error) {
	out := make([]*types.Union, len(args))
	for i, arg := range args {
		t, err := a.analyzeExpr(arg, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (a *Analyzer) analyzeCall(e *ast.Call, ctx *scope.BlockContext) (*types.Union, error) {
	argTypes, err := a.analyzeArgs(e.Args, ctx)
	if err != nil {
		return nil, err
	}
	fn, ok := a.function(e.Name)
	if !ok {
		a.report(ilerr.NonExistentFunction, e, "unknown function", "Function %s does not exist", e.Name)
		return types.GetMixed(), nil
	}
	return a.checkCall(e, fn, fn.Name, e.Args, argTypes, template.NewResult()), nil
}

// checkCall matches argTypes against the parameters of fn, inferring the template
// parameters of entity and whatever result already declares, and returns the
// return type of fn with what was inferred substituted in
func (a *Analyzer) checkCall(at ast.Expr, fn *codebase.Function, entity string, args []ast.Expr, argTypes []*types.Union, result *template.Result) *types.Union {
	if len(argTypes) < fn.RequiredParams() {
		a.report(ilerr.TooFewArguments, at, "missing arguments",
			"Too few arguments for %s: expecting %d but saw %d", entity, fn.RequiredParams(), len(argTypes))
	}
	for _, tp := range fn.Templates {
		if !result.Has(tp.Name, entity) {
			result.AddTemplate(tp.Name, entity, tp.Constraint)
		}
	}

	params := make([]*types.Union, len(argTypes))
	for i, argType := range argTypes {
		p, ok := paramAt(fn, i)
		if !ok || p.Type == nil {
			continue
		}
		params[i] = p.Type
		a.replacer.Replace(p.Type, result, argType, i)
	}
	for i, argType := range argTypes {
		if params[i] == nil {
			continue
		}
		expected := template.InferredReplace(params[i], result)
		if !a.accepts(expected, argType) {
			var argAt ast.Positioner = at
			if i < len(args) {
				argAt = args[i]
			}
			a.report(ilerr.InvalidArgument, argAt, "expecting "+expected.String(),
				"Argument %d of %s expects %s, %s provided", i+1, entity, expected, argType)
		}
	}
	if result.ReachedMaxDepth {
		a.report(ilerr.TemplateTooDeep, at, "too deeply nested",
			"Arguments of %s are nested too deeply to infer its templates", entity)
	}

	if fn.Return == nil {
		return types.GetMixed()
	}
	ret := template.InferredReplace(fn.Return, result)
	logger.Debug("analysed call", "callee", entity, "args", argTypes, "return", ret)
	return ret
}

func paramAt(fn *codebase.Function, i int) (codebase.Param, bool) {
	if i < len(fn.Params) {
		return fn.Params[i], true
	}
	if n := len(fn.Params); n > 0 && fn.Params[n-1].Variadic {
		return fn.Params[n-1], true
	}
	return codebase.Param{}, false
}

// accepts is false when no value of arg can be passed where param is expected
func (a *Analyzer) accepts(param, arg *types.Union) bool {
	if arg.IsNever() {
		return true
	}
	for in := range arg.All() {
		for expected := range param.All() {
			if types.CanIntersect(a.codebase, in, expected) {
				return true
			}
		}
	}
	return false
}

// callMethod is the type returned by calling method on obj. Unknown classes and
// methods are reported and return mixed.
func (a *Analyzer) callMethod(at ast.Expr, obj types.TNamedObject, method string, argTypes []*types.Union, args []ast.Expr) *types.Union {
	fn, declaring, ok := a.codebase.GetMethod(obj.Name, method)
	if !ok {
		if !a.codebase.ClassExists(obj.Name) {
			a.report(ilerr.NonExistentClass, at, "unknown class", "Class %s does not exist", obj.Name)
		} else {
			a.report(ilerr.NonExistentMethod, at, "unknown method", "Method %s::%s does not exist", obj.Name, method)
		}
		return types.GetMixed()
	}
	result := a.bindClassTemplates(obj, declaring)
	return a.checkCall(at, fn, declaring+"::"+fn.Name, args, argTypes, result)
}

// bindClassTemplates is a Result binding the template parameters of the class of
// obj to its type parameters, and those of declaring, an ancestor, to what the
// class passes it
func (a *Analyzer) bindClassTemplates(obj types.TNamedObject, declaring string) *template.Result {
	result := template.NewResult()
	class, ok := a.codebase.GetClass(obj.Name)
	if !ok {
		return result
	}
	for i, tp := range class.Templates {
		result.AddTemplate(tp.Name, class.Name, tp.Constraint)
		if i < len(obj.TypeParameters) {
			result.AddLowerBound(tp.Name, class.Name, template.Bound{Type: obj.TypeParameters[i], ArgOffset: -1, Invariant: true})
		}
	}
	if strings.EqualFold(class.Name, declaring) {
		return result
	}

	extended, known := a.codebase.TemplateExtendedParameters(class.Name, declaring)
	for i, tp := range a.codebase.TemplateTypes(declaring) {
		result.AddTemplate(tp.Name, declaring, tp.Constraint)
		if known && i < len(extended) {
			passed := template.InferredReplace(extended[i], result)
			result.AddLowerBound(tp.Name, declaring, template.Bound{Type: passed, ArgOffset: -1, Invariant: true})
		}
	}
	return result
}

func (a *Analyzer) analyzeMethodCall(e *ast.MethodCall, ctx *scope.BlockContext) (*types.Union, error) {
	object, err := a.analyzeExpr(e.Object, ctx)
	if err != nil {
		return nil, err
	}
	argTypes, err := a.analyzeArgs(e.Args, ctx)
	if err != nil {
		return nil, err
	}

	var out *types.Union
	for atomic := range object.All() {
		out = types.CombineUnionTypes(out, a.methodCallOn(e, atomic, argTypes))
	}
	if out == nil {
		return types.GetMixed(), nil
	}
	return out, nil
}

func (a *Analyzer) methodCallOn(e *ast.MethodCall, atomic types.Atomic, argTypes []*types.Union) *types.Union {
	switch c := atomic.(type) {
	case types.TNamedObject:
		return a.callMethod(e, c, e.Method, argTypes, e.Args)
	case types.TEnum:
		return a.callMethod(e, types.NamedObject(c.Name), e.Method, argTypes, e.Args)
	case types.TNull, types.TVoid:
		if e.NullSafe {
			return types.GetNull()
		}
		a.report(ilerr.InvalidOperand, e.Object, "null", "Method %s called on null", e.Method)
		return nil
	case types.TMixed:
		a.report(ilerr.MixedOperand, e.Object, "mixed", "Method %s called on mixed", e.Method)
		return types.GetMixed()
	case types.TObjectAny, types.TCallable:
		return types.GetMixed()
	case types.TGenericParameter:
		if c.Constraint == nil || c.Constraint.IsMixed() {
			return types.GetMixed()
		}
		var out *types.Union
		for constraint := range c.Constraint.All() {
			out = types.CombineUnionTypes(out, a.methodCallOn(e, constraint, argTypes))
		}
		return out
	case types.TNever:
		return nil
	}
	a.report(ilerr.InvalidOperand, e.Object, "not an object", "Method %s called on %s", e.Method, atomic)
	return nil
}

func (a *Analyzer) analyzeNew(e *ast.New, ctx *scope.BlockContext) (*types.Union, error) {
	argTypes, err := a.analyzeArgs(e.Args, ctx)
	if err != nil {
		return nil, err
	}
	class, ok := a.codebase.GetClass(e.Class)
	if !ok {
		a.report(ilerr.NonExistentClass, e, "unknown class", "Class %s does not exist", e.Class)
		return types.GetNamedObject(e.Class), nil
	}
	obj := types.NamedObject(class.Name)
	ctor, declaring, ok := a.codebase.GetMethod(class.Name, "__construct")
	if !ok {
		return types.NewUnion(obj), nil
	}
	result := a.bindClassTemplates(obj, declaring)
	a.checkCall(e, ctor, declaring+"::"+ctor.Name, e.Args, argTypes, result)
	for _, tp := range class.Templates {
		param := types.NewUnion(types.TGenericParameter{ParameterName: tp.Name, DefiningEntity: class.Name, Constraint: tp.Constraint})
		obj.TypeParameters = append(obj.TypeParameters, template.InferredReplace(param, result))
	}
	return types.NewUnion(obj), nil
}
