package proxylist

import "fmt"

// RuleContext carries the inputs of one link transform evaluation.
type RuleContext struct {
	Values    []any
	Unchecked bool
	Source    string
	Target    string
	Args      map[string]any
	Metadata  map[string]any
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	if ctx.Values == nil {
		ctx.Values = []any{}
	}
	return ctx
}

func (ctx RuleContext) linkLabel() string {
	if ctx.Source == "" && ctx.Target == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s->%s", ctx.Source, ctx.Target)
}

// binding is the variable set visible to expressions.
func (ctx RuleContext) binding() map[string]any {
	var first any
	if len(ctx.Values) > 0 {
		first = ctx.Values[0]
	}
	return map[string]any{
		"value":     first,
		"values":    ctx.Values,
		"unchecked": ctx.Unchecked,
		"source":    ctx.Source,
		"target":    ctx.Target,
		"args":      ctx.Args,
		"metadata":  ctx.Metadata,
	}
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*proxylist.exprEvaluator":
		return "expr"
	case "*proxylist.celEvaluator":
		return "cel"
	case "*proxylist.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
