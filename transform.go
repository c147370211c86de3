package proxylist

import (
	"reflect"
	"time"
)

// transform evaluates a link expression over the source values and writes
// the result to the target.
type transform struct {
	engine     string
	expression string
	rule       CompiledRule
	source     string
	target     string
	domain     string
	logger     EvaluatorLogger
	log        Logger
}

func (d *Domain) compileTransform(decl LinkDeclaration) (*transform, error) {
	evaluator, err := d.cfg.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	link := decl.Source + "->" + decl.Target
	start := time.Now()
	rule, err := evaluator.Compile(decl.Transform)
	if err != nil {
		err = withPhase(wrapEvaluationError(engine, decl.Transform, link, err), PhaseCompile)
		d.cfg.evaluatorLogger.LogEvaluation(EvaluatorLogEvent{
			Domain:   d.name,
			Engine:   engine,
			Expr:     decl.Transform,
			Link:     link,
			Phase:    PhaseCompile,
			Duration: time.Since(start),
			Err:      err,
		})
		return nil, err
	}
	return &transform{
		engine:     engine,
		expression: decl.Transform,
		rule:       rule,
		source:     decl.Source,
		target:     decl.Target,
		domain:     d.name,
		logger:     d.cfg.evaluatorLogger,
		log:        d.cfg.logger,
	}, nil
}

func (t *transform) apply(source, target ValueProperty) {
	for _, unchecked := range [2]bool{false, true} {
		ctx := RuleContext{
			Values:    source.Values(unchecked),
			Unchecked: unchecked,
			Source:    t.source,
			Target:    t.target,
			Metadata:  map[string]any{"domain": t.domain},
		}.withDefaults()
		start := time.Now()
		result, err := t.rule.Evaluate(ctx)
		err = withPhase(wrapEvaluationError(t.engine, t.expression, ctx.linkLabel(), err), PhaseEvaluate)
		t.logger.LogEvaluation(EvaluatorLogEvent{
			Domain:    t.domain,
			Engine:    t.engine,
			Expr:      t.expression,
			Link:      ctx.linkLabel(),
			Phase:     PhaseEvaluate,
			Unchecked: unchecked,
			Duration:  time.Since(start),
			Err:       err,
		})
		if err != nil {
			t.log.Warn("proxylist: link transform failed", "domain", t.domain, "link", ctx.linkLabel(), "error", err)
			continue
		}
		values, ok := transformValues(result)
		if !ok {
			continue
		}
		target.SetValues(values, unchecked)
	}
}

// transformValues normalizes an expression result: slices are written as-is,
// scalars as a single element and nil as no write.
func transformValues(result any) ([]any, bool) {
	if result == nil {
		return nil, false
	}
	if values, ok := result.([]any); ok {
		return append([]any(nil), values...), true
	}
	rv := reflect.ValueOf(result)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return []any{result}, true
}
