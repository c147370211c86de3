//go:build js_eval

package proxylist

import (
	"errors"
	"testing"
	"time"
)

func TestJSEvaluatorInterruptsRunawayTransform(t *testing.T) {
	eval := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))
	rule, err := eval.Compile("(function(){ while (true) {} })()")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := rule.Evaluate(RuleContext{Values: []any{1.0}, Source: "Scale", Target: "Radius"})
		done <- err
	}()

	select {
	case err := <-done:
		var evalErr *EvaluationError
		if !errors.As(err, &evalErr) || evalErr.Engine != "js" || evalErr.Link != "Scale->Radius" {
			t.Fatalf("expected js evaluation error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected runaway transform to be interrupted")
	}
}

func TestJSEvaluatorCallsLinkFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	RegisterLinkFunctions(registry)
	eval := NewJSEvaluator(JSWithFunctionRegistry(registry))

	got, err := eval.Evaluate(RuleContext{Values: []any{5.0}}, `call("clamp", value, 0, 3)`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if n, err := toFloats([]any{got}); err != nil || n[0] != 3 {
		t.Fatalf("expected clamped 3, got %v (%T)", got, got)
	}
}

func TestJSEngineUsesDomainFunctions(t *testing.T) {
	logger := &recordingLogger{}
	d := New(WithEngine("js"), WithLinkFunctions(), WithLogger(logger))
	if logger.hasArg("warn", "engine", "js") {
		t.Fatalf("expected no fallback warning with the js engine built in")
	}
	eval, err := d.cfg.resolveEvaluator()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	rule, err := eval.Compile(`call("clamp", value * 2, 0, 5)`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := rule.Evaluate(RuleContext{Values: []any{4.0}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if n, err := toFloats([]any{got}); err != nil || n[0] != 5 {
		t.Fatalf("expected clamped 5, got %v", got)
	}
}
