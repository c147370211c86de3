package proxylist

import (
	"testing"
)

func TestLinkFunctionsInExprTransforms(t *testing.T) {
	cases := []struct {
		name      string
		transform string
		owner     []any
		want      []any
	}{
		{"clamp", "clamp(value, 0, 3)", []any{5.0}, []any{3.0}},
		{"scale", "scale(values, 2)", []any{1.0, 2.5}, []any{2.0, 5.0}},
		{"component", "component(values, 1)", []any{1.0, 7.0}, []any{7.0}},
		{"component out of range", "component(values, 4)", []any{1.0}, []any{0.5}},
	}
	for _, c := range cases {
		owner, glyph := glyphOwner(0)
		owner.prop("Radius").SetValues(c.owner, false)
		d := New(WithProperty(glyph), WithLinkFunctions())
		candidate := transformCandidate(c.transform)
		d.AddProxy(candidate)

		got := candidate.prop("Radius").Values(false)
		if len(got) != len(c.want) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, got)
		}
		for i := range c.want {
			if got[i] != c.want[i] {
				t.Fatalf("%s: expected %v, got %v", c.name, c.want, got)
			}
		}
	}
}

func TestLinkFunctionsThroughCELCall(t *testing.T) {
	_, glyph := glyphOwner(5.0)
	d := New(WithProperty(glyph), WithEngine("cel"), WithLinkFunctions())
	candidate := transformCandidate(`call("clamp", [value, 0.0, 3.0])`)
	d.AddProxy(candidate)

	if got := candidate.prop("Radius").Values(false); len(got) != 1 || got[0] != 3.0 {
		t.Fatalf("expected 3.0, got %v", got)
	}
}

func TestLinkFunctionArgumentErrors(t *testing.T) {
	if _, err := linkClamp(1.0, 2.0); err == nil {
		t.Fatalf("expected arity error")
	}
	if _, err := linkClamp(1.0, 3.0, 2.0); err == nil {
		t.Fatalf("expected inverted bounds error")
	}
	if _, err := linkScale([]any{"wide"}, 2); err == nil {
		t.Fatalf("expected non-numeric element error")
	}
	if _, err := linkComponent([]any{1.0}, "first"); err == nil {
		t.Fatalf("expected non-integer index error")
	}
}

func TestRegisterLinkFunctionsKeepsExistingNames(t *testing.T) {
	r := NewFunctionRegistry()
	custom := func(args ...any) (any, error) { return "custom", nil }
	if err := r.Register("Clamp", custom); err != nil {
		t.Fatalf("register: %v", err)
	}
	RegisterLinkFunctions(r)

	got, err := r.Call("clamp", 9.0, 0.0, 1.0)
	if err != nil || got != "custom" {
		t.Fatalf("expected custom clamp kept, got %v err=%v", got, err)
	}
	if names := r.Names(); len(names) != 3 {
		t.Fatalf("expected 3 functions, got %v", names)
	}
}
