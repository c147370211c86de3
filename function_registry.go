package proxylist

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cast"
)

// Function is callable from link transforms. expr exposes it by name, cel
// and js through call(name, args).
type Function func(args ...any) (any, error)

// FunctionRegistry stores transform functions keyed by lower-cased name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register stores fn under name. Names are case-insensitive and cannot be
// registered twice.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("proxylist: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("proxylist: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("proxylist: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy; evaluators keep their own so later
// registrations do not change compiled links.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("proxylist: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("proxylist: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry configures the domain to use registry for link transforms.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *domainConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for link transforms.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *domainConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithLinkFunctions registers the built-in link helpers (clamp, scale,
// component) for link transforms. Names already taken are left alone.
func WithLinkFunctions() Option {
	return func(cfg *domainConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		RegisterLinkFunctions(cfg.functions)
	}
}

// RegisterLinkFunctions adds the built-in link helpers to r:
//
//	clamp(x, lo, hi)     x limited to [lo, hi]
//	scale(values, f)     every element multiplied by f
//	component(values, i) element i, or nil (no write) when out of range
func RegisterLinkFunctions(r *FunctionRegistry) {
	if r == nil {
		return
	}
	_ = r.Register("clamp", linkClamp)
	_ = r.Register("scale", linkScale)
	_ = r.Register("component", linkComponent)
}

func linkClamp(args ...any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("proxylist: clamp expects 3 arguments, got %d", len(args))
	}
	nums, err := toFloats(args)
	if err != nil {
		return nil, fmt.Errorf("proxylist: clamp: %w", err)
	}
	x, lo, hi := nums[0], nums[1], nums[2]
	if lo > hi {
		return nil, fmt.Errorf("proxylist: clamp: lower bound %v above upper bound %v", lo, hi)
	}
	return min(max(x, lo), hi), nil
}

func linkScale(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("proxylist: scale expects 2 arguments, got %d", len(args))
	}
	factor, err := cast.ToFloat64E(args[1])
	if err != nil {
		return nil, fmt.Errorf("proxylist: scale factor: %w", err)
	}
	values, ok := transformValues(args[0])
	if !ok {
		return nil, nil
	}
	nums, err := toFloats(values)
	if err != nil {
		return nil, fmt.Errorf("proxylist: scale: %w", err)
	}
	out := make([]any, len(nums))
	for i, n := range nums {
		out[i] = n * factor
	}
	return out, nil
}

func linkComponent(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("proxylist: component expects 2 arguments, got %d", len(args))
	}
	index, err := cast.ToIntE(args[1])
	if err != nil {
		return nil, fmt.Errorf("proxylist: component index: %w", err)
	}
	values, ok := transformValues(args[0])
	if !ok || index < 0 || index >= len(values) {
		return nil, nil
	}
	return values[index], nil
}

func toFloats(values []any) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
