package proxylist

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-proxylist/pkg/activity"
)

// DefaultDomainName is used when no name is configured or declared.
const DefaultDomainName = "proxy_list"

// DefaultPolicy is consulted by SetDefaultValues when the domain itself has no
// default to offer. It reports whether it assigned a value.
type DefaultPolicy func(prop Property, unchecked bool) bool

// Option configures a Domain.
type Option func(*domainConfig)

type domainConfig struct {
	name            string
	property        Property
	logger          Logger
	definitions     Definitions
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evaluatorLogger EvaluatorLogger
	defaultPolicy   DefaultPolicy
	activityHooks   activity.Hooks
	activityConfig  *activity.Config

	// useJS defers building the js engine until cache and functions are known.
	useJS bool

	// unavailableEngine names an engine WithEngine could not select.
	unavailableEngine string
}

func applyOptions(opts []Option) domainConfig {
	cfg := domainConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.name == "" {
		cfg.name = DefaultDomainName
	}
	if cfg.logger == nil {
		cfg.logger = NoopLogger()
	}
	if cfg.evaluatorLogger == nil {
		cfg.evaluatorLogger = noopEvaluatorLogger{}
	}
	if cfg.defaultPolicy == nil {
		cfg.defaultPolicy = noDefault
	}
	if cfg.unavailableEngine != "" {
		cfg.logger.Warn("proxylist: transform engine unavailable, using default",
			"engine", cfg.unavailableEngine, "default", "expr")
	}
	return cfg
}

func noDefault(Property, bool) bool { return false }

// WithName sets the domain name used in logs, state and activity events.
func WithName(name string) Option {
	return func(cfg *domainConfig) {
		cfg.name = strings.TrimSpace(name)
	}
}

// WithProperty attaches the domain to prop. The owner used for link hints is
// prop.Parent().
func WithProperty(prop Property) Option {
	return func(cfg *domainConfig) {
		cfg.property = prop
	}
}

// WithLogger sets the structured logger. A nil logger discards output.
func WithLogger(logger Logger) Option {
	return func(cfg *domainConfig) {
		cfg.logger = logger
	}
}

// WithDefinitions configures the registry used to expand Group elements.
func WithDefinitions(definitions Definitions) Option {
	return func(cfg *domainConfig) {
		cfg.definitions = definitions
	}
}

// WithEvaluator configures the engine used for link transforms.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *domainConfig) {
		cfg.evaluator = e
		cfg.useJS = false
	}
}

// WithEngine selects a built-in transform engine by name: expr, cel or js.
// js requires the js_eval build tag. An unknown or unavailable engine leaves
// the current one in place and is logged as a warning.
func WithEngine(engine string) Option {
	return func(cfg *domainConfig) {
		name := strings.ToLower(strings.TrimSpace(engine))
		cfg.unavailableEngine = ""
		switch name {
		case "expr":
			cfg.evaluator = nil
			cfg.useJS = false
		case "cel":
			cfg.evaluator = &celEvaluator{}
			cfg.useJS = false
		case "js":
			if !jsEvaluatorAvailable() {
				cfg.unavailableEngine = name
				return
			}
			cfg.evaluator = nil
			cfg.useJS = true
		default:
			cfg.unavailableEngine = name
		}
	}
}

// WithProgramCache registers a program cache used by the transform engine.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *domainConfig) {
		cfg.programCache = cache
	}
}

// WithDefaultPolicy sets the fallback used by SetDefaultValues on an empty
// domain or a property that does not accept proxies.
func WithDefaultPolicy(policy DefaultPolicy) Option {
	return func(cfg *domainConfig) {
		cfg.defaultPolicy = policy
	}
}

// WithActivityHooks attaches activity hooks notified on domain changes. Nil
// entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *domainConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides the emitter configuration. Without it, hooks
// are enabled on the "proxylist" channel.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *domainConfig) {
		c := config
		cfg.activityConfig = &c
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}

// resolveEvaluator returns the configured engine or builds the default expr
// evaluator with the configured cache and functions.
func (cfg *domainConfig) resolveEvaluator() (Evaluator, error) {
	switch e := cfg.evaluator.(type) {
	case nil:
		if cfg.useJS {
			var jsOpts []JSEvaluatorOption
			if cfg.programCache != nil {
				jsOpts = append(jsOpts, JSWithProgramCache(cfg.programCache))
			}
			if cfg.functions != nil {
				jsOpts = append(jsOpts, JSWithFunctionRegistry(cfg.functions))
			}
			if js := NewJSEvaluator(jsOpts...); js != nil {
				cfg.evaluator = js
				return js, nil
			}
		}
	case *celEvaluator:
		if e.cache == nil && e.registry == nil {
			var celOpts []CELEvaluatorOption
			if cfg.programCache != nil {
				celOpts = append(celOpts, CELWithProgramCache(cfg.programCache))
			}
			if cfg.functions != nil {
				celOpts = append(celOpts, CELWithFunctionRegistry(cfg.functions))
			}
			cfg.evaluator = NewCELEvaluator(celOpts...)
		}
		return cfg.evaluator, nil
	default:
		return e, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, fmt.Errorf("proxylist: evaluator not configured")
	}
	cfg.evaluator = evaluator
	return evaluator, nil
}
