package proxylist

import "time"

// EvaluatorLogEvent describes one link transform compile or evaluation.
type EvaluatorLogEvent struct {
	Domain    string
	Engine    string
	Expr      string
	Link      string
	Phase     TransformPhase
	Unchecked bool
	Duration  time.Duration
	Err       error
}

// EvaluatorLogger records link transform events. Calls happen inside property
// notifications, so implementations must not block.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

// NewEvaluatorLogger writes transform events to logger: successes at debug,
// failures at warn.
func NewEvaluatorLogger(logger Logger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		args := []any{
			"domain", event.Domain,
			"link", event.Link,
			"engine", event.Engine,
			"phase", string(event.Phase),
			"unchecked", event.Unchecked,
			"duration", event.Duration,
		}
		if event.Err != nil {
			logger.Warn("proxylist: link transform failed", append(args, "error", event.Err)...)
			return
		}
		logger.Debug("proxylist: link transform", args...)
	})
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithEvaluatorLogger attaches a transform logger to the domain. nil discards.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *domainConfig) {
		if logger == nil {
			cfg.evaluatorLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evaluatorLogger = logger
	}
}
