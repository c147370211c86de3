package proxylist

import (
	"errors"
	"fmt"
	"strings"
)

// TransformPhase tells where a link transform failed. A compile failure
// turns the link into a plain copy; an evaluate failure skips one write.
type TransformPhase string

const (
	PhaseCompile  TransformPhase = "compile"
	PhaseEvaluate TransformPhase = "evaluate"
)

// EvaluationError describes a failed link transform. Link is "Source->Target".
type EvaluationError struct {
	Engine string
	Expr   string
	Link   string
	Phase  TransformPhase
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	link := e.Link
	if link == "" {
		link = "unknown"
	}
	phase := e.Phase
	if phase == "" {
		phase = PhaseEvaluate
	}
	return fmt.Sprintf("proxylist: link %s: %s %s failed, %s: %v", link, e.Engine, phase, describeExpression(e.Expr), e.Err)
}

// FallsBackToCopy reports whether err made a link drop its transform and
// copy values unchanged.
func FallsBackToCopy(err error) bool {
	var evalErr *EvaluationError
	return errors.As(err, &evalErr) && evalErr.Phase == PhaseCompile
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "proxylist:") {
		return err
	}
	return fmt.Errorf("proxylist: %s evaluator: %w", engine, err)
}

// withPhase tags err with phase unless a phase is already recorded.
func withPhase(err error, phase TransformPhase) error {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) && evalErr.Phase == "" {
		evalErr.Phase = phase
	}
	return err
}

func wrapEvaluationError(engine, expr, link string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Link == "" {
			evalErr.Link = link
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Link:   link,
		Err:    err,
	}
}
