package solvers

import (
	"log"
	"strings"

	opts "github.com/goliatone/go-options"
	"github.com/knadh/koanf/v2"
)

const (
	defaultExpressionStart = "{{"
	defaultExpressionEnd   = "}}"
)

// EvalErrorHandler reacts to expression evaluation failures. Return true to
// mark the error as handled.
type EvalErrorHandler func(key string, expr string, err error, cfg *koanf.Koanf) bool

type expression struct {
	delims    *delimiters
	evaluator opts.Evaluator
	onError   EvalErrorHandler
}

// NewExpressionSolver evaluates values that are a single delimited expression
// (default {{ }}) against a snapshot of the whole tree, using the default
// expr evaluator. Partial matches are left alone.
func NewExpressionSolver(start, end string) ConfigSolver {
	return NewExpressionSolverWithEvaluator(start, end, nil, nil)
}

// NewExpressionSolverWithEvaluator allows a custom evaluator and error handler.
func NewExpressionSolverWithEvaluator(start, end string, eval opts.Evaluator, onErr EvalErrorHandler) ConfigSolver {
	if eval == nil {
		eval = opts.NewExprEvaluator()
	}
	if onErr == nil {
		onErr = OnEvalLeaveUnchanged()
	}
	if start == "" {
		start = defaultExpressionStart
	}
	if end == "" {
		end = defaultExpressionEnd
	}

	return &expression{
		delims:    &delimiters{Start: start, End: end},
		evaluator: eval,
		onError:   onErr,
	}
}

func (s expression) Solve(config *koanf.Koanf) *koanf.Koanf {
	if config == nil {
		return config
	}

	for key, val := range config.All() {
		str, ok := val.(string)
		if !ok {
			continue
		}
		expr, ok := s.fullMatch(str)
		if !ok {
			continue
		}

		expr = strings.TrimSpace(expr)
		result, err := s.evaluator.Evaluate(opts.RuleContext{Snapshot: config.Raw()}, expr)
		if err != nil {
			if s.onError != nil {
				s.onError(key, expr, err, config)
			}
			continue
		}

		config.Set(key, result)
	}

	return config
}

func (s expression) fullMatch(input string) (string, bool) {
	if !strings.HasPrefix(input, s.delims.Start) || !strings.HasSuffix(input, s.delims.End) {
		return "", false
	}
	start := len(s.delims.Start)
	end := len(input) - len(s.delims.End)
	if end < start {
		return "", false
	}
	return input[start:end], true
}

// OnEvalLogAndPanic logs the error then panics.
func OnEvalLogAndPanic(logger *log.Logger) EvalErrorHandler {
	return func(key string, expr string, err error, _ *koanf.Koanf) bool {
		logWriter := logger
		if logWriter == nil {
			logWriter = log.Default()
		}
		logWriter.Printf("expression evaluation failed for %s: %s (%v)", key, expr, err)
		panic(err)
	}
}

// OnEvalLeaveUnchanged keeps the original value.
func OnEvalLeaveUnchanged() EvalErrorHandler {
	return func(string, string, error, *koanf.Koanf) bool {
		return true
	}
}

// OnEvalRemove deletes the key from the config.
func OnEvalRemove() EvalErrorHandler {
	return func(key string, _ string, _ error, cfg *koanf.Koanf) bool {
		if cfg != nil {
			cfg.Delete(key)
		}
		return true
	}
}
