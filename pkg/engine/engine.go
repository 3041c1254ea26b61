// Package engine evaluates the model DSL. It wraps zygomys in a sandboxed
// environment and produces a model tree of phases, packages and parts from
// user source code.
package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"

	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/logging"
	"github.com/chazu/steelframe/pkg/metrics"
	"github.com/chazu/steelframe/pkg/model"
)

var (
	ErrTimeout    = errors.New("engine: evaluation timed out")
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or a blocking model
// validation finding.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
	PartID  string `json:"partId,omitempty"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
	PartID  string `json:"partId,omitempty"`
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Model    *model.Model
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	reg     catalog.Lookup
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry validates evaluated models against reg.
func WithRegistry(reg catalog.Lookup) Option { return func(e *Engine) { e.reg = reg } }

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option { return func(e *Engine) { e.timeout = d } }

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger).Named("engine")
	return e
}

// Evaluate takes DSL source and produces a model.
//
// Return semantics:
//   - On success: returns model + nil errors + nil error
//   - On parse/eval/validation failure: returns nil model + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*model.Model, []EvalError, error) {
	res, err := e.Run(source)
	if err != nil {
		return nil, nil, err
	}
	return res.Model, res.Errors, nil
}

// Run is Evaluate with warnings.
func (e *Engine) Run(source string) (EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("engine: panic during evaluation: %v", r)}
			}
		}()
		res, err := e.evaluate(source)
		ch <- evalResult{result: res, err: err}
	}()

	res, err := waitWithTimeout(ch, e.timeout, gen, &e.mu, &e.generation)
	switch {
	case errors.Is(err, ErrTimeout):
		metrics.EvaluationsTotal.WithLabelValues("timeout").Inc()
		e.logger.Warn("Evaluation timed out", zap.Duration("timeout", e.timeout))
	case errors.Is(err, ErrSuperseded):
		metrics.EvaluationsTotal.WithLabelValues("superseded").Inc()
	case err != nil:
		metrics.EvaluationsTotal.WithLabelValues("fatal").Inc()
		e.logger.Error("Evaluation failed", zap.Error(err))
	case len(res.Errors) > 0:
		metrics.EvaluationsTotal.WithLabelValues("error").Inc()
	default:
		metrics.EvaluationsTotal.WithLabelValues("ok").Inc()
	}
	return res, err
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (EvalResult, error) {
	b := newBuilder()

	// Empty source is a valid program that produces an empty model.
	if strings.TrimSpace(source) == "" {
		return EvalResult{Model: &b.model}, nil
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return EvalResult{Errors: parseZygomysError(err)}, nil
	}
	if _, err := env.Run(); err != nil {
		return EvalResult{Errors: parseZygomysError(err)}, nil
	}

	res := EvalResult{Warnings: b.unplaced()}
	vr := model.Validate(&b.model, e.reg)
	for _, f := range vr.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: f.Error(), PartID: f.PartID})
		if f.Code == model.CodeUnknownProfile {
			logging.LogDataIntegrity(e.logger, "part", "unknown_profile", zap.String("part_id", f.PartID))
		}
	}
	if !vr.OK() {
		for _, f := range vr.Errors {
			res.Errors = append(res.Errors, EvalError{Message: f.Error(), PartID: f.PartID})
		}
		return res, nil
	}
	res.Model = &b.model
	return res, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError
// values, extracting line information where the message carries it.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
