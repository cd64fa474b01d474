package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/unwind/internal/lower"
	"github.com/roach88/unwind/internal/pipeline"
	"github.com/roach88/unwind/internal/pyfront"
	"github.com/roach88/unwind/internal/syntax"
)

// Harness runs scenarios against a parser. Source scenarios need a parser;
// tree scenarios never invoke one.
type Harness struct {
	parser syntax.Parser
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to each pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a Harness. parser may be nil when only tree scenarios run.
func New(parser syntax.Parser, opts ...Option) *Harness {
	h := &Harness{
		parser: parser,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs by default
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario and returns the result.
//
// Lowering failures are recorded in the result, not returned: a scenario
// may expect one. The error return is reserved for scenarios that cannot be
// executed at all, such as an unreadable tree or a missing parser.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	var parser syntax.Parser
	if scenario.Source != "" {
		if h.parser == nil {
			return nil, fmt.Errorf("scenario %s: source scenarios need a parser", scenario.Name)
		}
		parser = h.parser
	}

	p := pipeline.New(parser,
		pipeline.WithExtendedOperators(scenario.ExtendedOperators),
		pipeline.WithLogger(h.logger),
	)
	dialect, err := p.Dialect(ctx)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	var res pipeline.Result
	var lowerErr error
	if scenario.Tree != "" {
		tree, err := loadTree(scenario.Tree)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		res, lowerErr = p.LowerTree(ctx, tree)
	} else {
		res, lowerErr = p.LowerText(ctx, scenario.Source)
	}

	result := NewResult(scenario.Name)
	result.Dialect = dialect
	if lowerErr != nil {
		// Cancellation is not a lowering outcome.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		result.ErrorCode = errorCode(lowerErr)
		result.ErrorMessage = lowerErr.Error()
	} else {
		result.IR = res.IR
		result.IRHash = res.IRHash
	}
	h.logger.Debug("ran scenario", "name", scenario.Name, "dialect", dialect, "error_code", result.ErrorCode)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// RunAll runs scenarios in order. It stops only on execution errors.
func (h *Harness) RunAll(ctx context.Context, scenarios []*Scenario) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, s := range scenarios {
		r, err := h.Run(ctx, s)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

func loadTree(path string) (*syntax.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file: %w", err)
	}
	return syntax.DecodeJSON(data)
}

// errorCode names a lowering failure for error assertions.
func errorCode(err error) string {
	var lowerErr *lower.LowerError
	if errors.As(err, &lowerErr) {
		return string(lowerErr.Code)
	}
	if pyfront.IsSyntaxError(err) {
		return ErrCodeSyntax
	}
	return "ERROR"
}
