package pipeline

import (
	"context"
	"fmt"

	"github.com/roach88/unwind/internal/ir"
	"github.com/roach88/unwind/internal/syntax"
)

// UnitResult is the outcome of lowering one top-level statement.
type UnitResult struct {
	// Index is the statement's position in the module body.
	Index int

	Kind syntax.Kind
	IR   ir.IRValue
	Err  error
}

// LowerUnits parses source once and lowers each top-level statement as its
// own unit, so one unsupported statement does not hide the others. A parse
// failure still fails the whole call.
func (p *Pipeline) LowerUnits(ctx context.Context, source string) ([]UnitResult, error) {
	if p.parser == nil {
		return nil, fmt.Errorf("lower units: pipeline has no parser")
	}
	l, err := p.Lowerer(ctx)
	if err != nil {
		return nil, err
	}
	tree, err := p.parser.Parse(ctx, source)
	if err != nil {
		return nil, err
	}

	body := tree.Items("body")
	units := make([]UnitResult, 0, len(body))
	for i, item := range body {
		u := UnitResult{Index: i}
		if stmt, ok := item.(*syntax.Node); ok && stmt != nil {
			u.Kind = stmt.Kind
		}
		u.IR, u.Err = l.LowerValue(item)
		if u.Err != nil {
			p.logger.Debug("unit failed", "index", i, "kind", u.Kind, "error", u.Err)
			u.IR = nil
		}
		units = append(units, u)
	}
	return units, nil
}
