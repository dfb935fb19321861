package querygraph

import (
	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/expr"
)

// MarkSubfields walks every conjunct, join residual filter, synonym,
// aggregate expression, unnest expression, VALUES row and base-table
// residual filter of dt (recursing into nested and union members) and
// records, on each
// BaseTable it bottoms out at, which subfield of each column is accessed
// and whether that access happened in a control or payload position (§4.1
// "subfield-access marking"). It must run after the builder has finished
// translating the whole plan and before BaseTable.Freeze.
func MarkSubfields(md *opt.Metadata, g *expr.Graph, funcs *expr.Registry, dt *DerivedTable) {
	m := &marker{md: md, g: g, funcs: funcs}
	m.markDerivedTable(dt)
}

type marker struct {
	md    *opt.Metadata
	g     *expr.Graph
	funcs *expr.Registry
}

func (m *marker) markDerivedTable(dt *DerivedTable) {
	for _, c := range dt.Conjuncts {
		m.markControl(dt, c)
	}
	for _, e := range dt.Edges {
		if e.ExtraFilter != 0 {
			m.markControl(dt, e.ExtraFilter)
		}
	}
	for _, e := range dt.Synonyms {
		m.markPayload(dt, e)
	}
	if dt.Group != nil {
		for _, e := range dt.Group.AggExprs {
			m.markPayload(dt, e)
		}
	}
	if dt.UnnestExpr != 0 {
		m.markControl(dt, dt.UnnestExpr)
	}
	for _, rows := range dt.ValuesRows {
		for _, e := range rows {
			m.markPayload(dt, e)
		}
	}
	for _, nested := range dt.Nested {
		m.markDerivedTable(nested)
	}
	for _, u := range dt.UnionInputs {
		m.markDerivedTable(u)
	}
	for _, bt := range dt.Base {
		for _, e := range bt.ResidualFilters {
			m.markControl(dt, e)
		}
	}
}

// markControl marks e's column accesses as control-position (used to
// filter, join, or group rows rather than to produce output values).
func (m *marker) markControl(dt *DerivedTable, e opt.ExprID) {
	m.mark(dt, e, opt.Path{}, true)
}

// markPayload marks e's column accesses as payload-position (carried
// through to the query's output).
func (m *marker) markPayload(dt *DerivedTable, e opt.ExprID) {
	m.mark(dt, e, opt.Path{}, false)
}

// mark walks e top-down: path is the subfield path requested of e's result
// by its parent (the zero Path means "the whole value is needed"). When e
// is a base column reference, the accumulated path is recorded on its
// owning BaseTable.
func (m *marker) mark(dt *DerivedTable, id opt.ExprID, path opt.Path, isControl bool) {
	n := m.g.Node(id)
	switch n.Op {
	case expr.ColumnOp:
		m.markColumn(dt, n.Col, path, isControl)

	case expr.LiteralOp:
		// nothing to propagate

	case expr.FieldOp:
		m.mark(dt, n.Args[0], extendReversed(m.md, path, n.Step), isControl)

	case expr.CallOp:
		md := n.Metadata
		if md == nil {
			md = m.funcs.Lookup(n.FuncName)
		}
		if md != nil && md.ValuePathToArgPath != nil && len(path.Steps) > 0 {
			if ap, ok := md.ValuePathToArgPath(path); ok {
				m.mark(dt, n.Args[ap.ArgIndex], m.md.Paths.Intern(ap.Path.Steps), isControl)
				return
			}
		}
		// No structural passthrough (or the whole value is needed): every
		// argument is consumed in full. This also covers a Lambda argument
		// of a higher-order call (e.g. transform(xs, fn)): the lambda's
		// bound parameter was resolved by the builder to a synthetic
		// column with no BaseTable owner, so marking its body is a no-op
		// and the call's container argument is conservatively treated as
		// fully consumed rather than narrowed to the paths the lambda body
		// actually touches.
		for _, a := range n.Args {
			m.mark(dt, a, opt.Path{}, isControl)
		}

	case expr.AggregateOp, expr.WindowOp:
		for _, a := range n.Args {
			m.mark(dt, a, opt.Path{}, isControl)
		}
		if n.Filter != 0 {
			m.mark(dt, n.Filter, opt.Path{}, true)
		}

	case expr.LambdaOp:
		m.mark(dt, n.Args[0], opt.Path{}, isControl)
	}
}

// extendReversed prepends step to path, since mark descends from a getter
// toward its base while steps are naturally recorded base-to-leaf.
func extendReversed(md *opt.Metadata, path opt.Path, step opt.Step) opt.Path {
	steps := make([]opt.Step, 0, len(path.Steps)+1)
	steps = append(steps, step)
	steps = append(steps, path.Steps...)
	return md.Paths.Intern(steps)
}

func (m *marker) markColumn(dt *DerivedTable, col opt.ColumnID, path opt.Path, isControl bool) {
	if owner := findOwner(dt, col); owner != nil {
		owner.MarkSubfield(col, path, isControl)
	}
}

// findOwner locates the BaseTable (searching nested and union scopes) that
// a column was produced by, so a path discovered several DerivedTable
// levels above a scan still reaches it.
func findOwner(dt *DerivedTable, col opt.ColumnID) *BaseTable {
	for _, bt := range dt.Base {
		if bt.Columns.Contains(col) {
			return bt
		}
	}
	for _, nested := range dt.Nested {
		if owner := findOwner(nested, col); owner != nil {
			return owner
		}
	}
	for _, u := range dt.UnionInputs {
		if owner := findOwner(u, col); owner != nil {
			return owner
		}
	}
	return nil
}
