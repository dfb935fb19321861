package querygraph

import (
	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/expr"
)

// ColumnFilter is a single-column predicate collected while translating a
// Filter node, a candidate for pushdown to the scan (§3 "BaseTable":
// "column filters (equality, range, IN)").
type ColumnFilter struct {
	Column opt.ColumnID
	Op     cat.FilterOp
	Value  interface{}
	Low, High           interface{}
	LowIncl, HighIncl   bool
	Values              []interface{}

	// Expr is the original predicate this filter was extracted from, kept
	// so a rejected pushdown can fall back to a residual Filter operator
	// evaluating the same expression (§7: a rejected pushdown is not an
	// error).
	Expr opt.ExprID
}

// BaseTable is a scan of one physical table layout (§3 "BaseTable"). It is
// created when the builder first sees a Scan node, mutated as filters are
// pushed in while walking enclosing Filter nodes, and frozen before the
// search begins.
type BaseTable struct {
	ObjectID opt.ObjectID
	Table    opt.TableID

	// Layout is chosen once Freeze selects among cat.Table's layouts; nil
	// until then.
	Layout *cat.Layout

	// Columns is the set of columns this scan must produce, accumulated
	// from every consumer (filters, joins, projections) that references a
	// column of this table.
	Columns opt.ColSet

	// PushedFilters is the set of per-column filters gathered from
	// enclosing AND-conjuncts that reference only this table.
	PushedFilters []ColumnFilter

	// ResidualFilters holds conjuncts that reference only this table but
	// are not simple column filters (so they stay as a Filter operator
	// above the scan) plus any PushedFilters the catalog rejected (§7: a
	// rejected pushdown is not an error).
	ResidualFilters []opt.ExprID

	// ControlSubfields / PayloadSubfields map a column of this table to
	// the set of Paths accessed through it in control vs. payload
	// positions (§4.1 "subfield-access marking").
	ControlSubfields map[opt.ColumnID]map[opt.PathID]opt.Path
	PayloadSubfields map[opt.ColumnID]map[opt.PathID]opt.Path

	// FilterSelectivity is the estimated fraction of rows ResidualFilters
	// and PushedFilters together let through, filled in by the cost model
	// (possibly refined by sampling/History, §9).
	FilterSelectivity float64

	// Handle is the connector-produced scan handle Freeze obtains from the
	// catalog, and RejectedFilters is whatever PushedFilters it declined
	// to absorb, folded into ResidualFilters by the caller (§7: a rejected
	// pushdown is not an error).
	Handle          cat.TableHandle
	RejectedFilters []cat.Filter

	frozen bool
}

// NewBaseTable allocates a BaseTable for a scan of table.
func NewBaseTable(objID opt.ObjectID, table opt.TableID) *BaseTable {
	return &BaseTable{
		ObjectID:         objID,
		Table:            table,
		ControlSubfields: make(map[opt.ColumnID]map[opt.PathID]opt.Path),
		PayloadSubfields: make(map[opt.ColumnID]map[opt.PathID]opt.Path),
	}
}

// RequireColumn marks col as an output of this scan.
func (b *BaseTable) RequireColumn(col opt.ColumnID) {
	if b.frozen {
		panic(opt.NewInternal(nil, "cannot mutate a frozen BaseTable"))
	}
	b.Columns.Add(col)
}

// AddFilter pushes one column filter into the scan.
func (b *BaseTable) AddFilter(f ColumnFilter) {
	if b.frozen {
		panic(opt.NewInternal(nil, "cannot mutate a frozen BaseTable"))
	}
	b.PushedFilters = append(b.PushedFilters, f)
	b.RequireColumn(f.Column)
}

// AddResidualFilter records a conjunct that must stay above the scan.
func (b *BaseTable) AddResidualFilter(e opt.ExprID, g *expr.Graph) {
	if b.frozen {
		panic(opt.NewInternal(nil, "cannot mutate a frozen BaseTable"))
	}
	b.ResidualFilters = append(b.ResidualFilters, e)
	g.Node(e).ColumnRefs().ForEach(b.RequireColumn)
}

// MarkSubfield records that col's path is accessed in a control (isControl)
// or payload position.
func (b *BaseTable) MarkSubfield(col opt.ColumnID, path opt.Path, isControl bool) {
	m := b.PayloadSubfields
	if isControl {
		m = b.ControlSubfields
	}
	set, ok := m[col]
	if !ok {
		set = make(map[opt.PathID]opt.Path)
		m[col] = set
	}
	set[path.ID] = path
}

// LiveSubfields returns the union of control and payload subfields
// accessed through col, the live set consumed by subfield pushdown (§4.5).
func (b *BaseTable) LiveSubfields(col opt.ColumnID) map[opt.PathID]opt.Path {
	out := make(map[opt.PathID]opt.Path)
	for id, p := range b.ControlSubfields[col] {
		out[id] = p
	}
	for id, p := range b.PayloadSubfields[col] {
		out[id] = p
	}
	return out
}

// Freeze records the chosen layout and connector-produced handle and
// forbids further mutation, called once per scan by the search before it
// is used as a join leaf (§3 "Lifecycle"). rejected filters (declined by
// CreateTableHandle) are the caller's responsibility to fold into
// ResidualFilters before calling Freeze.
func (b *BaseTable) Freeze(layout *cat.Layout, handle cat.TableHandle, rejected []cat.Filter) {
	b.Layout = layout
	b.Handle = handle
	b.RejectedFilters = rejected
	b.frozen = true
}
