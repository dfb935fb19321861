package cat

// ColumnHandle is an opaque, connector-produced token identifying one
// projected column of a scan, possibly pruned to a subfield or cast from a
// map to a struct. The optimizer never looks inside it.
type ColumnHandle interface {
	// ColumnName is only used for debug printing; the optimizer tracks
	// column identity through opt.ColumnID, not through this string.
	ColumnName() string
}

// TableHandle is an opaque, connector-produced token identifying a
// fully-configured scan: a layout, a column projection, and pushed-down
// filters.
type TableHandle interface {
	LayoutName() string
}

// FilterOp enumerates the filter shapes a connector may accept for
// pushdown.
type FilterOp uint8

const (
	FilterEq FilterOp = iota
	FilterRange
	FilterIn
)

// Filter is a column-level predicate offered to CreateTableHandle for
// pushdown. RangeLow/RangeHigh are used when Op == FilterRange (either may
// be nil for an open-ended bound); Values is used when Op == FilterIn.
type Filter struct {
	Column   string
	Op       FilterOp
	Value    interface{}
	RangeLow, RangeHigh interface{}
	LowIncl, HighIncl   bool
	Values   []interface{}
}
