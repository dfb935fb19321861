package opt

// ColumnID uniquely identifies a column within the scope of a query. It is
// assigned by the Metadata arena of the query and never reused. ColumnID 0
// is reserved to mean "unknown column", mirroring the teacher's NodeID bias.
type ColumnID uint32

// index returns the 0-based slice index of the column in Metadata.columns.
func (c ColumnID) index() int { return int(c - 1) }

// TableID identifies a table reference within a query's Metadata. A table
// referenced twice in one query (self-join) gets two distinct TableIDs that
// both resolve to the same cat.Table.
type TableID uint32

func (t TableID) index() int { return int(t - 1) }

// ExprID identifies a deduplicated node in the expression graph (package
// expr). Two structurally equal expressions share one ExprID.
type ExprID uint32

func (e ExprID) index() int { return int(e - 1) }

// Index returns the 0-based slice index of the expression in the owning
// Graph's node slice (package expr).
func (e ExprID) Index() int { return e.index() }

// PathID identifies an interned Path (package opt, see path.go).
type PathID uint32

func (p PathID) index() int { return int(p - 1) }

// ObjectID is a debug-only running counter assigned to every arena-owned
// object (tables, columns, expressions, derived tables, join edges) in
// construction order, independent of its per-kind ID. It exists only to
// make %v-formatted diagnostics stable and human-traceable, the way the
// original implementation tags every PlanObject with a running id.
type ObjectID uint32
