package cat

// Table is the catalog's view of a named table: its columns, the layouts
// (physical arrangements) it can be scanned through, and its row count.
type Table interface {
	// Name returns the unqualified table name.
	Name() string

	// ColumnCount and Column(i) expose the table's full column set,
	// independent of any one layout.
	ColumnCount() int
	Column(i int) Column

	// LayoutCount and Layout(i) expose the physical layouts (e.g. the
	// primary layout plus any secondary, differently-partitioned or
	// differently-ordered ones) available for this table.
	LayoutCount() int
	Layout(i int) Layout

	// RowCount is the catalog's best a priori estimate of the table's
	// cardinality, used before any sampling has refined it.
	RowCount() float64

	// Options reports table-level connector options (e.g. storage format)
	// the emitter or cost model may need; treated as opaque key/value
	// pairs by the optimizer itself.
	Options() map[string]string
}

// Column describes one column of a Table, independent of any particular
// scan projection.
type Column struct {
	Name           string
	Type           Type
	Nullable       bool
	DistinctCount  float64
	NullFraction   float64
	AvgSize        float64
	IsComplex      bool // struct, array, or map: a candidate for subfield pushdown
}

// Type is a minimal type tag; the optimizer only needs enough of a type
// system to decide subfield pushdown eligibility and cast feasibility, not
// full SQL type semantics (those live in the excluded parser/planner).
type Type struct {
	Kind     TypeKind
	ElemKind TypeKind // for Array/Map
	KeyKind  TypeKind // for Map
	Fields   []NamedType
}

// TypeKind enumerates the shapes the optimizer distinguishes.
type TypeKind uint8

const (
	Scalar TypeKind = iota
	Struct
	Array
	Map
)

// NamedType is one field of a Struct type.
type NamedType struct {
	Name string
	Type Type
}

// Layout describes how a table's rows are physically arranged:
// partitioning, ordering, and any lookup keys usable for an index scan.
type Layout struct {
	Name string
	// PartitionColumns is the set of columns (by name) the layout is
	// hash-partitioned on, or nil if unpartitioned.
	PartitionColumns []string
	// OrderColumns is the sequence of columns (by name) the layout
	// physically sorts by, or nil if unordered.
	OrderColumns []string
	// LookupKeys is the ordered key prefix usable for an index lookup scan
	// (§4.4 join_by_index); nil if the layout supports only a full scan.
	LookupKeys []string
}
