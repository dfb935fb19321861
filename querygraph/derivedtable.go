package querygraph

import (
	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/expr"
)

// JoinEdge is an undirected relation between two sides, each a set of
// tables within the same DerivedTable (§3 "JoinEdge").
type JoinEdge struct {
	ObjectID opt.ObjectID

	Left, Right opt.TableSet

	// LeftKeys and RightKeys are equal-length, pairwise-compatible key
	// vectors extracted by splitting the join condition into equi-keys and
	// residual filter (§4.1 "A Join becomes a JoinEdge").
	LeftKeys, RightKeys []opt.ColumnID

	// ExtraFilter holds any non-equi residual of the join condition.
	ExtraFilter opt.ExprID // 0 if none

	Kind JoinEdgeKind
}

// JoinEdgeKind mirrors the logical join types a JoinEdge can carry,
// extended with the semi/anti/mark forms the physical search introduces
// when exploiting existence reducers (§3 "RelationOp": Join type
// enumeration).
type JoinEdgeKind uint8

const (
	InnerEdge JoinEdgeKind = iota
	LeftEdge
	RightEdge
	FullEdge
	SemiEdge
	AntiEdge
	MarkEdge
)

// GroupBy describes an optional aggregation attached to a DerivedTable.
type GroupBy struct {
	Keys []opt.ColumnID
	Aggs []opt.ColumnID // columns produced by aggregate expressions, 1-to-1 with AggExprs
	AggExprs []opt.ExprID
}

// ColumnOrderKey is one physical ordering element required of a
// DerivedTable's output.
type ColumnOrderKey struct {
	Column opt.ColumnID
	Desc   bool
}

// DerivedTable is a scope of joined base/derived tables plus an optional
// aggregation, sort, and limit (§3 "DerivedTable"). DerivedTables nest: a
// member may itself be a *DerivedTable, representing a node that cannot
// freely reorder with its parent (§4.1: Aggregation/Sort/Limit wrap their
// input in a fresh inner DerivedTable).
type DerivedTable struct {
	ObjectID opt.ObjectID

	// Tables is the set of member TableIDs directly owned by this scope -
	// i.e. base tables, or nested DerivedTables represented by a
	// placeholder TableID allocated for them (see Nested).
	Tables opt.TableSet

	// Nested maps a placeholder member TableID to the inner DerivedTable
	// it stands for, when that member cannot be flattened into this scope.
	Nested map[opt.TableID]*DerivedTable

	// Base maps a member TableID to its BaseTable, when that member is an
	// ordinary scan rather than a nested scope.
	Base map[opt.TableID]*BaseTable

	// Conjuncts are this scope's filter predicates, flattened across
	// nested ANDs (§4.1 "conjuncts are flattened across nested AND").
	Conjuncts []opt.ExprID

	// Edges are the JoinEdges linking members of this scope.
	Edges []*JoinEdge

	// Projected is the ordered output column list this scope must
	// produce.
	Projected []opt.ColumnID

	// Synonyms maps a projected column to the expression computing it,
	// when that column was introduced by a Project rather than being a
	// passthrough of a member's column (§4.1 "A Projection introduces
	// synonyms").
	Synonyms map[opt.ColumnID]opt.ExprID

	Group *GroupBy // nil if this scope has no aggregation
	Order []ColumnOrderKey
	Limit, Offset int64 // -1 means unset

	// UnionInputs is set instead of Tables/Edges when this DerivedTable
	// represents a multi-input UnionAll (§4.1 "union-all becomes a
	// multi-input UnionAll at the physical level with no reordering"),
	// which the search passes through rather than reorders.
	UnionInputs []*DerivedTable

	// ValuesRows is set instead of Tables/Edges when this DerivedTable is a
	// zero-table literal row source (§4.1 Values): each row is one slice of
	// per-Projected-column expressions.
	ValuesRows [][]opt.ExprID

	// UnnestExpr is set when this DerivedTable expands its single nested
	// member's container-valued expression into rows (§4.1 Unnest); 0 if
	// this DerivedTable is not an unnest.
	UnnestExpr opt.ExprID
}

// NewDerivedTable allocates an empty scope.
func NewDerivedTable(objID opt.ObjectID) *DerivedTable {
	return &DerivedTable{
		ObjectID: objID,
		Nested:   make(map[opt.TableID]*DerivedTable),
		Base:     make(map[opt.TableID]*BaseTable),
		Synonyms: make(map[opt.ColumnID]opt.ExprID),
		Limit:    -1,
		Offset:   -1,
	}
}

// AddConjunct appends a predicate, validating that every column it
// references is provided by some member (§3 "DerivedTable" invariant).
func (d *DerivedTable) AddConjunct(e opt.ExprID, g *expr.Graph) {
	if !g.Node(e).ColumnRefs().SubsetOf(d.MemberColumns(nil)) {
		panic(opt.NewInternal(nil, "conjunct references a column no member of this scope provides"))
	}
	d.Conjuncts = append(d.Conjuncts, e)
}

// MemberColumns returns the set of columns any direct member of this scope
// can provide, used to check the "every referenced column is provided by
// some member" invariant.
func (d *DerivedTable) MemberColumns(md *opt.Metadata) opt.ColSet {
	var out opt.ColSet
	d.Tables.ForEach(func(t opt.TableID) {
		if bt, ok := d.Base[t]; ok {
			bt.Columns.ForEach(func(c opt.ColumnID) { out.Add(c) })
			return
		}
		if nested, ok := d.Nested[t]; ok {
			for _, c := range nested.Projected {
				out.Add(c)
			}
		}
	})
	for c := range d.Synonyms {
		out.Add(c)
	}
	return out
}
