// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package memo holds the physical plan data structures the search builds
// and compares: RelationOp trees, the Plan/PlanSet candidates memoized by
// MemoKey, and the transient PlanState the search thread through
// enumerate (§3 "RelationOp" through "PlanState"). Everything here is a
// passive data structure; package xform owns the algorithm that builds and
// chooses between them.
package memo

import (
	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/cost"
)

// Op tags one physical operator shape a RelationOp node can be (§3
// "RelationOp").
type Op uint8

const (
	UnknownOp Op = iota
	TableScanOp
	ValuesOp
	FilterOp
	ProjectOp
	HashBuildOp
	JoinOp
	AggregationOp
	OrderByOp
	LimitOp
	RepartitionOp
	UnionAllOp
)

func (o Op) String() string {
	switch o {
	case TableScanOp:
		return "table-scan"
	case ValuesOp:
		return "values"
	case FilterOp:
		return "filter"
	case ProjectOp:
		return "project"
	case HashBuildOp:
		return "hash-build"
	case JoinOp:
		return "join"
	case AggregationOp:
		return "aggregation"
	case OrderByOp:
		return "order-by"
	case LimitOp:
		return "limit"
	case RepartitionOp:
		return "repartition"
	case UnionAllOp:
		return "union-all"
	default:
		return "unknown"
	}
}

// PartitionKind enumerates how a Distribution's rows are spread across
// workers (§3 "Distribution").
type PartitionKind uint8

const (
	Singleton PartitionKind = iota
	Hash
	Broadcast
	Gather
)

// Distribution describes how a RelationOp's output rows are physically
// arranged across workers (§3 "RelationOp": "a Distribution").
type Distribution struct {
	PartitionKeys []opt.ColumnID
	Kind          PartitionKind
	SortOrder     []OrderCol
	IsGather      bool
}

// OrderCol is one column of a physical sort order.
type OrderCol struct {
	Column opt.ColumnID
	Desc   bool
}

// Satisfies reports whether d provides at least what required asks for: a
// Hash requirement is satisfied only by a Hash distribution over the same
// set of partition keys, a requirement of any other Kind is satisfied by
// every distribution, and required.SortOrder must be a prefix of
// d.SortOrder (a nil sort order is satisfied by anything) (§8: "the
// consumer's required distribution is satisfied by dist").
func (d Distribution) Satisfies(required Distribution) bool {
	if required.Kind == Hash {
		if d.Kind != Hash || len(d.PartitionKeys) != len(required.PartitionKeys) {
			return false
		}
		have := opt.MakeColSet(d.PartitionKeys...)
		want := opt.MakeColSet(required.PartitionKeys...)
		if !have.Equals(want) {
			return false
		}
	}
	if len(required.SortOrder) > len(d.SortOrder) {
		return false
	}
	for i, oc := range required.SortOrder {
		if d.SortOrder[i] != oc {
			return false
		}
	}
	return true
}

// JoinMethod distinguishes the physical strategies add_join can choose
// between (§4.4 "add_join").
type JoinMethod uint8

const (
	JoinByHash JoinMethod = iota
	JoinByHashRight
	JoinByIndex
	CrossJoin
)

// JoinType mirrors the logical/physical join kinds a Join RelationOp can
// carry, including the semi/anti/mark forms the search introduces when
// exploiting existence reducers (§3 "RelationOp").
type JoinType uint8

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	SemiJoin
	AntiJoin
	MarkJoin
)

// AggStep distinguishes a single-stage aggregation from the two halves of
// a partial/final split (not used by the base cost model directly, but
// carried so the emitter can print accurate EXPLAIN-style output).
type AggStep uint8

const (
	SingleAgg AggStep = iota
	PartialAgg
	FinalAgg
)

// RelationOp is one physical operator node (§3 "RelationOp"). Every
// RelationOp is immutable once constructed; building a new operator over
// existing inputs produces a new node, which is what lets equal subtrees
// (e.g. a shared hash build) be referenced from more than one place.
type RelationOp struct {
	// ID is a debug-only running counter (§3 "ObjectID"), also used to key
	// the emitter's node_id -> Cost / node_id -> history-key maps (§6
	// "Output").
	ID opt.ObjectID

	Op     Op
	Inputs []*RelationOp

	OutputCols   []opt.ColumnID
	Distribution Distribution
	Cost         cost.Cost

	// Table/Handle are set when Op == TableScanOp.
	Table  opt.TableID
	Handle cat.TableHandle

	// Rows is set when Op == ValuesOp: one row per slice of per-column
	// expression ids (resolved by xform from the DerivedTable that had no
	// base table).
	Rows [][]opt.ExprID

	// Exprs is set when Op == FilterOp (the filter predicates) or
	// ProjectOp (Projections below maps 1:1 to OutputCols).
	Exprs       []opt.ExprID
	Projections []opt.ExprID

	// JoinMethod/JoinType/LeftKeys/RightKeys/ExtraFilter are set when
	// Op == JoinOp.
	JoinMethod  JoinMethod
	JoinType    JoinType
	LeftKeys    []opt.ColumnID
	RightKeys   []opt.ColumnID
	ExtraFilter opt.ExprID

	// GroupKeys/Aggs/AggStep are set when Op == AggregationOp.
	GroupKeys []opt.ColumnID
	Aggs      []opt.ExprID
	AggStep   AggStep

	// Limit/Offset are set when Op == LimitOp, saturated per §8 "Limit
	// with offset + limit overflowing int64".
	Limit, Offset int64

	// BuildFingerprint identifies this node's subtree for build reuse
	// (§3 "Plan": "a fingerprint of embedded hash-build sides").
	BuildFingerprint uint64
}

// InputCardinality returns the cardinality the op's own Cost was computed
// against, used when chaining costs leaf-to-root.
func (r *RelationOp) InputCardinality() float64 { return r.Cost.InputCardinality }

// OutputCardinality returns this op's own estimated output row count.
func (r *RelationOp) OutputCardinality() float64 { return r.Cost.InputCardinality * r.Cost.Fanout }
