// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package querygraph implements the Query Graph Builder (§4.1): it lowers
// an immutable input LogicalPlan (§6 "Input") into a forest of DerivedTables
// linked by JoinEdges, and simultaneously marks which subfields of each
// complex-typed column are accessed in control vs. payload positions.
package querygraph

import "github.com/flintsql/optimizer/cat"

// LogicalKind tags one node of the external, immutable LogicalPlan input
// tree (§6 "Input"). The logical-plan builder that produces this tree is
// out of scope (§1); querygraph only ever reads it.
type LogicalKind uint8

const (
	ScanNode LogicalKind = iota
	FilterNode
	ProjectNode
	AggregateNode
	JoinNode
	SortNode
	LimitNode
	SetNode
	UnnestNode
	ValuesNode
)

// JoinKind enumerates the logical join types a JoinNode can carry.
type JoinKind uint8

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullJoin
)

// SetKind enumerates the logical set operations a SetNode can carry.
type SetKind uint8

const (
	UnionSet SetKind = iota
	UnionAllSet
	IntersectSet
	ExceptSet
)

// OutputCol is one column of a LogicalNode's output row type.
type OutputCol struct {
	Name string
	Type cat.Type
}

// LogicalNode is one node of the input plan tree. Every concrete node type
// below implements it; the builder type-switches on the concrete node
// type.
type LogicalNode interface {
	ID() int64
	Kind() LogicalKind
	Inputs() []LogicalNode
	Columns() []OutputCol
}

type baseNode struct {
	NodeID  int64
	NodeCols []OutputCol
}

func (b *baseNode) ID() int64           { return b.NodeID }
func (b *baseNode) Columns() []OutputCol { return b.NodeCols }

// Scan is a leaf reading one catalog table.
type Scan struct {
	baseNode
	Table string
}

func (s *Scan) Kind() LogicalKind    { return ScanNode }
func (s *Scan) Inputs() []LogicalNode { return nil }

// Filter keeps rows matching Predicate.
type Filter struct {
	baseNode
	Input     LogicalNode
	Predicate ScalarExpr
}

func (f *Filter) Kind() LogicalKind    { return FilterNode }
func (f *Filter) Inputs() []LogicalNode { return []LogicalNode{f.Input} }

// Project introduces named synonyms for expressions computed over Input.
type Project struct {
	baseNode
	Input       LogicalNode
	Projections []ScalarExpr
}

func (p *Project) Kind() LogicalKind    { return ProjectNode }
func (p *Project) Inputs() []LogicalNode { return []LogicalNode{p.Input} }

// Aggregate groups Input by GroupBy and computes Aggs over each group.
type Aggregate struct {
	baseNode
	Input   LogicalNode
	GroupBy []ScalarExpr
	Aggs    []ScalarExpr // each must be a Call naming an aggregate function
}

func (a *Aggregate) Kind() LogicalKind    { return AggregateNode }
func (a *Aggregate) Inputs() []LogicalNode { return []LogicalNode{a.Input} }

// Join combines Left and Right under Condition.
type Join struct {
	baseNode
	Left, Right LogicalNode
	JoinKind    JoinKind
	Condition   ScalarExpr
}

func (j *Join) Kind() LogicalKind    { return JoinNode }
func (j *Join) Inputs() []LogicalNode { return []LogicalNode{j.Left, j.Right} }

// OrderKey is one ORDER BY element.
type OrderKey struct {
	Expr ScalarExpr
	Desc bool
}

// Sort orders Input by Keys.
type Sort struct {
	baseNode
	Input LogicalNode
	Keys  []OrderKey
}

func (s *Sort) Kind() LogicalKind    { return SortNode }
func (s *Sort) Inputs() []LogicalNode { return []LogicalNode{s.Input} }

// Limit caps Input's row count, with an optional Offset.
type Limit struct {
	baseNode
	Input        LogicalNode
	Limit, Offset int64 // -1 means "unset"
}

func (l *Limit) Kind() LogicalKind    { return LimitNode }
func (l *Limit) Inputs() []LogicalNode { return []LogicalNode{l.Input} }

// Set combines Inputs with a union/intersect/except semantics.
type Set struct {
	baseNode
	SetInputs []LogicalNode
	SetKind   SetKind
}

func (s *Set) Kind() LogicalKind    { return SetNode }
func (s *Set) Inputs() []LogicalNode { return s.SetInputs }

// Unnest expands an array/map-valued Expr of Input into rows.
type Unnest struct {
	baseNode
	Input LogicalNode
	Expr  ScalarExpr
}

func (u *Unnest) Kind() LogicalKind    { return UnnestNode }
func (u *Unnest) Inputs() []LogicalNode { return []LogicalNode{u.Input} }

// Values is a leaf producing a literal set of rows.
type Values struct {
	baseNode
	Rows [][]ScalarExpr
}

func (v *Values) Kind() LogicalKind    { return ValuesNode }
func (v *Values) Inputs() []LogicalNode { return nil }

// NewScan returns a leaf scanning the named catalog table.
func NewScan(id int64, cols []OutputCol, table string) *Scan {
	return &Scan{baseNode: baseNode{NodeID: id, NodeCols: cols}, Table: table}
}

// NewFilter returns a Filter node over input.
func NewFilter(id int64, cols []OutputCol, input LogicalNode, predicate ScalarExpr) *Filter {
	return &Filter{baseNode: baseNode{NodeID: id, NodeCols: cols}, Input: input, Predicate: predicate}
}

// NewProject returns a Project node over input.
func NewProject(id int64, cols []OutputCol, input LogicalNode, projections []ScalarExpr) *Project {
	return &Project{baseNode: baseNode{NodeID: id, NodeCols: cols}, Input: input, Projections: projections}
}

// NewAggregate returns an Aggregate node over input.
func NewAggregate(id int64, cols []OutputCol, input LogicalNode, groupBy, aggs []ScalarExpr) *Aggregate {
	return &Aggregate{baseNode: baseNode{NodeID: id, NodeCols: cols}, Input: input, GroupBy: groupBy, Aggs: aggs}
}

// NewJoin returns a Join node combining left and right.
func NewJoin(id int64, cols []OutputCol, left, right LogicalNode, kind JoinKind, cond ScalarExpr) *Join {
	return &Join{baseNode: baseNode{NodeID: id, NodeCols: cols}, Left: left, Right: right, JoinKind: kind, Condition: cond}
}

// NewSort returns a Sort node over input.
func NewSort(id int64, cols []OutputCol, input LogicalNode, keys []OrderKey) *Sort {
	return &Sort{baseNode: baseNode{NodeID: id, NodeCols: cols}, Input: input, Keys: keys}
}

// NewLimit returns a Limit node over input. A limit or offset of -1 means
// "unset".
func NewLimit(id int64, cols []OutputCol, input LogicalNode, limit, offset int64) *Limit {
	return &Limit{baseNode: baseNode{NodeID: id, NodeCols: cols}, Input: input, Limit: limit, Offset: offset}
}

// NewSet returns a Set node combining inputs with the given set semantics.
func NewSet(id int64, cols []OutputCol, inputs []LogicalNode, kind SetKind) *Set {
	return &Set{baseNode: baseNode{NodeID: id, NodeCols: cols}, SetInputs: inputs, SetKind: kind}
}

// NewUnnest returns an Unnest node expanding expr over input.
func NewUnnest(id int64, cols []OutputCol, input LogicalNode, e ScalarExpr) *Unnest {
	return &Unnest{baseNode: baseNode{NodeID: id, NodeCols: cols}, Input: input, Expr: e}
}

// NewValues returns a leaf producing the given literal rows.
func NewValues(id int64, cols []OutputCol, rows [][]ScalarExpr) *Values {
	return &Values{baseNode: baseNode{NodeID: id, NodeCols: cols}, Rows: rows}
}
