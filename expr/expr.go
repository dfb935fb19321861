// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package expr implements the Expression Graph (§3 Expression): a
// structurally deduplicated set of scalar expressions - columns, literals,
// calls, field/subscript getters, lambdas, aggregates and windows - each
// carrying a type, a value-info estimate, and the set of columns it
// references. It replaces the teacher's deep scalar-operator class
// hierarchy with a single tagged variant, per §9 "Deep class hierarchies".
package expr

import "github.com/flintsql/optimizer/cat"

// Op tags every scalar expression shape the graph can represent.
type Op uint8

const (
	UnknownOp Op = iota
	ColumnOp     // a reference to an opt.ColumnID
	LiteralOp
	CallOp
	FieldOp     // base.step, where step is an opt.Step (field/subscript/cardinality)
	AggregateOp
	WindowOp
	LambdaOp
)

func (o Op) String() string {
	switch o {
	case ColumnOp:
		return "column"
	case LiteralOp:
		return "literal"
	case CallOp:
		return "call"
	case FieldOp:
		return "field"
	case AggregateOp:
		return "aggregate"
	case WindowOp:
		return "window"
	case LambdaOp:
		return "lambda"
	default:
		return "unknown"
	}
}

// ValueInfo estimates the shape of an expression's runtime values,
// independent of any one plan: its type and, where known, an expected
// cardinality (for set-valued subexpressions) or distinct-count (for
// scalar columns), used by the cost model's expression self-cost and by
// aggregation cardinality estimation (§4.3).
type ValueInfo struct {
	Type          cat.Type
	DistinctCount float64
	// EstCardinality is set for expressions that produce zero-or-more
	// values (array/map subscript-all traversals feeding a lambda), not for
	// plain scalars.
	EstCardinality float64
}
