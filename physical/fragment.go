// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package physical implements the Physical Plan Emitter (§4.6): it walks
// the winning RelationOp tree bottom-up and splits it into fragments at
// Repartition boundaries, attaching connector table handles and Costs
// along the way.
package physical

import (
	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/cost"
)

// PartitionFunction describes how a fragment's output rows are routed to
// the consuming fragment's workers (§4.6 step 3).
type PartitionFunction struct {
	Kind          memoPartitionKind
	PartitionKeys []opt.ColumnID
}

// memoPartitionKind mirrors memo.PartitionKind without importing package
// memo into this lower-level type (the two enums are kept structurally
// identical and translated at the one call site in emitter.go, the way the
// teacher keeps exec plan enums decoupled from memo's own).
type memoPartitionKind uint8

const (
	PartitionGather memoPartitionKind = iota
	PartitionBroadcast
	PartitionHash
	PartitionSingleton
)

// ScanHandle pairs a RelationOp's scan with the connector handle and any
// filters the connector rejected (§4.6 step 5). Emit leaves
// RejectedFilters empty: the search evaluates rejected filters in a Filter
// operator placed above the scan.
type ScanHandle struct {
	NodeID          opt.ObjectID
	Table           opt.TableID
	Handle          cat.TableHandle
	RejectedFilters []cat.Filter
}

// Node is the emitter's own physical-tree node shape, decoupled from
// memo.RelationOp the same way PartitionFunction is decoupled from
// memo.Distribution and translated once, at the emitter's single
// RelationOp-walking call site (§4.6, §9 "Deep class hierarchies": one
// tagged variant per layer rather than exec-plan classes mirroring memo
// classes mirroring logical-plan classes).
type Node struct {
	ID    opt.ObjectID
	Shape string // RelationOp.Op.String(), carried for EXPLAIN-style output
	Inputs []*Node

	OutputCols []opt.ColumnID
	Partition  PartitionFunction

	// Scan is non-nil when this node is a table scan.
	Scan *ScanHandle
}

// ExecutableFragment is one unit of the physical plan bounded by
// Repartition/shuffle boundaries (§4.6 step 1, §6 "Output").
type ExecutableFragment struct {
	TaskPrefix string
	Width      int
	InputStages []string

	PlanNode *Node
	Scans    []ScanHandle
}

// MultiFragmentPlan is the optimizer's final output (§6 "Output"):
// fragments in execution order, per-node cost predictions and History
// fingerprint keys for the runtime to compare against, and top-level
// worker/driver counts.
type MultiFragmentPlan struct {
	Fragments []*ExecutableFragment

	Predictions map[opt.ObjectID]cost.Cost
	HistoryKeys map[opt.ObjectID]string

	NumWorkers    int
	NumDrivers    int
	ExchangeSerde string
}
