// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package xform

import "github.com/flintsql/optimizer/trace"

// OptimizerOptions configures one Optimizer.Optimize call (§6
// "Configuration"). It is a plain struct passed down explicitly, matching
// the teacher's SessionData/evalCtx style rather than reading from
// globals (§9 "Global state").
type OptimizerOptions struct {
	// PushdownSubfields enables the subfield pushdown pass (§4.5). Default
	// true.
	PushdownSubfields bool

	// MapAsStruct maps a table name to the list of its map-typed columns
	// that should be cast to a struct before subfield pruning (§4.5,
	// §9 "map-as-struct").
	MapAsStruct map[string][]string

	// TraceFlags is a bitmask of trace.Flag values.
	TraceFlags trace.Flag

	// SamplePercent, when > 0, tells the search to invoke Catalog.Sample
	// to refine filter selectivity beyond catalog statistics (§9 "Cost
	// calibration vs. estimation"). 0 disables sampling.
	SamplePercent float64

	// SearchNodeBudget bounds the number of enumerate steps (§5, §9
	// "Budgeted search"). Once it is used up the search fails with an
	// OverBudget error and Optimize returns no plan. 0 means unbounded.
	SearchNodeBudget int

	// DefaultFanout is the fanout assumed for a Filter before sampling or
	// History has calibrated it (§4.3 "Filter").
	DefaultFanout float64

	NumWorkers int
	NumDrivers int
}

// DefaultOptions returns the documented defaults (§6 "Configuration").
func DefaultOptions() OptimizerOptions {
	return OptimizerOptions{
		PushdownSubfields: true,
		DefaultFanout:     0.8,
		NumWorkers:        1,
		NumDrivers:        1,
	}
}

// effectiveWorkers returns NumWorkers, defaulting to 1 when unset.
func (o OptimizerOptions) effectiveWorkers() int {
	if o.NumWorkers <= 0 {
		return 1
	}
	return o.NumWorkers
}

// effectiveDrivers returns NumDrivers, defaulting to 1 when unset.
func (o OptimizerOptions) effectiveDrivers() int {
	if o.NumDrivers <= 0 {
		return 1
	}
	return o.NumDrivers
}

// budget is the cooperative counter decremented at each enumerate step
// (§9 "Budgeted search"). newBudget with n <= 0 returns an unbounded
// budget; a bounded budget stops at zero and never underflows.
type budget struct {
	remaining int
	unbounded bool
}

func newBudget(n int) *budget {
	if n <= 0 {
		return &budget{unbounded: true}
	}
	return &budget{remaining: n}
}

// take decrements the budget by one step, returning false once exhausted.
func (b *budget) take() bool {
	if b.unbounded {
		return true
	}
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}
