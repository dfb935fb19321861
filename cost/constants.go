// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package cost implements the Cost Model (§4.3): pure functions computing
// per-operator unit cost, fanout, and byte volumes from cardinality
// estimates. Unit: one large memcpy of a cache line on one core (≈10ns).
// Every function here is side-effect free and agnostic to whether its
// cardinality inputs came from catalog statistics, sampling, or History
// (§9 "Cost calibration vs. estimation").
package cost

// Constants, per the §4.3 table. All are expressed relative to the cost
// unit (one cache-line memcpy, ≈10ns).
const (
	ByteShuffle  = 12.0 // per-byte cost across network
	KeyCompare   = 6.0  // compare one key in a probe
	ArrayProbe   = 2.0  // direct-addressed probe (card < 1e4)
	SmallHash    = 10.0 // hash probe (card < 5e5)
	LargeHash    = 40.0 // hash probe (card >= 5e5; ~2 LLC misses)
	ColumnRow    = 5.0  // per-row-per-column copy
	ColumnByte   = 0.1  // per-byte-above-8 copy
	HashColumn   = 0.5  // hash one column of input
	HashExtract  = 0.5  // extract one column from a hash table
	MinFilter    = 2.0  // baseline filter expression

	// ArrayProbeThreshold / SmallHashThreshold are the cardinality
	// breakpoints between ArrayProbe/SmallHash/LargeHash.
	ArrayProbeThreshold = 1e4
	SmallHashThreshold  = 5e5

	// DefaultFanout is the fanout assumed for a Filter before sampling or
	// History has calibrated it (§4.3 "Filter", §6 OptimizerOptions
	// default_fanout).
	DefaultFanout = 0.8

	// ColumnSelfCost / ArrayMapColumnCost / LiteralSelfCost are
	// the expression self-costs from §4.3 "Expression self-cost".
	ColumnSelfCost      = 10.0
	ArrayMapColumnCost  = 200.0
	LiteralSelfCost     = 5.0

	// MinSampleRows is the row-count floor below which sample-based
	// selectivity correction is skipped in favor of the Selinger default,
	// per SPEC_FULL.md §D.5.
	MinSampleRows = 1000.0

	// UnknownFilterSelectivity is the Selinger default used until
	// sampling or History calibrates a better value.
	UnknownFilterSelectivity = 1.0 / 3.0
)
