package cost

import "math"

// RowShape describes the columns an operator reads or writes, for the
// byte-volume terms of §4.3 that depend on column count and average row
// width.
type RowShape struct {
	NumCols  int
	RowBytes float64 // average bytes per row, including the 8-byte fixed overhead
}

// ScanCost computes the Cost of a leaf scan reading numRows rows with the
// given shape, per §4.3 "Scan": rowCost = numCols*column_row +
// max(0, bytes-8*numCols)*column_byte.
func ScanCost(numRows float64, shape RowShape) Cost {
	fixed := 8.0 * float64(shape.NumCols)
	extra := math.Max(0, shape.RowBytes-fixed)
	rowCost := float64(shape.NumCols)*ColumnRow + extra*ColumnByte
	return Cost{
		UnitCost:         rowCost,
		Fanout:           1,
		TotalBytes:       numRows * shape.RowBytes,
		InputCardinality: numRows,
	}
}

// IndexScanCost computes the batched lookup cost of an index-path scan
// (§4.3 "Scan: if an index path"): lookup(range)/batch +
// lookup(range/selectivity) * max(1, batch), batched at up to 10,000 rows
// per batch. lookupUnitCost is the per-row cost of one index lookup.
func IndexScanCost(probeRows float64, selectivity float64, lookupUnitCost float64) Cost {
	const maxBatch = 10000.0
	batch := math.Min(maxBatch, probeRows)
	if batch < 1 {
		batch = 1
	}
	outputRows := probeRows / clampSelectivity(selectivity)
	perBatch := lookupUnitCost*probeRows/batch + lookupUnitCost*outputRows/batch*math.Max(1, batch)
	return Cost{
		UnitCost:         perBatch,
		Fanout:           1 / clampSelectivity(selectivity),
		InputCardinality: probeRows,
	}
}

func clampSelectivity(s float64) float64 {
	if s <= 0 {
		return UnknownFilterSelectivity
	}
	return s
}

// AggregationCost computes the Cost of a hash aggregation with the given
// per-key distinct counts (domain-capped) over N input rows, per §4.3
// "Aggregation": outCard = d - d*(1-1/d)^N, unit_cost = |keys|*probe_cost(d).
func AggregationCost(inputRows float64, keyDistinctCounts []float64, rowBytes float64) Cost {
	if len(keyDistinctCounts) == 0 {
		// Zero-key aggregation always produces exactly one row (§8
		// Boundary behaviors).
		return Cost{
			UnitCost:         ProbeCost(1),
			Fanout:           1 / math.Max(inputRows, 1),
			TotalBytes:       rowBytes,
			InputCardinality: inputRows,
		}
	}
	d := 1.0
	for _, dc := range keyDistinctCounts {
		if dc < 1 {
			dc = 1
		}
		d *= dc
	}
	outCard := aggOutputCardinality(d, inputRows)
	fanout := 1.0
	if inputRows > 0 {
		fanout = outCard / inputRows
	}
	return Cost{
		UnitCost:         float64(len(keyDistinctCounts)) * ProbeCost(d),
		Fanout:           Clamp01(fanout),
		TotalBytes:       outCard * rowBytes,
		InputCardinality: inputRows,
	}
}

// aggOutputCardinality implements d - d*(1-1/d)^N, guarding the d==0 and
// N==0 degeneracies.
func aggOutputCardinality(d, n float64) float64 {
	if d <= 0 {
		return 0
	}
	if n <= 0 {
		return 0
	}
	base := 1 - 1/d
	return d - d*math.Pow(base, n)
}

// RepartitionCost computes the Cost of shuffling numRows rows of the given
// average size across the network, per §4.3 "Repartition": unit_cost =
// size_bytes per row, transfer_bytes = N*size_bytes*byte_shuffle.
func RepartitionCost(numRows, sizeBytesPerRow float64) Cost {
	return Cost{
		UnitCost:         sizeBytesPerRow,
		Fanout:           1,
		TransferBytes:    numRows * sizeBytesPerRow * ByteShuffle,
		TotalBytes:       numRows * sizeBytesPerRow,
		InputCardinality: numRows,
	}
}

// HashBuildCost computes the Cost of building a hash table over numRows
// rows with numKeys key columns and numCols total columns, per §4.3
// "HashBuild": unit_cost = |keys|*hash_column + probe_cost(N) +
// 2*|cols|*hash_extract.
func HashBuildCost(numRows float64, numKeys, numCols int) Cost {
	unit := float64(numKeys)*HashColumn + ProbeCost(numRows) + 2*float64(numCols)*HashExtract
	return Cost{
		UnitCost:         unit,
		Fanout:           1,
		InputCardinality: numRows,
	}
}

// JoinCost computes the Cost of probing a hash join build side of size
// buildRows against fanout*probeRows matches with numLeftKeys equi-keys and
// numRightCols right-side columns extracted per match, per §4.3 "Join":
// unit_cost = probe_cost(build_size) + fanout*|right_cols|*hash_extract +
// |left_keys|*hash_column.
func JoinCost(probeRows, buildRows, fanout float64, numLeftKeys, numRightCols int) Cost {
	unit := ProbeCost(buildRows) + fanout*float64(numRightCols)*HashExtract + float64(numLeftKeys)*HashColumn
	return Cost{
		UnitCost:         unit,
		Fanout:           fanout,
		InputCardinality: probeRows,
	}
}

// FilterCost computes the Cost of evaluating numExprs filter expressions
// over N input rows, per §4.3 "Filter": unit_cost = |exprs|*min_filter;
// fanout defaults to 0.8^|exprs| until calibrated.
func FilterCost(inputRows float64, numExprs int, selectivity float64) Cost {
	fanout := selectivity
	if fanout <= 0 {
		fanout = math.Pow(DefaultFanout, float64(numExprs))
	}
	return Cost{
		UnitCost:         float64(numExprs) * MinFilter,
		Fanout:           Clamp01(fanout),
		InputCardinality: inputRows,
	}
}

// LimitCost computes the Cost of a Limit over N input rows returning up to
// limit rows, per §4.3 "Limit": unit_cost ~ 0; fanout = min(1, limit/N).
func LimitCost(inputRows, limit float64) Cost {
	fanout := 1.0
	if inputRows > 0 {
		fanout = math.Min(1, limit/inputRows)
	}
	return Cost{Fanout: Clamp01(fanout), InputCardinality: inputRows}
}

// UnionAllCost computes the Cost of a UnionAll: its cardinality is the sum
// of its inputs' cardinalities, and it performs no per-row work of its own
// beyond passing rows through.
func UnionAllCost(inputCardinalities []float64) Cost {
	sum := 0.0
	for _, c := range inputCardinalities {
		sum += c
	}
	return Cost{Fanout: 1, InputCardinality: sum}
}

// ExprSelfCost returns the self-cost of one expression evaluation, per
// §4.3 "Expression self-cost": columns cost 10 (200 for array/map),
// literals cost 5; calls are the caller's responsibility (expr.SelfCost
// consults the function registry).
func ExprSelfCost(isColumn, isArrayOrMap bool) float64 {
	if isColumn {
		if isArrayOrMap {
			return ArrayMapColumnCost
		}
		return ColumnSelfCost
	}
	return LiteralSelfCost
}
