package cost

import "math"

// Cost is the per-operator cost record carried by every RelationOp (§3
// "RelationOp"): a unit cost per input row, a fanout, and byte-volume
// figures used both for cost accumulation and for the emitter's predicted
// vs. actual reporting (§4.6 step 6).
type Cost struct {
	// UnitCost is this operator's own per-input-row cost, in cost units,
	// not yet weighted by ancestors' fanouts.
	UnitCost float64
	// Fanout is this operator's output cardinality / input cardinality.
	Fanout float64
	// SetupCost is a one-time cost independent of input cardinality (e.g.
	// building a broadcast hash table once per worker).
	SetupCost float64
	// TotalBytes is the estimated output byte volume of this operator.
	TotalBytes float64
	// TransferBytes is the estimated byte volume moved across the network
	// by this operator (nonzero only for Repartition).
	TransferBytes float64
	// InputCardinality is the estimated number of rows flowing into this
	// operator, recorded for diagnostics and for History.RecordExecution
	// comparisons.
	InputCardinality float64
}

// Total combines a chain of per-operator Costs into a single number,
// following §4.3 "Plan total cost": each operator's unit cost is weighted
// by the product of the fanouts of the operators between it and the root
// (i.e. "above" it in a left-to-right, leaf-to-root reading), and setup
// costs and byte volumes simply add.
//
// costs must be given leaf-first (the order they execute in, e.g. Scan,
// Filter, Join, Aggregation, ... , root).
func Total(costs []Cost) float64 {
	// fanoutAbove[i] is the product of Fanout for every operator strictly
	// above costs[i] (i.e. later in the slice) - the multiplier applied to
	// costs[i].UnitCost because only a fraction of its output rows survive
	// to be processed by the time the whole plan finishes.
	//
	// We only want the fanout of operators *between* costs[i] and the
	// point where its own row stream is consumed, which for a
	// leftmost-deep chain is simply every following operator's fanout,
	// since each successive operator directly consumes the previous
	// operator's output.
	total := 0.0
	multiplier := 1.0
	for i := len(costs) - 1; i >= 0; i-- {
		c := costs[i]
		total += c.UnitCost*multiplier + c.SetupCost
		multiplier *= c.Fanout
	}
	return total
}

// TotalBytes sums the memory footprint contributions of a set of Costs
// (memory sizes add, per §4.3).
func TotalBytes(costs []Cost) float64 {
	sum := 0.0
	for _, c := range costs {
		sum += c.TotalBytes
	}
	return sum
}

// ProbeCost returns the per-probe cost of a hash or array lookup against a
// build side with buildCardinality rows, selecting ArrayProbe, SmallHash or
// LargeHash by the §4.3 thresholds.
func ProbeCost(buildCardinality float64) float64 {
	switch {
	case buildCardinality < ArrayProbeThreshold:
		return ArrayProbe
	case buildCardinality < SmallHashThreshold:
		return SmallHash
	default:
		return LargeHash
	}
}

// Clamp01 keeps a fanout or selectivity within [0, 1] to guard against
// pathological compounding across many operators.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
