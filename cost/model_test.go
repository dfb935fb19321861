package cost

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanCost(t *testing.T) {
	c := ScanCost(1000, RowShape{NumCols: 3, RowBytes: 32})
	require.Equal(t, 1.0, c.Fanout)
	require.Equal(t, float64(3)*ColumnRow+(32-24)*ColumnByte, c.UnitCost)
	require.Equal(t, 32000.0, c.TotalBytes)
}

func TestAggregationZeroKeys(t *testing.T) {
	c := AggregationCost(500, nil, 16)
	require.InDelta(t, 1.0/500.0, c.Fanout, 1e-9)
	require.Equal(t, 16.0, c.TotalBytes)
}

func TestAggregationCardinalityMonotonic(t *testing.T) {
	small := AggregationCost(10, []float64{100}, 16)
	large := AggregationCost(10000, []float64{100}, 16)
	require.Less(t, small.Fanout*10, large.Fanout*10000+1e-6)
	require.LessOrEqual(t, large.Fanout*10000, 100.0+1e-6)
}

func TestProbeCostThresholds(t *testing.T) {
	require.Equal(t, ArrayProbe, ProbeCost(100))
	require.Equal(t, SmallHash, ProbeCost(100000))
	require.Equal(t, LargeHash, ProbeCost(1e6))
}

func TestFilterCostDefaultFanout(t *testing.T) {
	c := FilterCost(1000, 2, 0)
	require.InDelta(t, DefaultFanout*DefaultFanout, c.Fanout, 1e-9)
}

func TestLimitCostSaturatesAtOne(t *testing.T) {
	c := LimitCost(10, 100)
	require.Equal(t, 1.0, c.Fanout)
}

func TestUnionAllCostSumsCardinality(t *testing.T) {
	c := UnionAllCost([]float64{10, 20, 30})
	require.Equal(t, 60.0, c.InputCardinality)
}

func TestTotalAccumulatesLeftmostDeep(t *testing.T) {
	costs := []Cost{
		{UnitCost: 10, Fanout: 0.5}, // scan
		{UnitCost: 4, Fanout: 1},    // filter
	}
	// scan contributes 10 * (fanout of everything above it) = 10*1 = 10
	// (filter is above scan in leaf-to-root order and has fanout 1)
	// filter contributes 4 * 1 = 4
	require.Equal(t, 14.0, Total(costs))
}
