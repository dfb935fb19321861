package memo

import (
	"testing"

	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cost"
)

func planWithCost(totalCost float64, outCols opt.ColSet, dist Distribution) *Plan {
	root := &RelationOp{OutputCols: outCols.ToList(), Distribution: dist}
	return &Plan{Root: root, OutputCols: outCols, TotalCost: totalCost}
}

func TestPlanSetDropsDominated(t *testing.T) {
	cols := opt.MakeColSet(1, 2)
	dist := Distribution{Kind: Singleton}

	s := NewPlanSet()
	cheap := planWithCost(10, cols, dist)
	expensive := planWithCost(20, cols, dist)

	s.Add(cheap)
	s.Add(expensive)

	plans := s.Plans()
	if len(plans) != 1 {
		t.Fatalf("expected the dominated plan to be dropped, got %d plans", len(plans))
	}
	if plans[0] != cheap {
		t.Fatalf("expected the cheaper plan to survive")
	}
}

func TestPlanSetKeepsDifferentDistributions(t *testing.T) {
	cols := opt.MakeColSet(1)
	s := NewPlanSet()
	s.Add(planWithCost(10, cols, Distribution{Kind: Singleton}))
	s.Add(planWithCost(5, cols, Distribution{Kind: Hash, PartitionKeys: []opt.ColumnID{1}}))

	if len(s.Plans()) != 2 {
		t.Fatalf("expected both plans retained since neither dominates (different distributions), got %d", len(s.Plans()))
	}
	if best := s.Best(); best.TotalCost != 5 {
		t.Fatalf("expected Best to report the cheapest plan regardless of distribution, got cost %v", best.TotalCost)
	}
}

func TestPlanSetBestMatching(t *testing.T) {
	cols := opt.MakeColSet(1)
	s := NewPlanSet()
	hashDist := Distribution{Kind: Hash, PartitionKeys: []opt.ColumnID{1}}
	s.Add(planWithCost(10, cols, Distribution{Kind: Singleton}))
	s.Add(planWithCost(5, cols, hashDist))

	match := s.BestMatching(hashDist)
	if match == nil || match.TotalCost != 5 {
		t.Fatalf("expected BestMatching to find the hash-distributed plan")
	}

	none := s.BestMatching(Distribution{Kind: Hash, PartitionKeys: []opt.ColumnID{2}})
	if none != nil {
		t.Fatalf("expected no plan to satisfy an unrelated hash distribution")
	}
}

func TestPlanSetBestCostWithShuffleTracksEveryAdd(t *testing.T) {
	cols := opt.MakeColSet(1)
	s := NewPlanSet()
	if got := s.BestCostWithShuffle(); got < 1e300 {
		t.Fatalf("expected +Inf cutoff before any Add, got %v", got)
	}

	// The two candidates differ in sort order, so neither dominates the
	// other and both stay in Plans(); the cutoff is the lower of the two
	// costs.
	s.Add(planWithCost(10, cols, Distribution{Kind: Singleton}))
	s.Add(planWithCost(3, cols, Distribution{Kind: Singleton, SortOrder: []OrderCol{{Column: 1}}}))

	if got := s.BestCostWithShuffle(); got != 3 {
		t.Fatalf("expected cutoff 3, got %v", got)
	}
}

func TestPlanExtendAccumulatesCost(t *testing.T) {
	leaf := &RelationOp{Cost: cost.Cost{InputCardinality: 100, Fanout: 1}}
	p := NewLeafPlan(leaf, opt.MakeTableSet(1), opt.MakeColSet(1))

	next := &RelationOp{Cost: cost.Cost{UnitCost: 1, InputCardinality: 100, Fanout: 0.5}}
	extended := p.Extend(next, opt.MakeTableSet(1), opt.MakeColSet(1))

	if extended.TotalCost <= p.TotalCost {
		t.Fatalf("expected extending with another operator to raise TotalCost: before=%v after=%v", p.TotalCost, extended.TotalCost)
	}
}

func TestPlanDominates(t *testing.T) {
	cols := opt.MakeColSet(1)
	dist := Distribution{Kind: Singleton}
	cheap := planWithCost(5, cols, dist)
	expensive := planWithCost(10, cols, dist)

	if !cheap.Dominates(expensive) {
		t.Fatalf("expected cheaper plan with same output/distribution to dominate")
	}
	if expensive.Dominates(cheap) {
		t.Fatalf("expected more expensive plan to not dominate the cheaper one")
	}

	other := planWithCost(1, opt.MakeColSet(2), dist)
	if cheap.Dominates(other) || other.Dominates(cheap) {
		t.Fatalf("expected plans with different output columns to never dominate each other")
	}
}
