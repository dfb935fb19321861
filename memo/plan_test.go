package memo

import (
	"testing"

	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cost"
)

func TestNewLeafPlan(t *testing.T) {
	root := &RelationOp{Op: TableScanOp, Cost: cost.Cost{InputCardinality: 50, Fanout: 1}}
	p := NewLeafPlan(root, opt.MakeTableSet(1), opt.MakeColSet(1, 2))

	if p.TotalCost != cost.Total([]cost.Cost{root.Cost}) {
		t.Fatalf("expected leaf TotalCost to equal cost.Total of its single cost")
	}
	if !p.Tables.Equals(opt.MakeTableSet(1)) {
		t.Fatalf("expected leaf Tables to be set from the argument")
	}
}

func TestWrapPlanPreservesRootButRelabelsTables(t *testing.T) {
	root := &RelationOp{Op: TableScanOp, Cost: cost.Cost{InputCardinality: 50, Fanout: 1}}
	sub := NewLeafPlan(root, opt.MakeTableSet(1), opt.MakeColSet(1))

	wrapped := WrapPlan(sub, opt.MakeTableSet(99))

	if wrapped.Root != sub.Root {
		t.Fatalf("expected WrapPlan to preserve the underlying RelationOp")
	}
	if !wrapped.Tables.Equals(opt.MakeTableSet(99)) {
		t.Fatalf("expected WrapPlan to relabel Tables to the placeholder table")
	}
	if wrapped.TotalCost != sub.TotalCost {
		t.Fatalf("expected WrapPlan to preserve TotalCost")
	}
}
