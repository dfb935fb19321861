package memo

import (
	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cost"
)

// Plan is a candidate solution within the memo: a RelationOp tree rooted
// at some node, covering a specified table set with a specified output
// column set, a specified input-bound column set (for index paths), a
// fingerprint of embedded hash-build sides, and a total cost (§3 "Plan").
type Plan struct {
	Root *RelationOp

	Tables     opt.TableSet
	OutputCols opt.ColSet
	BoundCols  opt.ColSet

	BuildFingerprint uint64
	TotalCost        float64

	// costChain is the leaf-to-root sequence of per-operator Costs that
	// produced TotalCost, kept so appending one more operator can recompute
	// the total by passing the extended chain to cost.Total instead of
	// re-walking the RelationOp tree.
	costChain []cost.Cost
}

// NewLeafPlan wraps a freshly built leaf RelationOp (a TableScan or
// Values) into a Plan.
func NewLeafPlan(root *RelationOp, tables opt.TableSet, outputCols opt.ColSet) *Plan {
	chain := []cost.Cost{root.Cost}
	return &Plan{
		Root:       root,
		Tables:     tables,
		OutputCols: outputCols,
		TotalCost:  cost.Total(chain),
		costChain:  chain,
	}
}

// Extend returns a new Plan wrapping root (whose sole or first input is
// p.Root) with op's cost appended to the chain, per §4.3 "Plan total cost:
// leftmost-deep unit-cost accumulation".
func (p *Plan) Extend(root *RelationOp, tables opt.TableSet, outputCols opt.ColSet) *Plan {
	chain := append(append([]cost.Cost(nil), p.costChain...), root.Cost)
	return &Plan{
		Root:             root,
		Tables:           tables,
		OutputCols:       outputCols,
		BoundCols:        p.BoundCols,
		BuildFingerprint: p.BuildFingerprint,
		TotalCost:        cost.Total(chain),
		costChain:        chain,
	}
}

// WrapPlan returns sub relabeled to cover tables instead of its own real
// table set, preserving Root/OutputCols/TotalCost/costChain/
// BuildFingerprint. Used to present a fully-solved nested DerivedTable's
// Plan as a single opaque leaf keyed by the placeholder TableID the outer
// scope allocated for it (§3 "DerivedTable" nesting).
func WrapPlan(sub *Plan, tables opt.TableSet) *Plan {
	return &Plan{
		Root:             sub.Root,
		Tables:           tables,
		OutputCols:       sub.OutputCols,
		BoundCols:        sub.BoundCols,
		BuildFingerprint: sub.BuildFingerprint,
		TotalCost:        sub.TotalCost,
		costChain:        sub.costChain,
	}
}

// Dominates reports whether p has the same output columns and the same
// distribution as other and a TotalCost no higher than other's, per §8
// "there exists no retained P'' with strictly lower cost and the same
// output distribution". Two plans equal on all three axes dominate each
// other.
func (p *Plan) Dominates(other *Plan) bool {
	if !p.OutputCols.Equals(other.OutputCols) {
		return false
	}
	sameDist := p.Root.Distribution.Satisfies(other.Root.Distribution) &&
		other.Root.Distribution.Satisfies(p.Root.Distribution)
	if !sameDist {
		return false
	}
	return p.TotalCost <= other.TotalCost
}
