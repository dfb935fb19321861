package memo

import "math"

// PlanSet is the set of non-dominated candidate plans for one memo
// subproblem (§3 "PlanSet"): every plan here produces the same output
// column set, but may differ in distribution or cost, and none is
// dominated by another (§4.4 add_join: "keeps only the non-dominated
// ones").
type PlanSet struct {
	plans []*Plan

	// bestCostWithShuffle tracks the lowest TotalCost of every plan passed
	// to Add for this subproblem, whatever its distribution, and is used
	// as the PlanState cutoff (§3 "PlanSet"). A plan Add drops as dominated
	// is never cheaper than the plan that dominates it, so this equals
	// Best().TotalCost whenever the set is non-empty.
	bestCostWithShuffle float64
	hasBest             bool
}

// NewPlanSet returns an empty PlanSet.
func NewPlanSet() *PlanSet {
	return &PlanSet{}
}

// Add inserts plan, dropping it if an existing member dominates it and
// removing any existing member plan newly dominates.
func (s *PlanSet) Add(plan *Plan) {
	if !s.hasBest || plan.TotalCost < s.bestCostWithShuffle {
		s.bestCostWithShuffle = plan.TotalCost
		s.hasBest = true
	}
	kept := s.plans[:0]
	for _, existing := range s.plans {
		if existing.Dominates(plan) {
			return
		}
		if !plan.Dominates(existing) {
			kept = append(kept, existing)
		}
	}
	s.plans = append(kept, plan)
}

// Plans returns every non-dominated candidate currently retained.
func (s *PlanSet) Plans() []*Plan { return s.plans }

// Best returns the lowest-TotalCost plan retained, or nil if empty.
func (s *PlanSet) Best() *Plan {
	var best *Plan
	for _, p := range s.plans {
		if best == nil || p.TotalCost < best.TotalCost {
			best = p
		}
	}
	return best
}

// BestMatching returns the lowest-cost retained plan whose distribution
// satisfies required, or nil if none does (§4.4 make_plan step 1: "return
// the best plan matching the requested distribution").
func (s *PlanSet) BestMatching(required Distribution) *Plan {
	var best *Plan
	for _, p := range s.plans {
		if !p.Root.Distribution.Satisfies(required) {
			continue
		}
		if best == nil || p.TotalCost < best.TotalCost {
			best = p
		}
	}
	return best
}

// BestCostWithShuffle returns the cutoff cost recorded by Add, or +Inf if
// nothing has been added yet.
func (s *PlanSet) BestCostWithShuffle() float64 {
	if !s.hasBest {
		return math.Inf(1)
	}
	return s.bestCostWithShuffle
}
