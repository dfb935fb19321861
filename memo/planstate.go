package memo

import "github.com/flintsql/optimizer"

// PlanState is transient search state threaded through one memo
// subproblem's enumerate recursion: placed tables, available columns,
// target columns to produce, accumulated cost, the active hash-build set,
// a memoized downstream-columns cache, and the best-so-far PlanSet (§3
// "PlanState").
type PlanState struct {
	// Placed is the set of tables already joined into the plan being
	// built along this recursion path.
	Placed opt.TableSet

	// Columns is the set of columns available from tables already placed
	// (i.e. produced by some operator already in the plan).
	Columns opt.ColSet

	// Target is the set of output columns the whole subproblem must
	// ultimately produce.
	Target opt.ColSet

	// Cost is the accumulated TotalCost of the plan built so far along
	// this recursion path.
	Cost float64

	// Builds records, by BuildFingerprint, the hash-build Plan already
	// constructed for an identical subplan, so a later candidate
	// requiring the same build reuses it at zero additional construction
	// cost (§4.4 "Build reuse").
	Builds map[uint64]*Plan

	// downstreamCache memoizes, per TableID, the set of columns any table
	// reachable from it via an unplaced edge still needs - avoids
	// recomputing the same reachability walk for every candidate
	// considered at this recursion depth.
	downstreamCache map[opt.TableID]opt.ColSet

	// Plans is the best-so-far PlanSet for this subproblem; enumerate adds
	// every complete plan it builds here and consults it for the cutoff.
	Plans *PlanSet
}

// NewPlanState returns the initial PlanState for a fresh subproblem with
// the given target output columns (§4.4 "Top-level" step 1).
func NewPlanState(target opt.ColSet) *PlanState {
	return &PlanState{
		Target:          target,
		Builds:          make(map[uint64]*Plan),
		downstreamCache: make(map[opt.TableID]opt.ColSet),
		Plans:           NewPlanSet(),
	}
}

// IsOverBest reports whether cost has already exceeded the cheapest
// complete plan found so far for this subproblem, the cutoff check of
// §4.4 enumerate step 3.
func (s *PlanState) IsOverBest(cost float64) bool {
	return cost > s.Plans.BestCostWithShuffle()
}

// DownstreamColumns returns the cached reachable-column set for t,
// computing and caching it via compute if absent.
func (s *PlanState) DownstreamColumns(t opt.TableID, compute func() opt.ColSet) opt.ColSet {
	if cols, ok := s.downstreamCache[t]; ok {
		return cols
	}
	cols := compute()
	s.downstreamCache[t] = cols
	return cols
}

// WithPlaced returns a copy of s with table added to Placed and cols added
// to Columns, used when recursing into add_join so sibling candidates at
// the same depth do not observe each other's placement.
func (s *PlanState) WithPlaced(table opt.TableID, cols opt.ColSet) *PlanState {
	next := &PlanState{
		Placed:          s.Placed.Copy(),
		Columns:         s.Columns.Union(cols),
		Target:          s.Target,
		Cost:            s.Cost,
		Builds:          s.Builds,
		downstreamCache: s.downstreamCache,
		Plans:           s.Plans,
	}
	next.Placed.Add(table)
	return next
}
