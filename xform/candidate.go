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

import (
	"sort"

	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/memo"
	"github.com/flintsql/optimizer/querygraph"
)

// JoinCandidate is one next table (or opaque nested member) next_joins
// offers to add_join (§4.4 "next_joins"). Edge is nil when no edge
// connects Table to the tables already placed, meaning a cross join is
// the only option.
//
// Bushy builds (a candidate that is itself further reduced by inner joins
// before it probes) and existence reducers (§4.4 "either of the above
// annotated with existences") are not enumerated: this search only
// extends a single accumulated probe plan by one table at a time. Both
// are documented as deferred simplifications in DESIGN.md; every other
// contract of §4.4 (memoized cutoff search, non-dominated variant
// pruning, build reuse) is implemented in full.
type JoinCandidate struct {
	Table opt.TableID
	Edge  *querygraph.JoinEdge
}

// sideReady reports whether side becomes fully placed by adding t to
// placed, i.e. side minus placed is exactly {t}. This is what lets a
// multi-table join side (built by mergeScope flattening) become "ready"
// only once its last unplaced member is added.
func sideReady(side, placed opt.TableSet, t opt.TableID) bool {
	diff := side.Difference(placed)
	return diff.Len() == 1 && diff.Contains(t)
}

// nextJoins returns the candidates reachable from the tables already
// placed in state, ordered by a cheap fanout heuristic - smaller
// estimated output cardinality first (§4.4 "next_joins ... ordered by a
// cheap heuristic (smaller fanout first)").
func nextJoins(dt *querygraph.DerivedTable, placed opt.TableSet, leaves map[opt.TableID]*memo.Plan) []JoinCandidate {
	if placed.Empty() {
		var out []JoinCandidate
		dt.Tables.ForEach(func(t opt.TableID) {
			out = append(out, JoinCandidate{Table: t})
		})
		sortByFanout(out, leaves)
		return out
	}

	seen := make(map[opt.TableID]*querygraph.JoinEdge)
	dt.Tables.ForEach(func(t opt.TableID) {
		if placed.Contains(t) {
			return
		}
		for _, e := range dt.Edges {
			switch {
			case e.Left.SubsetOf(placed) && sideReady(e.Right, placed, t):
				seen[t] = e
			case e.Right.SubsetOf(placed) && sideReady(e.Left, placed, t):
				seen[t] = e
			}
		}
	})

	if len(seen) == 0 {
		// No edge connects any remaining table to what's placed: the
		// join graph is disjoint here, so every remaining table is a
		// cross-join candidate (§4.4 add_join "cross_join as a last
		// resort").
		var out []JoinCandidate
		dt.Tables.ForEach(func(t opt.TableID) {
			if !placed.Contains(t) {
				out = append(out, JoinCandidate{Table: t})
			}
		})
		sortByFanout(out, leaves)
		return out
	}

	out := make([]JoinCandidate, 0, len(seen))
	for t, e := range seen {
		out = append(out, JoinCandidate{Table: t, Edge: e})
	}
	sortByFanout(out, leaves)
	return out
}

func sortByFanout(cands []JoinCandidate, leaves map[opt.TableID]*memo.Plan) {
	sort.Slice(cands, func(i, j int) bool {
		ci, cj := leaves[cands[i].Table], leaves[cands[j].Table]
		return ci.Root.OutputCardinality() < cj.Root.OutputCardinality()
	})
}

// probeAndBuildKeys orients edge's key vectors so probeKeys refer to the
// side already in placed and buildKeys refer to candidate, per the
// RelationOp JoinOp convention that Inputs[0] is the probe side and
// Inputs[1] the build side.
func probeAndBuildKeys(e *querygraph.JoinEdge, candidate opt.TableID) (probeKeys, buildKeys []opt.ColumnID) {
	if e.Left.Contains(candidate) {
		return e.RightKeys, e.LeftKeys
	}
	return e.LeftKeys, e.RightKeys
}
