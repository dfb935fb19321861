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
	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/cost"
	"github.com/flintsql/optimizer/memo"
	"github.com/flintsql/optimizer/querygraph"
)

// broadcastByteThreshold is the static byte-size cutoff below which
// add_join prefers broadcasting the build side over repartitioning the
// probe, per §4.4 "picks broadcast build if the build's estimated byte
// size x numWorkers < a repartition-of-probe threshold". §9 leaves the
// exact threshold undocumented in the source; DESIGN.md records this
// value as the Open Question decision.
const broadcastByteThreshold = 64 << 20 // 64 MiB

// addJoin produces every way to extend plan with candidate, pruned to the
// non-dominated ones (§4.4 "add_join produces up to three variants and
// keeps only the non-dominated ones").
func addJoin(ctx *searchCtx, candidate JoinCandidate, plan *memo.Plan, leaves map[opt.TableID]*memo.Plan) []*memo.Plan {
	leaf := leaves[candidate.Table]

	if plan == nil {
		// Starting a fresh branch: candidate is just the first table
		// placed, not yet joined to anything (§4.4 top-level step 1).
		return []*memo.Plan{leaf}
	}

	if candidate.Edge == nil {
		return []*memo.Plan{crossJoin(ctx, plan, leaf)}
	}

	probeKeys, buildKeys := probeAndBuildKeys(candidate.Edge, candidate.Table)

	variants := memo.NewPlanSet()
	variants.Add(hashJoin(ctx, plan, leaf, probeKeys, buildKeys, candidate.Edge, false))
	variants.Add(hashJoin(ctx, plan, leaf, probeKeys, buildKeys, candidate.Edge, true))
	if idx := indexJoin(ctx, plan, leaf, probeKeys, buildKeys, candidate.Edge); idx != nil {
		variants.Add(idx)
	}
	return variants.Plans()
}

// joinTypeFromEdgeKind translates a querygraph.JoinEdgeKind into the
// memo.JoinType carried by the emitted RelationOp; the two enums are kept
// in the same order on purpose.
func joinTypeFromEdgeKind(kind querygraph.JoinEdgeKind) memo.JoinType {
	return memo.JoinType(kind)
}

// hashJoin builds the join_by_hash (buildOnProbe=false, build side is
// leaf) or join_by_hash_right (buildOnProbe=true, build side is the
// accumulated plan, mirroring a left-outer/left-semi with a right-variant
// hash join, §4.4 "join_by_hash_right") variant.
func hashJoin(
	ctx *searchCtx, plan, leaf *memo.Plan, probeKeys, buildKeys []opt.ColumnID,
	edge *querygraph.JoinEdge, buildOnProbe bool,
) *memo.Plan {
	probeSide, buildSide := plan, leaf
	pKeys, bKeys := probeKeys, buildKeys
	method := memo.JoinByHash
	if buildOnProbe {
		probeSide, buildSide = leaf, plan
		pKeys, bKeys = buildKeys, probeKeys
		method = memo.JoinByHashRight
	}

	buildRows := buildSide.Root.OutputCardinality()
	probeRows := probeSide.Root.OutputCardinality()
	numCols := len(buildSide.Root.OutputCols)

	buildBytes := buildRows * float64(numCols) * 16
	broadcast := buildBytes*float64(ctx.opts.effectiveWorkers()) < broadcastByteThreshold

	probePlan := probeSide
	if !broadcast && !probeSide.Root.Distribution.Satisfies(hashDist(pKeys)) {
		probePlan = repartition(ctx, probeSide, pKeys)
	}
	buildPlan := buildSide
	if !broadcast && !buildSide.Root.Distribution.Satisfies(hashDist(bKeys)) {
		buildPlan = repartition(ctx, buildSide, bKeys)
	}

	hb := &memo.RelationOp{
		ID:           ctx.md.NextObjectID(),
		Op:           memo.HashBuildOp,
		Inputs:       []*memo.RelationOp{buildPlan.Root},
		OutputCols:   buildPlan.Root.OutputCols,
		Cost:         cost.HashBuildCost(buildPlan.Root.OutputCardinality(), len(bKeys), numCols),
		Distribution: buildPlan.Root.Distribution,
	}
	buildFP := buildPlan.BuildFingerprint
	if buildFP != 0 {
		if existing, ok := ctx.builds[buildFP]; ok {
			hb = existing
		} else {
			ctx.builds[buildFP] = hb
		}
	}

	fanout := estimateJoinFanout(buildRows)
	outCols := append(append([]opt.ColumnID(nil), probePlan.Root.OutputCols...), buildPlan.Root.OutputCols...)
	root := &memo.RelationOp{
		ID:           ctx.md.NextObjectID(),
		Op:           memo.JoinOp,
		Inputs:       []*memo.RelationOp{probePlan.Root, hb},
		OutputCols:   outCols,
		JoinMethod:   method,
		JoinType:     joinTypeFromEdgeKind(edge.Kind),
		LeftKeys:     pKeys,
		RightKeys:    bKeys,
		ExtraFilter:  edge.ExtraFilter,
		Cost:         cost.JoinCost(probeRows, buildRows, fanout, len(pKeys), numCols),
		Distribution: probePlan.Root.Distribution,
	}
	tables := probeSide.Tables.Union(buildSide.Tables)
	targetCols := opt.MakeColSet(outCols...)
	return probePlan.Extend(root, tables, targetCols)
}

// indexJoin builds join_by_index if some layout of leaf's table has lookup
// keys that are a prefix of the edge keys landing on it (§4.4 "join_by_index if the
// candidate's table has a layout whose lookup keys are a prefix of the
// edge keys"). Returns nil when no such layout applies.
func indexJoin(
	ctx *searchCtx, plan, leaf *memo.Plan, probeKeys, buildKeys []opt.ColumnID, edge *querygraph.JoinEdge,
) *memo.Plan {
	scan := leaf.Root
	if scan.Op != memo.TableScanOp || scan.Handle == nil {
		return nil
	}
	tm := ctx.md.TableMeta(scan.Table)
	layout := lookupLayoutFor(tm.Table, buildKeys, tm.Columns)
	if layout == nil {
		return nil
	}

	probeRows := plan.Root.OutputCardinality()
	sel := scanSelectivity(scan)
	lookupUnit := cost.KeyCompare * float64(len(buildKeys))
	c := cost.IndexScanCost(probeRows, sel, lookupUnit)

	outCols := append(append([]opt.ColumnID(nil), plan.Root.OutputCols...), leaf.Root.OutputCols...)
	root := &memo.RelationOp{
		ID:           ctx.md.NextObjectID(),
		Op:           memo.JoinOp,
		Inputs:       []*memo.RelationOp{plan.Root, scan},
		OutputCols:   outCols,
		JoinMethod:   memo.JoinByIndex,
		JoinType:     joinTypeFromEdgeKind(edge.Kind),
		LeftKeys:     probeKeys,
		RightKeys:    buildKeys,
		ExtraFilter:  edge.ExtraFilter,
		Cost:         c,
		Distribution: plan.Root.Distribution,
	}
	tables := plan.Tables.Union(leaf.Tables)
	return plan.Extend(root, tables, opt.MakeColSet(outCols...))
}

// crossJoin builds the cross_join fallback (§4.4 "cross_join as a last
// resort"): the build side has no keys, and the join's fanout is its full
// cardinality.
func crossJoin(ctx *searchCtx, plan, leaf *memo.Plan) *memo.Plan {
	buildRows := leaf.Root.OutputCardinality()
	hb := &memo.RelationOp{
		ID:           ctx.md.NextObjectID(),
		Op:           memo.HashBuildOp,
		Inputs:       []*memo.RelationOp{leaf.Root},
		OutputCols:   leaf.Root.OutputCols,
		Cost:         cost.HashBuildCost(buildRows, 0, len(leaf.Root.OutputCols)),
		Distribution: leaf.Root.Distribution,
	}
	outCols := append(append([]opt.ColumnID(nil), plan.Root.OutputCols...), leaf.Root.OutputCols...)
	root := &memo.RelationOp{
		ID:           ctx.md.NextObjectID(),
		Op:           memo.JoinOp,
		Inputs:       []*memo.RelationOp{plan.Root, hb},
		OutputCols:   outCols,
		JoinMethod:   memo.CrossJoin,
		JoinType:     memo.InnerJoin,
		Cost:         cost.JoinCost(plan.Root.OutputCardinality(), buildRows, buildRows, 0, len(leaf.Root.OutputCols)),
		Distribution: plan.Root.Distribution,
	}
	tables := plan.Tables.Union(leaf.Tables)
	return plan.Extend(root, tables, opt.MakeColSet(outCols...))
}

// repartition wraps p in a Repartition RelationOp hashed on keys.
func repartition(ctx *searchCtx, p *memo.Plan, keys []opt.ColumnID) *memo.Plan {
	rows := p.Root.OutputCardinality()
	rowBytes := 16.0 * float64(len(p.Root.OutputCols))
	root := &memo.RelationOp{
		ID:           ctx.md.NextObjectID(),
		Op:           memo.RepartitionOp,
		Inputs:       []*memo.RelationOp{p.Root},
		OutputCols:   p.Root.OutputCols,
		Cost:         cost.RepartitionCost(rows, rowBytes),
		Distribution: hashDist(keys),
	}
	return p.Extend(root, p.Tables, p.OutputCols)
}

func hashDist(keys []opt.ColumnID) memo.Distribution {
	return memo.Distribution{Kind: memo.Hash, PartitionKeys: keys}
}

// estimateJoinFanout is the pre-sampling default used until History or
// sampling calibrates a better value (§4.3 "Join", §9 "Cost calibration
// vs. estimation"): one match per probe row.
func estimateJoinFanout(buildRows float64) float64 {
	if buildRows <= 0 {
		return 0
	}
	return 1.0
}

func scanSelectivity(scan *memo.RelationOp) float64 {
	if scan.Cost.Fanout > 0 {
		return scan.Cost.Fanout
	}
	return cost.UnknownFilterSelectivity
}

// lookupLayoutFor returns a layout of tab whose LookupKeys form a prefix
// of the column names referenced by buildKeys, or nil if none does.
func lookupLayoutFor(tab cat.Table, buildKeys []opt.ColumnID, tableCols []opt.ColumnID) *cat.Layout {
	if len(buildKeys) == 0 {
		return nil
	}
	names := make(map[opt.ColumnID]string, len(tableCols))
	for i, c := range tableCols {
		if i < tab.ColumnCount() {
			names[c] = tab.Column(i).Name
		}
	}
	for i := 0; i < tab.LayoutCount(); i++ {
		l := tab.Layout(i)
		if len(l.LookupKeys) == 0 || len(l.LookupKeys) > len(buildKeys) {
			continue
		}
		match := true
		for j, keyName := range l.LookupKeys {
			if names[buildKeys[j]] != keyName {
				match = false
				break
			}
		}
		if match {
			return &l
		}
	}
	return nil
}
