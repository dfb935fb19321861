// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package xform implements the Memo/Search component (§4.4): the
// dynamic-programming join-order enumerator, cost-based pruning, and the
// Optimizer entry point that wires the query graph builder, cost model,
// history store and physical plan emitter together for one query.
package xform

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/cost"
	"github.com/flintsql/optimizer/expr"
	"github.com/flintsql/optimizer/history"
	"github.com/flintsql/optimizer/memo"
	"github.com/flintsql/optimizer/querygraph"
	"github.com/flintsql/optimizer/subfield"
	"github.com/flintsql/optimizer/trace"
)

// searchCtx carries everything one Optimize call's search threads through
// every recursive planDerivedTable/enumerate call - the per-query
// Metadata/Graph/Registry, the external collaborators (§1 "catalog
// adapter", §6 "History store", tracing), the options record, the
// cooperative budget counter (§9 "Budgeted search"), and the build-reuse
// map shared across the whole query rather than just one subproblem
// (§4.4 "Build reuse").
type searchCtx struct {
	ctx     context.Context
	md      *opt.Metadata
	graph   *expr.Graph
	funcs   *expr.Registry
	catalog cat.Catalog
	history *history.Store
	sink    trace.Sink
	opts    OptimizerOptions
	budget  *budget
	builds  map[uint64]*memo.RelationOp

	// memo caches the best plan found for a DerivedTable shape (table set
	// + projected columns), keyed by MemoKey (§4.4 "memoized by MemoKey").
	// The builder gives every scan and nested scope its own TableIDs and
	// each DerivedTable is planned once, so within one query no key repeats
	// and a lookup never hits; a CTE inlined twice is searched twice.
	// Existence reducers are
	// not populated in the key, matching the deferred simplification
	// documented on JoinCandidate.
	memo *memo.Memo
}

// step decrements the search budget and raises OverBudget when exhausted
// (§5 "Cancellation", §9 "Budgeted search"). Also checks ctx.ctx for
// cancellation, per §5 "the optimizer checks a cancellation flag at every
// memo boundary and at every enumerate recursion".
func (sc *searchCtx) step() error {
	if err := sc.ctx.Err(); err != nil {
		return opt.NewOverBudget("optimization cancelled: %v", err)
	}
	if !sc.budget.take() {
		return opt.NewOverBudget("search node budget exceeded")
	}
	return nil
}

// planDerivedTable computes the PlanSet for dt (memoized internally by
// table-set via memo.Memo) and returns its lowest-cost plan, per §4.4
// "Top-level" steps 1-3. This is the recursive unit make_plan invokes for
// a nested subquery or build side (§4.4 "Memoization key").
func planDerivedTable(sc *searchCtx, dt *querygraph.DerivedTable) (*memo.Plan, error) {
	switch {
	case dt.ValuesRows != nil:
		return planValues(sc, dt)
	case dt.UnionInputs != nil:
		return planUnion(sc, dt)
	default:
		return planJoinScope(sc, dt)
	}
}

// planValues builds the Values leaf RelationOp for a zero-table derived
// table (§4.1 Values, §8 "Zero-table derived table: emits a single Values
// ... or is rejected as InvalidInput" - the InvalidInput half of that
// boundary is enforced earlier, by querygraph.Builder, since an empty
// Values is rejected before the search ever sees it).
func planValues(sc *searchCtx, dt *querygraph.DerivedTable) (*memo.Plan, error) {
	root := &memo.RelationOp{
		ID:           sc.md.NextObjectID(),
		Op:           memo.ValuesOp,
		OutputCols:   dt.Projected,
		Rows:         dt.ValuesRows,
		Cost:         cost.Cost{InputCardinality: float64(len(dt.ValuesRows)), Fanout: 1},
		Distribution: memo.Distribution{Kind: memo.Singleton},
	}
	plan := memo.NewLeafPlan(root, opt.TableSet{}, opt.MakeColSet(dt.Projected...))
	return addPostprocess(sc, dt, plan)
}

// planUnion solves every input independently and combines them under a
// single UnionAll, reconciling distributions per §8's boundary behavior
// "Union-all with a mix of local and remote inputs: emits one Exchange
// collecting all remote inputs, plus local inputs, merged at the
// consumer" - implemented here by repartitioning every input that doesn't
// already agree with the first input's distribution onto a Gather.
func planUnion(sc *searchCtx, dt *querygraph.DerivedTable) (*memo.Plan, error) {
	plans := make([]*memo.Plan, len(dt.UnionInputs))
	for i, in := range dt.UnionInputs {
		p, err := planDerivedTable(sc, in)
		if err != nil {
			return nil, err
		}
		plans[i] = p
	}

	target := memo.Distribution{Kind: memo.Gather, IsGather: true}
	inputs := make([]*memo.RelationOp, len(plans))
	cardinalities := make([]float64, len(plans))
	for i, p := range plans {
		root := p.Root
		if !root.Distribution.Satisfies(target) {
			root = &memo.RelationOp{
				ID:           sc.md.NextObjectID(),
				Op:           memo.RepartitionOp,
				Inputs:       []*memo.RelationOp{root},
				OutputCols:   p.Root.OutputCols,
				Cost:         cost.RepartitionCost(root.OutputCardinality(), 16*float64(len(p.Root.OutputCols))),
				Distribution: target,
			}
		}
		inputs[i] = root
		cardinalities[i] = root.OutputCardinality()
	}

	root := &memo.RelationOp{
		ID:           sc.md.NextObjectID(),
		Op:           memo.UnionAllOp,
		Inputs:       inputs,
		OutputCols:   dt.Projected,
		Cost:         cost.UnionAllCost(cardinalities),
		Distribution: target,
	}
	tables := opt.TableSet{}
	for _, p := range plans {
		tables = tables.Union(p.Tables)
	}
	plan := memo.NewLeafPlan(root, tables, opt.MakeColSet(dt.Projected...))

	if dt.Group != nil {
		return addPostprocess(sc, dt, plan)
	}
	return plan, nil
}

// planJoinScope runs the DP join-order search (§4.4 "Top-level" and
// "enumerate") over one DerivedTable's member tables.
func planJoinScope(sc *searchCtx, dt *querygraph.DerivedTable) (*memo.Plan, error) {
	leaves, err := buildLeaves(sc, dt)
	if err != nil {
		return nil, err
	}

	if dt.Tables.Empty() {
		return nil, opt.NewInvalidInput("derived table has no members and is not a Values source")
	}

	key := memo.MemoKey{FirstTable: firstTable(dt.Tables), Tables: dt.Tables, ProjectedColumns: opt.MakeColSet(dt.Projected...)}
	if cached, ok := sc.memo.Lookup(key); ok {
		if best := cached.Best(); best != nil {
			return best, nil
		}
	}

	state := memo.NewPlanState(opt.MakeColSet(dt.Projected...))
	applied := make([]bool, len(dt.Conjuncts))
	if err := enumerate(sc, dt, nil, state, applied, leaves); err != nil {
		return nil, err
	}

	best := state.Plans.Best()
	if best == nil {
		return nil, opt.NewInternal(nil, "search produced no plan for derived table")
	}
	sc.memo.GetOrCreate(key).Add(best)
	return best, nil
}

// firstTable returns the smallest TableID in ts (ColSet.ForEach visits in
// increasing order), giving MemoKey a deterministic anchor independent of
// how the caller built the set.
func firstTable(ts opt.TableSet) opt.TableID {
	var first opt.TableID
	found := false
	ts.ForEach(func(t opt.TableID) {
		if !found {
			first = t
			found = true
		}
	})
	return first
}

// enumerate is §4.4's central recursive step.
func enumerate(
	sc *searchCtx, dt *querygraph.DerivedTable, plan *memo.Plan,
	state *memo.PlanState, applied []bool, leaves map[opt.TableID]*memo.Plan,
) error {
	if err := sc.step(); err != nil {
		return err
	}

	// Step 1: place conjuncts.
	if plan != nil {
		for i, e := range dt.Conjuncts {
			if applied[i] {
				continue
			}
			if !sc.graph.Node(e).ColumnRefs().SubsetOf(state.Columns) {
				continue
			}
			nextApplied := append([]bool(nil), applied...)
			nextApplied[i] = true
			extended := applyFilter(sc, plan, e)
			return enumerate(sc, dt, extended, state, nextApplied, leaves)
		}
	}

	// Step 2: base case.
	if state.Placed.Equals(dt.Tables) {
		final, err := addPostprocess(sc, dt, plan)
		if err != nil {
			return err
		}
		state.Plans.Add(final)
		traceRetained(sc, final)
		return nil
	}

	// Step 3: cutoff.
	if plan != nil && state.IsOverBest(plan.TotalCost) {
		traceExceeded(sc, plan)
		return nil
	}

	// Step 4: expand.
	candidates := nextJoins(dt, state.Placed, leaves)
	for _, cand := range candidates {
		variants := addJoin(sc, cand, plan, leaves)
		if err := tryNextJoins(sc, dt, cand, variants, state, applied, leaves); err != nil {
			return err
		}
	}
	return nil
}

// tryNextJoins recurses enumerate for every non-dominated variant add_join
// produced for one candidate (§4.4 "try_next_joins(state, results)").
func tryNextJoins(
	sc *searchCtx, dt *querygraph.DerivedTable, cand JoinCandidate, variants []*memo.Plan,
	state *memo.PlanState, applied []bool, leaves map[opt.TableID]*memo.Plan,
) error {
	leaf := leaves[cand.Table]
	for _, v := range variants {
		next := state.WithPlaced(cand.Table, leaf.OutputCols)
		if err := enumerate(sc, dt, v, next, applied, leaves); err != nil {
			return err
		}
	}
	return nil
}

// applyFilter wraps plan in a Filter RelationOp evaluating e.
func applyFilter(sc *searchCtx, plan *memo.Plan, e opt.ExprID) *memo.Plan {
	inputRows := plan.Root.OutputCardinality()
	root := &memo.RelationOp{
		ID:           sc.md.NextObjectID(),
		Op:           memo.FilterOp,
		Inputs:       []*memo.RelationOp{plan.Root},
		OutputCols:   plan.Root.OutputCols,
		Exprs:        []opt.ExprID{e},
		Cost:         cost.FilterCost(inputRows, 1, sc.opts.DefaultFanout),
		Distribution: plan.Root.Distribution,
	}
	return plan.Extend(root, plan.Tables, plan.OutputCols)
}

// addPostprocess attaches dt's aggregation, sort and limit/offset, per
// §4.4 "add_postprocess(plan, state) ... attach aggregation, sort, and
// limit as the DT requires".
func addPostprocess(sc *searchCtx, dt *querygraph.DerivedTable, plan *memo.Plan) (*memo.Plan, error) {
	if plan == nil {
		return nil, opt.NewInternal(nil, "add_postprocess called with a nil plan")
	}
	if dt.Group != nil {
		plan = addAggregation(sc, dt, plan)
	}
	if len(dt.Order) > 0 {
		plan = addOrderBy(sc, dt, plan)
	}
	if dt.Limit >= 0 || dt.Offset >= 0 {
		plan = addLimit(sc, dt, plan)
	}
	return projectFinal(sc, dt, plan), nil
}

func addAggregation(sc *searchCtx, dt *querygraph.DerivedTable, plan *memo.Plan) *memo.Plan {
	inputRows := plan.Root.OutputCardinality()
	distinctCounts := make([]float64, len(dt.Group.Keys))
	for i, k := range dt.Group.Keys {
		distinctCounts[i] = distinctCountEstimate(sc, k, inputRows)
	}
	outCols := append(append([]opt.ColumnID(nil), dt.Group.Keys...), dt.Group.Aggs...)
	root := &memo.RelationOp{
		ID:           sc.md.NextObjectID(),
		Op:           memo.AggregationOp,
		Inputs:       []*memo.RelationOp{plan.Root},
		OutputCols:   outCols,
		GroupKeys:    dt.Group.Keys,
		Aggs:         dt.Group.AggExprs,
		AggStep:      memo.SingleAgg,
		Cost:         cost.AggregationCost(inputRows, distinctCounts, 16*float64(len(outCols))),
		Distribution: plan.Root.Distribution,
	}
	return plan.Extend(root, plan.Tables, opt.MakeColSet(outCols...))
}

func addOrderBy(sc *searchCtx, dt *querygraph.DerivedTable, plan *memo.Plan) *memo.Plan {
	sortCols := make([]memo.OrderCol, len(dt.Order))
	for i, k := range dt.Order {
		sortCols[i] = memo.OrderCol{Column: k.Column, Desc: k.Desc}
	}
	dist := plan.Root.Distribution
	dist.SortOrder = sortCols
	root := &memo.RelationOp{
		ID:           sc.md.NextObjectID(),
		Op:           memo.OrderByOp,
		Inputs:       []*memo.RelationOp{plan.Root},
		OutputCols:   plan.Root.OutputCols,
		Cost:         cost.Cost{UnitCost: cost.KeyCompare * float64(len(dt.Order)), Fanout: 1, InputCardinality: plan.Root.OutputCardinality()},
		Distribution: dist,
	}
	return plan.Extend(root, plan.Tables, plan.OutputCols)
}

const maxInt64 = int64(^uint64(0) >> 1)

func addLimit(sc *searchCtx, dt *querygraph.DerivedTable, plan *memo.Plan) *memo.Plan {
	limit, offset := dt.Limit, dt.Offset
	if limit < 0 {
		limit = maxInt64
	}
	if offset < 0 {
		offset = 0
	}
	// §8 "Limit with offset + limit overflowing int64: saturates at
	// int64 max; the partial limit uses offset+limit (saturated)".
	partial := saturatingAdd(offset, limit)
	root := &memo.RelationOp{
		ID:           sc.md.NextObjectID(),
		Op:           memo.LimitOp,
		Inputs:       []*memo.RelationOp{plan.Root},
		OutputCols:   plan.Root.OutputCols,
		Limit:        limit,
		Offset:       offset,
		Cost:         cost.LimitCost(plan.Root.OutputCardinality(), float64(partial)),
		Distribution: plan.Root.Distribution,
	}
	return plan.Extend(root, plan.Tables, plan.OutputCols)
}

func saturatingAdd(a, b int64) int64 {
	if a > maxInt64-b {
		return maxInt64
	}
	return a + b
}

// projectFinal inserts a Project when dt introduced Synonyms, so the
// scope's output matches dt.Projected exactly in both column set and
// order (§8 "for every plan P emitted and every output column c of the
// request, c in P.output_columns").
func projectFinal(sc *searchCtx, dt *querygraph.DerivedTable, plan *memo.Plan) *memo.Plan {
	if len(dt.Synonyms) == 0 && sameColumns(plan.Root.OutputCols, dt.Projected) {
		return plan
	}
	exprs := make([]opt.ExprID, len(dt.Projected))
	for i, c := range dt.Projected {
		if e, ok := dt.Synonyms[c]; ok {
			exprs[i] = e
		} else {
			exprs[i] = sc.graph.Column(c, expr.ValueInfo{Type: sc.md.ColumnMeta(c).Type})
		}
	}
	root := &memo.RelationOp{
		ID:           sc.md.NextObjectID(),
		Op:           memo.ProjectOp,
		Inputs:       []*memo.RelationOp{plan.Root},
		OutputCols:   dt.Projected,
		Projections:  exprs,
		Cost:         cost.Cost{UnitCost: float64(len(exprs)) * cost.ColumnSelfCost, Fanout: 1, InputCardinality: plan.Root.OutputCardinality()},
		Distribution: plan.Root.Distribution,
	}
	return plan.Extend(root, plan.Tables, opt.MakeColSet(dt.Projected...))
}

func sameColumns(a, b []opt.ColumnID) bool {
	return opt.MakeColSet(a...).Equals(opt.MakeColSet(b...))
}

// buildLeaves resolves every direct member of dt to a starting Plan: a
// TableScan for a BaseTable, or the fully-solved Plan of a nested scope
// wrapped under its placeholder TableID (§4.1 "nest... via a placeholder
// TableID").
func buildLeaves(sc *searchCtx, dt *querygraph.DerivedTable) (map[opt.TableID]*memo.Plan, error) {
	leaves := make(map[opt.TableID]*memo.Plan, dt.Tables.Len())
	var firstErr error
	dt.Tables.ForEach(func(t opt.TableID) {
		if firstErr != nil {
			return
		}
		if bt, ok := dt.Base[t]; ok {
			p, err := scanLeaf(sc, bt)
			if err != nil {
				firstErr = err
				return
			}
			leaves[t] = p
			return
		}
		if nested, ok := dt.Nested[t]; ok {
			sub, err := planDerivedTable(sc, nested)
			if err != nil {
				firstErr = err
				return
			}
			leaves[t] = memo.WrapPlan(sub, opt.MakeTableSet(t))
			return
		}
		firstErr = opt.NewInternal(nil, "table %d is neither base nor nested in its scope", t)
	})
	return leaves, firstErr
}

// scanLeaf freezes bt against the catalog (choosing a layout, building
// column/table handles via the §4.5 subfield decisions, pushing filters)
// and returns its TableScan leaf Plan, wrapped in a Filter for any
// ResidualFilters the connector could not absorb (§7: a rejected pushdown
// is not an error).
func scanLeaf(sc *searchCtx, bt *querygraph.BaseTable) (*memo.Plan, error) {
	if err := freezeBaseTable(sc, bt); err != nil {
		return nil, err
	}

	tm := sc.md.TableMeta(bt.Table)
	outputCols := bt.Columns.ToList()
	sort.Slice(outputCols, func(i, j int) bool { return outputCols[i] < outputCols[j] })

	numRows := tm.Table.RowCount()
	rowBytes := 0.0
	for i := 0; i < tm.Table.ColumnCount(); i++ {
		c := tm.Table.Column(i)
		if c.AvgSize > 0 {
			rowBytes += c.AvgSize
		} else {
			rowBytes += 16
		}
	}
	shape := cost.RowShape{NumCols: len(outputCols), RowBytes: rowBytes}
	scanCost := cost.ScanCost(numRows, shape)

	fp := history.NewFingerprint("scan", tm.Table.Name(), bt.Layout.Name)
	if sel, found, err := sc.history.SetLeafSelectivity(sc.ctx, fp, sc.sampleFunc(bt, tm)); err == nil && found {
		bt.FilterSelectivity = sel
	}
	if (len(bt.PushedFilters) > 0 || len(bt.ResidualFilters) > 0) && bt.FilterSelectivity == 0 {
		bt.FilterSelectivity = cost.UnknownFilterSelectivity
	}
	if bt.FilterSelectivity > 0 {
		scanCost.Fanout = cost.Clamp01(bt.FilterSelectivity)
	}

	scan := &memo.RelationOp{
		ID:           sc.md.NextObjectID(),
		Op:           memo.TableScanOp,
		OutputCols:   outputCols,
		Table:        bt.Table,
		Handle:       bt.Handle,
		Cost:         scanCost,
		Distribution: distributionFromLayout(bt.Layout, tm),
	}
	plan := memo.NewLeafPlan(scan, opt.MakeTableSet(bt.Table), opt.MakeColSet(outputCols...))

	if len(bt.ResidualFilters) > 0 {
		root := &memo.RelationOp{
			ID:           sc.md.NextObjectID(),
			Op:           memo.FilterOp,
			Inputs:       []*memo.RelationOp{plan.Root},
			OutputCols:   outputCols,
			Exprs:        bt.ResidualFilters,
			Cost:         cost.FilterCost(scan.OutputCardinality(), len(bt.ResidualFilters), 0),
			Distribution: plan.Root.Distribution,
		}
		plan = plan.Extend(root, plan.Tables, opt.MakeColSet(outputCols...))
	}
	return plan, nil
}

// sampleFunc adapts Catalog.Sample into the callback History.SetLeafSelectivity
// expects, invoked only when OptimizerOptions.SamplePercent > 0 (§5
// "Catalog calls ... are the only I/O during optimization", §9 "Cost
// calibration vs. estimation").
func (sc *searchCtx) sampleFunc(bt *querygraph.BaseTable, tm *opt.TableMeta) func(context.Context) (float64, error) {
	return func(ctx context.Context) (float64, error) {
		if sc.opts.SamplePercent <= 0 || bt.Layout == nil {
			return 0, errors.New("sampling disabled")
		}
		handle := bt.Handle
		if handle == nil {
			return 0, errors.New("no table handle to sample")
		}
		res, err := sc.catalog.Sample(ctx, handle, sc.opts.SamplePercent, nil, nil)
		if err != nil {
			return 0, err
		}
		if res.SampledRows <= 0 || res.SampledRows < int64(cost.MinSampleRows) {
			return 0, errors.New("sample too small to calibrate")
		}
		return float64(res.MatchedRows) / float64(res.SampledRows), nil
	}
}

// freezeBaseTable chooses bt's layout, resolves the subfield/map-as-struct
// decision for every required column (§4.5), builds the column and table
// handles through the catalog, folds any rejected pushdown filters back
// into ResidualFilters, and freezes bt (§7: a rejected pushdown is not an
// error).
func freezeBaseTable(sc *searchCtx, bt *querygraph.BaseTable) error {
	tm := sc.md.TableMeta(bt.Table)
	tableName := tm.Table.Name()
	layout := chooseLayout(tm.Table, tm, bt)

	cols := bt.Columns.ToList()
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })

	mapAsStructConfigured := sc.opts.MapAsStruct != nil
	handles := make([]cat.ColumnHandle, 0, len(cols))
	for _, c := range cols {
		cm := sc.md.ColumnMeta(c)
		idx := columnIndex(tm, cm.TopColumn)
		if idx < 0 {
			return opt.NewInternal(nil, "column %d not found on table %s", c, tableName)
		}
		catCol := tm.Table.Column(idx)

		live := subfield.Of(bt, c)
		configured := mapAsStructConfigured && subfield.TableConfigured(sc.opts.MapAsStruct, tableName, catCol.Name)
		subfields, castToStruct := subfield.ColumnHandleArgs(catCol.Type, live, sc.opts.PushdownSubfields, configured)

		h, err := sc.catalog.CreateColumnHandle(*layout, catCol.Name, subfields, castToStruct)
		if err != nil && castToStruct != nil {
			// The catalog declined the map-as-struct cast: scan the map whole.
			h, err = sc.catalog.CreateColumnHandle(*layout, catCol.Name, nil, nil)
		}
		if err != nil {
			return opt.NewCatalogError("creating column handle for %s.%s: %v", tableName, catCol.Name, err)
		}
		handles = append(handles, h)
	}

	filters := make([]cat.Filter, 0, len(bt.PushedFilters))
	for _, f := range bt.PushedFilters {
		filters = append(filters, toCatalogFilter(tm, f))
	}

	handle, rejected, err := sc.catalog.CreateTableHandle(*layout, handles, filters)
	if err != nil {
		return opt.NewCatalogError("creating table handle for %s: %v", tableName, err)
	}
	if len(rejected) > 0 {
		promoteRejectedFilters(bt, tm, rejected)
	}

	bt.Freeze(layout, handle, rejected)
	return nil
}

// chooseLayout prefers the layout whose LookupKeys prefix-match the
// equality columns already pushed into bt, the same heuristic join_by_index
// uses (§4.4), falling back to the table's first layout, or a zero-value
// Layout for a connector that exposes none.
func chooseLayout(tab cat.Table, tm *opt.TableMeta, bt *querygraph.BaseTable) *cat.Layout {
	if tab.LayoutCount() == 0 {
		def := cat.Layout{}
		return &def
	}
	eqNames := make(map[string]bool, len(bt.PushedFilters))
	for _, f := range bt.PushedFilters {
		if f.Op != cat.FilterEq {
			continue
		}
		if idx := columnIndex(tm, f.Column); idx >= 0 {
			eqNames[tab.Column(idx).Name] = true
		}
	}
	best := tab.Layout(0)
	bestScore := -1
	for i := 0; i < tab.LayoutCount(); i++ {
		l := tab.Layout(i)
		score := 0
		for _, k := range l.LookupKeys {
			if !eqNames[k] {
				break
			}
			score++
		}
		if score > bestScore {
			bestScore = score
			best = l
		}
	}
	return &best
}

// columnIndex returns the index into tm.Columns (and so into
// tm.Table.Column) holding col, or -1 if col is not a direct column of
// this table (e.g. a subfield-synthesized ColumnID).
func columnIndex(tm *opt.TableMeta, col opt.ColumnID) int {
	for i, c := range tm.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// toCatalogFilter translates one pushed ColumnFilter into the catalog's
// name-addressed cat.Filter shape.
func toCatalogFilter(tm *opt.TableMeta, f querygraph.ColumnFilter) cat.Filter {
	name := ""
	if idx := columnIndex(tm, f.Column); idx >= 0 {
		name = tm.Table.Column(idx).Name
	}
	return cat.Filter{
		Column: name, Op: f.Op, Value: f.Value,
		RangeLow: f.Low, RangeHigh: f.High,
		LowIncl: f.LowIncl, HighIncl: f.HighIncl,
		Values: f.Values,
	}
}

// promoteRejectedFilters moves every PushedFilter the connector declined
// (matched by column name and operator) into ResidualFilters, so it is
// still evaluated by a Filter operator above the scan.
func promoteRejectedFilters(bt *querygraph.BaseTable, tm *opt.TableMeta, rejected []cat.Filter) {
	kept := bt.PushedFilters[:0]
	for _, f := range bt.PushedFilters {
		if filterRejected(tm, f, rejected) {
			bt.ResidualFilters = append(bt.ResidualFilters, f.Expr)
			continue
		}
		kept = append(kept, f)
	}
	bt.PushedFilters = kept
}

func filterRejected(tm *opt.TableMeta, f querygraph.ColumnFilter, rejected []cat.Filter) bool {
	idx := columnIndex(tm, f.Column)
	if idx < 0 {
		return false
	}
	name := tm.Table.Column(idx).Name
	for _, r := range rejected {
		if r.Column == name && r.Op == f.Op {
			return true
		}
	}
	return false
}

// distinctCountEstimate returns the catalog's distinct-count statistic for
// col if it is a direct base-table column and the catalog reports one,
// else falls back to assuming every input row is distinct (§4.3
// "Aggregation" pre-calibration default).
func distinctCountEstimate(sc *searchCtx, col opt.ColumnID, inputRows float64) float64 {
	cm := sc.md.ColumnMeta(col)
	if cm.Table != 0 {
		tm := sc.md.TableMeta(cm.Table)
		if idx := columnIndex(tm, cm.TopColumn); idx >= 0 {
			if dc := tm.Table.Column(idx).DistinctCount; dc > 0 {
				return dc
			}
		}
	}
	return inputRows
}

// distributionFromLayout derives a scan's output Distribution from its
// chosen layout's partitioning/ordering metadata.
func distributionFromLayout(layout *cat.Layout, tm *opt.TableMeta) memo.Distribution {
	if layout == nil {
		return memo.Distribution{Kind: memo.Gather, IsGather: true}
	}
	nameToCol := make(map[string]opt.ColumnID, len(tm.Columns))
	for i, c := range tm.Columns {
		if i < tm.Table.ColumnCount() {
			nameToCol[tm.Table.Column(i).Name] = c
		}
	}
	d := memo.Distribution{}
	if len(layout.PartitionColumns) > 0 {
		d.Kind = memo.Hash
		for _, n := range layout.PartitionColumns {
			if c, ok := nameToCol[n]; ok {
				d.PartitionKeys = append(d.PartitionKeys, c)
			}
		}
	} else {
		d.Kind = memo.Gather
		d.IsGather = true
	}
	for _, n := range layout.OrderColumns {
		if c, ok := nameToCol[n]; ok {
			d.SortOrder = append(d.SortOrder, memo.OrderCol{Column: c})
		}
	}
	return d
}

func traceRetained(sc *searchCtx, p *memo.Plan) {
	if sc.opts.TraceFlags&trace.Retained == 0 {
		return
	}
	sc.sink.Emit(trace.Event{Flag: trace.Retained, PlanID: uint64(p.Root.ID), Cost: p.TotalCost, OpShape: p.Root.Op.String()})
}

func traceExceeded(sc *searchCtx, p *memo.Plan) {
	if sc.opts.TraceFlags&trace.ExceededBest == 0 {
		return
	}
	sc.sink.Emit(trace.Event{Flag: trace.ExceededBest, PlanID: uint64(p.Root.ID), Cost: p.TotalCost, OpShape: p.Root.Op.String()})
}
