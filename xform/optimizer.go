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
	"context"

	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/expr"
	"github.com/flintsql/optimizer/history"
	"github.com/flintsql/optimizer/memo"
	"github.com/flintsql/optimizer/physical"
	"github.com/flintsql/optimizer/querygraph"
	"github.com/flintsql/optimizer/trace"
)

// Optimizer is the single entry point wiring the query graph builder, cost
// model, history store, search, and physical plan emitter together for one
// query (§5 "one Optimizer instance, one thread at a time"). It is not
// safe for concurrent use; callers running queries in parallel use one
// Optimizer per goroutine, sharing only the *history.Store.
type Optimizer struct {
	Catalog cat.Catalog
	History *history.Store
	Sink    trace.Sink
}

// New returns an Optimizer over catalog, sharing history across every
// query it plans. sink may be nil, defaulting to trace.NoopSink{}.
func New(catalog cat.Catalog, h *history.Store, sink trace.Sink) *Optimizer {
	if sink == nil {
		sink = trace.NoopSink{}
	}
	return &Optimizer{Catalog: catalog, History: h, Sink: sink}
}

// Optimize translates root into a query graph, searches it for the
// cheapest physical plan, and emits the resulting MultiFragmentPlan (§4).
// funcs supplies the self-cost metadata and argument-path rewriters (e.g.
// a row constructor's field arity) for every function root's expressions
// may call; the caller owns its contents because those details are
// specific to the functions its query planner exposes, not to the
// optimizer itself. A broken invariant anywhere in the search is
// converted to an Internal OptError rather than propagated as a panic
// (§7: "no internal recovery" refers to resuming degraded operation, not
// to leaving the process in an inconsistent goroutine state on an
// unexpected panic).
func (o *Optimizer) Optimize(
	ctx context.Context, root querygraph.LogicalNode, funcs *expr.Registry, opts OptimizerOptions,
) (plan *physical.MultiFragmentPlan, err error) {
	defer func() {
		if r := opt.CatchOptimizerError(); r != nil {
			err = r
			plan = nil
		}
	}()

	md := opt.NewMetadata()
	graph := expr.NewGraph()
	if funcs == nil {
		funcs = expr.NewRegistry()
	}

	b := querygraph.NewBuilder(md, o.Catalog, graph, funcs)
	dt, err := b.Build(ctx, root)
	if err != nil {
		return nil, err
	}
	querygraph.MarkSubfields(md, graph, funcs, dt)

	sc := &searchCtx{
		ctx:     ctx,
		md:      md,
		graph:   graph,
		funcs:   funcs,
		catalog: o.Catalog,
		history: o.History,
		sink:    o.Sink,
		opts:    opts,
		budget:  newBudget(opts.SearchNodeBudget),
		builds:  make(map[uint64]*memo.RelationOp),
		memo:    memo.NewMemo(),
	}

	best, err := planDerivedTable(sc, dt)
	if err != nil {
		return nil, err
	}

	return physical.Emit(best, md, opts.effectiveWorkers(), opts.effectiveDrivers())
}
