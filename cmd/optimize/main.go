// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Command optimize runs the query optimizer over a JSON-encoded logical
// plan and catalog snapshot, printing the chosen physical plan's fragments
// and cost predictions. It exists for manual inspection and scripted
// regression comparisons, standing in for the real planner-to-optimizer
// call path that §1 puts out of scope.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flintsql/optimizer/expr"
	"github.com/flintsql/optimizer/history"
	"github.com/flintsql/optimizer/physical"
	"github.com/flintsql/optimizer/trace"
	"github.com/flintsql/optimizer/xform"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		planPath       string
		catalogPath    string
		historyPath    string
		pushdown       bool
		samplePercent  float64
		nodeBudget     int
		numWorkers     int
		numDrivers     int
		traceRetained  bool
		traceExceeded  bool
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Plan a logical query against a catalog snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()

			planData, err := os.ReadFile(planPath)
			if err != nil {
				return err
			}
			catalogData, err := os.ReadFile(catalogPath)
			if err != nil {
				return err
			}

			root, err := ParsePlan(planData)
			if err != nil {
				return err
			}
			catalog, err := ParseCatalog(catalogData)
			if err != nil {
				return err
			}

			store := history.NewStore()
			if historyPath != "" {
				if _, statErr := os.Stat(historyPath); statErr == nil {
					if err := store.UpdateFromFile(historyPath); err != nil {
						return err
					}
				}
			}

			var flags trace.Flag
			if traceRetained {
				flags |= trace.Retained
			}
			if traceExceeded {
				flags |= trace.ExceededBest
			}
			sink := &trace.RecordingSink{}

			opts := xform.DefaultOptions()
			opts.PushdownSubfields = pushdown
			opts.SamplePercent = samplePercent
			opts.SearchNodeBudget = nodeBudget
			opts.NumWorkers = numWorkers
			opts.NumDrivers = numDrivers
			opts.TraceFlags = flags

			optimizer := xform.New(catalog, store, sink)
			plan, err := optimizer.Optimize(context.Background(), root, newFunctionRegistry(), opts)
			if err != nil {
				logger.Error("optimize failed", zap.Error(err))
				return err
			}

			printPlan(plan)

			if historyPath != "" {
				if err := store.SaveToFile(historyPath); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&planPath, "plan", "", "path to JSON logical plan (required)")
	flags.StringVar(&catalogPath, "catalog", "", "path to JSON catalog snapshot (required)")
	flags.StringVar(&historyPath, "history", "", "path to a persisted History file to load and update")
	flags.BoolVar(&pushdown, "pushdown-subfields", true, "enable subfield pushdown")
	flags.Float64Var(&samplePercent, "sample-percent", 0, "sampling percentage for filter selectivity refinement")
	flags.IntVar(&nodeBudget, "node-budget", 0, "search node budget (0 = unbounded)")
	flags.IntVar(&numWorkers, "workers", 1, "workers per fragment")
	flags.IntVar(&numDrivers, "drivers", 1, "drivers per worker")
	flags.BoolVar(&traceRetained, "trace-retained", false, "record retained-plan trace events")
	flags.BoolVar(&traceExceeded, "trace-exceeded", false, "record exceeded-best trace events")
	cmd.MarkFlagRequired("plan")
	cmd.MarkFlagRequired("catalog")

	return cmd
}

// rowConstructorFieldCount bounds the field indexes of the make_row
// passthrough registered below; a getter on a field index at or beyond
// this still plans correctly, it just loses the structural subfield
// passthrough and has every argument marked fully consumed (§9).
const rowConstructorFieldCount = 16

// newFunctionRegistry returns the function metadata available to every
// query this command plans. A real planner integration would populate
// this from its own catalog of builtins; standing in for that, this
// registers make_row so that JSON plans built by this command's own
// test fixtures and regression files can exercise struct subfield
// pushdown through a getter chain without every field of a wide row
// being pulled off disk.
func newFunctionRegistry() *expr.Registry {
	r := expr.NewRegistry()
	expr.RegisterRowConstructor(r, "make_row", rowConstructorFieldCount)
	return r
}

// printPlan renders a MultiFragmentPlan the way EXPLAIN output would: one
// block per fragment in execution order, its scans and their connector
// handles, and the per-node cost/History predictions keyed by ObjectID.
func printPlan(plan *physical.MultiFragmentPlan) {
	fmt.Printf("plan: %d fragment(s), %d worker(s), %d driver(s) per worker\n",
		len(plan.Fragments), plan.NumWorkers, plan.NumDrivers)
	for _, f := range plan.Fragments {
		fmt.Printf("\nfragment %s (width=%d)\n", f.TaskPrefix, f.Width)
		if len(f.InputStages) > 0 {
			fmt.Printf("  inputs: %v\n", f.InputStages)
		}
		for _, s := range f.Scans {
			fmt.Printf("  scan table=%v layout handle=%v rejected=%d filters\n",
				s.Table, s.Handle, len(s.RejectedFilters))
		}
		printNode(f.PlanNode, plan, 1)
	}
}

func printNode(n *physical.Node, plan *physical.MultiFragmentPlan, depth int) {
	if n == nil {
		return
	}
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	cost := plan.Predictions[n.ID]
	fmt.Printf("%s%s cols=%v rows=%s bytes=%s history=%s\n",
		indent, n.Shape, n.OutputCols,
		humanize.Comma(int64(cost.InputCardinality*cost.Fanout)),
		humanize.Bytes(uint64(cost.TotalBytes)),
		plan.HistoryKeys[n.ID])
	for _, in := range n.Inputs {
		printNode(in, plan, depth+1)
	}
}
