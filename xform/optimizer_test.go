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
	"testing"

	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/cat/testcat"
	"github.com/flintsql/optimizer/history"
	"github.com/flintsql/optimizer/memo"
	"github.com/flintsql/optimizer/querygraph"
	"github.com/flintsql/optimizer/trace"
)

func ordersTable() *testcat.Table {
	return &testcat.Table{
		TableName: "orders",
		Cols: []cat.Column{
			{Name: "id", Type: cat.Type{Kind: cat.Scalar}, DistinctCount: 1000},
			{Name: "customer_id", Type: cat.Type{Kind: cat.Scalar}, DistinctCount: 200},
			{Name: "amount", Type: cat.Type{Kind: cat.Scalar}},
		},
		Rows: 1000,
	}
}

func customersTable() *testcat.Table {
	return &testcat.Table{
		TableName: "customers",
		Cols: []cat.Column{
			{Name: "id", Type: cat.Type{Kind: cat.Scalar}, DistinctCount: 200},
			{Name: "region", Type: cat.Type{Kind: cat.Scalar}},
		},
		Rows: 200,
	}
}

func scanCols(t *testcat.Table) []querygraph.OutputCol {
	cols := make([]querygraph.OutputCol, t.ColumnCount())
	for i := 0; i < t.ColumnCount(); i++ {
		c := t.Column(i)
		cols[i] = querygraph.OutputCol{Name: c.Name, Type: c.Type}
	}
	return cols
}

func eq(left, right querygraph.ScalarExpr) querygraph.ScalarExpr {
	return querygraph.Call{Func: "eq", Args: []querygraph.ScalarExpr{left, right}}
}

func TestOptimizeSingleTableScan(t *testing.T) {
	c := testcat.New()
	c.AddTable(ordersTable())

	root := querygraph.NewScan(1, scanCols(ordersTable()), "orders")

	o := New(c, history.NewStore(), nil)
	plan, err := o.Optimize(context.Background(), root, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if len(plan.Fragments) != 1 {
		t.Fatalf("expected a single-fragment plan for one scan, got %d", len(plan.Fragments))
	}
	frag := plan.Fragments[0]
	if len(frag.Scans) != 1 {
		t.Fatalf("expected exactly one scan in the root fragment, got %d", len(frag.Scans))
	}
	if frag.PlanNode == nil || frag.PlanNode.Shape != memo.TableScanOp.String() {
		t.Fatalf("expected the root node to be a table scan, got %+v", frag.PlanNode)
	}
}

func TestOptimizeFilterPushedToScan(t *testing.T) {
	c := testcat.New()
	c.AddTable(ordersTable())

	scan := querygraph.NewScan(1, scanCols(ordersTable()), "orders")
	pred := eq(querygraph.InputRef{Index: 1}, querygraph.Constant{Value: int64(7)})
	root := querygraph.NewFilter(2, scan.Columns(), scan, pred)

	o := New(c, history.NewStore(), nil)
	plan, err := o.Optimize(context.Background(), root, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	frag := plan.Fragments[0]
	if frag.PlanNode.Shape != memo.TableScanOp.String() {
		t.Fatalf("expected the equality filter to be pushed into the scan rather than floated as a separate Filter node, got root shape %q", frag.PlanNode.Shape)
	}
}

func TestOptimizeRejectedFilterBecomesResidual(t *testing.T) {
	base := testcat.New()
	base.AddTable(ordersTable())
	rejecting := testcat.NewRejecting(base, "customer_id")

	scan := querygraph.NewScan(1, scanCols(ordersTable()), "orders")
	pred := eq(querygraph.InputRef{Index: 1}, querygraph.Constant{Value: int64(7)})
	root := querygraph.NewFilter(2, scan.Columns(), scan, pred)

	o := New(rejecting, history.NewStore(), nil)
	plan, err := o.Optimize(context.Background(), root, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	frag := plan.Fragments[0]
	if frag.PlanNode.Shape != memo.FilterOp.String() {
		t.Fatalf("expected a rejected pushdown to surface as a residual Filter operator, got root shape %q", frag.PlanNode.Shape)
	}
	if len(frag.PlanNode.Inputs) != 1 || frag.PlanNode.Inputs[0].Shape != memo.TableScanOp.String() {
		t.Fatalf("expected the residual Filter to wrap the table scan, got %+v", frag.PlanNode.Inputs)
	}
}

func TestOptimizeTwoTableJoin(t *testing.T) {
	c := testcat.New()
	c.AddTable(ordersTable())
	c.AddTable(customersTable())

	orders := querygraph.NewScan(1, scanCols(ordersTable()), "orders")
	customers := querygraph.NewScan(2, scanCols(customersTable()), "customers")

	joinCols := append(append([]querygraph.OutputCol(nil), orders.Columns()...), customers.Columns()...)
	cond := eq(querygraph.InputRef{Index: 1}, querygraph.InputRef{Index: len(orders.Columns())})
	root := querygraph.NewJoin(3, joinCols, orders, customers, querygraph.InnerJoin, cond)

	o := New(c, history.NewStore(), nil)
	plan, err := o.Optimize(context.Background(), root, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	frag := plan.Fragments[0]
	if frag.PlanNode.Shape != memo.JoinOp.String() {
		t.Fatalf("expected the plan root to be a Join, got %q", frag.PlanNode.Shape)
	}
	if len(frag.Scans) != 2 {
		t.Fatalf("expected both base tables to be scanned in the root fragment, got %d", len(frag.Scans))
	}
}

func TestOptimizeAggregateOrderLimit(t *testing.T) {
	c := testcat.New()
	c.AddTable(ordersTable())

	scan := querygraph.NewScan(1, scanCols(ordersTable()), "orders")
	groupBy := []querygraph.ScalarExpr{querygraph.InputRef{Index: 1}}
	aggs := []querygraph.ScalarExpr{querygraph.Call{Func: "count", Args: nil}}
	aggCols := []querygraph.OutputCol{
		{Name: "customer_id", Type: cat.Type{Kind: cat.Scalar}},
		{Name: "n", Type: cat.Type{Kind: cat.Scalar}},
	}
	agg := querygraph.NewAggregate(2, aggCols, scan, groupBy, aggs)
	sorted := querygraph.NewSort(3, aggCols, agg, []querygraph.OrderKey{{Expr: querygraph.InputRef{Index: 1}, Desc: true}})
	root := querygraph.NewLimit(4, aggCols, sorted, 10, 0)

	o := New(c, history.NewStore(), nil)
	plan, err := o.Optimize(context.Background(), root, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	frag := plan.Fragments[0]
	if frag.PlanNode.Shape != memo.LimitOp.String() {
		t.Fatalf("expected the plan root to be a Limit, got %q", frag.PlanNode.Shape)
	}
}

func TestOptimizeWithTraceSink(t *testing.T) {
	c := testcat.New()
	c.AddTable(ordersTable())

	root := querygraph.NewScan(1, scanCols(ordersTable()), "orders")
	sink := &trace.RecordingSink{}

	opts := DefaultOptions()
	opts.TraceFlags = trace.Retained
	o := New(c, history.NewStore(), sink)
	if _, err := o.Optimize(context.Background(), root, nil, opts); err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if len(sink.Matching(trace.Retained)) == 0 {
		t.Fatalf("expected at least one retained plan event to be recorded")
	}
}
