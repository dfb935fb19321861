// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package physical

import (
	"testing"

	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/cat/testcat"
	"github.com/flintsql/optimizer/cost"
	"github.com/flintsql/optimizer/memo"
)

func newMetadataWithTable(name string) (*opt.Metadata, opt.TableID) {
	md := opt.NewMetadata()
	tbl := &testcat.Table{TableName: name, Cols: []cat.Column{{Name: "a", Type: cat.Type{Kind: cat.Scalar}}}, Rows: 1}
	tid := md.AddTable(tbl, md.Names.Intern(name))
	return md, tid
}

func TestEmitSingleFragmentScan(t *testing.T) {
	md, tid := newMetadataWithTable("orders")
	scan := &memo.RelationOp{
		ID:           1,
		Op:           memo.TableScanOp,
		Table:        tid,
		OutputCols:   []opt.ColumnID{1, 2},
		Cost:         cost.Cost{InputCardinality: 100, Fanout: 1},
		Distribution: memo.Distribution{Kind: memo.Singleton},
	}
	plan := memo.NewLeafPlan(scan, opt.MakeTableSet(tid), opt.MakeColSet(1, 2))

	out, err := Emit(plan, md, 4, 2)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if len(out.Fragments) != 1 {
		t.Fatalf("expected one fragment for a scan with no repartition, got %d", len(out.Fragments))
	}
	frag := out.Fragments[0]
	if len(frag.Scans) != 1 || frag.Scans[0].NodeID != scan.ID {
		t.Fatalf("expected the scan to be recorded against the fragment, got %+v", frag.Scans)
	}
	if out.Predictions[scan.ID] != scan.Cost {
		t.Fatalf("expected the scan's cost to be recorded in Predictions")
	}
	if out.HistoryKeys[scan.ID] == "" {
		t.Fatalf("expected a history fingerprint key for the scan node")
	}
	if out.NumWorkers != 4 || out.NumDrivers != 2 {
		t.Fatalf("expected NumWorkers/NumDrivers to be carried through from Emit's arguments")
	}
	if frag.Width != 4 {
		t.Fatalf("expected a non-gather fragment's Width to equal NumWorkers, got %d", frag.Width)
	}
}

func TestEmitGatherFragmentHasWidthOne(t *testing.T) {
	md, tid := newMetadataWithTable("orders")
	scan := &memo.RelationOp{
		ID:           1,
		Op:           memo.TableScanOp,
		Table:        tid,
		OutputCols:   []opt.ColumnID{1},
		Cost:         cost.Cost{InputCardinality: 1000, Fanout: 1},
		Distribution: memo.Distribution{Kind: memo.Hash, PartitionKeys: []opt.ColumnID{1}},
	}
	repart := &memo.RelationOp{
		ID:           2,
		Op:           memo.RepartitionOp,
		Inputs:       []*memo.RelationOp{scan},
		OutputCols:   scan.OutputCols,
		Cost:         cost.RepartitionCost(1000, 1),
		Distribution: memo.Distribution{Kind: memo.Gather, IsGather: true},
	}
	// The consuming fragment's own root sits at Singleton, not Gather, so
	// only the repartition's fragment (the one physically converging the
	// hash-partitioned scan onto one destination) is forced to width 1.
	limit := &memo.RelationOp{
		ID:           3,
		Op:           memo.LimitOp,
		Inputs:       []*memo.RelationOp{repart},
		OutputCols:   scan.OutputCols,
		Cost:         cost.LimitCost(1000, 10),
		Distribution: memo.Distribution{Kind: memo.Singleton},
	}
	plan := memo.NewLeafPlan(limit, opt.MakeTableSet(tid), opt.MakeColSet(1))

	out, err := Emit(plan, md, 4, 1)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if len(out.Fragments) != 2 {
		t.Fatalf("expected the Repartition boundary to split the plan into 2 fragments, got %d", len(out.Fragments))
	}

	var scanFrag, rootFrag *ExecutableFragment
	for _, f := range out.Fragments {
		if len(f.Scans) == 1 {
			scanFrag = f
		} else {
			rootFrag = f
		}
	}
	if scanFrag == nil || rootFrag == nil {
		t.Fatalf("expected one fragment carrying the scan (rooted at the Gather Repartition) and one consuming fragment")
	}
	if scanFrag.Width != 1 {
		t.Fatalf("expected the fragment rooted at a Gather repartition to have Width forced to 1, got %d", scanFrag.Width)
	}
	if rootFrag.Width != 4 {
		t.Fatalf("expected the consuming (non-gather) fragment's Width to equal NumWorkers, got %d", rootFrag.Width)
	}
}

func TestEmitSplitsFragmentsAtRepartition(t *testing.T) {
	md, tid := newMetadataWithTable("orders")
	scan := &memo.RelationOp{
		ID:           1,
		Op:           memo.TableScanOp,
		Table:        tid,
		OutputCols:   []opt.ColumnID{1},
		Cost:         cost.Cost{InputCardinality: 1000, Fanout: 1},
		Distribution: memo.Distribution{Kind: memo.Singleton},
	}
	repart := &memo.RelationOp{
		ID:           2,
		Op:           memo.RepartitionOp,
		Inputs:       []*memo.RelationOp{scan},
		OutputCols:   scan.OutputCols,
		Cost:         cost.RepartitionCost(1000, 8),
		Distribution: memo.Distribution{Kind: memo.Hash, PartitionKeys: []opt.ColumnID{1}},
	}
	filter := &memo.RelationOp{
		ID:           3,
		Op:           memo.FilterOp,
		Inputs:       []*memo.RelationOp{repart},
		OutputCols:   scan.OutputCols,
		Cost:         cost.Cost{InputCardinality: 1000, Fanout: 0.5},
		Distribution: repart.Distribution,
	}
	plan := memo.NewLeafPlan(filter, opt.MakeTableSet(tid), opt.MakeColSet(1))

	out, err := Emit(plan, md, 4, 1)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if len(out.Fragments) != 2 {
		t.Fatalf("expected a Repartition boundary to split the plan into 2 fragments, got %d", len(out.Fragments))
	}

	var scanFrag, rootFrag *ExecutableFragment
	for _, f := range out.Fragments {
		if len(f.Scans) == 1 {
			scanFrag = f
		} else {
			rootFrag = f
		}
	}
	if scanFrag == nil || rootFrag == nil {
		t.Fatalf("expected exactly one fragment to carry the scan and one to be the consuming fragment")
	}
	if len(rootFrag.InputStages) != 1 || rootFrag.InputStages[0] != scanFrag.TaskPrefix {
		t.Fatalf("expected the root fragment to reference the scan fragment's task prefix as an input stage, got %+v", rootFrag.InputStages)
	}
	if rootFrag.PlanNode.Shape != memo.FilterOp.String() {
		t.Fatalf("expected the root fragment's plan node to be the Filter, got %q", rootFrag.PlanNode.Shape)
	}
	if len(rootFrag.PlanNode.Inputs) != 1 || rootFrag.PlanNode.Inputs[0].Shape != memo.RepartitionOp.String() {
		t.Fatalf("expected the root fragment's Filter to be fed directly by a Repartition boundary node, got %+v", rootFrag.PlanNode.Inputs)
	}
}
