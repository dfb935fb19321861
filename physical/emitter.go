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
	"fmt"

	"github.com/google/uuid"

	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cost"
	"github.com/flintsql/optimizer/history"
	"github.com/flintsql/optimizer/memo"
)

// Emit walks plan.Root bottom-up, splitting it into ExecutableFragments at
// RepartitionOp boundaries (§4.6 step 1), and attaches the per-node cost
// predictions and History fingerprint keys the runtime compares its own
// measurements against (§6 "Output").
func Emit(plan *memo.Plan, md *opt.Metadata, numWorkers, numDrivers int) (*MultiFragmentPlan, error) {
	out := &MultiFragmentPlan{
		Predictions:   make(map[opt.ObjectID]cost.Cost),
		HistoryKeys:   make(map[opt.ObjectID]string),
		NumWorkers:    numWorkers,
		NumDrivers:    numDrivers,
		ExchangeSerde: "arrow-ipc",
	}

	e := &emitter{md: md, out: out}
	rootNode, rootFrag, err := e.walk(plan.Root)
	if err != nil {
		return nil, err
	}
	rootFrag.PlanNode = rootNode
	e.out.Fragments = append(e.out.Fragments, rootFrag)

	return e.out, nil
}

// emitter threads the MultiFragmentPlan being built through the recursive
// walk, accumulating Predictions/HistoryKeys for every RelationOp visited
// and the list of completed fragments in leaf-to-root order (§4.6 step 1:
// "fragments in execution order").
type emitter struct {
	md  *opt.Metadata
	out *MultiFragmentPlan
}

// walk translates r and its inputs into a Node belonging to the fragment
// currently under construction, returning that fragment so the caller can
// keep growing it (adding Scans, setting PlanNode once the walk returns to
// Emit). A RepartitionOp input is instead finished off as its own
// complete fragment, appended to e.out.Fragments, and represented in the
// caller's fragment only as a boundary Node recording the producer's
// TaskPrefix in InputStages.
func (e *emitter) walk(r *memo.RelationOp) (*Node, *ExecutableFragment, error) {
	frag := &ExecutableFragment{TaskPrefix: newTaskPrefix(), Width: e.out.NumWorkers}

	node, err := e.walkInto(r, frag)
	if err != nil {
		return nil, nil, err
	}
	if node.Partition.Kind == PartitionGather {
		frag.Width = 1
	}
	return node, frag, nil
}

// walkInto is the shared recursive step: it records r's prediction and
// history key, recurses over r.Inputs (crossing into a fresh fragment at
// each RepartitionOp boundary), and builds r's Node within frag.
func (e *emitter) walkInto(r *memo.RelationOp, frag *ExecutableFragment) (*Node, error) {
	e.out.Predictions[r.ID] = r.Cost
	e.out.HistoryKeys[r.ID] = nodeFingerprint(e.md, r).String()

	inputs := make([]*Node, 0, len(r.Inputs))
	for _, in := range r.Inputs {
		if in.Op == memo.RepartitionOp {
			childNode, childFrag, err := e.walk(in)
			if err != nil {
				return nil, err
			}
			childFrag.PlanNode = childNode
			e.out.Fragments = append(e.out.Fragments, childFrag)
			frag.InputStages = append(frag.InputStages, childFrag.TaskPrefix)
			inputs = append(inputs, boundaryNode(in))
			continue
		}
		childNode, err := e.walkInto(in, frag)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, childNode)
	}

	node := &Node{
		ID:         r.ID,
		Shape:      r.Op.String(),
		Inputs:     inputs,
		OutputCols: r.OutputCols,
		Partition:  translateDistribution(r.Distribution),
	}

	if r.Op == memo.TableScanOp {
		sh := ScanHandle{NodeID: r.ID, Table: r.Table, Handle: r.Handle}
		node.Scan = &sh
		frag.Scans = append(frag.Scans, sh)
	}

	return node, nil
}

// boundaryNode is the placeholder the consuming fragment sees in place of
// a Repartition input that was split off into its own fragment: it carries
// no Inputs of its own (the producer fragment owns the real subtree) but
// keeps the Distribution the consumer's cost model already accounted for.
func boundaryNode(r *memo.RelationOp) *Node {
	return &Node{
		ID:         r.ID,
		Shape:      r.Op.String(),
		OutputCols: r.OutputCols,
		Partition:  translateDistribution(r.Distribution),
	}
}

// translateDistribution maps a memo.Distribution onto the emitter's own,
// decoupled PartitionFunction shape (see fragment.go's doc comment on
// memoPartitionKind).
func translateDistribution(d memo.Distribution) PartitionFunction {
	var kind memoPartitionKind
	switch d.Kind {
	case memo.Singleton:
		kind = PartitionSingleton
	case memo.Hash:
		kind = PartitionHash
	case memo.Broadcast:
		kind = PartitionBroadcast
	case memo.Gather:
		kind = PartitionGather
	default:
		kind = PartitionSingleton
	}
	if d.IsGather {
		kind = PartitionGather
	}
	return PartitionFunction{Kind: kind, PartitionKeys: d.PartitionKeys}
}

// nodeFingerprint builds a History fingerprint describing r's operator
// shape independent of this particular query's ObjectIDs, so repeated
// executions of structurally identical plans accumulate History under the
// same key (§6: "fingerprint ... stable across re-plans of the same
// shape").
func nodeFingerprint(md *opt.Metadata, r *memo.RelationOp) history.Fingerprint {
	switch r.Op {
	case memo.TableScanOp:
		tm := md.TableMeta(r.Table)
		layout := ""
		// Layout name isn't tracked on RelationOp directly, so this
		// fingerprint has an empty layout and distinguishes tables only.
		// xform/search.go's SetLeafSelectivity fingerprint also carries the
		// chosen layout name, so the two keys differ.
		return history.NewFingerprint("scan", tm.Table.Name(), layout)
	case memo.JoinOp:
		return history.NewFingerprint("join", fmt.Sprintf("method=%d", r.JoinMethod), fmt.Sprintf("type=%d", r.JoinType))
	case memo.AggregationOp:
		return history.NewFingerprint("aggregation", fmt.Sprintf("keys=%d", len(r.GroupKeys)))
	default:
		return history.NewFingerprint(r.Op.String())
	}
}

func newTaskPrefix() string {
	return "frag-" + uuid.New().String()
}
