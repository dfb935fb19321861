package expr

import (
	"fmt"
	"strings"

	"github.com/flintsql/optimizer"
)

// Graph is the per-query expression arena: it interns Exprs by structural
// shape (§3, §9 "Deduplication maps") and answers column-reference queries
// used throughout subfield marking and the cost model.
type Graph struct {
	byShape map[string]opt.ExprID
	nodes   []*Expr // nodes[id.index()] == node with that id
}

// NewGraph returns an empty expression graph.
func NewGraph() *Graph {
	return &Graph{byShape: make(map[string]opt.ExprID)}
}

// Node returns the Expr for id.
func (g *Graph) Node(id opt.ExprID) *Expr {
	return g.nodes[id.Index()]
}

// Column interns a reference to a base column.
func (g *Graph) Column(col opt.ColumnID, v ValueInfo) opt.ExprID {
	return g.intern(&Expr{Op: ColumnOp, Col: col, Value: v})
}

// Literal interns a constant value.
func (g *Graph) Literal(value interface{}, v ValueInfo) opt.ExprID {
	return g.intern(&Expr{Op: LiteralOp, Literal: value, Value: v})
}

// Call interns a function call. md may be nil, meaning the function's
// subfield and cost metadata is unknown and every argument should be
// treated as fully consumed (§9 "Subfield metadata").
func (g *Graph) Call(name string, args []opt.ExprID, md *FunctionMetadata, v ValueInfo) opt.ExprID {
	return g.intern(&Expr{Op: CallOp, FuncName: name, Args: args, Metadata: md, Value: v})
}

// Field interns a getter: base.step.
func (g *Graph) Field(base opt.ExprID, step opt.Step, v ValueInfo) opt.ExprID {
	return g.intern(&Expr{Op: FieldOp, Args: []opt.ExprID{base}, Step: step, Value: v})
}

// Aggregate interns an aggregate call, with an optional FILTER mask
// (filter == 0 means none) and an optional ordering for order-sensitive
// aggregates.
func (g *Graph) Aggregate(name string, args []opt.ExprID, filter opt.ExprID, ordering []int32, v ValueInfo) opt.ExprID {
	return g.intern(&Expr{Op: AggregateOp, FuncName: name, Args: args, Filter: filter, Ordering: ordering, Value: v})
}

// Window interns a window function call.
func (g *Graph) Window(name string, args []opt.ExprID, v ValueInfo) opt.ExprID {
	return g.intern(&Expr{Op: WindowOp, FuncName: name, Args: args, Value: v})
}

// Lambda interns a lambda with the given bound parameter names and body.
func (g *Graph) Lambda(params []opt.Name, body opt.ExprID, v ValueInfo) opt.ExprID {
	return g.intern(&Expr{Op: LambdaOp, Params: params, Args: []opt.ExprID{body}, Value: v})
}

func (g *Graph) intern(e *Expr) opt.ExprID {
	key := shapeKey(e)
	if id, ok := g.byShape[key]; ok {
		return id
	}
	id := opt.ExprID(len(g.nodes)) + 1
	e.ID = id
	e.refs = computeRefs(g, e)
	g.nodes = append(g.nodes, e)
	g.byShape[key] = id
	return id
}

func computeRefs(g *Graph, e *Expr) opt.ColSet {
	var out opt.ColSet
	if e.Op == ColumnOp {
		out.Add(e.Col)
	}
	for _, a := range e.Args {
		out = out.Union(g.Node(a).ColumnRefs())
	}
	if e.Filter != 0 {
		out = out.Union(g.Node(e.Filter).ColumnRefs())
	}
	return out
}

func shapeKey(e *Expr) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|", e.Op)
	switch e.Op {
	case ColumnOp:
		fmt.Fprintf(&sb, "%d", e.Col)
	case LiteralOp:
		fmt.Fprintf(&sb, "%v|%T", e.Literal, e.Literal)
	case CallOp, AggregateOp, WindowOp:
		fmt.Fprintf(&sb, "%s|%v|%d|%v", e.FuncName, e.Args, e.Filter, e.Ordering)
	case FieldOp:
		fmt.Fprintf(&sb, "%v|%s", e.Args, e.Step.String())
	case LambdaOp:
		fmt.Fprintf(&sb, "%v|%v", e.Params, e.Args)
	}
	return sb.String()
}
