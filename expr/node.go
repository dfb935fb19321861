package expr

import (
	"fmt"
	"strings"

	"github.com/flintsql/optimizer"
)

// Expr is one node of the expression graph. Its shape is selected by Op;
// fields irrelevant to that Op are left zero. Two Exprs built through the
// same Graph with equal Op, Args and op-specific fields (Col, Literal,
// FuncName, Step, Filter, Ordering, Params) are guaranteed to be the same
// node (same ID), per §3 "structurally deduplicated".
type Expr struct {
	ID    opt.ExprID
	Op    Op
	Value ValueInfo

	// Args holds the child expression ids: the operand of a Call, the base
	// of a Field getter, the arguments of an Aggregate/Window/Lambda body.
	Args []opt.ExprID

	// Col is set when Op == ColumnOp.
	Col opt.ColumnID

	// Literal is set when Op == LiteralOp.
	Literal interface{}

	// FuncName names the function or aggregate when Op is CallOp,
	// AggregateOp or WindowOp; Metadata carries the registry entry.
	FuncName string
	Metadata *FunctionMetadata

	// Step is set when Op == FieldOp: Args[0] is the base, Step describes
	// how this node descends from it (see opt.Step).
	Step opt.Step

	// Filter is set on an AggregateOp for a FILTER(...) clause; 0 if none.
	Filter opt.ExprID
	// Ordering lists the columns (and directions, positive=asc) an
	// order-sensitive aggregate consumes its arguments in.
	Ordering []int32

	// Params names a Lambda's bound variables; Args[0] is its body when
	// Op == LambdaOp.
	Params []opt.Name

	// refs is the memoized set of opt.ColumnIDs this expression
	// (transitively) references; computed once at construction.
	refs opt.ColSet
}

// ColumnRefs returns the set of columns this expression (and its children)
// reference.
func (e *Expr) ColumnRefs() opt.ColSet { return e.refs }

func (e *Expr) String() string {
	switch e.Op {
	case ColumnOp:
		return fmt.Sprintf("col:%d", e.Col)
	case LiteralOp:
		return fmt.Sprintf("%v", e.Literal)
	case CallOp:
		return e.FuncName + "(...)"
	case FieldOp:
		return "<base>" + e.Step.String()
	case AggregateOp:
		return e.FuncName + "(...)"
	case WindowOp:
		return e.FuncName + "(...) over (...)"
	case LambdaOp:
		names := make([]string, len(e.Params))
		for i, p := range e.Params {
			names[i] = p.String()
		}
		return "\\" + strings.Join(names, ",") + " -> ..."
	default:
		return "?"
	}
}
