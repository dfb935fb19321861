package expr

import (
	"testing"

	"github.com/flintsql/optimizer"
)

func TestGraphDeduplicatesStructurallyEqualNodes(t *testing.T) {
	g := NewGraph()
	a := g.Column(1, ValueInfo{})
	b := g.Column(1, ValueInfo{})
	c := g.Column(2, ValueInfo{})

	if a != b {
		t.Fatalf("expected two references to the same column to intern to the same ExprID")
	}
	if a == c {
		t.Fatalf("expected references to different columns to intern separately")
	}
}

func TestGraphCallColumnRefsUnionArguments(t *testing.T) {
	g := NewGraph()
	col1 := g.Column(1, ValueInfo{})
	col2 := g.Column(2, ValueInfo{})
	call := g.Call("eq", []opt.ExprID{col1, col2}, nil, ValueInfo{})

	refs := g.Node(call).ColumnRefs()
	if refs.Len() != 2 || !refs.Contains(1) || !refs.Contains(2) {
		t.Fatalf("expected the call's ColumnRefs to be the union of its arguments, got %v", refs)
	}
}

func TestGraphLiteralDistinguishesEqualValueDifferentType(t *testing.T) {
	g := NewGraph()
	intLit := g.Literal(int64(1), ValueInfo{})
	floatLit := g.Literal(float64(1), ValueInfo{})
	if intLit == floatLit {
		t.Fatalf("expected literals with the same printed value but different Go types to intern separately")
	}
}

func TestGraphFieldGetterTracksBaseColumnRefs(t *testing.T) {
	g := NewGraph()
	base := g.Column(5, ValueInfo{})
	field := g.Field(base, opt.Step{Kind: opt.FieldStep, FieldIndex: 0}, ValueInfo{})

	if !g.Node(field).ColumnRefs().Contains(5) {
		t.Fatalf("expected a field getter's refs to include its base column")
	}
}

func TestGraphAggregateFilterContributesToColumnRefs(t *testing.T) {
	g := NewGraph()
	arg := g.Column(1, ValueInfo{})
	filterCol := g.Column(2, ValueInfo{})
	agg := g.Aggregate("sum", []opt.ExprID{arg}, filterCol, nil, ValueInfo{})

	refs := g.Node(agg).ColumnRefs()
	if !refs.Contains(1) || !refs.Contains(2) {
		t.Fatalf("expected an aggregate's refs to include both its argument and its FILTER column, got %v", refs)
	}
}

func TestSelfCostFallsBackWithoutMetadata(t *testing.T) {
	g := NewGraph()
	if got := SelfCost(g, nil, nil); got != DefaultSelfCost {
		t.Fatalf("expected unregistered functions to use DefaultSelfCost, got %v", got)
	}
}

func TestSelfCostPrefersCostFnOverFlatCost(t *testing.T) {
	g := NewGraph()
	md := &FunctionMetadata{
		Name: "scaled",
		Cost: 1,
		CostFn: func(g *Graph, args []opt.ExprID) float64 {
			return float64(len(args)) * 10
		},
	}
	arg := g.Column(1, ValueInfo{})
	if got := SelfCost(g, md, []opt.ExprID{arg, arg}); got != 20 {
		t.Fatalf("expected CostFn to take priority over the flat Cost, got %v", got)
	}
}

func TestRegistryLookupAndRegister(t *testing.T) {
	r := NewRegistry()
	if r.Lookup("eq") != nil {
		t.Fatalf("expected an empty registry to have no entries")
	}
	md := &FunctionMetadata{Name: "eq", Cost: 1}
	r.Register(md)
	if r.Lookup("eq") != md {
		t.Fatalf("expected Lookup to return the registered metadata")
	}
}

func TestRegisterRowConstructorForwardsFieldIndex(t *testing.T) {
	r := NewRegistry()
	RegisterRowConstructor(r, "row", 3)
	md := r.Lookup("row")
	if md == nil {
		t.Fatalf("expected row constructor metadata to be registered")
	}

	pi := opt.NewPathInterner()
	field1 := pi.Extend(pi.Root(), opt.Step{Kind: opt.FieldStep, FieldIndex: 1})
	argPath, ok := md.ValuePathToArgPath(field1)
	if !ok || argPath.ArgIndex != 1 {
		t.Fatalf("expected path .f1 to forward to argument 1, got %+v ok=%v", argPath, ok)
	}

	field5 := pi.Extend(pi.Root(), opt.Step{Kind: opt.FieldStep, FieldIndex: 5})
	if _, ok := md.ValuePathToArgPath(field5); ok {
		t.Fatalf("expected a field index beyond fieldCount to report no structural passthrough")
	}

	if _, ok := md.ValuePathToArgPath(pi.Root()); ok {
		t.Fatalf("expected the empty path to report no structural passthrough")
	}
}

