package querygraph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/cat/testcat"
	"github.com/flintsql/optimizer/expr"
	"github.com/flintsql/optimizer/querygraph"
)

func newOrdersCatalog() *testcat.Catalog {
	c := testcat.New()
	c.AddTable(&testcat.Table{
		TableName: "orders",
		Cols: []cat.Column{
			{Name: "id", Type: cat.Type{Kind: cat.Scalar}},
			{Name: "customer_id", Type: cat.Type{Kind: cat.Scalar}},
			{Name: "amount", Type: cat.Type{Kind: cat.Scalar}},
		},
		Rows: 1000,
	})
	c.AddTable(&testcat.Table{
		TableName: "customers",
		Cols: []cat.Column{
			{Name: "id", Type: cat.Type{Kind: cat.Scalar}},
			{Name: "name", Type: cat.Type{Kind: cat.Scalar}},
		},
		Rows: 100,
	})
	return c
}

func TestBuildScanFilter(t *testing.T) {
	md := opt.NewMetadata()
	g := expr.NewGraph()
	funcs := expr.NewRegistry()
	catalog := newOrdersCatalog()
	b := querygraph.NewBuilder(md, catalog, g, funcs)

	scan := querygraph.NewScan(1, []querygraph.OutputCol{
		{Name: "id"}, {Name: "customer_id"}, {Name: "amount"},
	}, "orders")
	filter := querygraph.NewFilter(2, scan.Columns(), scan, querygraph.Call{
		Func: "eq",
		Args: []querygraph.ScalarExpr{
			querygraph.InputRef{Index: 1},
			querygraph.Constant{Value: int64(42)},
		},
	})

	dt, err := b.Build(context.Background(), filter)
	require.NoError(t, err)
	require.Equal(t, 1, dt.Tables.Len())
	require.Len(t, dt.Projected, 3)

	var bt *querygraph.BaseTable
	for _, v := range dt.Base {
		bt = v
	}
	require.NotNil(t, bt)
	require.Len(t, bt.PushedFilters, 1)
	require.Empty(t, dt.Conjuncts)
}

func TestBuildJoinSplitsEquiKeys(t *testing.T) {
	md := opt.NewMetadata()
	g := expr.NewGraph()
	funcs := expr.NewRegistry()
	catalog := newOrdersCatalog()
	b := querygraph.NewBuilder(md, catalog, g, funcs)

	orders := querygraph.NewScan(1, []querygraph.OutputCol{
		{Name: "id"}, {Name: "customer_id"}, {Name: "amount"},
	}, "orders")
	customers := querygraph.NewScan(2, []querygraph.OutputCol{
		{Name: "id"}, {Name: "name"},
	}, "customers")
	join := querygraph.NewJoin(3, append(orders.Columns(), customers.Columns()...),
		orders, customers, querygraph.InnerJoin,
		querygraph.Call{
			Func: "eq",
			Args: []querygraph.ScalarExpr{
				querygraph.InputRef{Index: 1},
				querygraph.InputRef{Index: 3},
			},
		})

	dt, err := b.Build(context.Background(), join)
	require.NoError(t, err)
	require.Equal(t, 2, dt.Tables.Len())
	require.Len(t, dt.Edges, 1)
	edge := dt.Edges[0]
	require.Len(t, edge.LeftKeys, 1)
	require.Len(t, edge.RightKeys, 1)
	require.Equal(t, opt.ExprID(0), edge.ExtraFilter)
}

func TestBuildProjectSynonym(t *testing.T) {
	md := opt.NewMetadata()
	g := expr.NewGraph()
	funcs := expr.NewRegistry()
	catalog := newOrdersCatalog()
	b := querygraph.NewBuilder(md, catalog, g, funcs)

	scan := querygraph.NewScan(1, []querygraph.OutputCol{
		{Name: "id"}, {Name: "customer_id"}, {Name: "amount"},
	}, "orders")
	proj := querygraph.NewProject(2, []querygraph.OutputCol{{Name: "doubled"}}, scan,
		[]querygraph.ScalarExpr{
			querygraph.Call{
				Func: "mul",
				Args: []querygraph.ScalarExpr{
					querygraph.InputRef{Index: 2},
					querygraph.Constant{Value: int64(2)},
				},
			},
		})

	dt, err := b.Build(context.Background(), proj)
	require.NoError(t, err)
	require.Len(t, dt.Projected, 1)
	_, ok := dt.Synonyms[dt.Projected[0]]
	require.True(t, ok)
}

func TestBuildFilterOnProjectSynonymInlinesIntoBaseTable(t *testing.T) {
	md := opt.NewMetadata()
	g := expr.NewGraph()
	funcs := expr.NewRegistry()
	catalog := newOrdersCatalog()
	b := querygraph.NewBuilder(md, catalog, g, funcs)

	scan := querygraph.NewScan(1, []querygraph.OutputCol{
		{Name: "id"}, {Name: "customer_id"}, {Name: "amount"},
	}, "orders")
	proj := querygraph.NewProject(2, []querygraph.OutputCol{{Name: "doubled"}}, scan,
		[]querygraph.ScalarExpr{
			querygraph.Call{
				Func: "mul",
				Args: []querygraph.ScalarExpr{
					querygraph.InputRef{Index: 2},
					querygraph.Constant{Value: int64(2)},
				},
			},
		})
	filter := querygraph.NewFilter(3, proj.Columns(), proj, querygraph.Call{
		Func: "gt",
		Args: []querygraph.ScalarExpr{
			querygraph.InputRef{Index: 0},
			querygraph.Constant{Value: int64(10)},
		},
	})

	dt, err := b.Build(context.Background(), filter)
	require.NoError(t, err)

	// A predicate over the Project's synonym column must end up resolved
	// against the underlying table's real columns, not stranded as an
	// unsatisfiable DerivedTable-level conjunct: the synonym expression
	// (amount * 2) substitutes in, so its only column reference is
	// "amount", which belongs to the single member table.
	require.Empty(t, dt.Conjuncts)

	var bt *querygraph.BaseTable
	for _, v := range dt.Base {
		bt = v
	}
	require.NotNil(t, bt)
	require.Len(t, bt.ResidualFilters, 1)
}

func TestBuildValuesRejectsEmpty(t *testing.T) {
	md := opt.NewMetadata()
	g := expr.NewGraph()
	funcs := expr.NewRegistry()
	catalog := newOrdersCatalog()
	b := querygraph.NewBuilder(md, catalog, g, funcs)

	values := querygraph.NewValues(1, []querygraph.OutputCol{{Name: "x"}}, nil)
	_, err := b.Build(context.Background(), values)
	require.Error(t, err)
}

func TestMarkSubfieldsControlVsPayload(t *testing.T) {
	md := opt.NewMetadata()
	g := expr.NewGraph()
	funcs := expr.NewRegistry()
	catalog := newOrdersCatalog()
	b := querygraph.NewBuilder(md, catalog, g, funcs)

	scan := querygraph.NewScan(1, []querygraph.OutputCol{
		{Name: "id"}, {Name: "customer_id"}, {Name: "amount"},
	}, "orders")
	filter := querygraph.NewFilter(2, scan.Columns(), scan, querygraph.Call{
		Func: "gt",
		Args: []querygraph.ScalarExpr{
			querygraph.InputRef{Index: 2},
			querygraph.Constant{Value: int64(0)},
		},
	})

	dt, err := b.Build(context.Background(), filter)
	require.NoError(t, err)
	querygraph.MarkSubfields(md, g, funcs, dt)

	var bt *querygraph.BaseTable
	for _, v := range dt.Base {
		bt = v
	}
	require.NotNil(t, bt)
	amountCol := dt.Projected[2]
	require.NotEmpty(t, bt.LiveSubfields(amountCol))
}
