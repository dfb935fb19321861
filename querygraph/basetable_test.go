package querygraph

import (
	"testing"

	"github.com/flintsql/optimizer/cat"
)

func TestBaseTableFreezeRecordsRejectedFiltersAndForbidsMutation(t *testing.T) {
	bt := NewBaseTable(1, 1)
	bt.RequireColumn(10)
	bt.AddFilter(ColumnFilter{Column: 10, Op: cat.FilterEq, Value: int64(1)})

	layout := &cat.Layout{Name: "primary"}
	handle := struct{ cat.TableHandle }{}
	rejected := []cat.Filter{{Column: "x", Op: cat.FilterEq}}

	bt.Freeze(layout, handle, rejected)

	if bt.Layout != layout {
		t.Fatalf("expected Freeze to record the chosen layout")
	}
	if len(bt.RejectedFilters) != 1 {
		t.Fatalf("expected Freeze to record the rejected filters, got %v", bt.RejectedFilters)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected mutating a frozen BaseTable to panic")
		}
	}()
	bt.RequireColumn(11)
}

func TestColumnFilterCarriesOriginalExprForResidualFallback(t *testing.T) {
	f := ColumnFilter{Column: 1, Op: cat.FilterEq, Value: "a", Expr: 42}
	if f.Expr != 42 {
		t.Fatalf("expected ColumnFilter.Expr to round-trip the original predicate id")
	}
}
