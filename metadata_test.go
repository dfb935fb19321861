package opt

import (
	"testing"

	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/cat/testcat"
)

func TestMetadataAddTableAssignsOneColumnPerCatalogColumn(t *testing.T) {
	md := NewMetadata()
	tbl := &testcat.Table{
		TableName: "orders",
		Cols: []cat.Column{
			{Name: "id", Type: cat.Type{Kind: cat.Scalar}},
			{Name: "amount", Type: cat.Type{Kind: cat.Scalar}},
		},
	}

	tid := md.AddTable(tbl, md.Names.Intern("orders"))
	tm := md.TableMeta(tid)

	if len(tm.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(tm.Columns))
	}
	for i, col := range tm.Columns {
		cm := md.ColumnMeta(col)
		if cm.Table != tid {
			t.Fatalf("expected column %d to record its owning table", i)
		}
		if cm.Name.String() != tbl.Cols[i].Name {
			t.Fatalf("expected column %d name %q, got %q", i, tbl.Cols[i].Name, cm.Name.String())
		}
		if cm.TopColumn != col {
			t.Fatalf("expected a plain AddColumn-style column to have TopColumn == itself")
		}
	}
}

func TestMetadataSelfJoinGetsDistinctTableIDs(t *testing.T) {
	md := NewMetadata()
	tbl := &testcat.Table{TableName: "orders", Cols: []cat.Column{{Name: "id", Type: cat.Type{Kind: cat.Scalar}}}}

	a := md.AddTable(tbl, md.Names.Intern("o1"))
	b := md.AddTable(tbl, md.Names.Intern("o2"))

	if a == b {
		t.Fatalf("expected two scans of the same catalog table to get distinct TableIDs")
	}
	if md.TableMeta(a).Table != md.TableMeta(b).Table {
		t.Fatalf("expected both TableIDs to resolve to the same underlying cat.Table")
	}
}

func TestMetadataQualifiedName(t *testing.T) {
	md := NewMetadata()
	tbl := &testcat.Table{TableName: "orders", Cols: []cat.Column{{Name: "id", Type: cat.Type{Kind: cat.Scalar}}}}
	tid := md.AddTable(tbl, md.Names.Intern("orders"))
	col := md.TableMeta(tid).Columns[0]

	if got := md.QualifiedName(col); got != "orders.id" {
		t.Fatalf("expected qualified name orders.id, got %q", got)
	}

	standalone := md.AddColumn(md.Names.Intern("x"), cat.Type{Kind: cat.Scalar}, 0)
	if got := md.QualifiedName(standalone); got != "x" {
		t.Fatalf("expected an unqualified column to render as its bare name, got %q", got)
	}
}

func TestMetadataNextObjectIDIsMonotonic(t *testing.T) {
	md := NewMetadata()
	a := md.NextObjectID()
	b := md.NextObjectID()
	if b <= a {
		t.Fatalf("expected NextObjectID to be strictly increasing, got %d then %d", a, b)
	}
}
