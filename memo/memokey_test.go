package memo

import (
	"testing"

	"github.com/flintsql/optimizer"
)

func TestMemoKeyHashStableUnderConstructionOrder(t *testing.T) {
	a := MemoKey{
		FirstTable:       1,
		Tables:           opt.MakeTableSet(1, 2, 3),
		ProjectedColumns: opt.MakeColSet(10, 11),
		ExistenceReducers: []ExistenceReducer{
			{ProbeTable: 2, ProbeKeys: []opt.ColumnID{20}, BuildKeys: []opt.ColumnID{21}},
			{ProbeTable: 3, ProbeKeys: []opt.ColumnID{30}, BuildKeys: []opt.ColumnID{31}},
		},
	}
	b := MemoKey{
		FirstTable:       1,
		Tables:           opt.MakeTableSet(3, 1, 2),
		ProjectedColumns: opt.MakeColSet(11, 10),
		ExistenceReducers: []ExistenceReducer{
			{ProbeTable: 3, ProbeKeys: []opt.ColumnID{30}, BuildKeys: []opt.ColumnID{31}},
			{ProbeTable: 2, ProbeKeys: []opt.ColumnID{20}, BuildKeys: []opt.ColumnID{21}},
		},
	}

	if a.Hash() != b.Hash() {
		t.Fatalf("expected construction-order-independent hash, got %d vs %d", a.Hash(), b.Hash())
	}
	if !a.Equal(b) {
		t.Fatalf("expected a and b to be Equal")
	}
}

func TestMemoKeyDistinguishesTables(t *testing.T) {
	a := MemoKey{FirstTable: 1, Tables: opt.MakeTableSet(1, 2), ProjectedColumns: opt.MakeColSet(10)}
	b := MemoKey{FirstTable: 1, Tables: opt.MakeTableSet(1, 3), ProjectedColumns: opt.MakeColSet(10)}

	if a.Equal(b) {
		t.Fatalf("expected different table sets to produce different keys")
	}
}

func TestMemoLookupAndGetOrCreate(t *testing.T) {
	m := NewMemo()
	key := MemoKey{FirstTable: 1, Tables: opt.MakeTableSet(1), ProjectedColumns: opt.MakeColSet(10)}

	if _, ok := m.Lookup(key); ok {
		t.Fatalf("expected no entry in a fresh Memo")
	}

	set := m.GetOrCreate(key)
	set.Add(planWithCost(7, opt.MakeColSet(10), Distribution{Kind: Singleton}))

	got, ok := m.Lookup(key)
	if !ok {
		t.Fatalf("expected Lookup to find the entry created by GetOrCreate")
	}
	if got.Best().TotalCost != 7 {
		t.Fatalf("expected the same PlanSet instance to be returned, got best cost %v", got.Best().TotalCost)
	}

	again := m.GetOrCreate(key)
	if again != set {
		t.Fatalf("expected GetOrCreate to return the same PlanSet for an existing key")
	}
}
