package opt

import "testing"

func TestColSetBasics(t *testing.T) {
	s := MakeColSet(1, 5, 64, 65)
	if s.Len() != 4 {
		t.Fatalf("expected 4 members, got %d", s.Len())
	}
	for _, c := range []ColumnID{1, 5, 64, 65} {
		if !s.Contains(c) {
			t.Fatalf("expected set to contain %d", c)
		}
	}
	if s.Contains(2) {
		t.Fatalf("expected set to not contain 2")
	}
	if got := s.ToList(); len(got) != 4 || got[0] != 1 || got[3] != 65 {
		t.Fatalf("expected a sorted list [1 5 64 65], got %v", got)
	}
}

func TestColSetSetOps(t *testing.T) {
	a := MakeColSet(1, 2, 3)
	b := MakeColSet(2, 3, 4)

	if !a.Union(b).Equals(MakeColSet(1, 2, 3, 4)) {
		t.Fatalf("unexpected union")
	}
	if !a.Intersection(b).Equals(MakeColSet(2, 3)) {
		t.Fatalf("unexpected intersection")
	}
	if !a.Difference(b).Equals(MakeColSet(1)) {
		t.Fatalf("unexpected difference")
	}
	if !a.Intersects(b) {
		t.Fatalf("expected a and b to intersect")
	}
	if MakeColSet(1).Intersects(MakeColSet(2)) {
		t.Fatalf("expected disjoint sets to not intersect")
	}
	if !MakeColSet(1, 2).SubsetOf(a) {
		t.Fatalf("expected {1,2} to be a subset of a")
	}
	if a.SubsetOf(MakeColSet(1, 2)) {
		t.Fatalf("expected a to not be a subset of {1,2}")
	}
}

func TestColSetRemoveAndCopyIndependence(t *testing.T) {
	a := MakeColSet(1, 2, 3)
	b := a.Copy()
	a.Remove(2)

	if a.Contains(2) {
		t.Fatalf("expected Remove to delete the member")
	}
	if !b.Contains(2) {
		t.Fatalf("expected Copy to be independent of later mutation to a")
	}
}

func TestColSetEmpty(t *testing.T) {
	var s ColSet
	if !s.Empty() {
		t.Fatalf("expected the zero value to be empty")
	}
	s.Add(1)
	if s.Empty() {
		t.Fatalf("expected a set with one member to not be empty")
	}
}

func TestTableSetMirrorsColSet(t *testing.T) {
	s := MakeTableSet(1, 2)
	s.Add(3)
	if s.Len() != 3 || !s.Contains(3) {
		t.Fatalf("expected TableSet.Add to work like ColSet.Add")
	}

	other := MakeTableSet(2, 3, 4)
	if !s.Intersects(other) {
		t.Fatalf("expected intersecting table sets to report Intersects")
	}
	diff := s.Difference(other)
	if diff.Len() != 1 || !diff.Contains(1) {
		t.Fatalf("expected Difference to leave only table 1, got %v", diff.ToList())
	}
}
