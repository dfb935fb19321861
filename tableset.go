package opt

// TableSet is a set of TableIDs, used to key memo subproblems by which
// tables have been placed (§3 "MemoKey"). It reuses ColSet's bitmap
// machinery since both ColumnID and TableID are small dense integers.
type TableSet struct {
	set ColSet
}

// MakeTableSet returns a TableSet containing the given tables.
func MakeTableSet(tables ...TableID) TableSet {
	var s TableSet
	for _, t := range tables {
		s.Add(t)
	}
	return s
}

func (s *TableSet) Add(t TableID)      { s.set.Add(ColumnID(t)) }
func (s *TableSet) Remove(t TableID)   { s.set.Remove(ColumnID(t)) }
func (s TableSet) Contains(t TableID) bool { return s.set.Contains(ColumnID(t)) }
func (s TableSet) Empty() bool         { return s.set.Empty() }
func (s TableSet) Len() int            { return s.set.Len() }
func (s TableSet) Copy() TableSet      { return TableSet{set: s.set.Copy()} }

func (s TableSet) Union(other TableSet) TableSet {
	return TableSet{set: s.set.Union(other.set)}
}

func (s TableSet) Intersection(other TableSet) TableSet {
	return TableSet{set: s.set.Intersection(other.set)}
}

func (s TableSet) Difference(other TableSet) TableSet {
	return TableSet{set: s.set.Difference(other.set)}
}

func (s TableSet) Intersects(other TableSet) bool { return s.set.Intersects(other.set) }
func (s TableSet) SubsetOf(other TableSet) bool   { return s.set.SubsetOf(other.set) }
func (s TableSet) Equals(other TableSet) bool     { return s.set.Equals(other.set) }

func (s TableSet) ForEach(f func(t TableID)) {
	s.set.ForEach(func(c ColumnID) { f(TableID(c)) })
}

func (s TableSet) ToList() []TableID {
	out := make([]TableID, 0, s.Len())
	s.ForEach(func(t TableID) { out = append(out, t) })
	return out
}

func (s TableSet) String() string { return s.set.String() }
