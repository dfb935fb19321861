package memo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/flintsql/optimizer"
)

// MemoKey is {first-table, table-set, projected-columns, existence-
// reducers} (§3 "MemoKey"): it identifies one memo subproblem - which
// tables must be placed, which columns the result must produce, and which
// additional semi-joins (imported from the probe side to shrink a build)
// are in effect. Equality and hash are over all four fields.
type MemoKey struct {
	FirstTable        opt.TableID
	Tables            opt.TableSet
	ProjectedColumns  opt.ColSet
	ExistenceReducers []ExistenceReducer
}

// ExistenceReducer is one additional semi-join imported from the probe
// side of a join to constrain a build side before it is built (§4.4
// "next_joins": "annotated with existences").
type ExistenceReducer struct {
	ProbeTable opt.TableID
	ProbeKeys  []opt.ColumnID
	BuildKeys  []opt.ColumnID
}

// canonicalString renders k as a deterministic textual key: sorting every
// variable-length field first makes the rendering (and therefore the hash)
// independent of construction order, which is what lets §8's "serializing
// + deserializing a key yields the same hash" hold regardless of how the
// search happened to visit tables.
func (k MemoKey) canonicalString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "t%d|", k.FirstTable)

	tables := k.Tables.ToList()
	sort.Slice(tables, func(i, j int) bool { return tables[i] < tables[j] })
	fmt.Fprintf(&sb, "%v|", tables)

	cols := k.ProjectedColumns.ToList()
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	fmt.Fprintf(&sb, "%v|", cols)

	reducers := append([]ExistenceReducer(nil), k.ExistenceReducers...)
	sort.Slice(reducers, func(i, j int) bool {
		if reducers[i].ProbeTable != reducers[j].ProbeTable {
			return reducers[i].ProbeTable < reducers[j].ProbeTable
		}
		return fmt.Sprint(reducers[i].ProbeKeys) < fmt.Sprint(reducers[j].ProbeKeys)
	})
	for _, r := range reducers {
		fmt.Fprintf(&sb, "(%d:%v->%v)", r.ProbeTable, r.ProbeKeys, r.BuildKeys)
	}
	return sb.String()
}

// Hash returns a stable fingerprint of k, independent of field
// construction order (§8 "MemoKey hash is stable").
func (k MemoKey) Hash() uint64 {
	return xxhash.Sum64String(k.canonicalString())
}

// Equal reports whether k and other identify the same memo subproblem.
func (k MemoKey) Equal(other MemoKey) bool {
	return k.canonicalString() == other.canonicalString()
}

// Memo is the map from MemoKey to the PlanSet computed for it, shared
// across one query's whole search so that an identical subproblem reached
// through different join orders is only solved once (§4.4 "memoized by
// MemoKey").
type Memo struct {
	entries map[uint64][]memoEntry
}

type memoEntry struct {
	key  MemoKey
	sets *PlanSet
}

// NewMemo returns an empty Memo.
func NewMemo() *Memo {
	return &Memo{entries: make(map[uint64][]memoEntry)}
}

// Lookup returns the PlanSet stored for key, if any.
func (m *Memo) Lookup(key MemoKey) (*PlanSet, bool) {
	for _, e := range m.entries[key.Hash()] {
		if e.key.Equal(key) {
			return e.sets, true
		}
	}
	return nil, false
}

// GetOrCreate returns the PlanSet stored for key, creating and storing an
// empty one if absent.
func (m *Memo) GetOrCreate(key MemoKey) *PlanSet {
	h := key.Hash()
	for _, e := range m.entries[h] {
		if e.key.Equal(key) {
			return e.sets
		}
	}
	sets := NewPlanSet()
	m.entries[h] = append(m.entries[h], memoEntry{key: key, sets: sets})
	return sets
}
