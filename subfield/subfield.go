// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package subfield implements Subfield Pushdown (§4.5): it turns the
// control/payload subfield sets querygraph.MarkSubfields recorded on a
// BaseTable into the live-field list a scan should actually materialize,
// and decides when a map-typed column can be cast to a struct before
// pruning (§9 "map-as-struct").
package subfield

import (
	"sort"

	"github.com/flintsql/optimizer"
	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/querygraph"
)

// LiveSet returns the sorted-by-PathID live subfield paths recorded for
// col (the union of control and payload accesses, §4.1 "subfield-access
// marking"). An empty set means col was never marked at all (e.g.
// required only by RequireColumn with no getter ever applied); Whole()
// reports true for it, the same as for a whole-column access.
type LiveSet struct {
	paths map[opt.PathID]opt.Path
}

// Of computes the LiveSet for col on bt.
func Of(bt *querygraph.BaseTable, col opt.ColumnID) LiveSet {
	return LiveSet{paths: bt.LiveSubfields(col)}
}

// Whole reports whether col's whole value is accessed somewhere (directly,
// or because no subfield marking ever narrowed it), meaning the scan must
// produce the column's full shape and no reconstruction projection is
// needed above it.
func (s LiveSet) Whole() bool {
	if len(s.paths) == 0 {
		return true
	}
	_, ok := s.paths[0]
	return ok
}

// Prunable reports whether the scan can materialize only the live
// subfields instead of the whole value.
func (s LiveSet) Prunable() bool {
	return !s.Whole() && len(s.paths) > 0
}

// Paths returns every live path, sorted by PathID for determinism.
func (s LiveSet) Paths() []opt.Path {
	out := make([]opt.Path, 0, len(s.paths))
	for _, p := range s.paths {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TopLevelFields returns the sorted, deduplicated set of first-step field
// names among the live paths, the field list a map-as-struct cast would
// project onto (§9 "map-as-struct").
func (s LiveSet) TopLevelFields() []string {
	seen := make(map[string]bool)
	for _, p := range s.Paths() {
		if len(p.Steps) == 0 {
			continue
		}
		first := p.Steps[0]
		var name string
		switch first.Kind {
		case opt.FieldStep:
			name = first.FieldName.String()
		case opt.SubscriptStep:
			if first.AllKeys {
				continue
			}
			name = first.Key
		default:
			continue
		}
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ToCatalogPaths translates opt.Paths into the catalog-facing
// cat.SubfieldPath representation (§4.2 "SubfieldPath").
func ToCatalogPaths(paths []opt.Path) []cat.SubfieldPath {
	out := make([]cat.SubfieldPath, len(paths))
	for i, p := range paths {
		steps := make([]string, len(p.Steps))
		for j, s := range p.Steps {
			switch s.Kind {
			case opt.FieldStep:
				steps[j] = s.FieldName.String()
			case opt.SubscriptStep:
				if s.AllKeys {
					steps[j] = "[*]"
				} else {
					steps[j] = "[" + s.Key + "]"
				}
			case opt.CardinalityStep:
				steps[j] = "#card"
			}
		}
		out[i] = cat.SubfieldPath{Steps: steps}
	}
	return out
}

// MapAsStructDecision is the resolved answer to §9's map-as-struct open
// question for one column: Attempt is true when the catalog should be
// asked to cast the column from a map to a struct before pruning, and
// Fields names the struct fields to request, in the order CreateColumnHandle
// should expose them. Per §9, the domain of acceptable map keys is
// unspecified in the source; this implementation's decision (recorded in
// DESIGN.md) is to attempt the cast whenever every live subfield's key is a
// literal (never a wildcard) and let the catalog itself reject the cast if
// the key type is unsupported - CreateColumnHandle's error return is not
// treated as fatal by the caller, it just falls back to scanning the map
// whole.
type MapAsStructDecision struct {
	Attempt bool
	Fields  []string
}

// DecideMapAsStruct computes the MapAsStructDecision for one column, given
// its catalog type, its LiveSet, and whether the table/column pair appears
// in OptimizerOptions.MapAsStruct.
func DecideMapAsStruct(colType cat.Type, live LiveSet, configured bool) MapAsStructDecision {
	if !configured || colType.Kind != cat.Map || !live.Prunable() {
		return MapAsStructDecision{}
	}
	for _, p := range live.Paths() {
		if len(p.Steps) == 0 {
			continue
		}
		if p.Steps[0].Kind == opt.SubscriptStep && p.Steps[0].AllKeys {
			// A wildcard subscript reads every key: casting to a fixed
			// struct shape would drop keys added after planning, so the
			// cast is not attempted (§9, this implementation's decision).
			return MapAsStructDecision{}
		}
	}
	fields := live.TopLevelFields()
	if len(fields) == 0 {
		return MapAsStructDecision{}
	}
	return MapAsStructDecision{Attempt: true, Fields: fields}
}

// TableConfigured reports whether colName is listed under tableName in an
// OptimizerOptions.MapAsStruct entry.
func TableConfigured(mapAsStruct map[string][]string, tableName, colName string) bool {
	for _, c := range mapAsStruct[tableName] {
		if c == colName {
			return true
		}
	}
	return false
}

// ColumnHandleArgs resolves the (subfields, castToStruct) pair the
// Physical Plan Emitter (via the search's freeze step) passes to
// Catalog.CreateColumnHandle for one scanned column (§4.2, §4.5 steps
// "map-as-struct rewrite decision" and "scan schema rewrite"). When
// pushdownEnabled is false the whole column is requested, matching
// OptimizerOptions.PushdownSubfields's documented default-true/opt-out
// semantics.
func ColumnHandleArgs(
	colType cat.Type, live LiveSet, pushdownEnabled bool, mapAsStructConfigured bool,
) (subfields []cat.SubfieldPath, castToStruct []string) {
	if !pushdownEnabled || !live.Prunable() {
		return nil, nil
	}
	if d := DecideMapAsStruct(colType, live, mapAsStructConfigured); d.Attempt {
		return nil, d.Fields
	}
	return ToCatalogPaths(live.Paths()), nil
}

// NeedsReconstruction reports whether a Project must be inserted above the
// scan to reassemble col's pruned representation into the shape its
// consumers expect. Under this implementation's pruning rule (§4.5
// "scan schema rewrite" as realized here) a column is only ever pruned
// when no consumer anywhere needs its whole value (LiveSet.Whole() would
// otherwise have forced the scan to keep the full column) - so
// reconstruction is structurally never required and this always returns
// false. No caller in this module invokes it.
func NeedsReconstruction(live LiveSet) bool {
	return false
}
