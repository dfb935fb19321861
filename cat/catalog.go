// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package cat defines the Catalog Adapter (§4.2): the abstract interface
// the optimizer consumes for tables, layouts, columns, statistics, sampling
// and filter pushdown. Nothing in this package depends on the memo, query
// graph, or cost model packages - like the teacher's own cat package, it is
// a leaf that everything else builds on top of.
package cat

import "context"

// Catalog resolves table names to metadata and builds the opaque handles
// the emitter attaches to scans. All calls are synchronous and assumed
// side-effect free at planning time (§4.2).
type Catalog interface {
	// FindTable returns the named table's metadata, or a CatalogError-kind
	// error if it does not exist.
	FindTable(ctx context.Context, name string) (Table, error)

	// CreateColumnHandle returns an opaque handle that scans use to
	// identify one column, optionally pruned to only the given subfield
	// paths and/or cast from a map to a struct (map-as-struct, §4.5).
	CreateColumnHandle(layout Layout, name string, subfields []SubfieldPath, castToStruct []string) (ColumnHandle, error)

	// CreateTableHandle asks the connector to build a scan handle for the
	// given layout, columns and filters. Filters the connector can push
	// down are consumed; the rest are returned as RejectedFilters to be
	// evaluated by a Filter operator above the scan (§7: a rejected
	// pushdown is not an error).
	CreateTableHandle(layout Layout, columns []ColumnHandle, filters []Filter) (TableHandle, []Filter, error)

	// Sample returns pre- and post-filter row counts for calibrating
	// selectivity, and optionally per-subfield statistics.
	Sample(ctx context.Context, handle TableHandle, pct float64, extraFilters []Filter, subfields []SubfieldPath) (SampleResult, error)

	// ListPartitions and SplitSource are consumed only by the physical
	// plan emitter, never by the search.
	ListPartitions(handle TableHandle) ([]PartitionID, error)
	SplitSource(handle TableHandle, partitions []PartitionID, opts SplitOptions) ([]Split, error)
}

// SubfieldPath is the catalog-facing rendering of an opt.Path: a sequence of
// dotted field names / bracketed subscripts, opaque to the catalog beyond
// string equality. The optimizer is responsible for translating opt.Path
// values to and from this representation at the package boundary.
type SubfieldPath struct {
	Steps []string
}

// PartitionID identifies one partition of a table layout.
type PartitionID string

// SplitOptions configures how SplitSource divides partitions into splits.
type SplitOptions struct {
	TargetSplitBytes int64
}

// Split is one unit of scan work handed to the execution runtime.
type Split struct {
	PartitionID PartitionID
	Info        map[string]string
}

// SampleResult is the outcome of Catalog.Sample.
type SampleResult struct {
	// SampledRows is the number of rows physically read during sampling.
	SampledRows int64
	// MatchedRows is the number of sampled rows that satisfied the extra
	// filters, used to compute filter selectivity.
	MatchedRows int64
	// SubfieldStats maps a sampled subfield (by its index into the request
	// slice) to a distinct-count estimate for that nested value.
	SubfieldStats map[int]float64
}
