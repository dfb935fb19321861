// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package testcat provides a fake in-memory cat.Catalog for tests, the way
// the teacher's opt/testutils/testcat package backs opttester and the memo
// package's own tests without a real SQL catalog.
package testcat

import (
	"context"
	"fmt"

	"github.com/flintsql/optimizer/cat"
)

// Catalog is a fake cat.Catalog backed by an in-memory table registry.
type Catalog struct {
	tables      map[string]*Table
	selectivity map[string]float64
}

// New returns an empty fake catalog.
func New() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// Table is a fake cat.Table that also lets tests configure statistics and
// layouts directly, instead of parsing DDL.
type Table struct {
	TableName string
	Cols      []cat.Column
	Layouts   []cat.Layout
	Rows      float64
	Opts      map[string]string
}

func (t *Table) Name() string          { return t.TableName }
func (t *Table) ColumnCount() int      { return len(t.Cols) }
func (t *Table) Column(i int) cat.Column { return t.Cols[i] }
func (t *Table) LayoutCount() int      { return len(t.Layouts) }
func (t *Table) Layout(i int) cat.Layout { return t.Layouts[i] }
func (t *Table) RowCount() float64     { return t.Rows }
func (t *Table) Options() map[string]string { return t.Opts }

// AddTable registers a table so future FindTable calls resolve it.
func (c *Catalog) AddTable(t *Table) {
	if len(t.Layouts) == 0 {
		// Every table has at least an unordered, unpartitioned primary
		// layout, matching a real connector's default full-table layout.
		t.Layouts = []cat.Layout{{Name: "primary"}}
	}
	c.tables[t.TableName] = t
}

func (c *Catalog) FindTable(_ context.Context, name string) (cat.Table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q not found", name)
	}
	return t, nil
}

type fakeColumnHandle struct{ name string }

func (h fakeColumnHandle) ColumnName() string { return h.name }

func (c *Catalog) CreateColumnHandle(
	_ cat.Layout, name string, _ []cat.SubfieldPath, _ []string,
) (cat.ColumnHandle, error) {
	return fakeColumnHandle{name: name}, nil
}

type fakeTableHandle struct {
	layout  string
	columns []string
}

func (h fakeTableHandle) LayoutName() string { return h.layout }

// CreateTableHandle accepts every filter unconditionally: the fake
// connector never rejects a pushdown, so tests exercising rejected filters
// configure a RejectingCatalog wrapper instead (see reject.go).
func (c *Catalog) CreateTableHandle(
	layout cat.Layout, columns []cat.ColumnHandle, filters []cat.Filter,
) (cat.TableHandle, []cat.Filter, error) {
	names := make([]string, len(columns))
	for i, ch := range columns {
		names[i] = ch.ColumnName()
	}
	return fakeTableHandle{layout: layout.Name, columns: names}, nil, nil
}

// Sample returns a deterministic, configurable fake sample: by default it
// reports no filtering effect (MatchedRows == SampledRows), so tests must
// opt in to a specific selectivity via SetSampleSelectivity.
func (c *Catalog) Sample(
	_ context.Context, handle cat.TableHandle, pct float64, extraFilters []cat.Filter, subfields []cat.SubfieldPath,
) (cat.SampleResult, error) {
	sampled := int64(1000 * pct)
	if sampled == 0 {
		sampled = 1
	}
	matched := sampled
	if sel, ok := c.selectivity[handle.LayoutName()]; ok {
		matched = int64(float64(sampled) * sel)
	}
	return cat.SampleResult{SampledRows: sampled, MatchedRows: matched}, nil
}

// SetSampleSelectivity configures the fraction of sampled rows that Sample
// reports as matching extra filters for the given layout name.
func (c *Catalog) SetSampleSelectivity(layout string, selectivity float64) {
	if c.selectivity == nil {
		c.selectivity = make(map[string]float64)
	}
	c.selectivity[layout] = selectivity
}

func (c *Catalog) ListPartitions(cat.TableHandle) ([]cat.PartitionID, error) {
	return []cat.PartitionID{"p0"}, nil
}

func (c *Catalog) SplitSource(handle cat.TableHandle, partitions []cat.PartitionID, _ cat.SplitOptions) ([]cat.Split, error) {
	splits := make([]cat.Split, len(partitions))
	for i, p := range partitions {
		splits[i] = cat.Split{PartitionID: p}
	}
	return splits, nil
}
