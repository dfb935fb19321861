// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package testcat

import (
	"github.com/flintsql/optimizer/cat"
)

// RejectingCatalog wraps a Catalog and declines to push down any filter on
// a configured column, exercising the "a rejected pushdown is not an
// error" path (§7) that the fake Catalog's own CreateTableHandle never
// takes.
type RejectingCatalog struct {
	*Catalog
	RejectColumns map[string]bool
}

// NewRejecting wraps base, rejecting pushdown for every column named in
// cols.
func NewRejecting(base *Catalog, cols ...string) *RejectingCatalog {
	reject := make(map[string]bool, len(cols))
	for _, c := range cols {
		reject[c] = true
	}
	return &RejectingCatalog{Catalog: base, RejectColumns: reject}
}

// CreateTableHandle behaves like the wrapped Catalog's, except that any
// filter naming a rejected column is returned in the rejected slice
// instead of being absorbed into the handle.
func (c *RejectingCatalog) CreateTableHandle(
	layout cat.Layout, columns []cat.ColumnHandle, filters []cat.Filter,
) (cat.TableHandle, []cat.Filter, error) {
	kept := filters[:0:0]
	var rejected []cat.Filter
	for _, f := range filters {
		if c.RejectColumns[f.Column] {
			rejected = append(rejected, f)
			continue
		}
		kept = append(kept, f)
	}
	handle, _, err := c.Catalog.CreateTableHandle(layout, columns, kept)
	return handle, rejected, err
}

var _ cat.Catalog = (*RejectingCatalog)(nil)
