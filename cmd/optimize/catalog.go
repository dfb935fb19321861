// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package main

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/flintsql/optimizer/cat"
	"github.com/flintsql/optimizer/cat/testcat"
)

type jsonCatalog struct {
	Tables []jsonTable `json:"tables"`
}

type jsonTable struct {
	Name    string          `json:"name"`
	Rows    float64         `json:"rows"`
	Columns []jsonColumn    `json:"columns"`
	Layouts []jsonLayout    `json:"layouts"`
	Options map[string]string `json:"options,omitempty"`
}

type jsonColumn struct {
	Name          string   `json:"name"`
	Type          jsonType `json:"type"`
	Nullable      bool     `json:"nullable,omitempty"`
	DistinctCount float64  `json:"distinctCount,omitempty"`
	NullFraction  float64  `json:"nullFraction,omitempty"`
	AvgSize       float64  `json:"avgSize,omitempty"`
	IsComplex     bool     `json:"isComplex,omitempty"`
}

type jsonLayout struct {
	Name             string   `json:"name"`
	PartitionColumns []string `json:"partitionColumns,omitempty"`
	OrderColumns     []string `json:"orderColumns,omitempty"`
	LookupKeys       []string `json:"lookupKeys,omitempty"`
}

// ParseCatalog decodes a JSON table snapshot into a fake in-memory
// catalog, the CLI's stand-in for a real connector (§1: "out of scope").
func ParseCatalog(data []byte) (*testcat.Catalog, error) {
	var jc jsonCatalog
	if err := json.Unmarshal(data, &jc); err != nil {
		return nil, errors.Wrap(err, "decoding catalog snapshot")
	}
	c := testcat.New()
	for _, jt := range jc.Tables {
		cols := make([]cat.Column, len(jt.Columns))
		for i, jcol := range jt.Columns {
			t, err := decodeType(jcol.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "table %s column %s", jt.Name, jcol.Name)
			}
			cols[i] = cat.Column{
				Name:          jcol.Name,
				Type:          t,
				Nullable:      jcol.Nullable,
				DistinctCount: jcol.DistinctCount,
				NullFraction:  jcol.NullFraction,
				AvgSize:       jcol.AvgSize,
				IsComplex:     jcol.IsComplex,
			}
		}
		layouts := make([]cat.Layout, len(jt.Layouts))
		for i, jl := range jt.Layouts {
			layouts[i] = cat.Layout{
				Name:             jl.Name,
				PartitionColumns: jl.PartitionColumns,
				OrderColumns:     jl.OrderColumns,
				LookupKeys:       jl.LookupKeys,
			}
		}
		c.AddTable(&testcat.Table{
			TableName: jt.Name,
			Cols:      cols,
			Layouts:   layouts,
			Rows:      jt.Rows,
			Opts:      jt.Options,
		})
	}
	return c, nil
}
