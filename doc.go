// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package opt holds the arena-scoped building blocks shared by every stage
// of the optimizer: dense integer ids, name and path interning, the column
// bitmap, and the per-query Metadata that owns all of it.
//
// Subpackages build on top of this one the way the teacher's opt
// subpackages build on pkg/sql/opt: expr holds the expression graph,
// querygraph and subfield build the query graph and push down subfields,
// cost holds the pure cost model, memo holds the physical plan search
// space, and xform drives the search and exposes the top-level Optimizer.
package opt
