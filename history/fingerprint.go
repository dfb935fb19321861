// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package history implements the History store (§6, §5): a durable,
// concurrency-safe map from an operator fingerprint to measured
// cardinality/selectivity, used to recalibrate future plans.
package history

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint canonically identifies an operator shape across queries,
// independent of the arena ids any one query happened to assign it (§6
// "canonical operator fingerprint"). It is a stable hash of a canonical
// textual key, so two logically identical operators in different queries
// (or the same query re-planned) collide on purpose.
type Fingerprint uint64

// NewFingerprint builds a canonical fingerprint from an operator kind name
// plus a sorted list of "key=value" style descriptors (table name, scan
// type, filter text, join keys, ...). Sorting the descriptors first makes
// the fingerprint independent of caller iteration order, which is what
// lets §8's "MemoKey hash is stable" round-trip hold for History keys too.
func NewFingerprint(kind string, descriptors ...string) Fingerprint {
	sorted := append([]string(nil), descriptors...)
	sort.Strings(sorted)
	key := kind + "|" + strings.Join(sorted, "|")
	return Fingerprint(xxhash.Sum64String(key))
}

func (f Fingerprint) String() string { return fmt.Sprintf("%016x", uint64(f)) }
