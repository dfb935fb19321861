// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package trace implements optimizer event tracing (§6 "Tracing"): when a
// flag is set, the search emits an Event to a Sink for each candidate
// retained in a PlanSet (Retained) or discarded for exceeding the best
// cost so far (ExceededBest). No Sample event is emitted.
package trace

import "github.com/cockroachdb/redact"

// Flag is one bit of OptimizerOptions.TraceFlags (§6 "Configuration").
type Flag int

const (
	// Retained traces a candidate plan kept in a PlanSet.
	Retained Flag = 1 << 0
	// ExceededBest traces a candidate discarded because its cost already
	// exceeded the subproblem's best-so-far.
	ExceededBest Flag = 1 << 1
	// Sample is the flag bit for catalog Sample calls; the search emits no
	// event with this flag.
	Sample Flag = 1 << 2
)

// Event is one memo event (§6 "every memo event ... emits {event, plan_id,
// cost, op_shape}").
type Event struct {
	Flag    Flag
	PlanID  uint64
	Cost    float64
	OpShape string
}

// SafeFormat implements redact.SafeFormatter so Events can be logged
// through zap without leaking OpShape's free-form text into an
// un-redacted sink if OpShape ever carries user data (it normally carries
// only operator names and table aliases, but the formatter costs nothing
// to have).
func (e Event) SafeFormat(s redact.SafePrinter, _ rune) {
	s.Printf("event(flag=%d plan=%d cost=%.2f shape=%s)", e.Flag, e.PlanID, e.Cost, e.OpShape)
}

// Sink receives Events emitted during the search.
type Sink interface {
	Emit(Event)
}

// NoopSink discards every event; xform.New uses it when given a nil Sink.
type NoopSink struct{}

// Emit discards e.
func (NoopSink) Emit(Event) {}

// RecordingSink accumulates every Event it receives in order, for tests
// and for an offline EXPLAIN-style dump.
type RecordingSink struct {
	Events []Event
}

// Emit appends e to the recording.
func (s *RecordingSink) Emit(e Event) { s.Events = append(s.Events, e) }

// Matching returns every recorded event whose Flag bit is set in mask.
func (s *RecordingSink) Matching(mask Flag) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.Flag&mask != 0 {
			out = append(out, e)
		}
	}
	return out
}
