package trace

import "testing"

func TestRecordingSinkMatching(t *testing.T) {
	sink := &RecordingSink{}
	sink.Emit(Event{Flag: Retained, PlanID: 1, Cost: 10, OpShape: "table-scan"})
	sink.Emit(Event{Flag: ExceededBest, PlanID: 2, Cost: 20, OpShape: "join"})
	sink.Emit(Event{Flag: Retained, PlanID: 3, Cost: 5, OpShape: "filter"})

	retained := sink.Matching(Retained)
	if len(retained) != 2 {
		t.Fatalf("expected 2 retained events, got %d", len(retained))
	}
	for _, e := range retained {
		if e.Flag&Retained == 0 {
			t.Fatalf("Matching returned an event without the Retained flag: %+v", e)
		}
	}

	both := sink.Matching(Retained | ExceededBest)
	if len(both) != 3 {
		t.Fatalf("expected all 3 events to match the combined mask, got %d", len(both))
	}

	sample := sink.Matching(Sample)
	if len(sample) != 0 {
		t.Fatalf("expected no events to match an unused flag, got %d", len(sample))
	}
}

func TestNoopSinkDiscards(t *testing.T) {
	var sink Sink = NoopSink{}
	// Emit must not panic and has nothing observable to assert beyond that.
	sink.Emit(Event{Flag: Retained})
}
