package history

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/google/btree"
	"golang.org/x/sync/singleflight"
)

// Entry is one persisted measurement: a fingerprint plus the cardinality
// and memory the runtime actually observed for it, and when (§6 "Output" /
// the {fingerprint, cardinality, bytes, timestamp} JSON record).
type Entry struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	Cardinality float64     `json:"cardinality"`
	Bytes       float64     `json:"bytes"`
	Timestamp   int64       `json:"timestamp"`

	// Selectivity is populated for leaf-scan entries: SetLeafSelectivity
	// records the value its sample callback returns here.
	Selectivity float64 `json:"selectivity,omitempty"`
}

// item adapts Entry to btree.Item, ordering entries by Fingerprint so that
// SaveToFile produces a deterministic, diffable file regardless of
// insertion order.
type item Entry

func (a item) Less(than btree.Item) bool {
	return a.Fingerprint < than.(item).Fingerprint
}

// Store is the process-wide History store (§5: "the only process-wide
// mutable state consumed by the optimizer"). Multiple Optimizers, each on
// its own thread, read from and append to the same Store concurrently;
// every method is safe for that.
type Store struct {
	mu   sync.RWMutex
	tree *btree.BTree

	// sf collapses concurrent Sample-backed lookups for the same
	// fingerprint into one underlying computation, per SPEC_FULL.md's
	// domain-stack note on golang.org/x/sync/singleflight.
	sf singleflight.Group
}

// NewStore returns an empty, ready-to-use Store.
func NewStore() *Store {
	return &Store{tree: btree.New(8)}
}

// RecordExecution persists a fingerprint -> cardinality/bytes measurement,
// called by the runtime after execution (§6). Entries are append-only: a
// later call for the same fingerprint overwrites the prior measurement
// rather than accumulating a series, matching "entries are append-only,
// keyed by a canonical operator fingerprint" read as last-writer-wins per
// key.
func (s *Store) RecordExecution(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.ReplaceOrInsert(item(e))
}

// Lookup returns the stored Entry for fp, if any.
func (s *Store) Lookup(fp Fingerprint) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it := s.tree.Get(item{Fingerprint: fp})
	if it == nil {
		return Entry{}, false
	}
	return Entry(it.(item)), true
}

// SetLeafSelectivity fills selectivity in from recorded history for the
// given base-table/scan-type fingerprint (§6). If no positive selectivity
// is recorded, it calls sample and records the result; found is true
// whenever a selectivity is returned, whether recorded or freshly
// sampled, and false only when sample fails. sample is invoked at most once per
// concurrently-requested fingerprint, deduplicated via singleflight, the
// way a real connector would avoid hammering storage with duplicate
// sampling requests for the same cold fingerprint.
func (s *Store) SetLeafSelectivity(
	ctx context.Context, fp Fingerprint, sample func(context.Context) (float64, error),
) (selectivity float64, found bool, err error) {
	if e, ok := s.Lookup(fp); ok && e.Selectivity > 0 {
		return e.Selectivity, true, nil
	}
	v, err, _ := s.sf.Do(fp.String(), func() (interface{}, error) {
		sel, serr := sample(ctx)
		if serr != nil {
			return nil, serr
		}
		s.RecordExecution(Entry{Fingerprint: fp, Selectivity: sel})
		return sel, nil
	})
	if err != nil {
		return 0, false, err
	}
	return v.(float64), true, nil
}

// SaveToFile writes every entry as one newline-delimited JSON object,
// sorted by fingerprint for determinism (§6 "Output"/§8 round-trip).
func (s *Store) SaveToFile(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var writeErr error
	s.tree.Ascend(func(it btree.Item) bool {
		b, merr := json.Marshal(Entry(it.(item)))
		if merr != nil {
			writeErr = merr
			return false
		}
		if _, werr := w.Write(b); werr != nil {
			writeErr = werr
			return false
		}
		writeErr = w.WriteByte('\n')
		return writeErr == nil
	})
	if writeErr != nil {
		return writeErr
	}
	return w.Flush()
}

// UpdateFromFile reads newline-delimited JSON entries and merges them into
// the store (later entries for the same fingerprint win), the counterpart
// to SaveToFile that makes save∘update the identity on the entry set (§8).
func (s *Store) UpdateFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		s.RecordExecution(e)
	}
	return scanner.Err()
}

// Len returns the number of distinct fingerprints recorded.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}
