package history

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveUpdateRoundTrip(t *testing.T) {
	s := NewStore()
	fp1 := NewFingerprint("scan", "table=nation")
	fp2 := NewFingerprint("join", "left=a", "right=b")
	s.RecordExecution(Entry{Fingerprint: fp1, Cardinality: 25, Bytes: 800})
	s.RecordExecution(Entry{Fingerprint: fp2, Cardinality: 100, Bytes: 4000})

	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	require.NoError(t, s.SaveToFile(path))

	restored := NewStore()
	require.NoError(t, restored.UpdateFromFile(path))
	require.Equal(t, s.Len(), restored.Len())

	for _, fp := range []Fingerprint{fp1, fp2} {
		want, ok := s.Lookup(fp)
		require.True(t, ok)
		got, ok := restored.Lookup(fp)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestFingerprintStableUnderDescriptorOrder(t *testing.T) {
	a := NewFingerprint("join", "left=a", "right=b")
	b := NewFingerprint("join", "right=b", "left=a")
	require.Equal(t, a, b)
}

func TestSetLeafSelectivityDeduplicatesConcurrentSamples(t *testing.T) {
	s := NewStore()
	fp := NewFingerprint("scan", "table=lineitem")

	var calls int32
	var mu sync.Mutex
	sample := func(context.Context) (float64, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return 0.42, nil
	}

	var wg sync.WaitGroup
	results := make([]float64, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sel, found, err := s.SetLeafSelectivity(context.Background(), fp, sample)
			require.NoError(t, err)
			require.True(t, found)
			results[i] = sel
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.Equal(t, 0.42, r)
	}
}

func TestUpdateFromFileMissingPath(t *testing.T) {
	s := NewStore()
	err := s.UpdateFromFile(filepath.Join(os.TempDir(), "does-not-exist-history.json"))
	require.Error(t, err)
}
