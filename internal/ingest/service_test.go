package ingest

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/studyrot/studyrot/internal/extract"
	"github.com/studyrot/studyrot/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transition is one observed status write.
type transition struct {
	status string
	text   string
}

// fakeStore records status transitions in order.
type fakeStore struct {
	mu          sync.Mutex
	transitions map[string][]transition

	processingErr error
	completedErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{transitions: make(map[string][]transition)}
}

func (f *fakeStore) SetFileProcessing(ctx context.Context, id string) error {
	if f.processingErr != nil {
		return f.processingErr
	}
	f.record(id, transition{status: "processing"})
	return nil
}

func (f *fakeStore) SetFileCompleted(ctx context.Context, id, text string) error {
	if f.completedErr != nil {
		return f.completedErr
	}
	f.record(id, transition{status: "completed", text: text})
	return nil
}

func (f *fakeStore) SetFileFailed(ctx context.Context, id string) error {
	f.record(id, transition{status: "failed"})
	return nil
}

func (f *fakeStore) record(id string, tr transition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions[id] = append(f.transitions[id], tr)
}

func (f *fakeStore) statuses(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.transitions[id]))
	for i, tr := range f.transitions[id] {
		out[i] = tr.status
	}
	return out
}

func (f *fakeStore) finalText(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	trs := f.transitions[id]
	if len(trs) == 0 {
		return ""
	}
	return trs[len(trs)-1].text
}

// slowExtractor blocks until its context... it has none, so it sleeps.
type slowExtractor struct{ delay time.Duration }

func (e slowExtractor) Extract(path string) (string, error) {
	time.Sleep(e.delay)
	return "too late", nil
}

// writeDeck builds a small valid .pptx on disk.
func writeDeck(t *testing.T, slides ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for i, slide := range slides {
		entry, err := w.Create(filepath.Join("ppt/slides", "slide"+string(rune('1'+i))+".xml"))
		require.NoError(t, err)
		_, err = entry.Write([]byte("<p:sld><a:t>" + slide + "</a:t></p:sld>"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestRunCompletesSupportedFormat(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 0)

	path := writeDeck(t, "first slide", "second slide")
	svc.Run(context.Background(), "f1", path, "lecture.pptx")

	assert.Equal(t, []string{"processing", "completed"}, store.statuses("f1"))
	assert.Equal(t, "first slide\n\nsecond slide", store.finalText("f1"))
}

func TestRunUnsupportedFormatCompletesEmpty(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 0)

	path := filepath.Join(t.TempDir(), "notes.xyz")
	require.NoError(t, os.WriteFile(path, []byte("whatever"), 0o644))

	svc.Run(context.Background(), "f1", path, "notes.xyz")

	assert.Equal(t, []string{"processing", "completed"}, store.statuses("f1"))
	assert.Equal(t, "", store.finalText("f1"), "unsupported format completes with empty text")
}

func TestRunCorruptDocumentFails(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 0)

	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	svc.Run(context.Background(), "f1", path, "broken.pdf")

	assert.Equal(t, []string{"processing", "failed"}, store.statuses("f1"))
	assert.Equal(t, "", store.finalText("f1"), "failed attempt must not store text")
}

func TestRunMissingStagedFileFails(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 0)

	svc.Run(context.Background(), "f1", filepath.Join(t.TempDir(), "gone.pptx"), "gone.pptx")

	assert.Equal(t, []string{"processing", "failed"}, store.statuses("f1"))
}

func TestRunProcessingWriteErrorFails(t *testing.T) {
	store := newFakeStore()
	store.processingErr = errors.New("db down")
	svc := NewService(store, nil, 0)

	svc.Run(context.Background(), "f1", "ignored", "ignored.pdf")

	assert.Equal(t, []string{"failed"}, store.statuses("f1"))
}

func TestRunCompletionWriteErrorFails(t *testing.T) {
	store := newFakeStore()
	store.completedErr = errors.New("db down")
	svc := NewService(store, nil, 0)

	path := writeDeck(t, "slide")
	svc.Run(context.Background(), "f1", path, "deck.pptx")

	assert.Equal(t, []string{"processing", "failed"}, store.statuses("f1"))
}

func TestRunTimeout(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 50*time.Millisecond)
	svc.dispatch = func(string) extract.Extractor {
		return slowExtractor{delay: 5 * time.Second}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	svc.Run(ctx, "f1", "ignored", "huge.pdf")

	assert.Equal(t, []string{"processing", "failed"}, store.statuses("f1"))
}

func TestTriggerReturnsImmediately(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, time.Second)
	svc.dispatch = func(string) extract.Extractor {
		return slowExtractor{delay: 200 * time.Millisecond}
	}

	start := time.Now()
	ok := svc.Trigger("f1", "ignored", "big.pdf")
	elapsed := time.Since(start)

	assert.True(t, ok)
	assert.Less(t, elapsed, 100*time.Millisecond, "Trigger must not wait for extraction")

	svc.Wait()
	assert.Equal(t, []string{"processing", "completed"}, store.statuses("f1"))
}

func TestTriggerSingleFlightPerRecord(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, time.Second)
	svc.dispatch = func(string) extract.Extractor {
		return slowExtractor{delay: 200 * time.Millisecond}
	}

	require.True(t, svc.Trigger("f1", "ignored", "a.pdf"))
	assert.False(t, svc.Trigger("f1", "ignored", "a.pdf"), "second trigger for in-flight record is dropped")

	svc.Wait()

	// Only one attempt ran
	assert.Equal(t, []string{"processing", "completed"}, store.statuses("f1"))

	// After the attempt finished, a re-trigger is a fresh attempt
	assert.True(t, svc.Trigger("f1", "ignored", "a.pdf"))
	svc.Wait()
}

func TestTriggerIndependentRecordsRunConcurrently(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, time.Second)
	svc.dispatch = func(string) extract.Extractor {
		return slowExtractor{delay: 100 * time.Millisecond}
	}

	start := time.Now()
	require.True(t, svc.Trigger("f1", "ignored", "a.pdf"))
	require.True(t, svc.Trigger("f2", "ignored", "b.pdf"))
	svc.Wait()
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 190*time.Millisecond, "different records extract in parallel")
	assert.Equal(t, []string{"processing", "completed"}, store.statuses("f1"))
	assert.Equal(t, []string{"processing", "completed"}, store.statuses("f2"))
}

func TestRunRecordsMetrics(t *testing.T) {
	store := newFakeStore()
	collector := metrics.NewCollector()
	svc := NewService(store, collector, 0)

	path := writeDeck(t, "slide one")
	svc.Run(context.Background(), "f1", path, "deck.pptx")

	snap := collector.Snapshot()
	require.NotNil(t, snap.ExtractPPTX)
	assert.Equal(t, int64(1), snap.ExtractPPTX.Count)
}
