// Package ingest coordinates text extraction for uploaded files.
//
// The upload handler creates a file record in "pending" state, then hands
// the staged file to this package and returns to the client immediately.
// Extraction runs detached; its outcome is only observable through the
// record's status: pending -> processing -> completed or failed. Terminal
// states are never reverted by this package.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/studyrot/studyrot/internal/extract"
	"github.com/studyrot/studyrot/internal/metrics"
)

// DefaultTimeout bounds a single extraction attempt. An attempt past the
// deadline is marked failed instead of leaving the record stuck in
// "processing".
const DefaultTimeout = 2 * time.Minute

// Store is the persistence the orchestrator mutates. Implemented by
// db.Client; tests substitute a fake.
type Store interface {
	SetFileProcessing(ctx context.Context, id string) error
	SetFileCompleted(ctx context.Context, id, text string) error
	SetFileFailed(ctx context.Context, id string) error
}

// Service runs extraction attempts and drives the per-record status state
// machine. Safe for concurrent use.
type Service struct {
	store     Store
	collector *metrics.Collector
	timeout   time.Duration

	// dispatch picks the extractor for a filename. Overridden in tests.
	dispatch func(name string) extract.Extractor

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// NewService creates an orchestrator. collector may be nil. A timeout of
// zero or less selects DefaultTimeout.
func NewService(store Store, collector *metrics.Collector, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		store:     store,
		collector: collector,
		timeout:   timeout,
		dispatch:  extract.ForFilename,
		inflight:  make(map[string]struct{}),
	}
}

// Trigger starts extraction for one staged file and returns immediately.
// fileID is the record to update, path the staged file on disk, name the
// original filename the extension is taken from.
//
// At most one attempt per record runs at a time: a Trigger for an id that
// is already in flight is dropped and false is returned.
func (s *Service) Trigger(fileID, path, name string) bool {
	s.mu.Lock()
	if _, running := s.inflight[fileID]; running {
		s.mu.Unlock()
		slog.Warn("extraction already in flight, dropping trigger", "file_id", fileID, "name", name)
		return false
	}
	s.inflight[fileID] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, fileID)
			s.mu.Unlock()
		}()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("extraction goroutine panicked", "file_id", fileID, "panic", r)
				s.markFailed(fileID)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		s.Run(ctx, fileID, path, name)
	}()

	return true
}

// Run executes one extraction attempt synchronously. It never returns an
// error: the triggering request has long since been answered, so failures
// are logged and recorded as status "failed".
func (s *Service) Run(ctx context.Context, fileID, path, name string) {
	if err := s.store.SetFileProcessing(ctx, fileID); err != nil {
		slog.Error("failed to mark file processing", "file_id", fileID, "error", err)
		s.markFailed(fileID)
		return
	}

	slog.Info("extraction started", "file_id", fileID, "name", name)
	start := time.Now()

	text, err := s.extractWithDeadline(ctx, path, name)
	if err != nil {
		slog.Error("extraction failed", "file_id", fileID, "name", name, "error", err)
		s.markFailed(fileID)
		return
	}

	if err := s.store.SetFileCompleted(ctx, fileID, text); err != nil {
		slog.Error("failed to persist extracted text", "file_id", fileID, "error", err)
		s.markFailed(fileID)
		return
	}

	slog.Info("extraction completed", "file_id", fileID, "name", name,
		"chars", len(text), "duration_ms", time.Since(start).Milliseconds())
}

// extractWithDeadline runs the extractor for name against path, giving up
// when ctx expires. The extractors block on file I/O and CPU-bound
// parsing, so the attempt runs on its own goroutine; on timeout that
// goroutine is abandoned and the attempt counts as failed.
func (s *Service) extractWithDeadline(ctx context.Context, path, name string) (string, error) {
	extractor := s.dispatch(name)

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("extractor panic: %v", r)}
			}
		}()

		start := time.Now()
		text, err := extractor.Extract(path)
		s.recordTiming(extractor, time.Since(start))
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("extraction timed out after %s: %w", s.timeout, ctx.Err())
	}
}

// markFailed transitions a record to failed, leaving extracted text unset.
// Uses a fresh context: the attempt's context may already be expired and
// the failure must still be persisted for pollers to see.
func (s *Service) markFailed(fileID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.SetFileFailed(ctx, fileID); err != nil {
		slog.Error("failed to mark file failed", "file_id", fileID, "error", err)
	}
}

func (s *Service) recordTiming(extractor extract.Extractor, duration time.Duration) {
	if s.collector == nil {
		return
	}
	switch extractor.(type) {
	case extract.PDF:
		s.collector.RecordTiming(metrics.OpExtractPDF, duration)
	case extract.PPTX:
		s.collector.RecordTiming(metrics.OpExtractPPTX, duration)
	}
}

// Wait blocks until all in-flight extraction attempts have finished. Used
// during shutdown and in tests.
func (s *Service) Wait() {
	s.wg.Wait()
}
