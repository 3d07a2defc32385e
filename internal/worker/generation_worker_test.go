package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiturprep/abitur-backend/internal/model"
)

type jobRecord struct {
	status  model.ExamJobStatus
	content string
	message string
}

// fakeJobStore records terminal writes and enforces the same monotonic
// guard as the SQL layer: a second terminal write does not apply.
type fakeJobStore struct {
	mu        sync.Mutex
	jobs      map[string]*jobRecord
	completed int
	failed    int
	writeErr  error
}

func newFakeJobStore(hexCodes ...string) *fakeJobStore {
	s := &fakeJobStore{jobs: make(map[string]*jobRecord)}
	for _, code := range hexCodes {
		s.jobs[code] = &jobRecord{status: model.ExamJobStatusGenerating, content: model.PlaceholderContent}
	}
	return s
}

func (s *fakeJobStore) MarkCompleted(_ context.Context, hexCode, content string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return false, s.writeErr
	}
	s.completed++
	job, ok := s.jobs[hexCode]
	if !ok || job.status != model.ExamJobStatusGenerating {
		return false, nil
	}
	job.status = model.ExamJobStatusCompleted
	job.content = content
	return true, nil
}

func (s *fakeJobStore) MarkError(_ context.Context, hexCode, message, content string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
	job, ok := s.jobs[hexCode]
	if !ok || job.status != model.ExamJobStatusGenerating {
		return false, nil
	}
	job.status = model.ExamJobStatusError
	job.message = message
	job.content = content
	return true, nil
}

func (s *fakeJobStore) record(hexCode string) jobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.jobs[hexCode]
}

// fakeCompleter answers with fixed content, an error, or blocks until the
// context expires.
type fakeCompleter struct {
	content string
	err     error
	block   bool
}

func (f *fakeCompleter) Complete(ctx context.Context, _, _ string) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func newTestWorker(store JobStore, llm Completer, timeout time.Duration) *GenerationWorker {
	return &GenerationWorker{
		jobs:     store,
		llm:      llm,
		policy:   bluemonday.UGCPolicy(),
		timeout:  timeout,
		queueKey: "test_queue",
		log:      zerolog.Nop(),
	}
}

func TestProcessSuccessWritesExactlyOnce(t *testing.T) {
	store := newFakeJobStore("AB12CD34")
	w := newTestWorker(store, &fakeCompleter{content: "<h1>Mathematik Grundkurs</h1>"}, time.Minute)

	w.process(context.Background(), &model.GenerationJob{HexCode: "AB12CD34"})

	job := store.record("AB12CD34")
	assert.Equal(t, model.ExamJobStatusCompleted, job.status)
	assert.Contains(t, job.content, "Mathematik Grundkurs")
	assert.Equal(t, 1, store.completed)
	assert.Equal(t, 0, store.failed)
}

func TestProcessSanitizesCompletion(t *testing.T) {
	store := newFakeJobStore("AB12CD34")
	w := newTestWorker(store, &fakeCompleter{
		content: `<h1>Aufgabe 1</h1><script>alert("x")</script><p onclick="evil()">Text</p>`,
	}, time.Minute)

	w.process(context.Background(), &model.GenerationJob{HexCode: "AB12CD34"})

	job := store.record("AB12CD34")
	require.Equal(t, model.ExamJobStatusCompleted, job.status)
	assert.Contains(t, job.content, "<h1>Aufgabe 1</h1>")
	assert.NotContains(t, job.content, "<script>")
	assert.NotContains(t, job.content, "onclick")
}

func TestProcessFailureWritesSingleError(t *testing.T) {
	store := newFakeJobStore("AB12CD34")
	w := newTestWorker(store, &fakeCompleter{err: errors.New("connection refused")}, time.Minute)

	w.process(context.Background(), &model.GenerationJob{HexCode: "AB12CD34"})

	job := store.record("AB12CD34")
	assert.Equal(t, model.ExamJobStatusError, job.status)
	assert.Contains(t, job.message, "connection refused")
	assert.Contains(t, job.content, "Fehler bei der Prüfungsgenerierung")
	assert.Equal(t, 0, store.completed)
	assert.Equal(t, 1, store.failed)
}

func TestProcessTimeoutBecomesTerminalError(t *testing.T) {
	store := newFakeJobStore("AB12CD34")
	w := newTestWorker(store, &fakeCompleter{block: true}, 20*time.Millisecond)

	w.process(context.Background(), &model.GenerationJob{HexCode: "AB12CD34"})

	job := store.record("AB12CD34")
	assert.Equal(t, model.ExamJobStatusError, job.status)
	assert.Contains(t, job.message, "Zeitüberschreitung")
}

func TestProcessDiscardsWhenAlreadyTerminal(t *testing.T) {
	store := newFakeJobStore("AB12CD34")
	store.jobs["AB12CD34"].status = model.ExamJobStatusError
	store.jobs["AB12CD34"].message = "original failure"
	w := newTestWorker(store, &fakeCompleter{content: "late completion"}, time.Minute)

	w.process(context.Background(), &model.GenerationJob{HexCode: "AB12CD34"})

	// Status never reverts out of a terminal state.
	job := store.record("AB12CD34")
	assert.Equal(t, model.ExamJobStatusError, job.status)
	assert.Equal(t, "original failure", job.message)
}

func TestFailedJobDoesNotTouchOtherJobs(t *testing.T) {
	store := newFakeJobStore("AAAA1111", "BBBB2222")
	failing := newTestWorker(store, &fakeCompleter{err: errors.New("boom")}, time.Minute)
	succeeding := newTestWorker(store, &fakeCompleter{content: "<p>ok</p>"}, time.Minute)

	failing.process(context.Background(), &model.GenerationJob{HexCode: "AAAA1111"})
	succeeding.process(context.Background(), &model.GenerationJob{HexCode: "BBBB2222"})

	a := store.record("AAAA1111")
	b := store.record("BBBB2222")
	assert.Equal(t, model.ExamJobStatusError, a.status)
	assert.Equal(t, model.ExamJobStatusCompleted, b.status)
	assert.Contains(t, b.content, "ok")
	assert.Empty(t, b.message)
}

func TestCompletionWriteFailureFallsBackToErrorWrite(t *testing.T) {
	store := newFakeJobStore("AB12CD34")
	store.writeErr = errors.New("connection reset")
	w := newTestWorker(store, &fakeCompleter{content: "<p>fine</p>"}, time.Minute)

	w.process(context.Background(), &model.GenerationJob{HexCode: "AB12CD34"})

	// MarkCompleted failed, so the compensating error write ran.
	job := store.record("AB12CD34")
	assert.Equal(t, model.ExamJobStatusError, job.status)
	assert.Equal(t, 1, store.failed)
}
