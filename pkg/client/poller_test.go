package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// examServer serves GET /api/v1/exams/:hexcode, answering with a scripted
// sequence of statuses and counting every request.
type examServer struct {
	mu       sync.Mutex
	statuses []string // consumed one per request; last entry repeats
	requests int64
	server   *httptest.Server
}

func newExamServer(statuses ...string) *examServer {
	s := &examServer{statuses: statuses}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.requests, 1)

		s.mu.Lock()
		status := s.statuses[0]
		if len(s.statuses) > 1 {
			s.statuses = s.statuses[1:]
		}
		s.mu.Unlock()

		if status == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Prüfung nicht gefunden", "code": "NOT_FOUND"})
			return
		}

		exam := Exam{HexCode: "AB12CD34", Subject: "Mathematik", Status: status}
		if status == StatusCompleted {
			exam.Content = "<h1>Analysis</h1>"
		}
		_ = json.NewEncoder(w).Encode(exam)
	}))
	return s
}

func (s *examServer) count() int64 { return atomic.LoadInt64(&s.requests) }

func (s *examServer) close() { s.server.Close() }

func newTestPoller(s *examServer, cfg PollerConfig) *Poller {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Millisecond
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = time.Second
	}
	c := New(s.server.URL)
	c.SetToken("test-token")
	return NewPoller(c, cfg)
}

func TestPollerStopsOnCompletion(t *testing.T) {
	srv := newExamServer(StatusGenerating, StatusGenerating, StatusCompleted)
	defer srv.close()

	poller := newTestPoller(srv, PollerConfig{})
	snap, err := poller.Run(context.Background(), "AB12CD34")

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, snap.State)
	require.NotNil(t, snap.Exam)
	assert.Equal(t, "<h1>Analysis</h1>", snap.Exam.Content)

	// No fetches after the terminal snapshot.
	settled := srv.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, srv.count())
}

func TestPollerReportsGenerationError(t *testing.T) {
	srv := newExamServer(StatusGenerating, StatusError)
	defer srv.close()

	poller := newTestPoller(srv, PollerConfig{})
	snap, err := poller.Run(context.Background(), "AB12CD34")

	require.NoError(t, err)
	assert.Equal(t, StateError, snap.State)
}

func TestPollerTerminalOnFirstFetch(t *testing.T) {
	srv := newExamServer(StatusCompleted)
	defer srv.close()

	poller := newTestPoller(srv, PollerConfig{})
	snap, err := poller.Run(context.Background(), "AB12CD34")

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, snap.State)
	assert.EqualValues(t, 1, srv.count())
}

func TestPollerNotFoundStopsImmediately(t *testing.T) {
	srv := newExamServer("missing")
	defer srv.close()

	poller := newTestPoller(srv, PollerConfig{})
	_, err := poller.Run(context.Background(), "DEADBEEF")

	assert.ErrorIs(t, err, ErrExamNotFound)
	assert.EqualValues(t, 1, srv.count())
}

func TestPollerCancellation(t *testing.T) {
	srv := newExamServer(StatusGenerating)
	defer srv.close()

	ctx, cancel := context.WithCancel(context.Background())
	poller := newTestPoller(srv, PollerConfig{Interval: 20 * time.Millisecond})

	done := make(chan error, 1)
	go func() {
		_, err := poller.Run(ctx, "AB12CD34")
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancellation")
	}

	// The loop is gone: the request count stops moving.
	settled := srv.count()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, srv.count())
}

func TestPollerMaxWaitExpires(t *testing.T) {
	srv := newExamServer(StatusGenerating)
	defer srv.close()

	poller := newTestPoller(srv, PollerConfig{
		Interval: 10 * time.Millisecond,
		MaxWait:  35 * time.Millisecond,
	})
	snap, err := poller.Run(context.Background(), "AB12CD34")

	assert.ErrorIs(t, err, ErrWaitExpired)
	assert.Equal(t, StateGenerating, snap.State)
}

func TestPollerUpdateSequence(t *testing.T) {
	srv := newExamServer(StatusGenerating, StatusCompleted)
	defer srv.close()

	var mu sync.Mutex
	var states []State
	poller := newTestPoller(srv, PollerConfig{
		OnUpdate: func(snap Snapshot) {
			mu.Lock()
			states = append(states, snap.State)
			mu.Unlock()
		},
	})

	_, err := poller.Run(context.Background(), "AB12CD34")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(states), 3)
	assert.Equal(t, StateLoading, states[0])
	assert.Equal(t, StateGenerating, states[1])
	assert.Equal(t, StateCompleted, states[len(states)-1])
}

func TestClientGenerateExam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/exams", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Deutsch", body["subject"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"hexCode": "1A081B39",
			"message": "Ihre Prüfung wird im Hintergrund generiert",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("test-token")

	hexCode, err := c.GenerateExam(context.Background(), "Deutsch", "Grundkurs")
	require.NoError(t, err)
	assert.Equal(t, "1A081B39", hexCode)
}

func TestClientSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "Zu viele Anfragen. Bitte versuchen Sie es später erneut",
			"code":  "RATE_LIMIT_EXCEEDED",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Login(context.Background(), "anna@example.com", "pw")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", apiErr.Code)
}
