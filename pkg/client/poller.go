package client

import (
	"context"
	"errors"
	"time"
)

// State describes where the poller is in the exam's lifecycle.
type State int

const (
	// StateIdle means polling has not started.
	StateIdle State = iota
	// StateLoading means the first fetch is in flight.
	StateLoading
	// StateGenerating means the exam exists but is not finished.
	StateGenerating
	// StateCompleted means the exam content is ready.
	StateCompleted
	// StateError means generation ended in a failure the exam row reports.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateGenerating:
		return "generating"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrWaitExpired is returned when the exam did not reach a terminal state
// within the poller's maximum wait.
var ErrWaitExpired = errors.New("exam generation did not finish in time")

// Snapshot is the poller's view of the exam after a fetch.
type Snapshot struct {
	State State
	Exam  *Exam
}

// PollerConfig tunes the polling loop. Zero values use the defaults the
// web client ships with: fetch every 7 seconds, give up after 30 minutes.
type PollerConfig struct {
	Interval time.Duration
	MaxWait  time.Duration

	// OnUpdate, if set, is called after every fetch with the fresh
	// snapshot. Called from the polling goroutine.
	OnUpdate func(Snapshot)
}

const (
	defaultPollInterval = 7 * time.Second
	defaultMaxWait      = 30 * time.Minute
)

// Poller repeatedly fetches one exam until it is terminal. Fetches run
// strictly one at a time: a fetch slower than the interval delays the next
// tick instead of stacking requests.
type Poller struct {
	client *Client
	cfg    PollerConfig
}

// NewPoller creates a Poller on top of an authenticated Client.
func NewPoller(client *Client, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaultMaxWait
	}
	return &Poller{client: client, cfg: cfg}
}

// Run polls until the exam reaches a terminal state, the context is
// cancelled or MaxWait elapses. The first fetch happens immediately. After
// a terminal snapshot no further fetch is made.
func (p *Poller) Run(ctx context.Context, hexCode string) (Snapshot, error) {
	deadline := time.Now().Add(p.cfg.MaxWait)

	p.notify(Snapshot{State: StateLoading})

	snap, err := p.fetch(ctx, hexCode)
	if err != nil {
		return Snapshot{State: StateError}, err
	}
	if snap.State == StateCompleted || snap.State == StateError {
		return snap, nil
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return snap, ErrWaitExpired
			}

			snap, err = p.fetch(ctx, hexCode)
			if err != nil {
				return Snapshot{State: StateError}, err
			}
			if snap.State == StateCompleted || snap.State == StateError {
				return snap, nil
			}
		}
	}
}

// fetch performs one GetExam and maps it onto a snapshot.
func (p *Poller) fetch(ctx context.Context, hexCode string) (Snapshot, error) {
	exam, err := p.client.GetExam(ctx, hexCode)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Exam: exam}
	switch exam.Status {
	case StatusCompleted:
		snap.State = StateCompleted
	case StatusError:
		snap.State = StateError
	default:
		snap.State = StateGenerating
	}

	p.notify(snap)
	return snap, nil
}

func (p *Poller) notify(snap Snapshot) {
	if p.cfg.OnUpdate != nil {
		p.cfg.OnUpdate(snap)
	}
}
