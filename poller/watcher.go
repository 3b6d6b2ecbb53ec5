package poller

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/raushankrgupta/fitly-client/models"
)

// State is a snapshot of what a Watcher knows about its current job.
type State struct {
	JobID    int64
	Phase    Phase
	Status   models.JobState
	Progress int
	Result   json.RawMessage
	Err      error
}

// Watcher runs at most one poll loop at a time on behalf of a consumer such
// as a screen showing job progress. Starting a new job replaces the old one.
//
// onUpdate is called from the poll goroutine. It must not call Watch or Stop.
type Watcher struct {
	src      Source
	opts     Options
	onUpdate func(State)

	ctl sync.Mutex // serializes Watch and Stop

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher returns an idle watcher that polls src with opts and reports
// every state change to onUpdate.
func NewWatcher(src Source, opts Options, onUpdate func(State)) *Watcher {
	return &Watcher{
		src:      src,
		opts:     opts,
		onUpdate: onUpdate,
		state:    State{Phase: PhaseIdle},
	}
}

// Watch starts polling jobID. Any loop for a previous job is cancelled and
// has fully exited before Watch returns, so no update for the old job is
// delivered afterwards. Watching the job already being polled is a no-op.
func (w *Watcher) Watch(ctx context.Context, jobID int64) {
	w.ctl.Lock()
	defer w.ctl.Unlock()

	w.mu.Lock()
	same := w.state.JobID == jobID && w.state.Phase == PhasePolling
	w.mu.Unlock()
	if same {
		return
	}
	w.stopLocked()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.mu.Lock()
	w.cancel = cancel
	w.done = done
	w.state = State{JobID: jobID, Phase: PhasePolling, Status: models.JobPending}
	snap := w.state
	w.mu.Unlock()

	w.emit(snap)
	go w.run(loopCtx, jobID, done)
}

// Stop cancels the current loop and waits for it to exit. The state goes
// back to IDLE without an update being delivered.
func (w *Watcher) Stop() {
	w.ctl.Lock()
	defer w.ctl.Unlock()
	w.stopLocked()
}

func (w *Watcher) stopLocked() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done

	w.mu.Lock()
	if w.state.Phase == PhasePolling {
		w.state.Phase = PhaseIdle
	}
	w.mu.Unlock()
}

// State returns the latest snapshot.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Wait blocks until the current loop ends and returns the final state.
func (w *Watcher) Wait() State {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done != nil {
		<-done
	}
	return w.State()
}

func (w *Watcher) run(ctx context.Context, jobID int64, done chan struct{}) {
	defer close(done)

	opts := w.opts
	userProgress := opts.OnProgress
	opts.OnProgress = func(st models.JobStatus) {
		w.apply(ctx, func(s *State) {
			s.Status = st.Status
			s.Progress = st.Progress
		})
		if userProgress != nil {
			userProgress(st)
		}
	}

	res, err := Poll(ctx, jobID, w.src, opts)
	if ctx.Err() != nil {
		w.mu.Lock()
		if w.state.Phase == PhasePolling {
			w.state.Phase = PhaseIdle
		}
		w.mu.Unlock()
		return
	}
	w.apply(ctx, func(s *State) {
		s.Phase = PhaseOf(err)
		s.Err = err
		if err == nil {
			s.Result = res
			s.Status = models.JobDone
			s.Progress = 100
		}
	})
}

// apply mutates the state and emits it unless ctx was cancelled.
func (w *Watcher) apply(ctx context.Context, mutate func(*State)) {
	w.mu.Lock()
	if ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	mutate(&w.state)
	snap := w.state
	w.mu.Unlock()
	w.emit(snap)
}

func (w *Watcher) emit(s State) {
	if w.onUpdate != nil {
		w.onUpdate(s)
	}
}
