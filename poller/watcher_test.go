package poller

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-client/models"
)

type recorder struct {
	mu      sync.Mutex
	updates []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, s)
}

func (r *recorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.updates...)
}

// rawSource reports RUNNING forever for job 1 and DONE for any other job.
type rawSource struct{}

func (rawSource) Status(_ context.Context, jobID int64) (models.JobStatus, error) {
	if jobID == 1 {
		return models.JobStatus{Status: models.JobRunning, Progress: 10}, nil
	}
	return models.JobStatus{Status: models.JobDone, Progress: 100}, nil
}

func (rawSource) Result(context.Context, int64) (json.RawMessage, error) {
	return json.RawMessage(`{"ok":true}`), nil
}

func TestWatcherCompletes(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(rawSource{}, fastOpts(), rec.record)
	w.Watch(context.Background(), 2)

	final := w.Wait()
	require.Equal(t, PhaseDone, final.Phase)
	require.Equal(t, int64(2), final.JobID)
	require.JSONEq(t, `{"ok":true}`, string(final.Result))
	require.NoError(t, final.Err)

	updates := rec.snapshot()
	require.Equal(t, PhasePolling, updates[0].Phase)
	require.Equal(t, PhaseDone, updates[len(updates)-1].Phase)
}

func TestWatcherReplacingJobSilencesOldJob(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(rawSource{}, fastOpts(), rec.record)

	w.Watch(context.Background(), 1)
	time.Sleep(20 * time.Millisecond)
	w.Watch(context.Background(), 2)
	boundary := len(rec.snapshot())

	final := w.Wait()
	require.Equal(t, PhaseDone, final.Phase)

	updates := rec.snapshot()
	require.Greater(t, boundary, 1, "job 1 reported progress before being replaced")
	for _, u := range updates[boundary-1:] {
		require.Equal(t, int64(2), u.JobID)
	}
}

func TestWatcherStop(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(rawSource{}, fastOpts(), rec.record)

	w.Watch(context.Background(), 1)
	time.Sleep(10 * time.Millisecond)
	w.Stop()
	count := len(rec.snapshot())

	time.Sleep(20 * time.Millisecond)
	require.Len(t, rec.snapshot(), count)
	require.Equal(t, PhaseIdle, w.State().Phase)

	w.Stop()
}

func TestWatcherSameJobIsNoop(t *testing.T) {
	rec := &recorder{}
	w := NewWatcher(rawSource{}, fastOpts(), rec.record)
	defer w.Stop()

	w.Watch(context.Background(), 1)
	w.Watch(context.Background(), 1)

	polling := 0
	for _, u := range rec.snapshot() {
		if u.Phase == PhasePolling && u.Progress == 0 {
			polling++
		}
	}
	require.Equal(t, 1, polling)
}

func TestWatcherTimeout(t *testing.T) {
	opts := fastOpts()
	opts.Timeout = 30 * time.Millisecond
	w := NewWatcher(rawSource{}, opts, nil)
	w.Watch(context.Background(), 1)

	final := w.Wait()
	require.Equal(t, PhaseTimedOut, final.Phase)
	require.ErrorIs(t, final.Err, ErrPollTimeout)
}

func TestWatcherParentCancelGoesIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(rawSource{}, fastOpts(), nil)
	w.Watch(ctx, 1)
	cancel()

	require.Equal(t, PhaseIdle, w.Wait().Phase)
}
