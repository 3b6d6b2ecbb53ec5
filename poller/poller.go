// Package poller watches asynchronous backend jobs (image analysis, virtual
// try-on) until they finish and fetches their result exactly once.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/raushankrgupta/fitly-client/models"
)

const (
	DefaultInterval = 500 * time.Millisecond
	DefaultTimeout  = 60 * time.Second
)

var (
	// ErrJobFailed means the backend reported FAILED. No result is fetched.
	ErrJobFailed = errors.New("job failed")
	// ErrPollTimeout means the job stayed non-terminal past the timeout.
	ErrPollTimeout = errors.New("timed out waiting for job")
)

// Source reads a job's status and result from the backend.
type Source interface {
	Status(ctx context.Context, jobID int64) (models.JobStatus, error)
	Result(ctx context.Context, jobID int64) (json.RawMessage, error)
}

// Phase is where a poll stands.
type Phase string

const (
	PhaseIdle     Phase = "IDLE"
	PhasePolling  Phase = "POLLING"
	PhaseDone     Phase = "DONE"
	PhaseFailed   Phase = "FAILED"
	PhaseTimedOut Phase = "TIMED_OUT"
)

// Terminal reports whether the phase ends the poll.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed || p == PhaseTimedOut
}

// Classifier maps a status read to the phase it implies.
type Classifier func(models.JobStatus) Phase

// DefaultClassifier treats DONE and FAILED as terminal and everything else,
// including statuses this client does not know, as still running.
func DefaultClassifier(st models.JobStatus) Phase {
	switch st.Status {
	case models.JobDone:
		return PhaseDone
	case models.JobFailed:
		return PhaseFailed
	default:
		return PhasePolling
	}
}

// Options configure a poll. Zero values select the defaults.
type Options struct {
	// Interval between the end of one status read and the next.
	Interval time.Duration
	// IntervalFunc, when set, overrides Interval using the time elapsed
	// since the first status read.
	IntervalFunc func(elapsed time.Duration) time.Duration
	// Timeout is wall clock from the first status read.
	Timeout  time.Duration
	Classify Classifier
	// Cache and Kind enable result reuse across polls of the same job.
	Cache Cache
	Kind  models.JobKind
	// OnProgress receives every successful status read.
	OnProgress func(models.JobStatus)
	// Retryable reports whether a failed status read is worth another try.
	// Nil retries every error until the timeout.
	Retryable func(error) bool
	Logger    *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Classify == nil {
		o.Classify = DefaultClassifier
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

func (o Options) nextInterval(elapsed time.Duration) time.Duration {
	if o.IntervalFunc != nil {
		if d := o.IntervalFunc(elapsed); d > 0 {
			return d
		}
	}
	return o.Interval
}

// Poll reads the job's status immediately and then after every interval
// until it is DONE or FAILED, the timeout passes, or ctx is cancelled. On
// DONE the result is fetched once and returned.
//
// Errors: ErrJobFailed, ErrPollTimeout, ctx.Err() on cancellation, the
// result fetch error, or a status read error that opts.Retryable rejects.
// Other status read errors are logged and polling continues.
func Poll(ctx context.Context, jobID int64, src Source, opts Options) (json.RawMessage, error) {
	opts = opts.withDefaults()
	cacheKey := CacheKey(opts.Kind, jobID)

	if opts.Cache != nil {
		if res, ok := opts.Cache.Get(cacheKey); ok {
			if opts.OnProgress != nil {
				opts.OnProgress(models.JobStatus{Status: models.JobDone, Progress: 100})
			}
			return res, nil
		}
	}

	start := time.Now()
	pollCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-pollCtx.Done():
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("job %d after %v: %w", jobID, opts.Timeout, ErrPollTimeout)
		case <-timer.C:
		}

		st, err := src.Status(pollCtx, jobID)
		if err != nil {
			if pollCtx.Err() == nil {
				if opts.Retryable != nil && !opts.Retryable(err) {
					return nil, fmt.Errorf("status of job %d: %w", jobID, err)
				}
				opts.Logger.Printf("[Poller] status check for job %d failed, retrying: %v", jobID, err)
			}
			timer.Reset(opts.nextInterval(time.Since(start)))
			continue
		}
		st.Progress = clampProgress(st.Progress)
		if opts.OnProgress != nil && ctx.Err() == nil {
			opts.OnProgress(st)
		}

		switch opts.Classify(st) {
		case PhaseDone:
			res, err := src.Result(ctx, jobID)
			if err != nil {
				return nil, fmt.Errorf("fetch result of job %d: %w", jobID, err)
			}
			if opts.Cache != nil {
				res = opts.Cache.Put(cacheKey, res)
			}
			return res, nil
		case PhaseFailed:
			return nil, fmt.Errorf("job %d: %w", jobID, ErrJobFailed)
		}

		timer.Reset(opts.nextInterval(time.Since(start)))
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// AdaptiveInterval starts at base and, once a job has been running for a
// while, grows linearly with elapsed time up to maxInterval.
func AdaptiveInterval(base, maxInterval time.Duration) func(time.Duration) time.Duration {
	const warmup = 10 * time.Second
	return func(elapsed time.Duration) time.Duration {
		if elapsed < warmup {
			return base
		}
		d := time.Duration(float64(base) * (1 + float64(elapsed-warmup)/float64(warmup)))
		if d > maxInterval {
			return maxInterval
		}
		return d
	}
}

// PhaseOf maps the error returned by Poll to the terminal phase it implies.
func PhaseOf(err error) Phase {
	switch {
	case err == nil:
		return PhaseDone
	case errors.Is(err, ErrPollTimeout):
		return PhaseTimedOut
	case errors.Is(err, context.Canceled):
		return PhaseIdle
	default:
		return PhaseFailed
	}
}
