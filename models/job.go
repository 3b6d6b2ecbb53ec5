package models

import (
	"encoding/json"
	"fmt"
)

// JobState is the canonical status string the backend reports for a job.
type JobState string

const (
	JobPending JobState = "PENDING"
	JobRunning JobState = "RUNNING"
	JobDone    JobState = "DONE"
	JobFailed  JobState = "FAILED"
)

// Terminal reports whether no further transitions can occur.
func (s JobState) Terminal() bool {
	return s == JobDone || s == JobFailed
}

// Validate rejects states the backend is not expected to send.
func (s JobState) Validate() error {
	switch s {
	case JobPending, JobRunning, JobDone, JobFailed:
		return nil
	default:
		return fmt.Errorf("unknown job status %q", string(s))
	}
}

// JobKind names the backend queue a job belongs to.
type JobKind string

const (
	JobKindAnalysis JobKind = "analysis"
	JobKindTryOn    JobKind = "try-on"
)

// JobStatus is the body of a job status response.
type JobStatus struct {
	Status   JobState `json:"status"`
	Progress int      `json:"progress"`
}

// Job is the client's view of a server-side asynchronous task.
type Job struct {
	ID       int64           `json:"job_id"`
	Kind     JobKind         `json:"kind"`
	Status   JobState        `json:"status"`
	Progress int             `json:"progress"`
	Result   json.RawMessage `json:"result,omitempty"`
}

// JobSubmission is returned when a job is accepted.
type JobSubmission struct {
	JobID  int64    `json:"job_id"`
	Status JobState `json:"status,omitempty"`
}
