package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobState enumerates job lifecycle states.
type JobState string

const (
	JobSubmitted JobState = "submitted"
	JobPolling   JobState = "polling"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobTimedOut  JobState = "timed_out"
	JobCancelled JobState = "cancelled"
)

// Terminal reports whether no further transition may leave s.
func (s JobState) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobTimedOut, JobCancelled:
		return true
	default:
		return false
	}
}

// StrategyKind names the execution path a job ran under.
type StrategyKind string

const (
	StrategyPrimary   StrategyKind = "primary"
	StrategySecondary StrategyKind = "secondary"
	StrategyMock      StrategyKind = "mock"
)

// Job is one in-flight generation. A Job is owned by exactly one poll loop and
// is never mutated concurrently.
type Job struct {
	ID             string
	ProviderHandle string
	State          JobState
	Strategy       StrategyKind
	PollCount      int
	MaxPolls       int
	ResultAssetURI string
	Err            error
	CreatedAt      time.Time
	FinishedAt     time.Time
}

// NewJob creates a job in the Submitted state for a handle returned by submit.
func NewJob(handle string, maxPolls int) *Job {
	if maxPolls < 1 {
		maxPolls = 1
	}
	return &Job{
		ID:             uuid.NewString(),
		ProviderHandle: handle,
		State:          JobSubmitted,
		MaxPolls:       maxPolls,
		CreatedAt:      time.Now().UTC(),
	}
}

// StartPolling moves a submitted job into Polling.
func (j *Job) StartPolling() error {
	return j.transition(JobSubmitted, JobPolling)
}

// RecordPoll counts one non-terminal poll iteration and reports whether the
// budget is exhausted. Exhaustion moves the job to TimedOut.
func (j *Job) RecordPoll() (exhausted bool, err error) {
	if j.State != JobPolling {
		return false, fmt.Errorf("job %s: poll recorded in state %s", j.ID, j.State)
	}
	j.PollCount++
	if j.PollCount >= j.MaxPolls {
		j.Err = Errorf(KindTimedOut, "no result after %d polls", j.PollCount)
		return true, j.transition(JobPolling, JobTimedOut)
	}
	return false, nil
}

// Complete records the produced asset URI.
func (j *Job) Complete(assetURI string) error {
	if assetURI == "" {
		return j.Fail(Errorf(KindEmptyResult, "operation finished without an asset"))
	}
	if err := j.transition(JobPolling, JobCompleted); err != nil {
		return err
	}
	j.ResultAssetURI = assetURI
	return nil
}

// Fail records a classified failure. A Submitted job may fail directly when
// the very first step is rejected.
func (j *Job) Fail(reason error) error {
	from := j.State
	if from != JobPolling && from != JobSubmitted {
		return fmt.Errorf("job %s: cannot fail from %s", j.ID, from)
	}
	j.Err = reason
	return j.transition(from, JobFailed)
}

// Cancel ends the job without further I/O.
func (j *Job) Cancel(cause error) error {
	from := j.State
	if from.Terminal() {
		return fmt.Errorf("job %s: cannot cancel from %s", j.ID, from)
	}
	j.Err = NewError(KindCancelled, "job abandoned by caller", cause)
	return j.transition(from, JobCancelled)
}

func (j *Job) transition(from, to JobState) error {
	if j.State != from {
		return fmt.Errorf("job %s: illegal transition %s -> %s", j.ID, j.State, to)
	}
	j.State = to
	if to.Terminal() {
		j.FinishedAt = time.Now().UTC()
	}
	return nil
}

// Duration is the wall-clock time spent on the job so far.
func (j *Job) Duration() time.Duration {
	end := j.FinishedAt
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return end.Sub(j.CreatedAt)
}
