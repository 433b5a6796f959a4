package models

import (
	"time"

	"github.com/google/uuid"
)

type JobState string

const (
	JobStateWaiting    JobState = "Waiting"
	JobStateProcessing JobState = "Processing"
	JobStateDone       JobState = "Done"
	JobStateError      JobState = "Error"
	// JobStateExpired is never stored; it only labels the event emitted when
	// a finished job is reaped.
	JobStateExpired JobState = "Expired"
)

// IsTerminal reports whether no further worker transitions happen from s.
func (s JobState) IsTerminal() bool {
	return s == JobStateDone || s == JobStateError
}

type Job struct {
	ID           uuid.UUID  `json:"id"`
	SourceURL    string     `json:"source_url"`
	DestURL      string     `json:"dest_url"`
	State        JobState   `json:"state"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewJob builds a Waiting job with a fresh v4 identifier.
func NewJob(sourceURL, destURL string) *Job {
	return &Job{
		ID:        uuid.New(),
		SourceURL: sourceURL,
		DestURL:   destURL,
		State:     JobStateWaiting,
		CreatedAt: time.Now(),
	}
}

// Expired reports whether the job finished more than retention before now.
func (j *Job) Expired(now time.Time, retention time.Duration) bool {
	if !j.State.IsTerminal() || j.CompletedAt == nil {
		return false
	}
	return now.Sub(*j.CompletedAt) > retention
}

// JobEvent is published whenever a job changes state.
type JobEvent struct {
	JobID        string    `json:"job_id"`
	State        JobState  `json:"state"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewJobEvent(job *Job) JobEvent {
	return JobEvent{
		JobID:        job.ID.String(),
		State:        job.State,
		ErrorMessage: job.ErrorMessage,
		Timestamp:    time.Now(),
	}
}
