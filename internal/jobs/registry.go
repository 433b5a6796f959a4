package jobs

import (
	"context"

	"github.com/amankumarsingh77/ffserve/internal/models"
	"github.com/google/uuid"
)

// Registry is the shared table of live jobs. Every method is atomic with
// respect to every other; returned jobs are copies.
type Registry interface {
	Insert(job *models.Job)
	Get(id uuid.UUID) (*models.Job, bool)
	// UpdateState sets state and error message, stamping CompletedAt when the
	// new state is terminal, and returns the updated copy.
	UpdateState(id uuid.UUID, state models.JobState, errorMessage string) (*models.Job, bool)
	// Remove reports whether id was present.
	Remove(id uuid.UUID) bool
	Snapshot() []*models.Job
	Len() int
}

// Queue hands job ids from ingestion to the worker in FIFO order.
type Queue interface {
	// Push blocks while the queue is full. It fails with ErrQueueClosed once
	// the consumer has stopped.
	Push(ctx context.Context, id uuid.UUID) error
	Len() int
}
