package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one document waiting to be ingested.
type Job struct {
	ID          uuid.UUID
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

// Handler processes one job. Errors are logged by the queue; there is no
// retry at this layer.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
