package async

import (
	"context"
	"errors"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is a named unit of work. SubmittedAt and TraceID are filled on enqueue when empty.
type Job struct {
	Name        string
	Run         func(ctx context.Context) error
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Flush(ctx context.Context) error
	Shutdown(ctx context.Context)
}
