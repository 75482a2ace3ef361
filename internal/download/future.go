package download

import (
	"context"
	"errors"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// ErrPending is returned by Result while the job is still running
var ErrPending = errors.New("job is still running")

// Future is the eventual outcome of one dispatched job
type Future struct {
	jobID    string
	done     chan struct{}
	artifact *model.Artifact
	err      error
}

func newFuture(jobID string) *Future {
	return &Future{jobID: jobID, done: make(chan struct{})}
}

// JobID returns the id of the job behind the future
func (f *Future) JobID() string {
	return f.jobID
}

// Done is closed once the job has finished
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the job finishes or ctx is done. Cancelling ctx only
// stops waiting; the job keeps running.
func (f *Future) Wait(ctx context.Context) (*model.Artifact, error) {
	select {
	case <-f.done:
		return f.artifact, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome without blocking
func (f *Future) Result() (*model.Artifact, error) {
	select {
	case <-f.done:
		return f.artifact, f.err
	default:
		return nil, ErrPending
	}
}

func (f *Future) resolve(artifact *model.Artifact, err error) {
	f.artifact = artifact
	f.err = err
	close(f.done)
}
