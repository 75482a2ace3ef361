package download

import (
	"context"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Dispatcher defines the interface the front-end uses to run jobs.
type Dispatcher interface {
	// Dispatch starts a job and returns immediately
	Dispatch(req model.JobRequest) *Future

	// Probe reads media metadata on the worker pool
	Probe(ctx context.Context, ref model.SourceReference) (*model.MediaInfo, error)
}

// Scheduler receives every artifact a job creates.
// retention.Store satisfies it.
type Scheduler interface {
	Schedule(artifact *model.Artifact)
}
