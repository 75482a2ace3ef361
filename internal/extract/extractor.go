package extract

import (
	"context"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Extractor retrieves media for a source reference.
// Every failure is reported as a *model.Error.
type Extractor interface {
	// Probe returns the title and duration without downloading
	Probe(ctx context.Context, ref model.SourceReference) (*model.MediaInfo, error)

	// Fetch probes, downloads and transcodes ref according to mode and
	// returns the artifact written to the artifact directory
	Fetch(ctx context.Context, ref model.SourceReference, mode model.Mode) (*model.Artifact, error)
}
