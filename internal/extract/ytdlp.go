package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ytget/yt-downloader-bot/internal/model"
	"github.com/ytget/yt-downloader-bot/internal/platform"
)

// Default values
const (
	DefaultTitle        = "video"
	DefaultAudioQuality = "192"
)

// yt-dlp format selectors
const (
	AudioFormatSelector = "bestaudio/best"
	VideoFormatSelector = "bestvideo+bestaudio/best"
	OutputExtTemplate   = ".%(ext)s"
)

// User-facing failure details
const (
	detailProbe    = "could not read media information"
	detailDownload = "could not download the media"
	detailNoFile   = "download finished without producing a file"
	detailDir      = "artifact directory is unavailable"
)

type (
	probeFunc    func(ctx context.Context, url string) ([]byte, error)
	downloadFunc func(ctx context.Context, url string, mode model.Mode, outputTemplate string) error
)

// YTDLP implements Extractor on top of the yt-dlp binary
type YTDLP struct {
	dir          string
	audioQuality string

	probe    probeFunc
	download downloadFunc
	chtimes  func(name string, atime, mtime time.Time) error
	now      func() time.Time
}

// NewYTDLP creates an extractor writing artifacts into dir.
// audioQuality is a bitrate in kbit/s such as "192".
func NewYTDLP(dir, audioQuality string) *YTDLP {
	if audioQuality == "" {
		audioQuality = DefaultAudioQuality
	}
	y := &YTDLP{
		dir:          dir,
		audioQuality: audioQuality,
		chtimes:      os.Chtimes,
		now:          time.Now,
	}
	y.probe = y.runProbe
	y.download = y.runDownload
	return y
}

// Dir returns the artifact directory
func (y *YTDLP) Dir() string {
	return y.dir
}

// probeOutput is the subset of yt-dlp's info JSON we need
type probeOutput struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// Probe implements Extractor
func (y *YTDLP) Probe(ctx context.Context, ref model.SourceReference) (*model.MediaInfo, error) {
	raw, err := y.probe(ctx, ref.String())
	if err != nil {
		return nil, model.NewExtractionError("probe", detailProbe, err)
	}

	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, model.NewExtractionError("probe", detailProbe, fmt.Errorf("decode info json: %w", err))
	}

	// the raw title is kept so the file name is exactly its sanitized form
	title := out.Title
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	return &model.MediaInfo{Title: title, DurationSeconds: int(out.Duration)}, nil
}

// Fetch implements Extractor
func (y *YTDLP) Fetch(ctx context.Context, ref model.SourceReference, mode model.Mode) (*model.Artifact, error) {
	if !mode.IsValid() {
		return nil, model.NewExtractionError("fetch", fmt.Sprintf("unsupported mode %q", mode), nil)
	}

	info, err := y.Probe(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := platform.CreateDirectoryIfNotExists(y.dir); err != nil {
		return nil, model.NewFilesystemError("mkdir", detailDir, err)
	}

	safe := platform.SanitizeName(info.Title)
	target, err := platform.ArtifactPath(y.dir, safe, mode.Extension())
	if err != nil {
		return nil, model.NewFilesystemError("path", detailDir, err)
	}
	template := platform.EscapeOutputTemplate(strings.TrimSuffix(target, "."+mode.Extension())) + OutputExtTemplate

	if err := y.download(ctx, ref.String(), mode, template); err != nil {
		if rmErr := platform.RemovePartials(target); rmErr != nil {
			log.Printf("ERROR: cleanup after failed fetch %s: %v", target, rmErr)
		}
		return nil, model.NewExtractionError("fetch", detailDownload, err)
	}

	stat, err := os.Stat(target)
	if err != nil {
		return nil, model.NewExtractionError("fetch", detailNoFile, err)
	}

	// yt-dlp may copy the upload date into mtime; the sweep relies on it
	created := y.now()
	if err := y.chtimes(target, created, created); err != nil {
		if rmErr := platform.RemovePartials(target); rmErr != nil {
			log.Printf("ERROR: cleanup after failed fetch %s: %v", target, rmErr)
		}
		return nil, model.NewFilesystemError("chtimes", detailDir, err)
	}

	return &model.Artifact{
		Path:      target,
		SizeBytes: stat.Size(),
		CreatedAt: created,
	}, nil
}

func (y *YTDLP) runProbe(ctx context.Context, url string) ([]byte, error) {
	result, err := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		NoPlaylist().
		NoWarnings().
		Run(ctx, url)
	if err != nil {
		return nil, err
	}
	return []byte(result.Stdout), nil
}

func (y *YTDLP) runDownload(ctx context.Context, url string, mode model.Mode, outputTemplate string) error {
	dl := ytdlp.New().
		NoPlaylist().
		NoWarnings().
		ForceOverwrites().
		Output(outputTemplate).
		Format(formatSelector(mode))

	switch mode {
	case model.ModeAudio:
		dl = dl.ExtractAudio().
			AudioFormat(model.ExtensionAudio).
			AudioQuality(audioQualityArg(y.audioQuality))
	default:
		dl = dl.MergeOutputFormat(model.ExtensionVideo).
			RemuxVideo(model.ExtensionVideo)
	}

	_, err := dl.Run(ctx, url)
	return err
}

// formatSelector returns the yt-dlp -f value for mode. The video container
// is fixed by merging and remuxing, not by the selector.
func formatSelector(mode model.Mode) string {
	if mode == model.ModeAudio {
		return AudioFormatSelector
	}
	return VideoFormatSelector
}

// audioQualityArg turns a plain bitrate into yt-dlp's "<n>K" form.
// Values 0..10 are VBR levels and pass through unchanged.
func audioQualityArg(q string) string {
	q = strings.TrimSpace(q)
	n := 0
	if _, err := fmt.Sscanf(q, "%d", &n); err != nil || fmt.Sprint(n) != q {
		return q
	}
	if n <= 10 {
		return q
	}
	return q + "K"
}
