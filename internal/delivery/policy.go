package delivery

import (
	"fmt"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Size constants
const (
	BytesPerMiB      = 1024 * 1024
	DefaultThreshold = 50 * BytesPerMiB
)

// Decision tells the front-end how to hand an artifact to the user
type Decision int

const (
	// Immediate means the file is sent as a payload right away
	Immediate Decision = iota
	// RetainAndNotify means the file stays on disk and the user is told its name
	RetainAndNotify
)

// String returns a human-readable representation of Decision
func (d Decision) String() string {
	switch d {
	case Immediate:
		return "immediate"
	case RetainAndNotify:
		return "retain_and_notify"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// State returns the lifecycle state an artifact reaches once the decision
// has been carried out
func (d Decision) State() model.ArtifactState {
	if d == RetainAndNotify {
		return model.ArtifactRetainedNotified
	}
	return model.ArtifactDelivered
}

// Policy classifies artifacts by size. The zero value uses DefaultThreshold.
type Policy struct {
	Threshold int64
}

// NewPolicy creates a policy with the given threshold in bytes
func NewPolicy(threshold int64) Policy {
	return Policy{Threshold: threshold}
}

// Classify returns RetainAndNotify for artifacts strictly larger than the
// threshold and Immediate otherwise
func (p Policy) Classify(artifact *model.Artifact) Decision {
	if artifact.SizeBytes > p.threshold() {
		return RetainAndNotify
	}
	return Immediate
}

func (p Policy) threshold() int64 {
	if p.Threshold <= 0 {
		return DefaultThreshold
	}
	return p.Threshold
}
