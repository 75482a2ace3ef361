package model

import (
	"path/filepath"
	"time"
)

// Artifact is a downloaded file on local storage. It is never mutated after
// creation; the retention store owns it until deletion.
type Artifact struct {
	Path      string
	SizeBytes int64
	CreatedAt time.Time
}

// Name returns the artifact file name without its directory
func (a *Artifact) Name() string {
	return filepath.Base(a.Path)
}

// DeleteAt returns the moment the artifact becomes due for deletion
func (a *Artifact) DeleteAt(retention time.Duration) time.Time {
	return a.CreatedAt.Add(retention)
}

// ArtifactState tracks where an artifact is in its lifecycle
type ArtifactState string

const (
	ArtifactCreated          ArtifactState = "created"
	ArtifactDelivered        ArtifactState = "delivered"
	ArtifactRetainedNotified ArtifactState = "retained_notified"
	ArtifactDeleted          ArtifactState = "deleted"
)

// CanTransition reports whether the lifecycle allows moving from s to next.
// Deletion runs on its own timer, so any live state may become Deleted.
func (s ArtifactState) CanTransition(next ArtifactState) bool {
	switch s {
	case ArtifactCreated:
		return next == ArtifactDelivered || next == ArtifactRetainedNotified || next == ArtifactDeleted
	case ArtifactDelivered, ArtifactRetainedNotified:
		return next == ArtifactDeleted
	default:
		return false
	}
}

// MediaInfo is the metadata returned by a probe, without downloading
type MediaInfo struct {
	Title           string
	DurationSeconds int
}
