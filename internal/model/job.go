package model

import (
	"strings"
	"time"
)

// SourceReference is an opaque identifier (URL) of a remote media item
type SourceReference string

// String returns the reference as a plain string
func (r SourceReference) String() string {
	return string(r)
}

// JobRequest is created per user action and consumed once by the dispatcher
type JobRequest struct {
	Source SourceReference
	Mode   Mode
}

// Job represents a single dispatched download
type Job struct {
	ID         string
	Request    JobRequest
	Status     JobStatus
	Artifact   *Artifact // set when Status is Completed
	LastError  string    // last error message if any
	StartedAt  time.Time // when the job was dispatched
	FinishedAt time.Time // when the job finished
}

// Elapsed returns how long the job ran, or has been running so far
func (j *Job) Elapsed() time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// GetDisplayTitle returns the artifact name without extension, or the source URL
func (j *Job) GetDisplayTitle() string {
	if j.Artifact != nil && j.Artifact.Path != "" {
		name := j.Artifact.Name()
		if idx := strings.LastIndex(name, "."); idx > 0 {
			name = name[:idx]
		}
		return name
	}
	return j.Request.Source.String()
}
