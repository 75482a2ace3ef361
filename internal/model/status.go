package model

// JobStatus represents the status of a download job
type JobStatus string

const (
	// JobStatusPending means the job waits for a free worker slot
	JobStatusPending JobStatus = "Pending"

	// JobStatusRunning means the extraction is in progress
	JobStatusRunning JobStatus = "Running"

	// JobStatusCompleted means the job produced an artifact
	JobStatusCompleted JobStatus = "Completed"

	// JobStatusFailed means the job finished with an error
	JobStatusFailed JobStatus = "Failed"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true if the job occupies or waits for a worker
func (js JobStatus) IsActive() bool {
	return js == JobStatusPending || js == JobStatusRunning
}

// IsFinished returns true if the job is in a terminal state
func (js JobStatus) IsFinished() bool {
	return js == JobStatusCompleted || js == JobStatusFailed
}
