package platform

// Package platform contains filesystem and naming glue shared by the
// extraction adapter and the retention store: safe file names derived from
// media titles, artifact directory helpers and human-readable durations.
