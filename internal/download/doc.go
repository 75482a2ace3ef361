package download

// Package download dispatches extraction jobs onto a bounded worker pool.
// Each job occupies one slot for the whole probe, download and transcode,
// hands its artifact to the retention scheduler and resolves a Future.
