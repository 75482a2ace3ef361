package retention

// Package retention owns the artifact directory. It schedules a single
// deletion for every artifact, sweeps stale files at startup and can keep
// pending deadlines in a SQLite journal so they survive a restart.
