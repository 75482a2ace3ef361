package retention

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ytget/yt-downloader-bot/internal/model"
	"github.com/ytget/yt-downloader-bot/internal/platform"
)

// Default thresholds
const (
	DefaultDeleteAfter = 4 * time.Hour
	DefaultStaleAfter  = 24 * time.Hour
)

// Options configures a Store
type Options struct {
	// Dir is the flat artifact directory
	Dir string

	// DeleteAfter is the delay between artifact creation and its deletion
	DeleteAfter time.Duration

	// StaleAfter is the age past which the sweep removes any file
	StaleAfter time.Duration

	// Journal persists pending deadlines. Optional.
	Journal Journal

	// Now overrides the clock, used by tests
	Now func() time.Time
}

// Validate checks the retention thresholds
func (o Options) Validate() error {
	if o.Dir == "" {
		return fmt.Errorf("artifact directory is required")
	}
	if o.DeleteAfter <= 0 {
		return fmt.Errorf("delete delay must be positive, got %s", o.DeleteAfter)
	}
	if o.StaleAfter <= o.DeleteAfter {
		return fmt.Errorf("staleness threshold %s must exceed delete delay %s", o.StaleAfter, o.DeleteAfter)
	}
	return nil
}

// SweepReport summarizes one sweep
type SweepReport struct {
	Scanned  int
	Removed  []string
	Partials int // removed files that were unfinished downloads
	Failed   int
}

// Store schedules and performs artifact deletion
type Store struct {
	opts Options

	mu     sync.Mutex
	timers map[uint64]*time.Timer
	nextID uint64
	closed bool
}

// Open validates opts, creates the artifact directory if needed and returns
// a ready Store. Zero thresholds fall back to the defaults.
func Open(opts Options) (*Store, error) {
	if opts.DeleteAfter == 0 {
		opts.DeleteAfter = DefaultDeleteAfter
	}
	if opts.StaleAfter == 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := platform.CreateDirectoryIfNotExists(opts.Dir); err != nil {
		return nil, model.NewFilesystemError("mkdir", "artifact directory is unavailable", err)
	}

	return &Store{
		opts:   opts,
		timers: make(map[uint64]*time.Timer),
	}, nil
}

// Dir returns the artifact directory
func (s *Store) Dir() string {
	return s.opts.Dir
}

// DeleteAfter returns the configured deletion delay
func (s *Store) DeleteAfter() time.Duration {
	return s.opts.DeleteAfter
}

// Schedule arranges exactly one deletion of artifact at CreatedAt plus the
// delete delay. A deadline in the past fires immediately. Scheduling is never
// cancelled and never fails; journal errors are logged.
func (s *Store) Schedule(artifact *model.Artifact) {
	if artifact == nil || artifact.Path == "" {
		return
	}
	created := artifact.CreatedAt
	if created.IsZero() {
		created = s.opts.Now()
	}
	entry := Entry{Path: artifact.Path, DeleteAt: created.Add(s.opts.DeleteAfter)}

	if s.opts.Journal != nil {
		if err := s.opts.Journal.Record(context.Background(), entry); err != nil {
			log.Printf("ERROR: journal deadline for %s: %v", entry.Path, err)
		}
	}
	s.arm(entry)
}

// Recover re-arms every deadline found in the journal. Entries whose file is
// already gone are dropped. Returns the number of re-armed deadlines.
func (s *Store) Recover(ctx context.Context) (int, error) {
	if s.opts.Journal == nil {
		return 0, nil
	}
	entries, err := s.opts.Journal.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list journaled deadlines: %w", err)
	}

	armed := 0
	for _, entry := range entries {
		if _, err := os.Stat(entry.Path); os.IsNotExist(err) {
			if err := s.opts.Journal.Forget(ctx, entry); err != nil {
				log.Printf("ERROR: forget deadline for %s: %v", entry.Path, err)
			}
			continue
		}
		s.arm(entry)
		armed++
	}
	return armed, nil
}

// Sweep removes every regular file in the artifact directory whose
// modification time is older than the staleness threshold relative to now
func (s *Store) Sweep(now time.Time) (SweepReport, error) {
	var report SweepReport

	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return report, model.NewFilesystemError("sweep", "artifact directory is unreadable", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed concurrently
			continue
		}
		report.Scanned++

		if now.Sub(info.ModTime()) <= s.opts.StaleAfter {
			continue
		}
		path := filepath.Join(s.opts.Dir, entry.Name())
		if err := platform.RemoveIfExists(path); err != nil {
			log.Printf("ERROR: sweep %s: %v", path, err)
			report.Failed++
			continue
		}
		report.Removed = append(report.Removed, path)
		if platform.IsPartialFile(entry.Name()) {
			report.Partials++
		}
	}
	return report, nil
}

// Pending returns the number of armed deletion timers
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close stops all timers, as a process exit would, and closes the journal.
// Journaled deadlines stay on disk for Recover.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	if s.opts.Journal != nil {
		return s.opts.Journal.Close()
	}
	return nil
}

func (s *Store) arm(entry Entry) {
	delay := entry.DeleteAt.Sub(s.opts.Now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Printf("ERROR: store closed, deletion of %s left to the sweep", entry.Path)
		return
	}
	s.nextID++
	id := s.nextID
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		s.delete(entry)
	})
}

// delete performs one best-effort removal. A missing file counts as success.
func (s *Store) delete(entry Entry) {
	if err := platform.RemoveIfExists(entry.Path); err != nil {
		log.Printf("ERROR: delete %s: %v", entry.Path, err)
	} else {
		log.Printf("INFO: %s %s", entry.Path, model.ArtifactDeleted)
	}
	if s.opts.Journal != nil {
		if err := s.opts.Journal.Forget(context.Background(), entry); err != nil {
			log.Printf("ERROR: forget deadline for %s: %v", entry.Path, err)
		}
	}
}
