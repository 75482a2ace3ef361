package download

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/ytget/yt-downloader-bot/internal/extract"
	"github.com/ytget/yt-downloader-bot/internal/model"
)

// Pool limits
const (
	DefaultMaxParallel = 2
	MaxParallelLimit   = 16
)

// JobIDPrefix prefixes every job id
const JobIDPrefix = "job-"

// Service runs extraction jobs on a bounded pool
type Service struct {
	extractor extract.Extractor
	scheduler Scheduler

	jobs        map[string]*model.Job
	jobsMutex   sync.RWMutex
	maxParallel int
	slots       chan struct{}
	wg          sync.WaitGroup
	onUpdate    func(model.Job) // callback for status updates
}

// NewService creates a download service. maxParallel is clamped to
// 1..MaxParallelLimit; zero selects DefaultMaxParallel.
func NewService(extractor extract.Extractor, scheduler Scheduler, maxParallel int) *Service {
	if maxParallel == 0 {
		maxParallel = DefaultMaxParallel
	}
	if maxParallel < 1 {
		maxParallel = 1
	}
	if maxParallel > MaxParallelLimit {
		maxParallel = MaxParallelLimit
	}
	return &Service{
		extractor:   extractor,
		scheduler:   scheduler,
		jobs:        make(map[string]*model.Job),
		maxParallel: maxParallel,
		slots:       make(chan struct{}, maxParallel),
	}
}

// MaxParallel returns the pool size
func (s *Service) MaxParallel() int {
	return s.maxParallel
}

// SetUpdateCallback sets the callback function for job updates
func (s *Service) SetUpdateCallback(callback func(model.Job)) {
	s.jobsMutex.Lock()
	s.onUpdate = callback
	s.jobsMutex.Unlock()
}

// Dispatch registers a job for req and starts it as soon as a slot is free.
// Identical requests are not merged.
func (s *Service) Dispatch(req model.JobRequest) *Future {
	job := &model.Job{
		ID:        generateJobID(),
		Request:   req,
		Status:    model.JobStatusPending,
		StartedAt: time.Now(),
	}
	future := newFuture(job.ID)

	s.jobsMutex.Lock()
	s.jobs[job.ID] = job
	s.jobsMutex.Unlock()
	s.notifyUpdate(job)

	s.wg.Add(1)
	go s.runJob(job, future)

	return future
}

// Probe reads metadata for ref. It waits for a free slot, bounded by ctx.
func (s *Service) Probe(ctx context.Context, ref model.SourceReference) (*model.MediaInfo, error) {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.slots }()

	return s.extractor.Probe(ctx, ref)
}

// Active returns a snapshot of jobs that have not finished yet, oldest first
func (s *Service) Active() []model.Job {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	jobs := make([]model.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.Status.IsActive() {
			jobs = append(jobs, *job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.Before(jobs[j].StartedAt)
	})
	return jobs
}

// Wait blocks until every dispatched job has finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// runJob occupies one slot for the whole fetch
func (s *Service) runJob(job *model.Job, future *Future) {
	defer s.wg.Done()

	s.slots <- struct{}{}
	s.setStatus(job, model.JobStatusRunning)

	artifact, err := s.fetch(job)
	<-s.slots

	if err == nil {
		// scheduled before anyone can observe the artifact
		s.scheduler.Schedule(artifact)
	}

	s.jobsMutex.Lock()
	job.FinishedAt = time.Now()
	if err != nil {
		job.Status = model.JobStatusFailed
		job.LastError = err.Error()
	} else {
		job.Status = model.JobStatusCompleted
		job.Artifact = artifact
	}
	delete(s.jobs, job.ID)
	s.jobsMutex.Unlock()

	if err != nil {
		log.Printf("ERROR: job %s (%s %s) failed after %s: %v", job.ID, job.Request.Mode, job.GetDisplayTitle(), job.Elapsed(), err)
	} else {
		log.Printf("INFO: job %s finished in %s: %s (%s)", job.ID, job.Elapsed(), job.GetDisplayTitle(), humanize.IBytes(uint64(artifact.SizeBytes)))
	}
	s.notifyUpdate(job)

	future.resolve(artifact, err)
}

func (s *Service) fetch(job *model.Job) (artifact *model.Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			artifact = nil
			err = model.NewExtractionError("fetch", "", fmt.Errorf("panic: %v", r))
		}
	}()
	return s.extractor.Fetch(context.Background(), job.Request.Source, job.Request.Mode)
}

func (s *Service) setStatus(job *model.Job, status model.JobStatus) {
	s.jobsMutex.Lock()
	job.Status = status
	s.jobsMutex.Unlock()
	s.notifyUpdate(job)
}

// notifyUpdate calls the update callback with a copy of job
func (s *Service) notifyUpdate(job *model.Job) {
	s.jobsMutex.RLock()
	callback := s.onUpdate
	snapshot := *job
	s.jobsMutex.RUnlock()

	if callback != nil {
		callback(snapshot)
	}
}

// generateJobID generates a unique, time-ordered job ID
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return JobIDPrefix + uuid.NewString()
	}
	return JobIDPrefix + id.String()
}
