package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docstruct/internal/config"
)

// Input names one document of a run.
type Input struct {
	Filename string // Reported name; its extension selects the extractor
	Path     string // File to read
}

// Runner fans a run's documents out to a fixed pool of workers.
type Runner struct {
	workers int
	worker  *Worker
	jobs    *JobStore
	log     *slog.Logger
}

// NewRunner creates a runner. A nil store gets a private one.
func NewRunner(cfg config.Config, jobs *JobStore, log *slog.Logger) *Runner {
	if jobs == nil {
		jobs = NewJobStore(cfg.JobTTL)
	}
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		workers: workers,
		worker:  NewWorker(cfg.DocTimeout, log),
		jobs:    jobs,
		log:     log,
	}
}

// Jobs returns the store runs register their jobs in.
func (r *Runner) Jobs() *JobStore {
	return r.jobs
}

// Run processes every input with fn and returns one result per input, in
// input order. A failing or slow document never blocks the others.
func (r *Runner) Run(ctx context.Context, runID string, inputs []Input, fn DocFunc) []*DocResult {
	results := make([]*DocResult, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	queue := make(chan *Job, len(inputs))
	for i, in := range inputs {
		job := NewJob(runID, i, in.Filename, in.Path)
		r.jobs.Put(job)
		queue <- job
	}
	close(queue)

	start := time.Now()
	var wg sync.WaitGroup
	for n, i := min(r.workers, len(inputs)), 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				// Each index is written by exactly one worker.
				results[job.Index] = r.worker.Process(ctx, job, fn)
			}
		}()
	}
	wg.Wait()

	counts := map[JobStatus]int{}
	for _, res := range results {
		counts[res.Status]++
	}
	r.log.Info("run complete",
		"run_id", runID,
		"documents", len(inputs),
		"completed", counts[StatusCompleted],
		"empty", counts[StatusEmpty],
		"failed", counts[StatusFailed],
		"timed_out", counts[StatusTimedOut],
		"elapsed", time.Since(start),
	)
	return results
}

// StartJanitor evicts expired jobs every interval until ctx is done.
func (r *Runner) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.jobs.Cleanup()
			}
		}
	}()
}
