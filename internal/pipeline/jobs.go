package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of one document in a run.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusExtracting  JobStatus = "extracting"
	StatusClassifying JobStatus = "classifying"
	StatusSegmenting  JobStatus = "segmenting"
	StatusCompleted   JobStatus = "completed"
	StatusEmpty       JobStatus = "empty"
	StatusFailed      JobStatus = "failed"
	StatusTimedOut    JobStatus = "timed_out"
)

// Terminal reports whether no further transitions are expected.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusEmpty, StatusFailed, StatusTimedOut:
		return true
	}
	return false
}

// Job tracks the processing of a single document.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	RunID string `json:"run_id"`
	Index int    `json:"index"` // Position in the run's input order

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	path   string
	errors []string
}

// Progress counts what each phase produced.
type Progress struct {
	Pages          int      `json:"pages"`
	Spans          int      `json:"spans"`
	Headings       int      `json:"headings"`
	OutlineEntries int      `json:"outline_entries"`
	Sections       int      `json:"sections"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for the file at path.
func NewJob(runID string, index int, filename, path string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		RunID:     runID,
		Index:     index,
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		path:      path,
	}
}

// Path returns the file the job reads.
func (j *Job) Path() string {
	return j.path
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// ByRun returns snapshots of a run's jobs in input order.
func (s *JobStore) ByRun(runID string) []JobSnapshot {
	s.mu.Lock()
	var jobs []*Job
	for _, j := range s.jobs {
		if j.RunID == runID {
			jobs = append(jobs, j)
		}
	}
	s.mu.Unlock()

	out := make([]JobSnapshot, len(jobs))
	for i, j := range jobs {
		out[i] = j.Snapshot()
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically. An abandoned document's
// goroutine may still report progress, so terminal jobs are left alone.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.Terminal() {
		return
	}
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Finish moves the job to a terminal status unless it already has one. It
// reports whether the transition happened.
func (j *Job) Finish(status JobStatus, phase string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.Terminal() {
		return false
	}
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	return true
}

// CurrentStatus returns the status under the job lock.
func (j *Job) CurrentStatus() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTitle records the resolved document title.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.UpdatedAt = time.Now()
}

// SetExtracted records extractor output sizes.
func (j *Job) SetExtracted(pages, spans int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Pages = pages
	j.Progress.Spans = spans
	j.UpdatedAt = time.Now()
}

// SetOutline records classifier and outline builder counts.
func (j *Job) SetOutline(headings, entries int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Headings = headings
	j.Progress.OutlineEntries = entries
	j.UpdatedAt = time.Now()
}

// SetSections records the segmenter's section count.
func (j *Job) SetSections(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Sections = n
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	RunID    string    `json:"run_id"`
	Index    int       `json:"index"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:       j.ID,
		RunID:    j.RunID,
		Index:    j.Index,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: p,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
