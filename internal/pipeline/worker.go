package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/title"
)

// DocResult is what one document produced. Failed and abandoned documents
// still get a result with an empty outline and no sections.
type DocResult struct {
	Index    int
	Filename string
	Status   JobStatus

	Document *doctree.SpanDocument
	Title    title.Result
	Outline  doctree.DocumentOutline
	Sections []doctree.Section

	Err error
}

// DocFunc does the per-document work of an engine. It should honor ctx, but
// the worker does not rely on that to enforce the deadline.
type DocFunc func(ctx context.Context, job *Job) (*DocResult, error)

// Worker processes a single document job under a deadline.
type Worker struct {
	timeout time.Duration
	log     *slog.Logger
}

func NewWorker(timeout time.Duration, log *slog.Logger) *Worker {
	return &Worker{timeout: timeout, log: log}
}

type outcome struct {
	res *DocResult
	err error
}

// Process runs fn for job. When the deadline passes first, the goroutine
// running fn is abandoned and the job is marked timed out.
func (w *Worker) Process(ctx context.Context, job *Job, fn DocFunc) *DocResult {
	log := w.log.With("job_id", job.ID, "run_id", job.RunID, "doc", job.Filename)

	jobCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &AdapterError{Filename: job.Filename, Err: fmt.Errorf("panic: %v", r)}}
			}
		}()
		res, err := fn(jobCtx, job)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return w.finish(log, job, o.res, o.err)
	case <-jobCtx.Done():
		return w.finish(log, job, nil, jobCtx.Err())
	}
}

func (w *Worker) finish(log *slog.Logger, job *Job, res *DocResult, err error) *DocResult {
	if err != nil {
		out := emptyResult(job)
		out.Err = err
		phase := job.Snapshot().Phase
		job.AddError(err.Error())
		if IsTimeout(err) {
			out.Status = StatusTimedOut
			job.Finish(StatusTimedOut, phase)
			log.Error("document timed out", "phase", phase, "timeout", w.timeout)
		} else {
			out.Status = StatusFailed
			job.Finish(StatusFailed, phase)
			log.Error("document failed", "phase", phase, "error", err)
		}
		return out
	}

	if res == nil {
		res = emptyResult(job)
		res.Status = StatusEmpty
	}
	res.Index = job.Index
	res.Filename = job.Filename
	if res.Outline.Entries == nil {
		res.Outline.Entries = []doctree.OutlineEntry{}
	}
	if res.Status == "" {
		res.Status = StatusCompleted
	}

	if res.Status == StatusEmpty {
		job.Finish(StatusEmpty, "done")
		log.Warn("document has no extractable text")
	} else {
		job.Finish(StatusCompleted, "done")
		log.Info("document processed",
			"title", res.Title.Title,
			"outline_entries", len(res.Outline.Entries),
			"sections", len(res.Sections),
		)
	}
	return res
}

func emptyResult(job *Job) *DocResult {
	return &DocResult{
		Index:    job.Index,
		Filename: job.Filename,
		Outline:  doctree.DocumentOutline{Entries: []doctree.OutlineEntry{}},
	}
}
