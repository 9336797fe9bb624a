package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	// SHA-256 of empty input is well-known.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("run-1", 0, "a.pdf", "/tmp/a.pdf")
	if job.Status != StatusQueued {
		t.Fatalf("expected queued job, got %q", job.Status)
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusExtracting, "extracting"},
		{StatusClassifying, "classifying"},
		{StatusSegmenting, "segmenting"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_TerminalStatusSticks(t *testing.T) {
	job := NewJob("run-1", 0, "a.pdf", "")
	job.SetStatus(StatusExtracting, "extracting")

	if !job.Finish(StatusTimedOut, "extracting") {
		t.Fatal("expected first Finish to succeed")
	}
	// A late report from an abandoned goroutine.
	job.SetStatus(StatusClassifying, "classifying")
	if job.Finish(StatusCompleted, "done") {
		t.Error("expected second Finish to be refused")
	}
	if got := job.CurrentStatus(); got != StatusTimedOut {
		t.Errorf("expected status %q, got %q", StatusTimedOut, got)
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		StatusQueued:      false,
		StatusExtracting:  false,
		StatusClassifying: false,
		StatusSegmenting:  false,
		StatusCompleted:   true,
		StatusEmpty:       true,
		StatusFailed:      true,
		StatusTimedOut:    true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%q.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("open failed")
	job.AddError("fallback failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "open failed" {
		t.Errorf("expected first error %q, got %q", "open failed", snap.Progress.Errors[0])
	}
}

func TestJob_Progress(t *testing.T) {
	job := NewJob("run-1", 2, "b.pdf", "/data/b.pdf")
	job.SetExtracted(3, 120)
	job.SetOutline(9, 7)
	job.SetSections(5)
	job.SetTitle("Annual Report")

	snap := job.Snapshot()
	want := Progress{Pages: 3, Spans: 120, Headings: 9, OutlineEntries: 7, Sections: 5}
	if snap.Progress.Pages != want.Pages || snap.Progress.Spans != want.Spans ||
		snap.Progress.Headings != want.Headings || snap.Progress.OutlineEntries != want.OutlineEntries ||
		snap.Progress.Sections != want.Sections {
		t.Errorf("expected progress %+v, got %+v", want, snap.Progress)
	}
	if snap.Title != "Annual Report" || snap.Index != 2 || snap.RunID != "run-1" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if job.Path() != "/data/b.pdf" {
		t.Errorf("expected path, got %q", job.Path())
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

func TestJobStore_ByRun(t *testing.T) {
	store := NewJobStore(time.Hour)
	store.Put(NewJob("run-a", 2, "c.pdf", ""))
	store.Put(NewJob("run-b", 0, "x.pdf", ""))
	store.Put(NewJob("run-a", 0, "a.pdf", ""))
	store.Put(NewJob("run-a", 1, "b.pdf", ""))

	snaps := store.ByRun("run-a")
	if len(snaps) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(snaps))
	}
	for i, want := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if snaps[i].Filename != want {
			t.Errorf("snap[%d]: expected %q, got %q", i, want, snaps[i].Filename)
		}
	}
	if store.Len() != 4 {
		t.Errorf("expected 4 jobs in store, got %d", store.Len())
	}
	if len(store.ByRun("missing")) != 0 {
		t.Error("expected no jobs for unknown run")
	}
}
