package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/accessibleapps/html-to-text/internal/config"
	"github.com/accessibleapps/html-to-text/internal/deliver"
)

func testConfig() config.Config {
	return config.Config{
		WorkerCount:  2,
		MaxQueueSize: 8,
		JobTTL:       time.Hour,
	}
}

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

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob([]BookFile{{Name: "a.html", Data: []byte("<p>x</p>")}}, "")
	if job.Status != StatusQueued {
		t.Fatalf("new job status = %q", job.Status)
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusRendering, "rendering"},
		{StatusDelivering, "delivering"},
		{StatusCompleted, "done"},
	}
	for _, tr := range transitions {
		before := job.UpdatedAt
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)
		snap := job.Snapshot()
		if snap.Status != tr.status || snap.Phase != tr.phase {
			t.Errorf("snapshot = %+v, want %s/%s", snap, tr.status, tr.phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("UpdatedAt not advanced on %s", tr.status)
		}
	}
}

func TestJob_SnapshotErrorsNeverNil(t *testing.T) {
	job := NewJob(nil, "")
	if errs := job.Snapshot().Progress.Errors; errs == nil {
		t.Errorf("snapshot errors should be an empty slice, not nil")
	}
	job.AddError("boom")
	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 1 || snap.Progress.Errors[0] != "boom" {
		t.Errorf("errors = %v", snap.Progress.Errors)
	}
}

func TestJob_ULIDsAreUniqueAndOrdered(t *testing.T) {
	a := NewJob(nil, "")
	b := NewJob(nil, "")
	if len(a.ID) != 26 || len(b.ID) != 26 {
		t.Fatalf("ULID lengths = %d, %d", len(a.ID), len(b.ID))
	}
	if a.ID == b.ID {
		t.Errorf("duplicate job IDs")
	}
	if a.ID > b.ID {
		t.Errorf("later job ID should sort after earlier: %s > %s", a.ID, b.ID)
	}
}

func TestJobStore_TTLEviction(t *testing.T) {
	store := NewJobStore(10 * time.Millisecond)
	job := NewJob(nil, "")
	store.Put(job)
	if store.Get(job.ID) == nil {
		t.Fatalf("job missing right after Put")
	}

	time.Sleep(25 * time.Millisecond)
	store.Cleanup()
	if store.Get(job.ID) != nil {
		t.Errorf("expired job should be evicted")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestWorker_RendersBookWithContinuingOffsets(t *testing.T) {
	job := NewJob([]BookFile{
		{Name: "one.html", Data: []byte("<h1>One</h1>first")},
		{Name: "two.html", Data: []byte("<h1>Two</h1>second")},
	}, "")

	w := NewWorker(discardLogger(), nil, false)
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("status = %q", got)
	}
	result := job.Result()
	if result == nil {
		t.Fatalf("no result")
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 renditions, got %d", len(result.Files))
	}

	first, second := result.Files[0], result.Files[1]
	if first.StartPos != 0 {
		t.Errorf("first startpos = %d", first.StartPos)
	}
	if second.StartPos != first.End() {
		t.Errorf("second file should start where the first ended: %d != %d", second.StartPos, first.End())
	}
	if result.Text != first.Text+second.Text {
		t.Errorf("combined text is not the concatenation of file texts")
	}
	// Offsets in the second file's index address into the combined text.
	h := second.Index.Headings[0]
	if got := result.Text[h.Start:h.End]; got != "Two" {
		t.Errorf("combined[%d:%d] = %q, want %q", h.Start, h.End, got, "Two")
	}
	if result.ContentHash != ContentHashHex([]byte(result.Text)) {
		t.Errorf("content hash mismatch")
	}
}

func TestWorker_PartialOnFileFailure(t *testing.T) {
	job := NewJob([]BookFile{
		{Name: "good.html", Data: []byte("<p>fine</p>")},
		{Name: "bad.xyz", Data: []byte("???")},
	}, "")

	w := NewWorker(discardLogger(), nil, false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("status = %q, want partial", snap.Status)
	}
	if snap.Progress.FilesRendered != 2 {
		t.Errorf("files rendered = %d", snap.Progress.FilesRendered)
	}
	if len(snap.Progress.Errors) != 1 || !strings.Contains(snap.Progress.Errors[0], "bad.xyz") {
		t.Errorf("errors = %v", snap.Progress.Errors)
	}
	if job.Result() == nil {
		t.Errorf("partial job should still carry a result")
	}
}

func TestWorker_FailsWhenNothingRenders(t *testing.T) {
	job := NewJob([]BookFile{{Name: "bad.xyz", Data: []byte("???")}}, "")
	w := NewWorker(discardLogger(), nil, false)
	w.Process(context.Background(), job)
	if got := job.Snapshot().Status; got != StatusFailed {
		t.Errorf("status = %q, want failed", got)
	}
	if job.Result() != nil {
		t.Errorf("failed job should carry no result")
	}
}

func TestWorker_DeliversToCallback(t *testing.T) {
	var gotPayload struct {
		JobID string `json:"job_id"`
		Text  string `json:"text"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	job := NewJob([]BookFile{{Name: "a.html", Data: []byte("<p>deliver me</p>")}}, srv.URL)
	w := NewWorker(discardLogger(), deliver.NewClient("", time.Second), false)
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("status = %q", got)
	}
	if gotPayload.JobID != job.ID {
		t.Errorf("delivered job_id = %q, want %q", gotPayload.JobID, job.ID)
	}
	if !strings.Contains(gotPayload.Text, "deliver me") {
		t.Errorf("delivered text = %q", gotPayload.Text)
	}
}

func TestWorker_PartialOnDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	job := NewJob([]BookFile{{Name: "a.html", Data: []byte("<p>x</p>")}}, srv.URL)
	w := NewWorker(discardLogger(), deliver.NewClient("", time.Second), false)
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusPartial {
		t.Errorf("status = %q, want partial", got)
	}
}

func TestOrchestrator_SubmitAndProcess(t *testing.T) {
	cfg := testConfig()
	o := NewOrchestrator(cfg, nil, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob([]BookFile{{Name: "a.html", Data: []byte("<p>queued work</p>")}}, "")
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatalf("job not registered")
	}

	deadline := time.After(5 * time.Second)
	for {
		if s := job.Snapshot().Status; s == StatusCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job never completed: %+v", job.Snapshot())
		case <-time.After(10 * time.Millisecond):
		}
	}
	if !strings.Contains(job.Result().Text, "queued work") {
		t.Errorf("result text = %q", job.Result().Text)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, nil, discardLogger())
	// Not started: nothing drains the queue.

	if err := o.Submit(NewJob(nil, "")); err != nil {
		t.Fatalf("first submit should fit: %v", err)
	}
	overflow := NewJob(nil, "")
	if err := o.Submit(overflow); err == nil {
		t.Fatalf("expected queue-full error")
	}
	if got := overflow.Snapshot().Status; got != StatusFailed {
		t.Errorf("overflow job status = %q", got)
	}
}
