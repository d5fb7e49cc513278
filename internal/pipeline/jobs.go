package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/accessibleapps/html-to-text/internal/rendition"
)

// JobStatus represents the state of a book-rendering job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusRendering  JobStatus = "rendering"
	StatusDelivering JobStatus = "delivering"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// BookFile is one input document of a book, in reading order.
type BookFile struct {
	Name string
	Data []byte
}

// Result is the combined output of a book job: one continuous text stream
// with per-file renditions whose offsets address into it.
type Result struct {
	Text        string                 `json:"text"`
	ContentHash string                 `json:"content_hash"`
	Files       []*rendition.Rendition `json:"files"`
}

// Job tracks the state of a single book render.
type Job struct {
	mu sync.Mutex

	ID          string `json:"job_id"`
	CallbackURL string `json:"callback_url,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	files  []BookFile
	result *Result
	errors []string
}

// Progress tracks per-file rendering progress.
type Progress struct {
	TotalFiles    int      `json:"total_files"`
	FilesRendered int      `json:"files_rendered"`
	Errors        []string `json:"errors"`
}

// NewJob builds a queued job over the given files.
func NewJob(files []BookFile, callbackURL string) *Job {
	now := time.Now()
	return &Job{
		ID:          generateULID(),
		CallbackURL: callbackURL,
		Status:      StatusQueued,
		Phase:       "queued",
		Progress:    Progress{TotalFiles: len(files)},
		CreatedAt:   now,
		UpdatedAt:   now,
		files:       files,
	}
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrFilesRendered atomically bumps the rendered-file count.
func (j *Job) IncrFilesRendered() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FilesRendered++
	j.UpdatedAt = time.Now()
}

// Files returns the job's input files.
func (j *Job) Files() []BookFile {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.files
}

// SetResult stores the combined rendition.
func (j *Job) SetResult(r *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = r
	j.UpdatedAt = time.Now()
}

// Result returns the combined rendition, or nil if the job has not produced
// one yet.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	CallbackURL string    `json:"callback_url,omitempty"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		CallbackURL: j.CallbackURL,
		Status:      j.Status,
		Phase:       j.Phase,
		Progress: Progress{
			TotalFiles:    j.Progress.TotalFiles,
			FilesRendered: j.Progress.FilesRendered,
			Errors:        errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
