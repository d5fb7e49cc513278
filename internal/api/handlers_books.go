package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/accessibleapps/html-to-text/internal/parser"
	"github.com/accessibleapps/html-to-text/internal/pipeline"
)

// handleCreateBook queues an async render of an ordered set of files into one
// continuous text stream. Files render in the order they appear in the
// multipart form.
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var files []pipeline.BookFile
	for _, fh := range headers {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			jsonError(w, fmt.Sprintf("unsupported file type for %s: %s", filename, filepath.Ext(filename)), http.StatusBadRequest)
			return
		}

		f, err := fh.Open()
		if err != nil {
			jsonError(w, fmt.Sprintf("open %s: %s", filename, err), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil {
			jsonError(w, fmt.Sprintf("read %s: %s", filename, err), http.StatusBadRequest)
			return
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			jsonError(w, fmt.Sprintf("%s exceeds max size (%d bytes)", filename, s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		files = append(files, pipeline.BookFile{Name: filename, Data: data})
	}

	job := pipeline.NewJob(files, r.FormValue("callback_url"))
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"files":    len(files),
		"poll_url": fmt.Sprintf("/api/books/%s", job.ID),
	})
}

func (s *Server) handleBookStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// handleBookResult serves the combined rendition once the job has produced
// one. Partial jobs still expose what rendered.
func (s *Server) handleBookResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	result := job.Result()
	if result == nil {
		jsonError(w, fmt.Sprintf("job not finished: %s", job.Snapshot().Status), http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
