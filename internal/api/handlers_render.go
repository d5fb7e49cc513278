package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/accessibleapps/html-to-text/internal/parser"
	"github.com/accessibleapps/html-to-text/internal/rendition"
	"github.com/accessibleapps/html-to-text/internal/segment"
)

// handleRender renders a single document synchronously. The document arrives
// either as a multipart "file" field or as the raw request body with
// ?filename= naming it. Optional: "startpos" offsets the rendition,
// "include=sections" adds heading-delimited sections to the response.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	filename, data, err := s.readDocument(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	startPos := 0
	if v := formOrQuery(r, "startpos"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "startpos must be a non-negative integer", http.StatusBadRequest)
			return
		}
		startPos = n
	}

	p, err := parser.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	started := time.Now()
	rend, err := p.Parse(bytes.NewReader(data), filename, startPos)
	if err != nil {
		s.log.Error("render failed", "file", filename, "error", err)
		jsonError(w, "render: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if s.renderStats != nil {
		s.renderStats.Record(time.Since(started).Milliseconds())
	}

	resp := renderResponse{Rendition: rend}
	if formOrQuery(r, "include") == "sections" {
		resp.Sections = segment.Sections(rend)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type renderResponse struct {
	*rendition.Rendition
	Sections []segment.Section `json:"sections,omitempty"`
}

// readDocument pulls the upload out of a multipart form, or treats the whole
// body as the document when the request is not multipart.
func (s *Server) readDocument(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return "", nil, fmt.Errorf("invalid multipart form: %w", err)
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("file is required: %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil {
			return "", nil, fmt.Errorf("read upload: %w", err)
		}
		return sanitizeFilename(header.Filename), data, nil
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		return "", nil, fmt.Errorf("filename query parameter is required for raw uploads")
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}
	return sanitizeFilename(filename), data, nil
}

func (s *Server) handleRenderStats(w http.ResponseWriter, r *http.Request) {
	if s.renderStats == nil {
		jsonError(w, "render stats unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"stats": s.renderStats.Snapshot(),
	})
}

// formOrQuery reads a value from the parsed form if present, falling back to
// the URL query.
func formOrQuery(r *http.Request, key string) string {
	if r.MultipartForm != nil {
		if vs := r.MultipartForm.Value[key]; len(vs) > 0 {
			return vs[0]
		}
	}
	return r.URL.Query().Get(key)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
