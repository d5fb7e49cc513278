package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/accessibleapps/html-to-text/internal/deliver"
	"github.com/accessibleapps/html-to-text/internal/parser"
	"github.com/accessibleapps/html-to-text/internal/rendition"
)

// Worker renders one book job at a time. Files render sequentially so that
// each file's offsets continue where the previous file ended; the combined
// text is the concatenation of the per-file texts.
type Worker struct {
	log         *slog.Logger
	deliver     *deliver.Client
	pdfFallback bool
}

func NewWorker(log *slog.Logger, dc *deliver.Client, pdfFallback bool) *Worker {
	return &Worker{
		log:         log,
		deliver:     dc,
		pdfFallback: pdfFallback,
	}
}

// Process runs the full render for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	job.SetStatus(StatusRendering, "rendering")

	var renditions []*rendition.Rendition
	var combined strings.Builder
	pos := 0
	hadErrors := false

	for _, f := range job.Files() {
		if ctx.Err() != nil {
			job.AddError(ctx.Err().Error())
			job.SetStatus(StatusFailed, "rendering")
			return
		}

		r, err := w.renderFile(f, pos)
		job.IncrFilesRendered()
		if err != nil {
			log.Error("render failed", "file", f.Name, "error", err)
			job.AddError(fmt.Sprintf("%s: %s", f.Name, err))
			hadErrors = true
			continue
		}
		renditions = append(renditions, r)
		combined.WriteString(r.Text)
		pos = r.End()
	}

	if len(renditions) == 0 {
		log.Warn("no files rendered")
		job.SetStatus(StatusFailed, "rendering")
		return
	}

	text := combined.String()
	result := &Result{
		Text:        text,
		ContentHash: ContentHashHex([]byte(text)),
		Files:       renditions,
	}
	job.SetResult(result)
	log.Info("book rendered", "files", len(renditions), "bytes", len(text))

	if job.CallbackURL != "" && w.deliver != nil {
		job.SetStatus(StatusDelivering, "delivering")
		payload := struct {
			JobID string `json:"job_id"`
			*Result
		}{JobID: job.ID, Result: result}
		if err := w.deliver.Push(ctx, job.CallbackURL, payload); err != nil {
			log.Error("delivery failed", "url", job.CallbackURL, "error", err)
			job.AddError(fmt.Sprintf("deliver: %s", err))
			hadErrors = true
		} else {
			log.Info("book delivered", "url", job.CallbackURL)
		}
	}

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// renderFile dispatches one file to its format parser with the running offset.
func (w *Worker) renderFile(f BookFile, pos int) (*rendition.Rendition, error) {
	p, err := parser.ForFile(f.Name)
	if err != nil {
		return nil, err
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = w.pdfFallback
	}
	return p.Parse(bytes.NewReader(f.Data), f.Name, pos)
}
