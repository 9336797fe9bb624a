package api

import (
	"net/http"

	"github.com/dgallion1/docstruct/internal/assemble"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

// handleOutline returns {"title", "outline"} for one uploaded document.
// Documents that cannot be read still get an empty outline; the
// X-Document-Status header carries the job status.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	up, err := s.readUpload(files[0])
	if err != nil {
		jsonError(w, err.Error(), uploadErrorStatus(err))
		return
	}

	key := pipeline.ContentHashHex(up.data) + ":" + up.filename
	if cached, ok := s.outlines.Get(key); ok {
		s.cacheHits.Add(1)
		w.Header().Set("X-Cache", "hit")
		writeResult(w, http.StatusOK, cached)
		return
	}
	s.cacheMisses.Add(1)

	inputs, cleanup, err := stage([]upload{up})
	defer cleanup()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	run := s.structure.Run(r.Context(), inputs)
	doc := run.Documents[0]
	if doc.Status == pipeline.StatusCompleted || doc.Status == pipeline.StatusEmpty {
		s.outlines.Add(key, doc.Outline)
	} else {
		requestLog(r, s.log).Warn("outline not cached", "run_id", run.RunID, "status", doc.Status, "error", doc.Err)
	}

	w.Header().Set("X-Cache", "miss")
	w.Header().Set("X-Run-ID", run.RunID)
	w.Header().Set("X-Document-Status", string(doc.Status))
	writeResult(w, http.StatusOK, doc.Outline)
}

type batchDocument struct {
	Filename string             `json:"filename"`
	Status   pipeline.JobStatus `json:"status"`
	Error    string             `json:"error,omitempty"`
	Result   assemble.Outline   `json:"result"`
}

// handleOutlineBatch outlines every uploaded file in one run.
func (s *Server) handleOutlineBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	uploads := make([]upload, 0, len(files))
	for _, fh := range files {
		up, err := s.readUpload(fh)
		if err != nil {
			jsonError(w, err.Error(), uploadErrorStatus(err))
			return
		}
		uploads = append(uploads, up)
	}

	inputs, cleanup, err := stage(uploads)
	defer cleanup()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	run := s.structure.Run(r.Context(), inputs)
	docs := make([]batchDocument, 0, len(run.Documents))
	for _, d := range run.Documents {
		bd := batchDocument{Filename: d.Filename, Status: d.Status, Result: d.Outline}
		if d.Err != nil {
			bd.Error = d.Err.Error()
		}
		docs = append(docs, bd)
	}

	writeResult(w, http.StatusOK, map[string]any{
		"run_id":     run.RunID,
		"documents":  docs,
		"status_url": "/api/runs/" + run.RunID,
	})
}
