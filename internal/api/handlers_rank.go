package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/docstruct/internal/persona"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

// handleRank ranks the sections of the uploaded files for the persona and
// job given as form fields. keyword_weights, when present, is a JSON object
// of term to weight that replaces the derived keyword table.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := &persona.CollectionInput{
		Persona:     persona.RoleRef{Role: r.FormValue("persona")},
		JobToBeDone: persona.TaskRef{Task: r.FormValue("job")},
	}
	if raw := r.FormValue("keyword_weights"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.KeywordWeights); err != nil {
			jsonError(w, "keyword_weights must be a JSON object of numbers: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	files := r.MultipartForm.File["files"]
	uploads := make([]upload, 0, len(files))
	for _, fh := range files {
		up, err := s.readUpload(fh)
		if err != nil {
			jsonError(w, err.Error(), uploadErrorStatus(err))
			return
		}
		uploads = append(uploads, up)
		in.Documents = append(in.Documents, persona.DocumentRef{Filename: up.filename})
	}

	// Validate before staging so bad input never touches the disk.
	if err := in.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	inputs, cleanup, err := stage(uploads)
	defer cleanup()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ranking, err := s.relevance.Run(r.Context(), in, inputs)
	if err != nil {
		if pipeline.IsConfigurationError(err) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		requestLog(r, s.log).Error("rank run failed", "error", err)
		jsonError(w, "rank failed", http.StatusInternalServerError)
		return
	}
	writeResult(w, http.StatusOK, ranking)
}
