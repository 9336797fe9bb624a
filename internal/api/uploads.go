package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docstruct/internal/assemble"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

var errTooLarge = errors.New("file exceeds max size")

type upload struct {
	filename string
	data     []byte
}

// readUpload reads one multipart file, enforcing the size limit and the
// supported extensions.
func (s *Server) readUpload(fh *multipart.FileHeader) (upload, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return upload{}, fmt.Errorf("%w: %s", parser.ErrUnsupported, filepath.Ext(filename))
	}
	f, err := fh.Open()
	if err != nil {
		return upload{}, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return upload{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return upload{}, fmt.Errorf("%w (%d bytes): %s", errTooLarge, s.cfg.MaxUploadBytes, filename)
	}
	return upload{filename: filename, data: data}, nil
}

// stage writes uploads to a private temp directory. Each file gets its own
// subdirectory so repeated names do not collide. cleanup removes everything.
func stage(uploads []upload) (inputs []pipeline.Input, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "docstruct-*")
	if err != nil {
		return nil, func() {}, fmt.Errorf("create staging dir: %w", err)
	}
	cleanup = func() { os.RemoveAll(dir) }

	for i, up := range uploads {
		sub := filepath.Join(dir, strconv.Itoa(i))
		if err := os.Mkdir(sub, 0o700); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("stage %s: %w", up.filename, err)
		}
		path := filepath.Join(sub, up.filename)
		if err := os.WriteFile(path, up.data, 0o600); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("stage %s: %w", up.filename, err)
		}
		inputs = append(inputs, pipeline.Input{Filename: up.filename, Path: path})
	}
	return inputs, cleanup, nil
}

func uploadErrorStatus(err error) int {
	if errors.Is(err, errTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// writeResult writes an engine result with the same encoding as the batch
// CLI output.
func writeResult(w http.ResponseWriter, code int, v any) {
	data, err := assemble.Marshal(v)
	if err != nil {
		jsonError(w, "encode result: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
