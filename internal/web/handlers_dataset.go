package web

import (
	"bytes"
	"io"
	"mime"
	"net/http"

	"github.com/JonMunkholm/harris/internal/core"
)

// handleHealth reports liveness together with the dataset status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"dataset": s.service.Status(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Status())
}

// handleImport replaces the dataset with an uploaded CSV file. The body is
// either the raw CSV or a multipart form with a "file" field.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, cleanup, err := s.importBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer cleanup()

	res, err := s.service.Import(r.Context(), body)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) importBody(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if r.Body == nil || r.ContentLength == 0 {
			return nil, noop, core.ErrNoFile
		}
		return r.Body, noop, nil
	}

	// Leave room for the multipart envelope; the service enforces the file
	// limit itself.
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return nil, noop, core.ErrFileTooLarge
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, noop, core.ErrNoFile
	}
	return file, func() { file.Close() }, nil
}

func (s *Server) handleNewDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.NewDataset(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.Status())
}

// handleExport streams the whole dataset as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.service.Export(&buf); err != nil {
		fail(w, r, err)
		return
	}
	writeCSV(w, "harris.csv", buf.Bytes())
}

// handleFilteredExport exports only the units visible in the requested view.
func (s *Server) handleFilteredExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.service.FilteredExport(r.Context(), &buf, s.parseViewOptions(r)); err != nil {
		fail(w, r, err)
		return
	}
	writeCSV(w, "harris-filtered.csv", buf.Bytes())
}

// writeCSV sends data as a CSV attachment. Encoding happens before the
// headers go out so a failure can still produce a JSON error.
func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
