package httpapi

import (
	"bytes"
	"net/http"
)

type importResponse struct {
	Blocks int `json:"blocks"`
	Fields int `json:"fields"`
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	var root *string
	if v := r.URL.Query().Get("root"); v != "" {
		root = &v
	}

	// Buffered so a mid-export failure can still produce an error status.
	var buf bytes.Buffer
	if err := s.transfer.Export(r.Context(), userIDFrom(r.Context()), root, &buf); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="blockvault-export.json.gz"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) handleImport(w http.ResponseWriter, r *http.Request) {
	blocks, fields, err := s.transfer.Import(r.Context(), userIDFrom(r.Context()), r.Body)
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{Blocks: blocks, Fields: fields})
}
