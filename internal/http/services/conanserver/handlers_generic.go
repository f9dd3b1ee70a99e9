package conanserver

import (
	"io"
	"net/http"
)

// handleGenericGet implements the fallback GET <path>: streams the blob
// at path, 200 on success or 404 if absent. No JSON envelope.
func (s *Service) handleGenericGet(w http.ResponseWriter, r *http.Request, path string) {
	exists, err := s.store.Exists(r.Context(), path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !exists {
		writeNotFound(w, r)
		return
	}
	data, err := s.store.Get(r.Context(), path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleGenericPut implements the fallback PUT <path>: writes the blob
// at path, 201 on success. No JSON envelope.
func (s *Service) handleGenericPut(w http.ResponseWriter, r *http.Request, path string) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writePlainText(w, http.StatusBadRequest, "could not read request body")
		return
	}
	if err := s.store.Put(r.Context(), path, data); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
