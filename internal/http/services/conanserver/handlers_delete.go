package conanserver

import (
	"net/http"

	"github.com/cs3conan/conan-server/pkg/conanpath"
)

// handleDeleteRecipe implements DELETE /v1/conans/<coord>: removes
// every key under the coordinate, 200 on success, 404 if the coordinate
// was already absent. This is a client-issued removal, not background
// garbage collection.
func (s *Service) handleDeleteRecipe(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.deleteTree(w, r, conanpath.CoordRoot(coord))
}

// handleDeleteBinary implements
// DELETE /v1/conans/<coord>/packages/<hash>, symmetric to
// handleDeleteRecipe at the binary hash level.
func (s *Service) handleDeleteBinary(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	hash, err := conanpath.ParseHash(m[2])
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.deleteTree(w, r, conanpath.PackageHashDir(coord, 0, hash))
}

func (s *Service) deleteTree(w http.ResponseWriter, r *http.Request, dir string) {
	keys, err := s.store.List(r.Context(), dir)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(keys) == 0 {
		writeNotFound(w, r)
		return
	}
	for _, k := range keys {
		if _, err := s.store.Delete(r.Context(), k); err != nil {
			writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
