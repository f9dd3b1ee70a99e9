package conanserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cs3conan/conan-server/pkg/conanpath"
)

// handleV2RecipeLatest implements GET /v2/conans/<coord>/latest: the
// highest recipe revision recorded in revisions.txt, with its recorded
// timestamp, 404 if the index is absent or empty.
func (s *Service) handleV2RecipeLatest(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, ok, err := s.revisionsAPI(coord).LatestRecipeEntry(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeNotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"revision": entry.Revision, "time": entry.Time})
}

// handleV2BinaryLatest implements
// GET /v2/conans/<coord>/packages/<hash>/latest, symmetric to
// handleV2RecipeLatest at the binary level.
func (s *Service) handleV2BinaryLatest(w http.ResponseWriter, r *http.Request, m []string) {
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
	entry, ok, err := s.revisionsAPI(coord).LatestBinaryEntry(r.Context(), 0, hash)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeNotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"revision": entry.Revision, "time": entry.Time})
}

// listFiles lists every key beneath prefix and returns it as the
// "{"files": {"<name>": {}, ...}}" shape Conan v2 clients expect, names
// relative to prefix.
func listFiles(w http.ResponseWriter, r *http.Request, s *Service, prefix string) {
	keys, err := s.store.List(r.Context(), strings.TrimSuffix(prefix, "/"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	files := map[string]interface{}{}
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		name := strings.TrimPrefix(k, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		files[name] = map[string]interface{}{}
	}
	if len(files) == 0 {
		writeNotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

// handleV2RecipeFiles implements
// GET /v2/conans/<coord>/revisions/<rev>/files: lists the files under
// one recipe revision's export tree.
func (s *Service) handleV2RecipeFiles(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	rev, err := strconv.Atoi(m[2])
	if err != nil {
		writeError(w, r, err)
		return
	}
	prefix := conanpath.RecipeRevDir(coord, rev) + "/export/"
	listFiles(w, r, s, prefix)
}

// handleV2RecipeFile implements
// GET /v2/conans/<coord>/revisions/<rev>/files/<name>: streams one file
// from the recipe revision's export tree.
func (s *Service) handleV2RecipeFile(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	rev, err := strconv.Atoi(m[2])
	if err != nil {
		writeError(w, r, err)
		return
	}
	key, err := conanpath.RecipeKey(coord, rev, m[3])
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.handleGenericGet(w, r, key)
}

// handleV2BinaryFiles implements
// GET /v2/conans/<coord>/packages/<hash>/revisions/<binRev>/files,
// symmetric to handleV2RecipeFiles at the binary level.
func (s *Service) handleV2BinaryFiles(w http.ResponseWriter, r *http.Request, m []string) {
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
	binRev, err := strconv.Atoi(m[3])
	if err != nil {
		writeError(w, r, err)
		return
	}
	prefix := conanpath.BinaryRevDir(coord, 0, hash, binRev) + "/"
	listFiles(w, r, s, prefix)
}

// handleV2BinaryFile implements
// GET /v2/conans/<coord>/packages/<hash>/revisions/<binRev>/files/<name>,
// symmetric to handleV2RecipeFile at the binary level.
func (s *Service) handleV2BinaryFile(w http.ResponseWriter, r *http.Request, m []string) {
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
	binRev, err := strconv.Atoi(m[3])
	if err != nil {
		writeError(w, r, err)
		return
	}
	key, err := conanpath.BinaryKey(coord, 0, hash, binRev, m[4])
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.handleGenericGet(w, r, key)
}
