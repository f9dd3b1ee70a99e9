package conanserver

import (
	"encoding/json"
	"net/http"

	"github.com/cs3conan/conan-server/pkg/conanpath"
)

// handleUploadURLs implements PUT /v1/conans/<coord>/upload_urls. The
// request body is a JSON object whose keys are target filenames; the
// response maps each key to a signed-looking upload URL. If the
// coordinate root already exists, re-upload is disallowed and the
// handler responds 404 with an "already exists" message.
func (s *Service) handleUploadURLs(w http.ResponseWriter, r *http.Request, m []string) {
	coord, err := conanpath.ParseCoordinate(m[1])
	if err != nil {
		writeError(w, r, err)
		return
	}

	existingKeys, err := s.store.List(r.Context(), conanpath.CoordRoot(coord))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(existingKeys) > 0 {
		writePlainText(w, http.StatusNotFound, "already exists")
		return
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writePlainText(w, http.StatusBadRequest, "malformed request body")
		return
	}

	urls := map[string]string{}
	for filename := range body {
		key, err := conanpath.RecipeKey(coord, 0, filename)
		if err != nil {
			writePlainText(w, http.StatusBadRequest, "bad filename")
			return
		}
		urls[filename] = absoluteURL(r, key) + "?signature=0"
	}
	writeJSON(w, http.StatusOK, urls)
}
