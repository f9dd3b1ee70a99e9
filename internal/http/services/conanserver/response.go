package conanserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cs3conan/conan-server/pkg/errtypes"
)

// writeJSON writes v as a strict JSON body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeNotFound writes the plain-text 404 body used by every handler
// that cannot locate its addressed resource.
func writeNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "URI %s not found.", r.URL.Path)
}

// writeError converts a tagged error into an HTTP response: 4xx bodies
// are plain text, 5xx bodies carry the error kind and no stack trace.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch errtypes.KindOf(err) {
	case errtypes.KindNotFound:
		writeNotFound(w, r)
	case errtypes.KindBadRequest:
		writePlainText(w, http.StatusBadRequest, "bad request")
	case errtypes.KindConflict:
		writePlainText(w, http.StatusNotFound, "already exists")
	case errtypes.KindAuthRequired:
		w.WriteHeader(http.StatusUnauthorized)
	case errtypes.KindForbidden:
		w.WriteHeader(http.StatusForbidden)
	case errtypes.KindIndexFault, errtypes.KindStoreFault:
		getLogger(r.Context()).Error().Err(err).Msg("request failed")
		writePlainText(w, http.StatusInternalServerError, errtypes.KindOf(err).String())
	default:
		getLogger(r.Context()).Error().Err(err).Msg("request failed")
		writePlainText(w, http.StatusInternalServerError, "internal error")
	}
}

func writePlainText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}
