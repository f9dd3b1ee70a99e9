package conanserver

import "net/http"

// handlePing implements GET /v1/ping.
func (s *Service) handlePing(w http.ResponseWriter, r *http.Request, m []string) {
	w.Header().Set("X-Conan-Server-Capabilities", "complex_search,revisions")
	w.WriteHeader(http.StatusAccepted)
}

// handleUsersOK implements GET /v1/users/authenticate and
// GET /v1/users/check_credentials: the router's auth capability check
// already ran, so these endpoints merely acknowledge.
func (s *Service) handleUsersOK(w http.ResponseWriter, r *http.Request, m []string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}
