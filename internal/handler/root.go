package handler

import "net/http"

// HandleRoot identifies the service. Unauthenticated, no envelope — it is a
// liveness touchpoint, not part of the API surface proper.
//
// HTTP: GET /
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "github-analyzer API"})
}
