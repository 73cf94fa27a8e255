package rest

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError renders err as an APIError. Server faults are logged with the
// original error; clients only ever see the generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := AsAPIError(err)

	if apiErr.StatusCode >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "error", err.Error(), "path", r.URL.Path, "request_id", requestID(r))
	}

	if apiErr.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	writeJSON(w, apiErr.StatusCode, apiErr)
}
