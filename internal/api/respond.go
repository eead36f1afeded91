// SPDX-License-Identifier: MIT
package api

import (
	"encoding/json"
	"io"
	"net/http"
)

// maxBodyBytes caps how much of a request body is read for mutation
// endpoints.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// decodeLenient fills v from the request body on a best-effort basis.
// Malformed or missing bodies leave v at its zero values instead of
// producing an error; callers validate the fields they actually require.
func decodeLenient(r *http.Request, v any) {
	defer func() { _ = r.Body.Close() }()
	_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}
