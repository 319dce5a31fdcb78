package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// fail writes an error response. Requests to the JSON API get the same
// {"success": false, "message": ...} envelope the handlers use; everything
// else gets plain text.
func fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if !wantsJSON(r) {
		http.Error(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
