package handlers

import "net/http"

// HomeHandler answers the root path.
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":      "Welcome",
		"achievements": "/achievements",
	})
}
