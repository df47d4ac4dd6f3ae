package handler

import "net/http"

// HandleRoot answers GET / with a liveness message. Deploy checks and
// curious kids both hit this.
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "KidsLearnPython API is running",
	})
}
