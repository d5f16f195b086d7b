package handler

import (
	"encoding/json"
	"net/http"

	"github.com/suar-net/leadintake/internal/model"
)

// respondWithError writes {"error": message} with the given status.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJson(w, code, model.DTOError{Error: message})
}

// respondWithJson marshals payload and writes it with the given status. A
// payload that cannot be marshaled becomes a bare 500.
func respondWithJson(w http.ResponseWriter, code int, payload interface{}) {
	dat, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(dat)
}
