package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/lekbanken/lekbanken/pkg/serrors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, err *serrors.Error) {
	writeJSON(w, status, map[string]*serrors.Error{"error": err})
}
