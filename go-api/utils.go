package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// newUserID returns an opaque, stable id for a new local account.
func newUserID() string {
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

// errorJSON writes {"detail": msg}, the shape the front-end reads.
func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// pathID parses the {id} URL param. Anything that isn't a positive integer
// can't name a row, so callers treat !ok as not found.
func pathID(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
