package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

// server holds the two things every protected handler needs: the store and
// the token verifier. Handlers get both passed in explicitly via authed.
type server struct {
	db       *gorm.DB
	verifier IdentityVerifier
}

func newServer(db *gorm.DB, verifier IdentityVerifier) *server {
	return &server{db: db, verifier: verifier}
}

func (s *server) routes(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	// Finish bare OPTIONS quickly
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	// Health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Notes
	r.Get("/notes", s.authed(handleListNotes))
	r.Post("/notes", s.authed(handleCreateNote))
	r.Get("/notes/{id}", s.authed(handleGetNote))
	r.Put("/notes/{id}", s.authed(handleUpdateNote))
	r.Delete("/notes/{id}", s.authed(handleDeleteNote))

	// Tasks
	r.Get("/tasks", s.authed(handleListTasks))
	r.Post("/tasks", s.authed(handleCreateTask))
	r.Get("/tasks/{id}", s.authed(handleGetTask))
	r.Put("/tasks/{id}", s.authed(handleUpdateTask))
	r.Delete("/tasks/{id}", s.authed(handleDeleteTask))

	// Assistant
	r.Post("/assistant/chat", s.authed(handleAssistantChat))

	return r
}
