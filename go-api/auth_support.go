package main

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// authedHandler receives the request-scoped store handle and the resolved
// caller explicitly; nothing is read back out of the request context.
type authedHandler func(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User)

// authed verifies the bearer token, resolves (or creates) the local user and
// hands both to h. Every verification failure is the same 401.
func (s *server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearerToken(r)
		if !ok {
			errorJSON(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claim, err := s.verifier.Verify(r.Context(), tok)
		if err != nil {
			log.Printf("[auth] rejected token: %v", err)
			errorJSON(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		db := s.db.WithContext(r.Context())
		caller, err := resolveUser(db, claim)
		if err != nil {
			if errors.Is(err, errEmailTaken) {
				errorJSON(w, http.StatusConflict, "email already belongs to another account")
				return
			}
			log.Printf("[auth] resolve user %s: %v", claim.Subject, err)
			errorJSON(w, http.StatusInternalServerError, "db error")
			return
		}
		h(w, r, db, caller)
	}
}
