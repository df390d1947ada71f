package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// stepClock hands out strictly increasing UTC times, one second apart.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// newTestDB opens a private in-memory SQLite database with foreign keys on
// and the app schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), gormConfig(newStepClock().now))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection == one in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, autoMigrate(db))
	return db
}

func mustUser(t *testing.T, db *gorm.DB, subject string) User {
	t.Helper()
	u, err := resolveUser(db, Claim{Subject: subject, Email: subject + "@example.com"})
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }

/* ---------- HTTP ---------- */

type testAPI struct {
	t       *testing.T
	db      *gorm.DB
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := newTestDB(t)
	s := newServer(db, newDevVerifier(testSecret))
	return &testAPI{t: t, db: db, handler: s.routes(defaultCORSOrigins)}
}

func (a *testAPI) token(subject string) string {
	a.t.Helper()
	tok, err := signDevToken([]byte(testSecret), subject, subject+"@example.com", time.Hour)
	require.NoError(a.t, err)
	return tok
}

// do sends body (marshalled unless it's already a string) as subject.
// An empty subject sends no Authorization header.
func (a *testAPI) do(method, path, subject string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(subject))
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func newRequestWithAuth(header string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req
}
