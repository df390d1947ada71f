package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteLifecycle(t *testing.T) {
	db := newTestDB(t)
	u := mustUser(t, db, "alice")

	n, err := createNote(db, u.ID, noteCreate{Title: strPtr("  Groceries "), Content: strPtr("milk"), Tags: strPtr("home,errands")})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.Equal(t, u.ID, n.UserID)
	assert.Equal(t, "Groceries", n.Title)
	assert.False(t, n.CreatedAt.IsZero())
	assert.True(t, n.UpdatedAt.Equal(n.CreatedAt))

	got, err := findNote(db, u.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "milk", *got.Content)

	require.NoError(t, deleteNote(db, u.ID, n.ID))
	_, err = findNote(db, u.ID, n.ID)
	assert.ErrorIs(t, err, errNotFound)
	assert.ErrorIs(t, deleteNote(db, u.ID, n.ID), errNotFound)
}

func TestCreateNoteRequiresTitle(t *testing.T) {
	db := newTestDB(t)
	u := mustUser(t, db, "alice")

	_, err := createNote(db, u.ID, noteCreate{Content: strPtr("no title")})
	assert.True(t, isValidation(err))

	_, err = createNote(db, u.ID, noteCreate{Title: strPtr("   ")})
	assert.True(t, isValidation(err))
}

func TestListNotesNewestFirstAndScoped(t *testing.T) {
	db := newTestDB(t)
	alice := mustUser(t, db, "alice")
	bob := mustUser(t, db, "bob")

	for _, title := range []string{"first", "second", "third"} {
		_, err := createNote(db, alice.ID, noteCreate{Title: strPtr(title)})
		require.NoError(t, err)
	}
	_, err := createNote(db, bob.ID, noteCreate{Title: strPtr("bob's")})
	require.NoError(t, err)

	notes, err := listNotes(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "third", notes[0].Title)
	assert.Equal(t, "first", notes[2].Title)
	for _, n := range notes {
		assert.Equal(t, alice.ID, n.UserID)
	}

	empty, err := listNotes(db, mustUser(t, db, "carol").ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestForeignNoteIsNotFound(t *testing.T) {
	db := newTestDB(t)
	alice := mustUser(t, db, "alice")
	mallory := mustUser(t, db, "mallory")

	n, err := createNote(db, alice.ID, noteCreate{Title: strPtr("secret")})
	require.NoError(t, err)

	_, err = findNote(db, mallory.ID, n.ID)
	assert.ErrorIs(t, err, errNotFound)

	_, err = updateNote(db, mallory.ID, n.ID, noteUpdate{})
	assert.ErrorIs(t, err, errNotFound)

	assert.ErrorIs(t, deleteNote(db, mallory.ID, n.ID), errNotFound)

	still, err := findNote(db, alice.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", still.Title)
}

func TestUpdateNotePartial(t *testing.T) {
	db := newTestDB(t)
	u := mustUser(t, db, "alice")
	n, err := createNote(db, u.ID, noteCreate{Title: strPtr("draft"), Content: strPtr("body"), Tags: strPtr("x")})
	require.NoError(t, err)

	var in noteUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"title":"final","tags":null}`), &in))
	got, err := updateNote(db, u.ID, n.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	require.NotNil(t, got.Content)
	assert.Equal(t, "body", *got.Content)
	assert.Nil(t, got.Tags)
	assert.True(t, got.UpdatedAt.After(n.UpdatedAt))

	var nullTitle noteUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"title":null}`), &nullTitle))
	_, err = updateNote(db, u.ID, n.ID, nullTitle)
	assert.True(t, isValidation(err))
}

func TestEmptyUpdateOnlyRefreshesTimestamp(t *testing.T) {
	db := newTestDB(t)
	u := mustUser(t, db, "alice")
	n, err := createNote(db, u.ID, noteCreate{Title: strPtr("same"), Content: strPtr("same body")})
	require.NoError(t, err)

	got, err := updateNote(db, u.ID, n.ID, noteUpdate{})
	require.NoError(t, err)
	assert.Equal(t, n.Title, got.Title)
	assert.Equal(t, *n.Content, *got.Content)
	assert.Nil(t, got.Tags)
	assert.True(t, got.CreatedAt.Equal(n.CreatedAt))
	assert.True(t, got.UpdatedAt.After(n.UpdatedAt))

	reloaded, err := findNote(db, u.ID, n.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.UpdatedAt.Equal(got.UpdatedAt))
}

func TestNoteTagsLength(t *testing.T) {
	db := newTestDB(t)
	u := mustUser(t, db, "alice")

	_, err := createNote(db, u.ID, noteCreate{Title: strPtr("t"), Tags: strPtr(strings.Repeat("x", 256))})
	assert.True(t, isValidation(err))

	n, err := createNote(db, u.ID, noteCreate{Title: strPtr("t"), Tags: strPtr(strings.Repeat("é", 255))})
	require.NoError(t, err)

	var in noteUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"tags":"`+strings.Repeat("y", 256)+`"}`), &in))
	_, err = updateNote(db, u.ID, n.ID, in)
	assert.True(t, isValidation(err))

	got, err := findNote(db, u.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 255), *got.Tags)
}

func TestUpdateAfterDeleteDoesNotResurrect(t *testing.T) {
	db := newTestDB(t)
	u := mustUser(t, db, "alice")
	n, err := createNote(db, u.ID, noteCreate{Title: strPtr("gone soon")})
	require.NoError(t, err)

	// an update that read the row just before a concurrent delete
	stale, err := findNote(db, u.ID, n.ID)
	require.NoError(t, err)
	require.NoError(t, deleteNote(db, u.ID, n.ID))

	stale.Title = "edited"
	assert.ErrorIs(t, saveNote(db, u.ID, &stale), errNotFound)

	_, err = findNote(db, u.ID, n.ID)
	assert.ErrorIs(t, err, errNotFound)
	var count int64
	require.NoError(t, db.Model(&Note{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSaveNoteScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	alice := mustUser(t, db, "alice")
	mallory := mustUser(t, db, "mallory")
	n, err := createNote(db, alice.ID, noteCreate{Title: strPtr("mine")})
	require.NoError(t, err)

	n.Title = "hijacked"
	assert.ErrorIs(t, saveNote(db, mallory.ID, &n), errNotFound)

	got, err := findNote(db, alice.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
}
