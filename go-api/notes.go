package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"gorm.io/gorm"
)

var errNotFound = errors.New("not found")

/* ===================== Payloads ====================== */

type noteCreate struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Tags    *string `json:"tags"`
}

type noteUpdate struct {
	Title   optional[string] `json:"title"`
	Content optional[string] `json:"content"`
	Tags    optional[string] `json:"tags"`
}

/* ===================== Store ====================== */

func listNotes(db *gorm.DB, userID string) ([]Note, error) {
	notes := []Note{}
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// findNote returns errNotFound both for missing ids and for other users' notes.
func findNote(db *gorm.DB, userID string, id uint) (Note, error) {
	var n Note
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, errNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("find note: %w", err)
	}
	return n, nil
}

func createNote(db *gorm.DB, userID string, in noteCreate) (Note, error) {
	title, err := requireTitle(in.Title)
	if err != nil {
		return Note{}, err
	}
	if err := checkTags(in.Tags); err != nil {
		return Note{}, err
	}
	n := Note{UserID: userID, Title: title, Content: in.Content, Tags: in.Tags}
	if err := db.Create(&n).Error; err != nil {
		return Note{}, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

// updateNote applies only the fields present in the payload. UpdatedAt is
// refreshed even when nothing else changes.
func updateNote(db *gorm.DB, userID string, id uint, in noteUpdate) (Note, error) {
	n, err := findNote(db, userID, id)
	if err != nil {
		return Note{}, err
	}
	if err := in.Title.applyRequired(&n.Title, "title"); err != nil {
		return Note{}, err
	}
	if in.Title.Set {
		if n.Title, err = requireTitle(&n.Title); err != nil {
			return Note{}, err
		}
	}
	in.Content.applyNullable(&n.Content)
	in.Tags.applyNullable(&n.Tags)
	if err := checkTags(n.Tags); err != nil {
		return Note{}, err
	}

	if err := saveNote(db, userID, &n); err != nil {
		return Note{}, err
	}
	return n, nil
}

// saveNote writes every column of n except created_at. It only ever updates:
// a note deleted since it was read stays deleted and yields errNotFound.
func saveNote(db *gorm.DB, userID string, n *Note) error {
	res := db.Model(n).Where("user_id = ?", userID).Select("*").Omit("created_at").Updates(n)
	if res.Error != nil {
		return fmt.Errorf("update note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

// deleteNote removes the note; tasks pointing at it keep living with note_id
// cleared by the ON DELETE SET NULL constraint.
func deleteNote(db *gorm.DB, userID string, id uint) error {
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&Note{})
	if res.Error != nil {
		return fmt.Errorf("delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

/* ===================== HTTP ====================== */

// storeError maps store/validation errors onto the API's status codes.
func storeError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, errNotFound):
		errorJSON(w, http.StatusNotFound, what+" not found")
	case isValidation(err):
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("[%s] %v", what, err)
		errorJSON(w, http.StatusInternalServerError, "db error")
	}
}

// GET /notes
func handleListNotes(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	notes, err := listNotes(db, caller.ID)
	if err != nil {
		storeError(w, "Note", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// POST /notes
func handleCreateNote(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	var in noteCreate
	if err := decodeJSON(r, &in); err != nil {
		storeError(w, "Note", err)
		return
	}
	n, err := createNote(db, caller.ID, in)
	if err != nil {
		storeError(w, "Note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// GET /notes/{id}
func handleGetNote(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	id, ok := pathID(r)
	if !ok {
		storeError(w, "Note", errNotFound)
		return
	}
	n, err := findNote(db, caller.ID, id)
	if err != nil {
		storeError(w, "Note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// PUT /notes/{id}
func handleUpdateNote(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	id, ok := pathID(r)
	if !ok {
		storeError(w, "Note", errNotFound)
		return
	}
	var in noteUpdate
	if err := decodeJSON(r, &in); err != nil {
		storeError(w, "Note", err)
		return
	}
	n, err := updateNote(db, caller.ID, id, in)
	if err != nil {
		storeError(w, "Note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// DELETE /notes/{id}
func handleDeleteNote(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	id, ok := pathID(r)
	if !ok {
		storeError(w, "Note", errNotFound)
		return
	}
	if err := deleteNote(db, caller.ID, id); err != nil {
		storeError(w, "Note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
