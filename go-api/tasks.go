package main

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

/* ===================== Payloads ====================== */

type taskCreate struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Status      *TaskStatus   `json:"status"`
	Priority    *TaskPriority `json:"priority"`
	NoteID      *uint         `json:"note_id"`
}

type taskUpdate struct {
	Title       optional[string]       `json:"title"`
	Description optional[string]       `json:"description"`
	Status      optional[TaskStatus]   `json:"status"`
	Priority    optional[TaskPriority] `json:"priority"`
	NoteID      optional[uint]         `json:"note_id"`
}

/* ===================== Store ====================== */

func listTasks(db *gorm.DB, userID string) ([]Task, error) {
	tasks := []Task{}
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func findTask(db *gorm.DB, userID string, id uint) (Task, error) {
	var t Task
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Task{}, errNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("find task: %w", err)
	}
	return t, nil
}

// checkNoteRef makes sure a task only ever points at one of its owner's notes.
func checkNoteRef(db *gorm.DB, userID string, noteID *uint) error {
	if noteID == nil {
		return nil
	}
	if _, err := findNote(db, userID, *noteID); err != nil {
		if errors.Is(err, errNotFound) {
			return invalid("note_id %d does not reference one of your notes", *noteID)
		}
		return err
	}
	return nil
}

func createTask(db *gorm.DB, userID string, in taskCreate) (Task, error) {
	title, err := requireTitle(in.Title)
	if err != nil {
		return Task{}, err
	}
	t := Task{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		Status:      StatusTodo,
		Priority:    PriorityMedium,
		NoteID:      in.NoteID,
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if err := checkNoteRef(db, userID, t.NoteID); err != nil {
		return Task{}, err
	}
	if err := db.Create(&t).Error; err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func updateTask(db *gorm.DB, userID string, id uint, in taskUpdate) (Task, error) {
	t, err := findTask(db, userID, id)
	if err != nil {
		return Task{}, err
	}
	if err := in.Title.applyRequired(&t.Title, "title"); err != nil {
		return Task{}, err
	}
	if in.Title.Set {
		if t.Title, err = requireTitle(&t.Title); err != nil {
			return Task{}, err
		}
	}
	if err := in.Status.applyRequired(&t.Status, "status"); err != nil {
		return Task{}, err
	}
	if err := in.Priority.applyRequired(&t.Priority, "priority"); err != nil {
		return Task{}, err
	}
	in.Description.applyNullable(&t.Description)
	if in.NoteID.Set && !in.NoteID.Null {
		if err := checkNoteRef(db, userID, &in.NoteID.Value); err != nil {
			return Task{}, err
		}
	}
	in.NoteID.applyNullable(&t.NoteID)

	if err := saveTask(db, userID, &t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// saveTask is saveNote for tasks.
func saveTask(db *gorm.DB, userID string, t *Task) error {
	res := db.Model(t).Where("user_id = ?", userID).Select("*").Omit("created_at").Updates(t)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

func deleteTask(db *gorm.DB, userID string, id uint) error {
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

/* ===================== HTTP ====================== */

// GET /tasks
func handleListTasks(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	tasks, err := listTasks(db, caller.ID)
	if err != nil {
		storeError(w, "Task", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// POST /tasks
func handleCreateTask(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	var in taskCreate
	if err := decodeJSON(r, &in); err != nil {
		storeError(w, "Task", err)
		return
	}
	t, err := createTask(db, caller.ID, in)
	if err != nil {
		storeError(w, "Task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GET /tasks/{id}
func handleGetTask(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	id, ok := pathID(r)
	if !ok {
		storeError(w, "Task", errNotFound)
		return
	}
	t, err := findTask(db, caller.ID, id)
	if err != nil {
		storeError(w, "Task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// PUT /tasks/{id}
func handleUpdateTask(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	id, ok := pathID(r)
	if !ok {
		storeError(w, "Task", errNotFound)
		return
	}
	var in taskUpdate
	if err := decodeJSON(r, &in); err != nil {
		storeError(w, "Task", err)
		return
	}
	t, err := updateTask(db, caller.ID, id, in)
	if err != nil {
		storeError(w, "Task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DELETE /tasks/{id}
func handleDeleteTask(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	id, ok := pathID(r)
	if !ok {
		storeError(w, "Task", errNotFound)
		return
	}
	if err := deleteTask(db, caller.ID, id); err != nil {
		storeError(w, "Task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
