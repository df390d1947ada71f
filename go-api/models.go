package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

/* ===================== Enumerations ====================== */

type TaskStatus string

const (
	StatusTodo  TaskStatus = "todo"
	StatusDoing TaskStatus = "doing"
	StatusDone  TaskStatus = "done"
)

func parseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusTodo:
		return StatusTodo, nil
	case StatusDoing:
		return StatusDoing, nil
	case StatusDone:
		return StatusDone, nil
	}
	return "", fmt.Errorf("status must be one of todo, doing, done (got %q)", s)
}

func (s *TaskStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("status must be a string")
	}
	v, err := parseTaskStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func parseTaskPriority(s string) (TaskPriority, error) {
	switch TaskPriority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("priority must be one of low, medium, high (got %q)", s)
}

func (p *TaskPriority) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("priority must be a string")
	}
	v, err := parseTaskPriority(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

/* ===================== DB models ====================== */

// Note is an owned free-text record. Tags is one delimited string.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:text;not null;index:idx_notes_user_created,priority:1" json:"-"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   *string   `gorm:"type:text" json:"content"`
	Tags      *string   `gorm:"size:255" json:"tags"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_notes_user_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Note) TableName() string { return "notes" }

// Task optionally points at a Note; the reference is cleared when the note goes away.
type Task struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      string       `gorm:"type:text;not null;index:idx_tasks_user_created,priority:1" json:"-"`
	User        *User        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	NoteID      *uint        `gorm:"index" json:"note_id"`
	Note        *Note        `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description *string      `gorm:"type:text" json:"description"`
	Status      TaskStatus   `gorm:"size:16;not null;default:todo" json:"status"`
	Priority    TaskPriority `gorm:"size:16;not null;default:medium" json:"priority"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;index:idx_tasks_user_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }
