package main

import "time"

// User is the local account anchored to one external identity.
// Notes and tasks reference it with ON DELETE CASCADE.
type User struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	FirebaseUID string    `gorm:"uniqueIndex;size:128;not null" json:"firebase_uid"`
	Email       string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName allows explicit control (defaults to "users").
func (User) TableName() string { return "users" }
