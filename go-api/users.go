package main

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
)

var errEmailTaken = errors.New("email already in use")

// placeholderEmail stands in when the provider gives no email. It is scoped
// to the subject so it can't collide with the unique email index.
func placeholderEmail(subject string) string {
	return "unknown+" + subject + "@example.com"
}

// resolveUser returns the local account for claim, creating it on first sight.
func resolveUser(db *gorm.DB, claim Claim) (User, error) {
	var u User
	err := db.Where("firebase_uid = ?", claim.Subject).First(&u).Error
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return createOrReselect(db, claim)
}

// createOrReselect inserts a user for claim. If a concurrent first request
// already inserted the same subject, the unique index rejects ours and we
// return theirs instead.
func createOrReselect(db *gorm.DB, claim Claim) (User, error) {
	email := strings.TrimSpace(strings.ToLower(claim.Email))
	if email == "" {
		email = placeholderEmail(claim.Subject)
	}
	u := User{ID: newUserID(), FirebaseUID: claim.Subject, Email: email}
	err := db.Create(&u).Error
	if err == nil {
		log.Printf("[users] created %s for subject %s", u.ID, claim.Subject)
		return u, nil
	}
	if !isUniqueViolation(err) {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	var existing User
	if err := db.Where("firebase_uid = ?", claim.Subject).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// the conflict was on email, not subject
			return User{}, errEmailTaken
		}
		return User{}, fmt.Errorf("reselect user: %w", err)
	}
	return existing, nil
}

// isUniqueViolation relies on TranslateError in gormConfig.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// deleteUserBySubject removes the account and, through the foreign keys,
// every note and task it owns. Reports whether a row was deleted.
func deleteUserBySubject(db *gorm.DB, subject string) (bool, error) {
	res := db.Where("firebase_uid = ?", subject).Delete(&User{})
	if res.Error != nil {
		return false, fmt.Errorf("delete user: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
