package main

import (
	"net/http"

	"gorm.io/gorm"
)

type chatRequest struct {
	Message *string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// POST /assistant/chat
func handleAssistantChat(w http.ResponseWriter, r *http.Request, db *gorm.DB, caller User) {
	var in chatRequest
	if err := decodeJSON(r, &in); err != nil {
		storeError(w, "Assistant", err)
		return
	}
	if in.Message == nil {
		storeError(w, "Assistant", invalid("message is required"))
		return
	}

	notes, err := listNotes(db, caller.ID)
	if err != nil {
		storeError(w, "Assistant", err)
		return
	}
	tasks, err := listTasks(db, caller.ID)
	if err != nil {
		storeError(w, "Assistant", err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: assistantReply(*in.Message, notes, tasks)})
}
