package main

import (
	"fmt"
	"strings"
)

const (
	assistantListLimit = 5

	replyNothingToSummarize = "You don't have any notes or tasks yet, so there's nothing to summarize. " +
		"Create a note or a task and ask me again."
	replyNoTasks = "You don't have any tasks yet. Try creating 2-3 small tasks for today, " +
		"then ask me what to do next."
	replyHelp = "I can help you stay on top of your notes and tasks. Try asking:\n" +
		"- \"Give me a summary\"\n" +
		"- \"Summarize my notes\"\n" +
		"- \"What should I do next?\""
)

// assistantRule is one branch of the responder. Rules are tried in order and
// the first matching one answers.
type assistantRule struct {
	name    string
	matches func(msg string) bool
	reply   func(notes []Note, tasks []Task) string
}

var assistantRules = []assistantRule{
	{
		name:    "summary",
		matches: mentionsAny("summary", "summarize"),
		reply:   summaryReply,
	},
	{
		name:    "next",
		matches: mentionsAny("what should i do", "next"),
		reply:   nextTaskReply,
	},
}

func mentionsAny(words ...string) func(string) bool {
	return func(msg string) bool {
		for _, w := range words {
			if strings.Contains(msg, w) {
				return true
			}
		}
		return false
	}
}

// assistantReply answers message from the caller's notes and tasks, which are
// expected newest first. It is pure: no state, no randomness.
func assistantReply(message string, notes []Note, tasks []Task) string {
	msg := strings.ToLower(message)
	for _, rule := range assistantRules {
		if rule.matches(msg) {
			return rule.reply(notes, tasks)
		}
	}
	return replyHelp
}

func summaryReply(notes []Note, tasks []Task) string {
	if len(notes) == 0 && len(tasks) == 0 {
		return replyNothingToSummarize
	}

	var b strings.Builder
	b.WriteString("Here's a quick summary of your workspace.\n")

	fmt.Fprintf(&b, "\nNotes (%d):\n", len(notes))
	if len(notes) == 0 {
		b.WriteString("- (no notes yet)\n")
	}
	for _, n := range notes[:min(len(notes), assistantListLimit)] {
		fmt.Fprintf(&b, "- #%d %s\n", n.ID, n.Title)
	}

	fmt.Fprintf(&b, "\nTasks (%d):\n", len(tasks))
	if len(tasks) == 0 {
		b.WriteString("- (no tasks yet)\n")
	}
	for _, t := range tasks[:min(len(tasks), assistantListLimit)] {
		fmt.Fprintf(&b, "- [%s] %s (priority: %s)\n", t.Status, t.Title, t.Priority)
	}
	return strings.TrimRight(b.String(), "\n")
}

func nextTaskReply(_ []Note, tasks []Task) string {
	if len(tasks) == 0 {
		return replyNoTasks
	}
	for _, t := range tasks {
		if t.Priority == PriorityHigh {
			return fmt.Sprintf("Focus on your high-priority task \"%s\" first (currently %s).", t.Title, t.Status)
		}
	}
	t := tasks[0]
	return fmt.Sprintf("No high-priority tasks right now. Start with \"%s\" (currently %s, priority %s).",
		t.Title, t.Status, t.Priority)
}
