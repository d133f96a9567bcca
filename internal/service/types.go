// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"strings"

	"github.com/google/uuid"
)

// Task represents a single todo item.
// Tasks are values: changing one means building a copy, never mutating a
// Task shared with another layer.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// NewTask creates an active task with a freshly generated ID.
func NewTask(title, description string) Task {
	return Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
	}
}

// IsActive reports whether the task is not completed.
func (t Task) IsActive() bool {
	return !t.Completed
}

// IsEmpty reports whether both title and description are blank.
func (t Task) IsEmpty() bool {
	return strings.TrimSpace(t.Title) == "" && strings.TrimSpace(t.Description) == ""
}

// TitleForList returns the title, falling back to the description.
func (t Task) TitleForList() string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	return t.Description
}

// WithCompleted returns a copy of the task with the given completion state.
func (t Task) WithCompleted(completed bool) Task {
	t.Completed = completed
	return t
}
