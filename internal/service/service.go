// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// DataSource defines the interface for task storage operations.
// The local store, every remote backend and the caching repository all
// implement it, so consumers never know which one they talk to.
type DataSource interface {
	// GetTasks returns all tasks in insertion order.
	GetTasks(ctx context.Context) ([]Task, error)

	// GetTask returns the task with the given ID.
	GetTask(ctx context.Context, id string) (Task, error)

	// SaveTask inserts the task or replaces the one with the same ID.
	SaveTask(ctx context.Context, task Task) error

	// CompleteTask marks the task as completed.
	CompleteTask(ctx context.Context, task Task) error

	// CompleteTaskByID marks a task completed by ID.
	// Stores that cannot resolve IDs on their own treat this as a no-op.
	CompleteTaskByID(ctx context.Context, id string) error

	// ActivateTask marks the task as active again.
	ActivateTask(ctx context.Context, task Task) error

	// ActivateTaskByID marks a task active by ID.
	// Stores that cannot resolve IDs on their own treat this as a no-op.
	ActivateTaskByID(ctx context.Context, id string) error

	// ClearCompletedTasks deletes every completed task.
	ClearCompletedTasks(ctx context.Context) error

	// RefreshTasks invalidates any cached state.
	RefreshTasks(ctx context.Context) error

	// DeleteAllTasks deletes every task.
	DeleteAllTasks(ctx context.Context) error

	// DeleteTask deletes the task with the given ID.
	DeleteTask(ctx context.Context, id string) error
}
