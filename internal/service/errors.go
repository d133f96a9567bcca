package service

import "errors"

var (
	// ErrLocalNotFound is returned when the local store has no matching rows.
	ErrLocalNotFound = errors.New("local data not found")

	// ErrRemoteNotFound is returned when the remote store has no matching data
	// or cannot be reached.
	ErrRemoteNotFound = errors.New("remote data not found")

	// ErrDataSource is a generic data source failure.
	ErrDataSource = errors.New("data source exception")

	// ErrEmptyTask is returned when a task has neither title nor description.
	ErrEmptyTask = errors.New("task title and description are empty")
)

// IsNotFound reports whether err means the requested data does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLocalNotFound) || errors.Is(err, ErrRemoteNotFound)
}
