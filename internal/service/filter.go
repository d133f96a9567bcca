package service

import (
	"fmt"
	"strings"
)

// FilterType selects which tasks a listing shows.
type FilterType string

const (
	FilterAll       FilterType = "all"
	FilterActive    FilterType = "active"
	FilterCompleted FilterType = "completed"
)

// ParseFilter parses a filter name (case-insensitive, trimmed).
// An empty name means FilterAll.
func ParseFilter(s string) (FilterType, error) {
	switch FilterType(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive:
		return FilterActive, nil
	case FilterCompleted:
		return FilterCompleted, nil
	default:
		return "", fmt.Errorf("invalid filter: %s", s)
	}
}

// Matches reports whether the task passes the filter.
func (f FilterType) Matches(t Task) bool {
	switch f {
	case FilterActive:
		return t.IsActive()
	case FilterCompleted:
		return !t.IsActive()
	default:
		return true
	}
}

// Filter returns the tasks matching the filter, preserving order.
func Filter(tasks []Task, filter FilterType) []Task {
	result := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Matches(t) {
			result = append(result, t)
		}
	}
	return result
}

// Statistics holds the active and completed task counts.
type Statistics struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// Total returns the number of tasks counted.
func (s Statistics) Total() int {
	return s.Active + s.Completed
}

// ComputeStatistics counts active and completed tasks.
func ComputeStatistics(tasks []Task) Statistics {
	var stats Statistics
	for _, t := range tasks {
		if t.Completed {
			stats.Completed++
		} else {
			stats.Active++
		}
	}
	return stats
}
