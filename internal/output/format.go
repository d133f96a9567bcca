// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todo/internal/service"
)

// FormatTask formats a task line for the task list.
// Format: "{N:>4}  [x] {TITLE}\n" (4-wide right-aligned number, two spaces,
// checkbox, title). The title falls back to the description.
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  [%s] %s\n", num, checkbox(task), normalizeTitle(task.TitleForList()))
}

// FormatNoTasks prints the empty-state message for filter.
func FormatNoTasks(w io.Writer, filter service.FilterType) {
	switch filter {
	case service.FilterActive:
		fmt.Fprintln(w, "You have no active TODOs!")
	case service.FilterCompleted:
		fmt.Fprintln(w, "You have no completed TODOs!")
	default:
		fmt.Fprintln(w, "You have no TODOs!")
	}
}

// FormatTaskDetail formats every field of a task.
func FormatTaskDetail(w io.Writer, task service.Task) {
	status := "active"
	if task.Completed {
		status = "completed"
	}
	fmt.Fprintf(w, "ID:          %s\n", task.ID)
	fmt.Fprintf(w, "Title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "Status:      %s\n", status)
	if strings.TrimSpace(task.Description) != "" {
		fmt.Fprintln(w, "Description:")
		for _, line := range strings.Split(task.Description, "\n") {
			fmt.Fprintf(w, "  %s\n", strings.TrimRight(line, "\r"))
		}
	}
}

// FormatStatistics formats task counts.
func FormatStatistics(w io.Writer, stats service.Statistics) {
	if stats.Total() == 0 {
		fmt.Fprintln(w, "You have no tasks.")
		return
	}
	fmt.Fprintf(w, "Active tasks: %d\n", stats.Active)
	fmt.Fprintf(w, "Completed tasks: %d\n", stats.Completed)
}

func checkbox(task service.Task) string {
	if task.Completed {
		return "x"
	}
	return " "
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
