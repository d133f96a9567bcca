package googletasks

import (
	"strings"

	tasks "google.golang.org/api/tasks/v1"

	"todo/internal/service"
)

const (
	markerPrefix = "[todo:"
	markerSuffix = "]"
)

// encodeNotes appends the task ID marker to the description.
func encodeNotes(description, id string) string {
	marker := markerPrefix + id + markerSuffix
	if strings.TrimSpace(description) == "" {
		return marker
	}
	return description + "\n\n" + marker
}

// decodeNotes splits notes into the description and the marked task ID.
// ok is false when the notes carry no marker.
func decodeNotes(notes string) (description, id string, ok bool) {
	trimmed := strings.TrimRight(notes, " \t\r\n")
	idx := strings.LastIndex(trimmed, "\n")
	last := trimmed[idx+1:]
	if !strings.HasPrefix(last, markerPrefix) || !strings.HasSuffix(last, markerSuffix) {
		return notes, "", false
	}
	id = strings.TrimSuffix(strings.TrimPrefix(last, markerPrefix), markerSuffix)
	if id == "" {
		return notes, "", false
	}
	if idx < 0 {
		return "", id, true
	}
	return strings.TrimRight(trimmed[:idx], " \t\r\n"), id, true
}

// taskID returns the ID the repository knows the API task by.
func taskID(item *tasks.Task) string {
	if _, id, ok := decodeNotes(item.Notes); ok {
		return id
	}
	return item.Id
}

func fromAPI(item *tasks.Task) service.Task {
	description, id, ok := decodeNotes(item.Notes)
	if !ok {
		id = item.Id
	}
	return service.Task{
		ID:          id,
		Title:       item.Title,
		Description: description,
		Completed:   item.Status == statusCompleted,
	}
}

func toAPI(t service.Task) *tasks.Task {
	status := statusNeedsAction
	if t.Completed {
		status = statusCompleted
	}
	return &tasks.Task{
		Title:  t.Title,
		Notes:  encodeNotes(t.Description, t.ID),
		Status: status,
		// An emptied title must still reach the API on patch.
		ForceSendFields: []string{"Title", "Notes", "Status"},
	}
}
