package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todo/internal/service"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position in the task list, 0 if ID is set
	ID  string // task ID, empty if Num is set
}

// String returns the reference as the user typed it.
func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Num)
}

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrInvalidTaskRef indicates a token that is neither a number nor an ID.
	ErrInvalidTaskRef = errors.New("invalid task reference")

	// ErrTaskOutOfRange indicates a task number beyond the list.
	ErrTaskOutOfRange = errors.New("task number out of range")

	// ErrTaskNotFound indicates an unknown task ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrLoadTasks wraps a failure to read the task list.
	ErrLoadTasks = errors.New("could not load tasks")
)

// ParseTaskRef parses the first task reference in args.
//
// Parsing rules:
// 1. All digits → position in the full task list, starting at 1
// 2. Any other token without whitespace → task ID
// 3. Empty or whitespace-only → error: invalid task reference
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	return parseToken(args[0])
}

// ParseTaskRefs parses every argument as a task reference.
func ParseTaskRefs(args []string) ([]TaskRef, error) {
	if len(args) == 0 {
		return nil, ErrTaskRefRequired
	}
	refs := make([]TaskRef, 0, len(args))
	for _, arg := range args {
		ref, err := parseToken(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func parseToken(tok string) (TaskRef, error) {
	if isAllDigits(tok) {
		num, err := strconv.Atoi(tok)
		if err != nil {
			return TaskRef{}, fmt.Errorf("%w: %s", ErrInvalidTaskRef, tok)
		}
		if num < 1 {
			return TaskRef{}, fmt.Errorf("%w: %d", ErrTaskOutOfRange, num)
		}
		return TaskRef{Num: num}, nil
	}
	if strings.TrimSpace(tok) == "" || strings.IndexFunc(tok, unicode.IsSpace) >= 0 {
		return TaskRef{}, fmt.Errorf("%w: %q", ErrInvalidTaskRef, tok)
	}
	return TaskRef{ID: tok}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ResolveTasks resolves refs to tasks. Numbered refs index the full task
// list as printed by the list command, fetched at most once.
func ResolveTasks(ctx context.Context, svc service.DataSource, refs []TaskRef) ([]service.Task, error) {
	var all []service.Task
	loaded := false

	result := make([]service.Task, 0, len(refs))
	for _, ref := range refs {
		if ref.ID != "" {
			t, err := svc.GetTask(ctx, ref.ID)
			if service.IsNotFound(err) {
				return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, ref.ID)
			}
			if err != nil {
				return nil, err
			}
			result = append(result, t)
			continue
		}

		if !loaded {
			var err error
			all, err = svc.GetTasks(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrLoadTasks, err)
			}
			loaded = true
		}
		if ref.Num > len(all) {
			return nil, fmt.Errorf("%w: %d", ErrTaskOutOfRange, ref.Num)
		}
		result = append(result, all[ref.Num-1])
	}
	return result, nil
}
