package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/service"
)

// reportError prints a write or lookup failure and returns its exit code.
func reportError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, ErrTaskRefRequired):
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	case errors.Is(err, ErrInvalidTaskRef), errors.Is(err, ErrTaskOutOfRange),
		errors.Is(err, ErrTaskNotFound), errors.Is(err, service.ErrEmptyTask):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// reportLoadError prints a failure to read the task list.
func reportLoadError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %v: %v\n", ErrLoadTasks, err)
	return exitcode.BackendError
}

// resolveArgs parses args as task references and resolves them.
// On failure it prints the error and returns a non-zero exit code.
func resolveArgs(ctx context.Context, svc service.DataSource, args []string, errOut io.Writer) ([]service.Task, int) {
	refs, err := ParseTaskRefs(args)
	if err != nil {
		return nil, reportError(errOut, err)
	}

	tasks, err := ResolveTasks(ctx, svc, refs)
	if err != nil {
		if errors.Is(err, ErrLoadTasks) {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return nil, exitcode.BackendError
		}
		return nil, reportError(errOut, err)
	}
	return tasks, exitcode.Success
}
