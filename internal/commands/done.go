package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&DoneCmd{})
	Register(&UndoCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string   { return "Mark tasks completed" }
func (c *DoneCmd) Usage() string      { return "todo done <ref>..." }
func (c *DoneCmd) NeedsBackend() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.DataSource, args []string, out, errOut io.Writer) int {
	return applyToTasks(ctx, cfg, svc, args, out, errOut, svc.CompleteTask)
}

// UndoCmd marks completed tasks active again.
type UndoCmd struct{}

func (c *UndoCmd) Name() string       { return "undo" }
func (c *UndoCmd) Aliases() []string  { return []string{"activate"} }
func (c *UndoCmd) Synopsis() string   { return "Mark tasks active" }
func (c *UndoCmd) Usage() string      { return "todo undo <ref>..." }
func (c *UndoCmd) NeedsBackend() bool { return true }

func (c *UndoCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoCmd) Run(ctx context.Context, cfg *config.Config, svc service.DataSource, args []string, out, errOut io.Writer) int {
	return applyToTasks(ctx, cfg, svc, args, out, errOut, svc.ActivateTask)
}

// applyToTasks resolves every reference before applying op, so numbers refer
// to the list as it was when the command started.
func applyToTasks(ctx context.Context, cfg *config.Config, svc service.DataSource, args []string, out, errOut io.Writer,
	op func(context.Context, service.Task) error) int {
	tasks, code := resolveArgs(ctx, svc, args, errOut)
	if code != exitcode.Success {
		return code
	}

	for _, task := range tasks {
		if err := op(ctx, task); err != nil {
			return reportError(errOut, err)
		}
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
