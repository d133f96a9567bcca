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
	Register(&ClearCmd{})
	Register(&PurgeCmd{})
}

// ClearCmd deletes every completed task.
type ClearCmd struct{}

func (c *ClearCmd) Name() string       { return "clear" }
func (c *ClearCmd) Aliases() []string  { return nil }
func (c *ClearCmd) Synopsis() string   { return "Delete completed tasks" }
func (c *ClearCmd) Usage() string      { return "todo clear" }
func (c *ClearCmd) NeedsBackend() bool { return true }

func (c *ClearCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ClearCmd) Run(ctx context.Context, cfg *config.Config, svc service.DataSource, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if err := svc.ClearCompletedTasks(ctx); err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// PurgeCmd deletes every task.
type PurgeCmd struct {
	force bool
}

// SetForce sets the force flag (for testing).
func (c *PurgeCmd) SetForce(force bool) {
	c.force = force
}

func (c *PurgeCmd) Name() string       { return "purge" }
func (c *PurgeCmd) Aliases() []string  { return nil }
func (c *PurgeCmd) Synopsis() string   { return "Delete all tasks" }
func (c *PurgeCmd) Usage() string      { return "todo purge --force" }
func (c *PurgeCmd) NeedsBackend() bool { return true }

func (c *PurgeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *PurgeCmd) Run(ctx context.Context, cfg *config.Config, svc service.DataSource, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if !c.force {
		fmt.Fprintln(errOut, "error: purge deletes every task (use --force)")
		return exitcode.UserError
	}
	if err := svc.DeleteAllTasks(ctx); err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
