package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(&ListCmd{})
	Register(&RefreshCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list --filter <f>`.
type ListCmd struct {
	filter string
}

// SetFilter sets the filter name (for testing).
func (c *ListCmd) SetFilter(filter string) {
	c.filter = filter
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "todo list [--filter all|active|completed]" }
func (c *ListCmd) NeedsBackend() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.DataSource, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	return listTasks(ctx, cfg, svc, c.filter, out, errOut)
}

// RefreshCmd discards cached tasks and lists them again from the remote store.
type RefreshCmd struct {
	filter string
}

func (c *RefreshCmd) Name() string       { return "refresh" }
func (c *RefreshCmd) Aliases() []string  { return nil }
func (c *RefreshCmd) Synopsis() string   { return "Reload tasks from the remote store" }
func (c *RefreshCmd) Usage() string      { return "todo refresh [--filter all|active|completed]" }
func (c *RefreshCmd) NeedsBackend() bool { return true }

func (c *RefreshCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *RefreshCmd) Run(ctx context.Context, cfg *config.Config, svc service.DataSource, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if err := svc.RefreshTasks(ctx); err != nil {
		return reportError(errOut, err)
	}
	return listTasks(ctx, cfg, svc, c.filter, out, errOut)
}

// listTasks prints the tasks matching filterName. Numbers are positions in
// the unfiltered list so they stay valid as task references.
func listTasks(ctx context.Context, cfg *config.Config, svc service.DataSource, filterName string, out, errOut io.Writer) int {
	filter, err := service.ParseFilter(filterName)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	tasks, err := svc.GetTasks(ctx)
	if err != nil {
		return reportLoadError(errOut, err)
	}

	shown := 0
	for i, task := range tasks {
		if !filter.Matches(task) {
			continue
		}
		output.FormatTask(out, i+1, task)
		shown++
	}

	if shown == 0 && !cfg.Quiet {
		output.FormatNoTasks(out, filter)
	}
	return exitcode.Success
}
