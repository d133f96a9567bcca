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
	Register(&StatsCmd{})
}

// StatsCmd prints active and completed task counts.
type StatsCmd struct{}

func (c *StatsCmd) Name() string       { return "stats" }
func (c *StatsCmd) Aliases() []string  { return []string{"statistics"} }
func (c *StatsCmd) Synopsis() string   { return "Show task statistics" }
func (c *StatsCmd) Usage() string      { return "todo stats" }
func (c *StatsCmd) NeedsBackend() bool { return true }

func (c *StatsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatsCmd) Run(ctx context.Context, cfg *config.Config, svc service.DataSource, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	tasks, err := svc.GetTasks(ctx)
	if err != nil {
		return reportLoadError(errOut, err)
	}
	output.FormatStatistics(out, service.ComputeStatistics(tasks))
	return exitcode.Success
}
