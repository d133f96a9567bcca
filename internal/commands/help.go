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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "todo help" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.DataSource, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  todo                                       List all tasks
  todo list [common flags] [--filter <f>]    List tasks (f: all, active, completed)
  todo refresh [common flags] [--filter <f>] Reload tasks from the remote store and list them
  todo show [common flags] <ref>
  todo add [common flags] [-d <description>] <title...>
  todo create [common flags] [-d <description>] <title...>
  todo edit [common flags] [-t <title>] [-d <description>] <ref>
  todo done [common flags] <ref>...
  todo undo [common flags] <ref>...
  todo rm [common flags] <ref>...
  todo clear [common flags]                  Delete completed tasks
  todo purge [common flags] --force          Delete all tasks
  todo stats [common flags]
  todo serve [common flags] [--addr <host:port>]
  todo login [common flags]
  todo logout [common flags]
  todo help
  todo version

A <ref> is a task number from 'todo list' or a task ID.

The default memory remote lives only for one run. It starts as a copy of the
local store, or with two sample tasks when that is empty, so refresh keeps
tasks added in earlier runs. Set remote.backend for a shared remote.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
