package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/api"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/logging"
	"todo/internal/service"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd exposes the tasks over HTTP until interrupted.
type ServeCmd struct {
	addr string
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Serve the HTTP API" }
func (c *ServeCmd) Usage() string      { return "todo serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsBackend() bool { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.DataSource, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	addr := c.addr
	if addr == "" {
		addr = cfg.Settings.Server.Addr
	}
	if addr == "" {
		fmt.Fprintln(errOut, "error: no listen address (use --addr or server.addr)")
		return exitcode.UserError
	}

	srv := api.NewServer(addr, svc, logging.FromContext(ctx, nil))
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
