package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/testutil"
)

// testFactory creates a service factory that returns the given fake.
func testFactory(svc service.DataSource) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config) (service.DataSource, error) {
		return svc, nil
	}
}

// run dispatches args with --config pointing at a fresh directory so no user
// settings leak into the test.
func run(t *testing.T, d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	return runInDir(t, d, t.TempDir(), args...)
}

func runInDir(t *testing.T, d *cli.Dispatcher, dir string, args ...string) (stdout, stderr string, code int) {
	t.Helper()

	full := args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		full = append([]string{args[0], "--config", dir}, args[1:]...)
	}

	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), full, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeRemote()))

	_, stderr, code := run(t, dispatcher, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeRemote()))

	_, stderr, code := run(t, dispatcher, "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeRemote()))

	stdout, stderr, code := run(t, dispatcher, "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeRemote()))

	stdout, stderr, code := run(t, dispatcher, "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "todo 0.1.0\n" {
		t.Errorf("expected 'todo 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeRemote()))

	_, stderr, code := run(t, dispatcher, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_MissingFlagValue(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeRemote()))

	_, stderr, code := run(t, dispatcher, "list", "--filter")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -filter\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoArgsListsTasks(t *testing.T) {
	svc := testutil.NewFakeRemote()
	svc.AddTasks(service.Task{ID: "a", Title: "Buy milk"})
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), nil, &stdout, &stderr)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if stdout.String() != "   1  [ ] Buy milk\n" {
		t.Errorf("unexpected output %q", stdout.String())
	}
}

func TestDispatcher_AliasAndFlags(t *testing.T) {
	svc := testutil.NewFakeRemote()
	svc.AddTasks(
		service.Task{ID: "a", Title: "Buy milk"},
		service.Task{ID: "b", Title: "Buy eggs", Completed: true},
	)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	stdout, stderr, code := run(t, dispatcher, "ls", "-f", "completed")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "   2  [x] Buy eggs\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestDispatcher_QuietFlag(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeRemote()))

	stdout, stderr, code := run(t, dispatcher, "add", "--quiet", "Buy bread")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
}

func TestDispatcher_FactoryNotCalledForLocalCommands(t *testing.T) {
	var calls atomic.Int32
	factory := func(ctx context.Context, cfg *config.Config) (service.DataSource, error) {
		calls.Add(1)
		return testutil.NewFakeRemote(), nil
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	for _, name := range []string{"help", "version", "logout"} {
		if _, stderr, code := run(t, dispatcher, name); code != exitcode.Success {
			t.Errorf("%s: expected exit code %d, got %d (stderr %q)", name, exitcode.Success, code, stderr)
		}
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("expected no factory calls, got %d", n)
	}
}

func TestDispatcher_FactoryErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "auth",
			err:      errors.New("failed to read token.json: no such file"),
			wantCode: exitcode.AuthError,
			wantErr:  "error: auth error: failed to read token.json: no such file\n",
		},
		{
			name:     "backend",
			err:      errors.New("failed to connect to postgres: connection refused"),
			wantCode: exitcode.BackendError,
			wantErr:  "error: backend error: failed to connect to postgres: connection refused\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := func(ctx context.Context, cfg *config.Config) (service.DataSource, error) {
				return nil, tt.err
			}
			dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

			_, stderr, code := run(t, dispatcher, "list")

			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
			if stderr != tt.wantErr {
				t.Errorf("expected %q, got %q", tt.wantErr, stderr)
			}
		})
	}
}

func TestDispatcher_NoFactory(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	_, stderr, code := run(t, dispatcher, "list")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: no task store configured\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	settings := "remote:\n  backend: carrier-pigeon\n"
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte(settings), 0600); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeRemote()))

	_, stderr, code := runInDir(t, dispatcher, dir, "list")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.HasPrefix(stderr, "error: config error: ") {
		t.Errorf("expected config error, got %q", stderr)
	}
}

type closingFake struct {
	*testutil.FakeDataSource
	closed bool
}

func (c *closingFake) Close() error {
	c.closed = true
	return nil
}

func TestDispatcher_ClosesStores(t *testing.T) {
	svc := &closingFake{FakeDataSource: testutil.NewFakeRemote()}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	if _, stderr, code := run(t, dispatcher, "stats"); code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if !svc.closed {
		t.Error("expected the stores to be closed after the command")
	}
}

func TestDispatcher_DebugLogsToStderr(t *testing.T) {
	svc := testutil.NewFakeRemote()
	svc.GetTasksErr = errors.New("connection refused")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	_, stderr, code := run(t, dispatcher, "stats", "--debug")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.Contains(stderr, "error: could not load tasks: connection refused\n") {
		t.Errorf("expected load error, got %q", stderr)
	}
}
