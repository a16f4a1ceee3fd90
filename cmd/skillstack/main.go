package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conorfennell/skillstack/internal/api"
	"github.com/conorfennell/skillstack/internal/config"
	"github.com/conorfennell/skillstack/internal/logging"
	"github.com/conorfennell/skillstack/internal/store"
	"github.com/conorfennell/skillstack/internal/sync"
)

const usage = `Usage: skillstack [global flags] <command> [args]

Commands:
  list                              List tracked skills
  add --name N --type T --platform P [--notes X]
                                    Add a new learning goal
  import <file>                     Add every new goal listed in a file
  set <id> <field> <value>          Update progress, hours_spent, difficulty or notes
  summarize <id>                    Print an AI summary of a skill's notes
  delete <id> [--yes]               Delete a skill after confirmation
  serve                             Serve the web UI

Global flags:
`

// app wires the synchronization core for one process.
type app struct {
	cfg         config.Config
	logger      *slog.Logger
	client      *api.Client
	store       *store.Store
	coordinator *sync.Coordinator
	summarizer  *sync.Summarizer
	deleter     *sync.Deleter

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// reportedError marks an error the Reporter already showed to the user.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// 1. Parse global flags up to the command name
	fs := pflag.NewFlagSet("skillstack", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	// 2. Load configuration and build the core
	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	a := newApp(cfg, stdin, stdout, stderr)

	// 3. Dispatch
	command, rest := fs.Arg(0), fs.Args()[1:]
	var cmdErr error
	switch command {
	case "list":
		cmdErr = a.list(ctx)
	case "add":
		cmdErr = a.add(ctx, rest)
	case "import":
		cmdErr = a.importFile(ctx, rest)
	case "set":
		cmdErr = a.set(ctx, rest)
	case "summarize":
		cmdErr = a.summarize(ctx, rest)
	case "delete":
		cmdErr = a.delete(ctx, rest)
	case "serve":
		cmdErr = a.serve(ctx)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		fs.Usage()
		return 2
	}

	if cmdErr != nil {
		var reported reportedError
		if !errors.As(cmdErr, &reported) {
			fmt.Fprintf(stderr, "error: %v\n", cmdErr)
		}
		return 1
	}
	return 0
}

func newApp(cfg config.Config, stdin io.Reader, stdout, stderr io.Writer) *app {
	logger := logging.New(cfg.Log, stderr)

	client := api.New(
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		api.WithLogger(logger),
	)
	s := store.New(client, logger)

	reporter := sync.ReporterFunc(func(ctx context.Context, action string, err error) {
		logger.DebugContext(ctx, "Action failed", "action", action, "error", err)
		fmt.Fprintf(stderr, "error: %v\n", err)
	})

	return &app{
		cfg:         cfg,
		logger:      logger,
		client:      client,
		store:       s,
		coordinator: sync.NewCoordinator(s, client, reporter, sync.WithLogger(logger)),
		summarizer:  sync.NewSummarizer(client, s, reporter),
		deleter:     sync.NewDeleter(client, s, reporter),
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
	}
}
