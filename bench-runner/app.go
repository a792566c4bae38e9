package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App is the bench-runner CLI. Every command talks to a running solver
// backend over its HTTP API; nothing is solved locally.
type App struct {
	root    *cobra.Command
	stdout  io.Writer
	stderr  io.Writer
	client  *solverClient
	backend string
}

func NewApp() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "bench-runner",
		Short: "Benchmark and inspection client for the puzzle solver backend",
		Long: `bench-runner drives a running solver backend: submit solve requests,
repeat them as benchmarks, inspect the backend state and stream live
search progress.

Boards are passed as 16 characters, row by row: '*' is the agent, spaces
are blanks, anything else is a labeled block. Quote them in the shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.client = newSolverClient(app.backend)
		},
	}
	app.root.PersistentFlags().StringVar(&app.backend, "backend",
		getenv("SOLVER_BACKEND_URL", "http://localhost:8080"), "solver backend base URL")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newSolveCmd(),
		app.newBenchCmd(),
		app.newStatusCmd(),
		app.newWatchCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "bench-runner version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
