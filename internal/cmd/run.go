package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/conductor/internal/capture"
	"github.com/Iron-Ham/conductor/internal/source"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <program> [args...]",
	Short: "Run the simulator and report conductor events",
	Long: `Run starts the simulator as a child process and captures its standard
output. Each batch of output is classified and printed as an event on
stderr; the original output is passed through to stdout unless
--no-redirect is given.

Use --pty for simulators that only flush their console when attached to
a terminal. Output under a pseudo-terminal uses CRLF line endings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var (
	runPTY                bool
	runNoRedirect         bool
	runNotifyUnrecognized bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runPTY, "pty", false, "run the program under a pseudo-terminal")
	runCmd.Flags().BoolVar(&runNoRedirect, "no-redirect", false, "do not pass program output through to stdout")
	runCmd.Flags().BoolVar(&runNotifyUnrecognized, "unrecognized", false, "also report output that matches no phrase")
}

func runRun(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	opts := rt.checkerOptions()
	if runNoRedirect {
		opts.Redirect = false
	}
	if runNotifyUnrecognized {
		opts.NotifyUnrecognized = true
	}
	if runPTY {
		opts.Newline = source.PTYNewline
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	console := capture.NewConsole(cmd.OutOrStdout())
	checker, err := rt.capture(console, cmd.ErrOrStderr(), opts)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := rt.startBackground(gctx, g); err != nil {
		_ = checker.Close()
		return err
	}

	g.Go(func() error {
		defer cancel()
		return source.Exec(gctx, console, source.ExecOptions{
			Path:   args[0],
			Args:   args[1:],
			PTY:    runPTY,
			Stdin:  cmd.InOrStdin(),
			Stderr: cmd.ErrOrStderr(),
		}, rt.logger)
	})

	runErr := g.Wait()
	if err := finish(checker); err != nil {
		return err
	}
	return runErr
}
