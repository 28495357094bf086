package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/conductor/internal/capture"
	"github.com/Iron-Ham/conductor/internal/source"
)

var tailCmd = &cobra.Command{
	Use:   "tail <file>",
	Short: "Follow a simulator console log and report conductor events",
	Long: `Tail follows a file the simulator appends its console output to and
reports conductor events for every new line until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runTail,
}

var (
	tailFromStart bool
	tailPoll      bool
	tailNoEcho    bool
)

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().BoolVar(&tailFromStart, "from-start", false, "replay existing file content first")
	tailCmd.Flags().BoolVar(&tailPoll, "poll", false, "poll for changes instead of using inotify")
	tailCmd.Flags().BoolVar(&tailNoEcho, "no-echo", false, "do not echo tailed lines to stdout")
}

func runTail(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	opts := rt.checkerOptions()
	if tailNoEcho {
		opts.Redirect = false
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
		return source.Tail(gctx, args[0], console, source.TailOptions{
			FromStart: tailFromStart,
			Poll:      tailPoll,
			Newline:   opts.Newline,
		}, rt.logger)
	})

	runErr := g.Wait()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if err := finish(checker); err != nil {
		return err
	}
	return runErr
}
