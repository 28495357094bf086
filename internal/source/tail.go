package source

import (
	"context"
	"fmt"
	"io"

	"github.com/nxadm/tail"

	"github.com/Iron-Ham/conductor/internal/logging"
)

// TailOptions configures Tail.
type TailOptions struct {
	// FromStart replays the existing file content before following.
	FromStart bool
	// Poll uses stat polling instead of inotify, for network filesystems.
	Poll bool
	// Newline is appended to every line written to out. Empty means "\n".
	Newline string
}

// Tail follows path and writes each new line, with its terminator, to out in
// a single Write. It survives the file being truncated or recreated and
// returns nil when ctx is cancelled.
func Tail(ctx context.Context, path string, out io.Writer, opts TailOptions, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.WithComponent("tail").With("file", path)

	newline := opts.Newline
	if newline == "" {
		newline = "\n"
	}

	whence := io.SeekEnd
	if opts.FromStart {
		whence = io.SeekStart
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      opts.Poll,
		Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("tailing %s: %w", path, err)
	}
	defer t.Cleanup()

	logger.Info("started tailing", "from_start", opts.FromStart)

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping tail")
			return t.Stop()

		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				logger.Warn("error reading line", "error", line.Err)
				continue
			}
			if _, err := io.WriteString(out, line.Text+newline); err != nil {
				_ = t.Stop()
				return fmt.Errorf("writing tailed line: %w", err)
			}
		}
	}
}
