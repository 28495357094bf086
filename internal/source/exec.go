package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/Iron-Ham/conductor/internal/logging"
)

// ExecOptions describes the child process to run.
type ExecOptions struct {
	// Path is the program to run, resolved through PATH.
	Path string
	// Args are the program arguments.
	Args []string
	// Dir is the working directory. Empty uses the current directory.
	Dir string
	// PTY runs the child under a pseudo-terminal. The terminal translates
	// "\n" into "\r\n", so the capture sink must use a CRLF terminator.
	PTY bool
	// Stdin is forwarded to the child. Nil gives the child no input.
	// Under a PTY the copy runs in its own goroutine, which stays blocked in
	// Stdin.Read after the child exits until that read returns. Close or
	// end the reader to release it.
	Stdin io.Reader
	// Stderr receives the child's stderr when PTY is off. Nil discards it.
	Stderr io.Writer
}

// PTYNewline is the line terminator produced by a pseudo-terminal.
const PTYNewline = "\r\n"

// KillGrace is how long Exec keeps reading the child's output after ctx is
// cancelled. Descendants that still hold the output open are abandoned.
const KillGrace = 500 * time.Millisecond

// Exec runs the child and copies its standard output to out until it exits.
// Cancelling ctx kills the child's process group, which takes its
// descendants down with it. A non-zero exit is returned as an
// *exec.ExitError.
func Exec(ctx context.Context, out io.Writer, opts ExecOptions, logger *logging.Logger) error {
	if opts.Path == "" {
		return errors.New("no program to run")
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.WithComponent("exec").With("program", opts.Path)

	cmd := exec.CommandContext(ctx, opts.Path, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.WaitDelay = KillGrace
	cmd.Cancel = func() error { return killGroup(cmd) }

	if opts.PTY {
		// pty.Start puts the child in its own session.
		return runPTY(ctx, cmd, out, opts.Stdin, logger)
	}

	cmd.Stdout = out
	cmd.Stdin = opts.Stdin
	cmd.Stderr = opts.Stderr
	// A child sharing our terminal stays in its foreground group; it would
	// be stopped on reading the terminal from a group of its own.
	if !isTerminal(opts.Stdin) {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	logger.Info("starting child process", "pty", false)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", opts.Path, err)
	}
	logger.Info("child process exited", "code", 0)
	return nil
}

func runPTY(ctx context.Context, cmd *exec.Cmd, out io.Writer, stdin io.Reader, logger *logging.Logger) error {
	master, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("starting %s under pty: %w", cmd.Path, err)
	}
	defer func() { _ = master.Close() }()

	logger.Info("starting child process", "pty", true, "pid", cmd.Process.Pid)

	// Unblock the output copy if a descendant outside the killed group keeps
	// the terminal open.
	stop := context.AfterFunc(ctx, func() {
		time.AfterFunc(KillGrace, func() { _ = master.Close() })
	})
	defer stop()

	if stdin != nil {
		go func() { _, _ = io.Copy(master, stdin) }()
	}

	copyErr := copyPTY(out, master)
	waitErr := cmd.Wait()

	if waitErr != nil {
		return fmt.Errorf("running %s: %w", cmd.Path, waitErr)
	}
	if copyErr != nil {
		return fmt.Errorf("reading pty output: %w", copyErr)
	}
	logger.Info("child process exited", "code", 0)
	return nil
}

// copyPTY copies until the child closes its side. Linux reports that as EIO
// on the master rather than EOF.
func copyPTY(out io.Writer, master *os.File) error {
	_, err := io.Copy(out, master)
	if err == nil || errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// killGroup signals the child's whole process group when the child leads
// one, and the child alone otherwise.
func killGroup(cmd *exec.Cmd) error {
	attr := cmd.SysProcAttr
	if attr != nil && (attr.Setpgid || attr.Setsid) {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	return cmd.Process.Kill()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
