package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/nixpig/jobshell/internal/jobmanager"
	"github.com/nixpig/jobshell/internal/jobmanager/sio"
	"github.com/nixpig/jobshell/internal/launch"
	"golang.org/x/sys/unix"
)

// DefaultPrompt is the prompt printed before each command line.
const DefaultPrompt = "tsh> "

// Config holds the I/O and presentation settings of a Shell.
type Config struct {
	Prompt     string
	EmitPrompt bool

	// Interactive is set when stdin is a terminal.
	Interactive bool

	Stdin  io.Reader
	Stdout io.Writer

	// Notices receives the output of signal handlers. It should write to the
	// same file descriptor as Stdout.
	Notices *sio.Writer
}

// Shell is an interactive shell with job control.
type Shell struct {
	table    *jobmanager.Table
	launcher launch.Launcher
	logger   *slog.Logger

	in      *bufio.Reader
	out     *bufio.Writer
	notices *sio.Writer

	prompt      string
	emitPrompt  bool
	interactive bool

	// childMask holds back the handling of child state changes. The control
	// loop holds it across updates that must not interleave with reaping; the
	// SIGCHLD handler holds it while it reaps.
	childMask sync.Mutex

	kill func(pid int, sig unix.Signal) error
	wait func(status *unix.WaitStatus) (int, error)
	exit func(code int)
}

// New creates a Shell that tracks its jobs in table and starts them with
// launcher.
func New(
	table *jobmanager.Table,
	launcher launch.Launcher,
	logger *slog.Logger,
	cfg *Config,
) *Shell {
	stdin := cfg.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	notices := cfg.Notices
	if notices == nil {
		notices = sio.New(int(os.Stdout.Fd()))
	}

	prompt := cfg.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}

	return &Shell{
		table:       table,
		launcher:    launcher,
		logger:      logger,
		in:          bufio.NewReader(stdin),
		out:         bufio.NewWriter(stdout),
		notices:     notices,
		prompt:      prompt,
		emitPrompt:  cfg.EmitPrompt,
		interactive: cfg.Interactive,
		kill:        unix.Kill,
		wait:        waitAny,
		exit:        unix.Exit,
	}
}

// waitAny reaps one child that has exited or stopped, without blocking. It
// returns a pid of 0 when no child has changed state.
func waitAny(status *unix.WaitStatus) (int, error) {
	return unix.Wait4(-1, status, unix.WNOHANG|unix.WUNTRACED, nil)
}

// Run installs the signal handlers and runs the read/eval loop until quit,
// end of input, or a fatal error.
//
// User errors are reported and the loop carries on. Failures of the
// underlying system calls are returned, since the Table can no longer be
// trusted once one of them fails.
func (s *Shell) Run(ctx context.Context) error {
	stop := s.handleSignals(ctx)
	defer stop()

	for {
		if s.emitPrompt {
			s.out.WriteString(s.prompt)
			s.flush()
		}

		line, err := s.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read command line: %w", err)
		}

		eof := err != nil

		if eof && line == "" {
			// Keep the caller's prompt off the end of ours after ctrl-d.
			if s.interactive {
				s.out.WriteString("\n")
			}

			s.flush()

			return nil
		}

		if err := s.Eval(line); err != nil {
			s.flush()

			if errors.Is(err, errQuit) {
				return nil
			}

			return err
		}

		s.flush()

		if eof {
			return nil
		}
	}
}

// Eval evaluates one command line. Built-in commands run immediately; anything
// else is launched as a job, and a foreground job is waited for before Eval
// returns.
func (s *Shell) Eval(cmdline string) error {
	argv, bg := parseLine(cmdline)
	if len(argv) == 0 {
		return nil
	}

	if handled, err := s.builtin(argv); handled {
		return err
	}

	return s.runJob(argv, bg, strings.TrimRight(cmdline, "\r\n"))
}

// withChildMasked runs fn while child state changes are held back, so that
// no child is reaped part way through fn. Pending changes are handled once fn
// returns.
func (s *Shell) withChildMasked(fn func() error) error {
	s.childMask.Lock()
	defer s.childMask.Unlock()

	return fn()
}

func (s *Shell) flush() {
	// Output errors are not actionable at the prompt.
	s.out.Flush()
}
