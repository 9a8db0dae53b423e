// Package launch starts the external programs run by the shell. Every
// program is started as the leader of a new process group, so signals sent
// to the group reach the job and never the shell.
package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

var ErrCommandNotFound = errors.New("command not found")

// Launcher starts a program from an argument vector and returns its pid.
type Launcher interface {
	Launch(argv []string) (int, error)
}

// ExecLauncher launches programs with exec.Cmd. Programs are resolved using
// the PATH of the shell; names containing a slash are used as-is.
//
// The launched process is never waited on by the ExecLauncher. The caller is
// responsible for reaping it, e.g. with wait4(2).
//
// Stdin, Stdout and Stderr are handed to the child as file descriptors. A nil
// field connects the child to the null device.
type ExecLauncher struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// NewExecLauncher creates an ExecLauncher that connects launched programs to
// the shell's own stdin, stdout and stderr.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Launch starts argv[0] with arguments argv[1:] in a new process group whose
// ID is the pid of the new process. An empty program name and resolution or
// exec failures are returned wrapping ErrCommandNotFound.
func (l *ExecLauncher) Launch(argv []string) (int, error) {
	if len(argv) == 0 || argv[0] == "" {
		return 0, fmt.Errorf("%w: program cannot be empty", ErrCommandNotFound)
	}

	cmd := exec.Command(argv[0], argv[1:]...)

	// NOTE: Only *os.File values are passed through. Any other io.Reader or
	// io.Writer makes exec.Cmd copy through a pipe in a goroutine that is only
	// stopped by Wait, which is never called here.
	if l.Stdin != nil {
		cmd.Stdin = l.Stdin
	}

	if l.Stdout != nil {
		cmd.Stdout = l.Stdout
	}

	if l.Stderr != nil {
		cmd.Stderr = l.Stderr
	}

	// NOTE: Setpgid with Pgid 0 puts the child in a new process group led by
	// itself, the equivalent of setpgid(0, 0) between fork and exec. The Go
	// runtime resets the signal mask and caught signals in the child before
	// exec, so it starts with default dispositions.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCommandNotFound, err)
	}

	pid := cmd.Process.Pid

	// The shell reaps its children with wait4 on any pid, so let go of the
	// handle instead of calling Wait.
	cmd.Process.Release()

	return pid, nil
}
