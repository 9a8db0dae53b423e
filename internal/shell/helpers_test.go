//go:build linux

package shell

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nixpig/jobshell/internal/jobmanager"
	"github.com/nixpig/jobshell/internal/jobmanager/sio"
	"github.com/nixpig/jobshell/internal/launch"
	"golang.org/x/sys/unix"
)

const firstTestPID = 100

// syncBuffer is a bytes.Buffer that can be read while a Shell writes to it
// from another goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

type fakeLauncher struct {
	mu       sync.Mutex
	nextPID  int
	launched [][]string
	err      error
	onLaunch func(pid int)
}

func (l *fakeLauncher) Launch(argv []string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return 0, l.err
	}

	if len(argv) == 0 || argv[0] == "" {
		return 0, fmt.Errorf(
			"%w: program cannot be empty",
			launch.ErrCommandNotFound,
		)
	}

	pid := l.nextPID
	l.nextPID++
	l.launched = append(l.launched, argv)

	if l.onLaunch != nil {
		l.onLaunch(pid)
	}

	return pid, nil
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.launched)
}

type sentSignal struct {
	pid int
	sig unix.Signal
}

type waitResult struct {
	pid    int
	status unix.WaitStatus
	err    error
}

// Linux wait status encodings, see wait(2).
func exited(pid, code int) waitResult {
	return waitResult{pid: pid, status: unix.WaitStatus(code << 8)}
}

func signaled(pid int, sig unix.Signal) waitResult {
	return waitResult{pid: pid, status: unix.WaitStatus(sig)}
}

func stopped(pid int, sig unix.Signal) waitResult {
	return waitResult{pid: pid, status: unix.WaitStatus(int(sig)<<8 | 0x7f)}
}

type testShell struct {
	*Shell

	stdout   *syncBuffer
	launcher *fakeLauncher
	notices  func() string

	mu       sync.Mutex
	waits    []waitResult
	sent     []sentSignal
	killErr  error
	exitCode int
}

func newTestShell(t *testing.T, stdin string, cfg *Config) *testShell {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create os pipe: '%v'", err)
	}

	t.Cleanup(func() {
		r.Close()
		w.Close()
	})

	if cfg == nil {
		cfg = &Config{}
	}

	ts := &testShell{
		stdout:   &syncBuffer{},
		launcher: &fakeLauncher{nextPID: firstTestPID},
		exitCode: -1,
	}

	cfg.Stdin = strings.NewReader(stdin)
	cfg.Stdout = ts.stdout
	cfg.Notices = sio.New(int(w.Fd()))

	ts.Shell = New(
		jobmanager.NewTable(),
		ts.launcher,
		slog.New(slog.DiscardHandler),
		cfg,
	)

	ts.Shell.wait = ts.wait
	ts.Shell.kill = ts.kill
	ts.Shell.exit = func(code int) {
		ts.mu.Lock()
		defer ts.mu.Unlock()

		ts.exitCode = code
	}

	ts.notices = func() string {
		w.Close()

		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		return string(got)
	}

	return ts
}

func (ts *testShell) queueWait(results ...waitResult) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.waits = append(ts.waits, results...)
}

func (ts *testShell) wait(status *unix.WaitStatus) (int, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if len(ts.waits) == 0 {
		return 0, nil
	}

	result := ts.waits[0]
	ts.waits = ts.waits[1:]

	*status = result.status

	return result.pid, result.err
}

func (ts *testShell) kill(pid int, sig unix.Signal) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.killErr != nil {
		return ts.killErr
	}

	ts.sent = append(ts.sent, sentSignal{pid: pid, sig: sig})

	return nil
}

func (ts *testShell) sentSignals() []sentSignal {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	return append([]sentSignal(nil), ts.sent...)
}

// evalAsync runs Eval on its own goroutine, as the control loop, and returns a
// channel that receives its result.
func (ts *testShell) evalAsync(cmdline string) <-chan error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- ts.Eval(cmdline)
	}()

	return errCh
}

func (ts *testShell) addJob(
	t *testing.T,
	pid int,
	state jobmanager.JobState,
	cmdline string,
) jobmanager.Job {
	t.Helper()

	initial := state
	if state == jobmanager.JobStateStopped {
		initial = jobmanager.JobStateBackground
	}

	job, err := ts.table.Add(pid, initial, cmdline)
	if err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}

	if state == jobmanager.JobStateStopped {
		if job, err = ts.table.SetState(pid, state); err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}
	}

	return job
}

func waitForCondition(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)

	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}

		time.Sleep(5 * time.Millisecond)
	}
}

func waitForForeground(t *testing.T, ts *testShell, pid int) {
	t.Helper()

	waitForCondition(t, "foreground job", func() bool {
		got, ok := ts.table.ForegroundPID()
		return ok && got == pid
	})
}

func expectBlocked(t *testing.T, errCh <-chan error) {
	t.Helper()

	select {
	case err := <-errCh:
		t.Fatalf("expected eval to block: returned '%v'", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func expectReturned(t *testing.T, errCh <-chan error) {
	t.Helper()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected not to receive error: got '%v'", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for eval to return")
	}
}

func testOutput(t *testing.T, got, want string) {
	t.Helper()

	if got != want {
		t.Errorf("expected output: got '%q', want '%q'", got, want)
	}
}
