package shell

import (
	"context"
	"os"
	"os/signal"

	"github.com/nixpig/jobshell/internal/jobmanager"
	"golang.org/x/sys/unix"
)

// sigChanBufferSize bounds the signals waiting to be handled. Signals are
// coalesced once it fills up, which is fine since the SIGCHLD handler reaps
// every pending child whenever it runs.
const sigChanBufferSize = 16

// handleSignals installs the handlers for SIGCHLD, SIGINT, SIGTSTP and SIGQUIT
// and returns a function that uninstalls them.
//
// All handlers run on one goroutine, so they never preempt each other.
func (s *Shell) handleSignals(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)

	sigCh := make(chan os.Signal, sigChanBufferSize)
	signal.Notify(sigCh, unix.SIGCHLD, unix.SIGINT, unix.SIGTSTP, unix.SIGQUIT)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				s.handleSignal(sig)
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		cancel()
		<-done
	}
}

// handleSignal runs the handler for sig.
//
// Handlers only use the Table, the sio Writer and raw system calls. They
// neither log nor use buffered output, both of which belong to the control
// loop.
func (s *Shell) handleSignal(sig os.Signal) {
	switch sig {
	case unix.SIGCHLD:
		s.onChild()
	case unix.SIGINT:
		s.forwardToForeground(unix.SIGINT)
	case unix.SIGTSTP:
		s.forwardToForeground(unix.SIGTSTP)
	case unix.SIGQUIT:
		s.onQuit()
	}
}

// onChild reaps every child that has exited or stopped. A single SIGCHLD can
// stand for any number of child state changes, so it keeps waiting until no
// more are pending.
//
// Exited jobs are removed silently. Jobs killed by a signal are reported and
// removed. Stopped jobs are reported and marked stopped. Children that are not
// in the table are reaped and otherwise ignored.
func (s *Shell) onChild() {
	s.childMask.Lock()
	defer s.childMask.Unlock()

	var status unix.WaitStatus

	for {
		pid, err := s.wait(&status)
		if err == unix.EINTR {
			continue
		}

		if err == unix.ECHILD {
			return
		}

		if err != nil {
			s.notices.Error("waitpid error")
			return
		}

		if pid == 0 {
			return
		}

		switch {
		case status.Exited():
			s.table.Remove(pid)

		case status.Signaled():
			if jid, ok := s.table.JIDForPID(pid); ok {
				s.putJobNotice(jid, pid, ") terminated by signal ", status.Signal())
			}

			s.table.Remove(pid)

		case status.Stopped():
			job, err := s.table.SetState(pid, jobmanager.JobStateStopped)
			if err != nil {
				continue
			}

			s.putJobNotice(job.JID, pid, ") stopped by signal ", status.StopSignal())
		}
	}
}

// putJobNotice writes "Job [jid] (pid<what><signal name>" and a newline.
func (s *Shell) putJobNotice(jid, pid int, what string, sig unix.Signal) {
	s.notices.Puts("Job [")
	s.notices.Putl(int64(jid))
	s.notices.Puts("] (")
	s.notices.Putl(int64(pid))
	s.notices.Puts(what)
	s.notices.PutSignal(sig)
	s.notices.Puts("\n")
}

// forwardToForeground sends sig to the process group of the foreground job.
// It does nothing when there is no foreground job. The table is left alone;
// the SIGCHLD handler sees whatever the job does in response.
func (s *Shell) forwardToForeground(sig unix.Signal) {
	pid, ok := s.table.ForegroundPID()
	if !ok {
		return
	}

	// ESRCH means the process group has no members left.
	if err := s.kill(-pid, sig); err != nil && err != unix.ESRCH {
		s.notices.Error("kill error")
	}
}

// onQuit terminates the shell straight away, without any cleanup. It lets a
// driver program shut the shell down.
func (s *Shell) onQuit() {
	s.notices.Puts("Terminating after receipt of SIGQUIT signal\n")
	s.exit(1)
}
