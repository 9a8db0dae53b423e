package shell

import (
	"errors"
	"fmt"

	"github.com/nixpig/jobshell/internal/jobmanager"
	"github.com/nixpig/jobshell/internal/launch"
)

// runJob launches argv as a new job in its own process group. A foreground job
// is waited for; a background job is acknowledged and left running.
func (s *Shell) runJob(argv []string, bg bool, cmdline string) error {
	state := jobmanager.JobStateForeground
	if bg {
		state = jobmanager.JobStateBackground
	}

	var job jobmanager.Job

	// NOTE: The child may exit before Launch returns. Holding back child state
	// changes until the job is in the table ensures it is never reaped before
	// it is added.
	err := s.withChildMasked(func() error {
		// Only the control loop adds jobs and reaping is held back, so a free
		// slot now is still free after the launch.
		if s.table.Full() {
			return jobmanager.ErrTableFull
		}

		pid, err := s.launcher.Launch(argv)
		if err != nil {
			return err
		}

		job, err = s.table.Add(pid, state, cmdline)
		if err != nil {
			return fmt.Errorf("add job for pid %d: %w", pid, err)
		}

		return nil
	})

	switch {
	case errors.Is(err, launch.ErrCommandNotFound):
		s.logger.Debug("launch job", "argv", argv, "err", err)
		fmt.Fprintf(s.out, "%s: Command not found.\n", argv[0])

		return nil

	case errors.Is(err, jobmanager.ErrTableFull):
		fmt.Fprintln(s.out, "Tried to create too many jobs")

		return nil

	case err != nil:
		return fmt.Errorf("launch job: %w", err)
	}

	s.logger.Debug(
		"added job",
		"jid", job.JID,
		"pid", job.PID,
		"state", job.State,
		"cmdline", job.Cmdline,
	)

	if bg {
		s.printJob(job)
		return nil
	}

	s.waitForeground(job.PID)

	return nil
}

// waitForeground blocks the control loop until pid is no longer the
// foreground job, i.e. until a signal handler has reaped or stopped it.
func (s *Shell) waitForeground(pid int) {
	// Anything printed so far has to be out before the job starts writing.
	s.flush()

	s.table.WaitForeground(pid)

	s.logger.Debug("foreground job done", "pid", pid)
}

// printJob prints the acknowledgement for a job running in the background.
func (s *Shell) printJob(job jobmanager.Job) {
	fmt.Fprintf(s.out, "[%d] (%d) %s\n", job.JID, job.PID, job.Cmdline)
}
