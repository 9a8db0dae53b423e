package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nixpig/jobshell/internal/jobmanager"
	"golang.org/x/sys/unix"
)

const jobIDPrefix = "%"

// builtin runs argv if it is a built-in command and reports whether it was.
func (s *Shell) builtin(argv []string) (bool, error) {
	switch argv[0] {
	case "quit":
		return true, errQuit

	case "jobs":
		s.listJobs()
		return true, nil

	case "bg", "fg":
		return true, s.resume(argv)

	default:
		return false, nil
	}
}

// listJobs prints every live job as "[jid] (pid) Label cmdline".
func (s *Shell) listJobs() {
	for _, job := range s.table.List() {
		fmt.Fprintf(
			s.out,
			"[%d] (%d) %s %s\n",
			job.JID,
			job.PID,
			job.State.Label(),
			job.Cmdline,
		)
	}
}

// resume runs the bg and fg built-ins. The target is either %jid or a pid. A
// stopped job is continued first; fg then waits for the job and bg
// acknowledges it.
func (s *Shell) resume(argv []string) error {
	name := argv[0]

	if len(argv) < 2 {
		fmt.Fprintf(s.out, "%s command requires PID or %%jobid argument\n", name)
		return nil
	}

	state := jobmanager.JobStateBackground
	if name == "fg" {
		state = jobmanager.JobStateForeground
	}

	var (
		job   jobmanager.Job
		found bool
	)

	err := s.withChildMasked(func() error {
		var target jobmanager.Job

		target, found = s.resolveTarget(name, argv[1])
		if !found {
			return nil
		}

		if target.State == jobmanager.JobStateStopped {
			if err := s.kill(-target.PID, unix.SIGCONT); err != nil {
				return fmt.Errorf("kill call failed: %w", err)
			}
		}

		var err error

		job, err = s.table.SetState(target.PID, state)
		if err != nil {
			return fmt.Errorf("resume job %d: %w", target.JID, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if !found {
		return nil
	}

	s.logger.Debug(
		"resumed job",
		"jid", job.JID,
		"pid", job.PID,
		"state", job.State,
	)

	if state == jobmanager.JobStateForeground {
		s.waitForeground(job.PID)
		return nil
	}

	s.printJob(job)

	return nil
}

// resolveTarget finds the job named by a %jid or pid token, reporting to the
// user when the token is malformed or names no job.
func (s *Shell) resolveTarget(name, token string) (jobmanager.Job, bool) {
	if jid, ok := strings.CutPrefix(token, jobIDPrefix); ok {
		n, err := strconv.Atoi(jid)
		if err != nil {
			fmt.Fprintf(s.out, "%s: argument must be a PID or %%jobid\n", name)
			return jobmanager.Job{}, false
		}

		job, found := s.table.FindByJID(n)
		if !found {
			fmt.Fprintf(s.out, "%s: No such job\n", token)
			return jobmanager.Job{}, false
		}

		return job, true
	}

	pid, err := strconv.Atoi(token)
	if err != nil {
		fmt.Fprintf(s.out, "%s: argument must be a PID or %%jobid\n", name)
		return jobmanager.Job{}, false
	}

	job, found := s.table.FindByPID(pid)
	if !found {
		fmt.Fprintf(s.out, "(%s): No such process\n", token)
		return jobmanager.Job{}, false
	}

	return job, true
}
