package jobmanager

// Job represents a child process tracked by the shell. A Job with a PID of 0
// is an empty slot, whatever its other fields hold.
//
// Jobs returned by a Table are copies; changing them has no effect on the
// Table.
type Job struct {
	PID     int
	JID     int
	State   JobState
	Cmdline string
}

// IsEmpty reports whether the Job is an unused slot.
func (j Job) IsEmpty() bool {
	return j.PID == 0
}

func (j *Job) clear() {
	j.PID = 0
	j.JID = 0
	j.State = JobStateUndefined
	j.Cmdline = ""
}
