package jobmanager

type JobState int

const (
	// JobStateUndefined indicates the slot holding the job is not in use. It's
	// the zero value, so a cleared slot is always undefined.
	JobStateUndefined JobState = iota

	// JobStateForeground indicates the job is running in the foreground and the
	// control loop is waiting for it. At most one job is in this state.
	JobStateForeground

	// JobStateBackground indicates the job is running without blocking the
	// control loop.
	JobStateBackground

	// JobStateStopped indicates the job has been suspended by a stop signal and
	// can be continued with fg or bg.
	JobStateStopped
)

// NOTE: This slice needs to be kept in sync with any changes to the JobState
// values.
var jobStates = []string{
	"Undefined",
	"Foreground",
	"Background",
	"Stopped",
}

// String implements the Stringer interface for JobState and returns a string
// representation of the JobState by using the int value to index into a slice.
func (s JobState) String() string {
	if int(s) < 0 || int(s) >= len(jobStates) {
		return jobStates[0]
	}

	return jobStates[s]
}

// Label returns the label used for the JobState in job listings.
func (s JobState) Label() string {
	if s == JobStateBackground {
		return "Running"
	}

	return s.String()
}

// IsLive reports whether the JobState belongs to a tracked job.
func (s JobState) IsLive() bool {
	return s == JobStateForeground ||
		s == JobStateBackground ||
		s == JobStateStopped
}

// CanTransition reports whether a live job in JobState s may move to JobState
// to.
//
//	FG -> ST      : ctrl-z or any stop signal
//	BG -> ST      : any stop signal
//	ST -> FG, BG  : fg, bg
//	BG -> FG, BG  : fg, bg
//	ST -> ST      : stopped again while stopped
//
// There is no direct FG -> BG transition; the job has to be stopped first.
func (s JobState) CanTransition(to JobState) bool {
	switch s {
	case JobStateForeground:
		return to == JobStateStopped
	case JobStateBackground, JobStateStopped:
		return to.IsLive()
	default:
		return false
	}
}
