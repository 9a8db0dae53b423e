// Package jobmanager provides the job table of an interactive shell with job
// control.
//
// A Job represents a child process launched by the shell, together with its
// shell-local job ID, its JobState, and the command line that started it.
//
// A Table is a fixed-capacity registry of Jobs. It is shared between the
// shell's control loop and its signal handlers, so every method is safe for
// concurrent use and the methods used by handlers never allocate.
package jobmanager
