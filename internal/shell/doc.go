// Package shell implements the control loop of an interactive shell with job
// control.
//
// The control loop reads command lines, runs the built-in commands quit, jobs,
// bg and fg, and launches everything else as a job in its own process group.
// Signal handlers run on a separate goroutine and update the same
// jobmanager.Table: they reap children on SIGCHLD, forward SIGINT and SIGTSTP
// to the foreground job, and terminate the shell on SIGQUIT.
//
// The control loop and the handlers share the Table and a child mask.
// Multi-step updates made by the control loop hold the mask so that no child
// is reaped part way through them. Waiting for a foreground job sleeps until a
// handler changes the Table.
package shell
