// Package sio provides output that is safe to use from signal handlers. A
// Writer formats integers into a fixed buffer and writes straight to a file
// descriptor, with no heap allocation and no buffering.
package sio

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxDigits is enough for the decimal form of any int64, including the sign.
const maxDigits = 20

// exit terminates the process without running deferred functions or flushing
// buffers, like _exit(2).
var exit = unix.Exit

// Writer writes unbuffered output to a file descriptor.
//
// A Writer owns a scratch buffer for integer formatting, so it must not be
// shared between goroutines that write concurrently.
type Writer struct {
	fd  int
	buf [maxDigits]byte
}

// New creates a Writer for the file descriptor fd.
func New(fd int) *Writer {
	return &Writer{fd: fd}
}

// Puts writes s. If the write fails, Puts reports the failure and terminates
// the process.
func (w *Writer) Puts(s string) {
	if err := w.write(s); err != nil {
		w.Error("sio_puts error")
	}
}

// Putl writes the decimal representation of v. If the write fails, Putl
// reports the failure and terminates the process.
func (w *Writer) Putl(v int64) {
	if err := w.writeBytes(w.ltoa(v)); err != nil {
		w.Error("sio_putl error")
	}
}

// Error writes msg followed by a newline and terminates the process with exit
// status 1. Write errors are ignored since there is nowhere left to report
// them.
func (w *Writer) Error(msg string) {
	w.write(msg)
	w.write("\n")

	exit(1)
}

// SignalName returns the name of sig, e.g. "SIGINT", or an empty string if it
// is unknown.
func SignalName(sig syscall.Signal) string {
	return unix.SignalName(sig)
}

// PutSignal writes the name of sig or "Signal <n>" when the name is unknown.
func (w *Writer) PutSignal(sig syscall.Signal) {
	if name := SignalName(sig); name != "" {
		w.Puts(name)
		return
	}

	w.Puts("Signal ")
	w.Putl(int64(sig))
}

// ltoa formats v into the Writer's scratch buffer and returns the used part.
func (w *Writer) ltoa(v int64) []byte {
	i := len(w.buf)

	// Work with the negative value so that the minimum int64 does not
	// overflow.
	neg := v < 0
	if !neg {
		v = -v
	}

	for {
		i--
		w.buf[i] = byte('0' - v%10)
		v /= 10

		if v == 0 {
			break
		}
	}

	if neg {
		i--
		w.buf[i] = '-'
	}

	return w.buf[i:]
}

func (w *Writer) write(s string) error {
	if len(s) == 0 {
		return nil
	}

	return w.writeBytes(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// writeBytes writes all of p, retrying after short writes and EINTR.
func (w *Writer) writeBytes(p []byte) error {
	for len(p) > 0 {
		n, err := unix.Write(w.fd, p)
		if err == unix.EINTR {
			continue
		}

		if err != nil {
			return err
		}

		p = p[n:]
	}

	return nil
}
