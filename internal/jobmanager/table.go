package jobmanager

import (
	"sync"
)

// MaxJobs is the number of slots in a Table.
const MaxJobs = 16

// Table is a fixed-capacity registry of Jobs.
//
// Slots are never compacted; removing a Job only clears its slot. Listing
// order is slot order and carries no meaning.
//
// Every mutation broadcasts on an internal condition variable so that
// WaitForeground can sleep until a signal handler changes the Table.
type Table struct {
	slots   [MaxJobs]Job
	nextJID int

	mu   sync.Mutex
	cond sync.Cond
}

// NewTable creates an initialised Table with all slots empty.
func NewTable() *Table {
	t := &Table{}

	t.cond.L = &t.mu
	t.Init()

	return t
}

// Init clears every slot and resets the job ID counter.
func (t *Table) Init() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		t.slots[i].clear()
	}

	t.nextJID = 1

	t.cond.Broadcast()
}

// Add registers a new Job for pid in the given state and returns a copy of it.
//
// The Job is assigned the next job ID from a counter that wraps back to 1 once
// it passes MaxJobs. A full Table returns ErrTableFull and is left unchanged.
func (t *Table) Add(pid int, state JobState, cmdline string) (Job, error) {
	if pid < 1 {
		return Job{}, ErrInvalidPID
	}

	if state != JobStateForeground && state != JobStateBackground {
		return Job{}, NewInvalidStateError(JobStateUndefined, state)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.indexByPID(pid) >= 0 {
		return Job{}, ErrDuplicatePID
	}

	if state == JobStateForeground && t.foregroundIndex() >= 0 {
		return Job{}, ErrForegroundExists
	}

	for i := range t.slots {
		if !t.slots[i].IsEmpty() {
			continue
		}

		t.slots[i] = Job{
			PID:     pid,
			JID:     t.assignJID(),
			State:   state,
			Cmdline: cmdline,
		}

		t.cond.Broadcast()

		return t.slots[i], nil
	}

	return Job{}, ErrTableFull
}

// assignJID returns the next job ID and advances the counter. Because the
// counter wraps at MaxJobs, the wrapped value can still belong to a live Job;
// in that case it moves on to the next free ID. Callers must hold t.mu and
// must have checked that a slot is free.
func (t *Table) assignJID() int {
	jid := t.nextJID

	// NOTE: A plain wrapping counter would hand out a duplicate ID here.
	for t.indexByJID(jid) >= 0 {
		jid++
		if jid > MaxJobs {
			jid = 1
		}
	}

	t.nextJID = jid + 1
	if t.nextJID > MaxJobs {
		t.nextJID = 1
	}

	return jid
}

// Remove clears the slot of the Job with the given pid and rebases the job ID
// counter to one past the highest remaining job ID.
func (t *Table) Remove(pid int) error {
	if pid < 1 {
		return ErrInvalidPID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexByPID(pid)
	if i < 0 {
		return ErrJobNotFound
	}

	t.slots[i].clear()
	t.nextJID = t.maxJID() + 1

	t.cond.Broadcast()

	return nil
}

// SetState moves the Job with the given pid to state and returns a copy of the
// updated Job. Transitions not allowed by JobState.CanTransition return an
// InvalidStateError. Moving a Job to the foreground while another Job is there
// returns ErrForegroundExists.
func (t *Table) SetState(pid int, state JobState) (Job, error) {
	if pid < 1 {
		return Job{}, ErrInvalidPID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexByPID(pid)
	if i < 0 {
		return Job{}, ErrJobNotFound
	}

	job := &t.slots[i]

	if !job.State.CanTransition(state) {
		return Job{}, NewInvalidStateError(job.State, state)
	}

	if state == JobStateForeground {
		if fg := t.foregroundIndex(); fg >= 0 && fg != i {
			return Job{}, ErrForegroundExists
		}
	}

	job.State = state

	t.cond.Broadcast()

	return *job, nil
}

// FindByPID returns the Job with the given pid.
func (t *Table) FindByPID(pid int) (Job, bool) {
	if pid < 1 {
		return Job{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexByPID(pid)
	if i < 0 {
		return Job{}, false
	}

	return t.slots[i], true
}

// FindByJID returns the Job with the given job ID.
func (t *Table) FindByJID(jid int) (Job, bool) {
	if jid < 1 {
		return Job{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexByJID(jid)
	if i < 0 {
		return Job{}, false
	}

	return t.slots[i], true
}

// ForegroundPID returns the pid of the foreground Job, if there is one.
func (t *Table) ForegroundPID() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.foregroundIndex()
	if i < 0 {
		return 0, false
	}

	return t.slots[i].PID, true
}

// JIDForPID returns the job ID of the Job with the given pid.
func (t *Table) JIDForPID(pid int) (int, bool) {
	job, ok := t.FindByPID(pid)
	if !ok {
		return 0, false
	}

	return job.JID, true
}

// MaxJID returns the highest job ID in the Table or 0 if the Table is empty.
func (t *Table) MaxJID() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.maxJID()
}

// Len returns the number of live Jobs.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for i := range t.slots {
		if !t.slots[i].IsEmpty() {
			n++
		}
	}

	return n
}

// Full reports whether every slot is in use.
func (t *Table) Full() bool {
	return t.Len() == MaxJobs
}

// List returns a snapshot of the live Jobs in slot order.
func (t *Table) List() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	jobs := make([]Job, 0, MaxJobs)
	for _, job := range t.slots {
		if !job.IsEmpty() {
			jobs = append(jobs, job)
		}
	}

	return jobs
}

// WaitForeground blocks until pid is no longer the foreground Job, either
// because it was removed or because its state changed. It sleeps on the
// Table's condition variable, so it only wakes up when the Table changes.
func (t *Table) WaitForeground(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		i := t.foregroundIndex()
		if i < 0 || t.slots[i].PID != pid {
			return
		}

		t.cond.Wait()
	}
}

func (t *Table) indexByPID(pid int) int {
	for i := range t.slots {
		if t.slots[i].PID == pid {
			return i
		}
	}

	return -1
}

func (t *Table) indexByJID(jid int) int {
	for i := range t.slots {
		if !t.slots[i].IsEmpty() && t.slots[i].JID == jid {
			return i
		}
	}

	return -1
}

func (t *Table) foregroundIndex() int {
	for i := range t.slots {
		if !t.slots[i].IsEmpty() && t.slots[i].State == JobStateForeground {
			return i
		}
	}

	return -1
}

func (t *Table) maxJID() int {
	highest := 0
	for i := range t.slots {
		if !t.slots[i].IsEmpty() && t.slots[i].JID > highest {
			highest = t.slots[i].JID
		}
	}

	return highest
}
