// Package syncstatus tracks whether local data agrees with the cloud.
//
// The tracker is a four-state machine (synced, syncing, offline,
// conflict) plus a network-reachability flag that moves independently
// of the state. It is process-wide working state, never persisted.
// Consumers either poll Snapshot or subscribe for change callbacks.
package syncstatus

import (
	"sync"
	"time"
)

// State is the sync position of the application's data.
type State int

const (
	// Synced is the steady state: no divergence known.
	Synced State = iota
	// Syncing marks an in-flight operation against either backend.
	Syncing
	// Offline means the transport reported no reachability.
	Offline
	// Conflict marks an unresolved divergence awaiting a user decision.
	Conflict
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Synced:
		return "synced"
	case Syncing:
		return "syncing"
	case Offline:
		return "offline"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Status is an immutable snapshot of the tracker.
type Status struct {
	State    State     `json:"state"`
	LastSync time.Time `json:"last_sync,omitempty"` // zero until the first completed sync
	Online   bool      `json:"online"`
}

// Tracker is the process-wide sync state machine.
//
// All transitions are synchronous and immediate; no operation blocks.
// Listeners run inline on the mutating goroutine, after the transition
// took effect. Listener order is unspecified and must not be relied
// upon.
//
// Construct one Tracker at process start and pass it by reference -
// there is deliberately no package-level instance.
type Tracker struct {
	mu        sync.Mutex
	state     State
	lastSync  time.Time
	online    bool
	now       func() time.Time
	listeners map[int]func(Status)
	nextID    int
}

// New creates a tracker in the Synced state, considered online until
// reachability says otherwise.
func New(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		state:     Synced,
		online:    true,
		now:       now,
		listeners: make(map[int]func(Status)),
	}
}

// StartSync transitions any state to Syncing.
func (t *Tracker) StartSync() {
	t.transition(func() { t.state = Syncing })
}

// CompleteSync transitions Syncing to Synced and stamps the last-sync
// time. From any other state it is a no-op: an offline or conflict
// mark that arrived mid-operation wins over the completion.
func (t *Tracker) CompleteSync() {
	t.transition(func() {
		if t.state != Syncing {
			return
		}
		t.state = Synced
		t.lastSync = t.now()
	})
}

// MarkOffline transitions any state to Offline. Callers invoke this on
// transport failure; losing reachability alone does not cancel an
// in-flight sync.
func (t *Tracker) MarkOffline() {
	t.transition(func() { t.state = Offline })
}

// MarkConflict transitions any state to Conflict.
func (t *Tracker) MarkConflict() {
	t.transition(func() { t.state = Conflict })
}

// SetOnline records network reachability. The flag is independent of
// the state machine: going offline mid-sync leaves the state at
// Syncing.
func (t *Tracker) SetOnline(online bool) {
	t.transition(func() { t.online = online })
}

// Snapshot returns the current status.
func (t *Tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Subscribe registers a listener invoked after every transition. The
// returned cancel func unregisters it; other subscriptions are
// unaffected. No events are buffered - a late subscriber only sees
// transitions from now on.
func (t *Tracker) Subscribe(fn func(Status)) (cancel func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) snapshotLocked() Status {
	return Status{State: t.state, LastSync: t.lastSync, Online: t.online}
}

func (t *Tracker) transition(apply func()) {
	t.mu.Lock()
	apply()
	snap := t.snapshotLocked()
	fns := make([]func(Status), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
