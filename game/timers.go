package game

import "time"

type timerKind int

const (
	timerQuestion timerKind = iota
	timerResults
	timerCleanup
)

func (k timerKind) String() string {
	switch k {
	case timerQuestion:
		return "question"
	case timerResults:
		return "results"
	case timerCleanup:
		return "cleanup"
	}
	return "unknown"
}

type stoppableTimer interface {
	Stop() bool
}

// timerScheduler arms phase timers for a room. Each (kind, generation) pair
// identifies one arming; a fired event whose generation no longer matches is
// stale and must be ignored. All methods run on the room goroutine, so no
// locking is needed. The firing callback itself only enqueues an event and
// never touches scheduler state.
type timerScheduler struct {
	room       *Room
	gens       map[timerKind]uint64
	pending    map[timerKind]stoppableTimer
	startTimer func(d time.Duration, f func()) stoppableTimer
}

func newTimerScheduler(r *Room) *timerScheduler {
	return &timerScheduler{
		room:    r,
		gens:    make(map[timerKind]uint64),
		pending: make(map[timerKind]stoppableTimer),
		startTimer: func(d time.Duration, f func()) stoppableTimer {
			return time.AfterFunc(d, f)
		},
	}
}

// schedule arms kind to fire after d, replacing any pending timer of the
// same kind.
func (t *timerScheduler) schedule(kind timerKind, d time.Duration) {
	t.cancel(kind)
	t.gens[kind]++
	gen := t.gens[kind]
	room := t.room
	t.pending[kind] = t.startTimer(d, func() {
		room.enqueueTimerFired(timerFired{kind: kind, gen: gen})
	})
}

// cancel stops the pending timer for kind and invalidates any fired event of
// that kind still sitting in the room inbox.
func (t *timerScheduler) cancel(kind timerKind) {
	if timer, ok := t.pending[kind]; ok {
		timer.Stop()
		delete(t.pending, kind)
	}
	t.gens[kind]++
}

func (t *timerScheduler) cancelAll() {
	t.cancel(timerQuestion)
	t.cancel(timerResults)
	t.cancel(timerCleanup)
}

// consume reports whether f is the live arming for its kind. A false return
// means the timer was cancelled or replaced after it fired.
func (t *timerScheduler) consume(f timerFired) bool {
	if t.gens[f.kind] != f.gen {
		return false
	}
	delete(t.pending, f.kind)
	return true
}
