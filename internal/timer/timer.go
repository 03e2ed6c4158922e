package timer

import "time"

// Clock is the time source behind a Registry. Production code uses System;
// tests drive a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

type Stopper interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

var System Clock = systemClock{}

// Reminder is fired once, Lead before the main callback.
type Reminder struct {
	Callback func()
	Lead     time.Duration
}

type event struct {
	callback  func()
	reminder  *Reminder
	reminded  bool
	handle    Stopper
	startDate time.Time
	budget    time.Duration
	idle      bool
	gen       uint64
}

// Info is a read-only view of a slot.
type Info struct {
	Idle       bool
	StartDate  time.Time
	Budget     time.Duration
	Generation uint64
}

// Registry keeps at most one outstanding timeout per key.
//
// Registry is not safe for concurrent use. Expiry goroutines never run
// callbacks themselves: they hand a closure to dispatch, which must execute
// it on the goroutine that owns the Registry. A nil dispatch runs the
// closure inline, which is only correct with a synchronous Clock.
type Registry[K comparable] struct {
	clock    Clock
	dispatch func(func())
	events   map[K]*event
	seq      uint64
}

func NewRegistry[K comparable](clock Clock, dispatch func(func())) *Registry[K] {
	if clock == nil {
		clock = System
	}
	if dispatch == nil {
		dispatch = func(f func()) { f() }
	}
	return &Registry[K]{
		clock:    clock,
		dispatch: dispatch,
		events:   make(map[K]*event),
	}
}

// Open allocates an idle slot for key. An existing slot is left untouched.
func (r *Registry[K]) Open(key K) {
	if _, ok := r.events[key]; ok {
		return
	}
	r.events[key] = &event{idle: true}
}

// Close disarms and forgets the slot for key.
func (r *Registry[K]) Close(key K) {
	ev, ok := r.events[key]
	if !ok {
		return
	}
	r.disarm(ev)
	delete(r.events, key)
}

// Register arms the slot for key. It is a no-op returning false when the
// slot is missing or already armed.
func (r *Registry[K]) Register(key K, callback func(), d time.Duration, reminder *Reminder) bool {
	ev, ok := r.events[key]
	if !ok || !ev.idle {
		return false
	}

	ev.idle = false
	ev.callback = callback
	ev.reminder = reminder
	ev.reminded = false
	ev.startDate = r.clock.Now()
	ev.budget = d
	r.arm(key, ev, d)
	return true
}

// Unregister cancels the pending timer for key and marks the slot idle.
func (r *Registry[K]) Unregister(key K) {
	ev, ok := r.events[key]
	if !ok || ev.idle {
		return
	}
	r.disarm(ev)
}

// Extend adds extend to the budget of an armed slot, never letting the total
// exceed limit (limit <= 0 means unbounded), re-arms for what is left and
// returns it. A missing, idle or already expired slot yields 0.
//
// An expired slot is left armed: its expiry is already due and must still
// be delivered.
func (r *Registry[K]) Extend(key K, extend, limit time.Duration) time.Duration {
	ev, ok := r.events[key]
	if !ok || ev.idle {
		return 0
	}

	elapsed := r.clock.Now().Sub(ev.startDate)
	if elapsed >= ev.budget {
		return 0
	}

	budget := ev.budget + extend
	if limit > 0 && budget > limit {
		budget = limit
	}
	ev.budget = budget
	remaining := budget - elapsed

	if ev.handle != nil {
		ev.handle.Stop()
	}
	r.arm(key, ev, remaining)
	return remaining
}

// Remaining reports how long until the main callback fires.
func (r *Registry[K]) Remaining(key K) (time.Duration, bool) {
	ev, ok := r.events[key]
	if !ok || ev.idle {
		return 0, false
	}
	return max(ev.budget-r.clock.Now().Sub(ev.startDate), 0), true
}

func (r *Registry[K]) Info(key K) (Info, bool) {
	ev, ok := r.events[key]
	if !ok {
		return Info{}, false
	}
	return Info{
		Idle:       ev.idle,
		StartDate:  ev.startDate,
		Budget:     ev.budget,
		Generation: ev.gen,
	}, true
}

// Armed counts slots with a pending timer.
func (r *Registry[K]) Armed() int {
	n := 0
	for _, ev := range r.events {
		if !ev.idle {
			n++
		}
	}
	return n
}

func (r *Registry[K]) arm(key K, ev *event, remaining time.Duration) {
	remaining = max(remaining, 0)
	r.seq++
	ev.gen = r.seq

	if ev.reminder != nil && !ev.reminded {
		lead := min(max(ev.reminder.Lead, 0), remaining)
		ev.handle = r.clock.AfterFunc(remaining-lead, r.guard(key, ev, ev.gen, r.remind))
		return
	}
	ev.handle = r.clock.AfterFunc(remaining, r.guard(key, ev, ev.gen, r.expire))
}

// guard drops fires that were superseded by a disarm, a re-arm or a
// close/reopen of the same key between expiry and dispatch.
func (r *Registry[K]) guard(key K, ev *event, gen uint64, fire func(K, *event)) func() {
	return func() {
		r.dispatch(func() {
			cur, ok := r.events[key]
			if !ok || cur != ev || ev.idle || ev.gen != gen {
				return
			}
			fire(key, ev)
		})
	}
}

func (r *Registry[K]) remind(key K, ev *event) {
	ev.reminded = true
	callback := ev.reminder.Callback
	r.arm(key, ev, ev.budget-r.clock.Now().Sub(ev.startDate))
	if callback != nil {
		callback()
	}
}

func (r *Registry[K]) expire(_ K, ev *event) {
	callback := ev.callback
	// Disarm first so the callback may register the next timeout.
	r.disarm(ev)
	if callback != nil {
		callback()
	}
}

func (r *Registry[K]) disarm(ev *event) {
	if ev.handle != nil {
		ev.handle.Stop()
	}
	ev.handle = nil
	ev.callback = nil
	ev.reminder = nil
	ev.reminded = false
	ev.startDate = time.Time{}
	ev.budget = 0
	ev.idle = true
}
