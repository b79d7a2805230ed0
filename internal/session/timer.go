package session

import "time"

// restTask is the rest countdown: a cancelable scheduled advance owned by
// the tracker that armed it. There are no ambient timer identifiers; the
// task dies with the transition that ends the rest.
type restTask struct {
	timer    *time.Timer
	deadline time.Time
}

// enterResting arms the rest countdown from the exercise's rest string and
// moves to resting. Reaching zero fires the same transition as SkipRest.
// Caller holds t.mu.
func (t *Tracker) enterResting(restStr string) {
	t.stopRest()
	d := RestDuration(restStr)
	t.s.State = StateResting
	t.rest = &restTask{
		deadline: t.now().Add(d),
		timer:    time.AfterFunc(d, t.restExpired),
	}
}

// stopRest cancels any armed countdown. Caller holds t.mu.
func (t *Tracker) stopRest() {
	if t.rest != nil {
		t.rest.timer.Stop()
		t.rest = nil
	}
}

// restExpired is the countdown firing: resting → active. A transition that
// raced ahead of the timer (skip, cancel, force-complete) wins; the expired
// task is then a no-op.
func (t *Tracker) restExpired() {
	t.mu.Lock()
	if t.s.State != StateResting || t.rest == nil {
		t.mu.Unlock()
		return
	}
	t.rest = nil
	t.s.State = StateActive
	snap := t.snapshotLocked()
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(snap)
	}
}
