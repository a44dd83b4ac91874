package watcher

import "time"

// quietPeriod holds events back until their path has seen no new event for
// the period. Only the dispatch goroutine touches it.
type quietPeriod struct {
	period  time.Duration
	pending map[string]*heldEvent
}

type heldEvent struct {
	event Event
	timer *time.Timer
}

func newQuietPeriod(period time.Duration) *quietPeriod {
	return &quietPeriod{
		period:  period,
		pending: make(map[string]*heldEvent),
	}
}

// hold merges event into the one held for its path and restarts that path's
// timer. due runs on a timer goroutine once the path goes quiet. hold reports
// whether the event was merged into an earlier one.
func (q *quietPeriod) hold(event Event, due func(path string)) bool {
	held, ok := q.pending[event.Path]
	if !ok {
		path := event.Path
		q.pending[path] = &heldEvent{
			event: event,
			timer: time.AfterFunc(q.period, func() { due(path) }),
		}
		return false
	}
	held.event = mergeEvents(held.event, event)
	held.timer.Reset(q.period)
	return true
}

// release hands back the held event for path.
func (q *quietPeriod) release(path string) (Event, bool) {
	held, ok := q.pending[path]
	if !ok {
		return Event{}, false
	}
	delete(q.pending, path)
	return held.event, true
}

func (q *quietPeriod) stop() {
	if q == nil {
		return
	}
	for path, held := range q.pending {
		held.timer.Stop()
		delete(q.pending, path)
	}
}

// mergeEvents keeps the later timestamp and the union of operations, so a
// write followed by a chmod still reads as a modification.
func mergeEvents(earlier, later Event) Event {
	later.Op |= earlier.Op
	later.Resync = later.Resync || earlier.Resync
	return later
}
