package logging

import (
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 100

// fanout copies entries to subscribers. A subscriber that falls behind loses
// entries instead of stalling the writer.
type fanout struct {
	mu      sync.Mutex
	nextID  uint64
	subs    map[uint64]chan LogEntry
	dropped atomic.Uint64
}

func (f *fanout) subscribe(size int) (<-chan LogEntry, func()) {
	if size <= 0 {
		size = subscriberBuffer
	}
	ch := make(chan LogEntry, size)

	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[uint64]chan LogEntry)
	}
	f.nextID++
	id := f.nextID
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *fanout) publish(entry LogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- entry:
		default:
			f.dropped.Add(1)
		}
	}
}
