// Package events carries the sync engine's fire-and-forget signals to any
// number of observers.
package events

import "sync"

// Signal is a payload-free notification.
type Signal string

const (
	OperationQueued     Signal = "operation-queued"
	OperationCompleted  Signal = "operation-completed"
	OperationFailed     Signal = "operation-failed"
	QueueDrained        Signal = "queue-drained"
	ConnectivityChanged Signal = "connectivity-changed"
)

// Bus fans signals out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the signal.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Signal
	nextID int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Signal)}
}

// Subscribe registers a new observer. The returned cancel function
// unsubscribes and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Signal, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Signal, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Publish(s Signal) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Subscribers returns the number of active observers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
