package notify

import (
	"sync"
	"time"
)

// DefaultCapacity is the queue bound used when no capacity is configured.
const DefaultCapacity = 50

// Bus is the notification queue. It is safe for concurrent use. The queue
// is ordered oldest first and never exceeds its capacity; when full, the
// oldest entry is silently evicted and its expiry timer canceled.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	queue    []Notification
	timers   map[uint64]*time.Timer
	subs     map[uint64]chan []Notification
	nextSub  uint64
	capacity int
	closed   bool

	now func() time.Time
}

// NewBus creates a bus with the given capacity. A capacity of zero or
// less selects DefaultCapacity.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		timers:   make(map[uint64]*time.Timer),
		subs:     make(map[uint64]chan []Notification),
		capacity: capacity,
		now:      time.Now,
	}
}

// Add appends a notification and returns its ID. If the input carries an
// expiry, a timer is scheduled that removes the entry when it elapses.
// Add never fails; an unknown kind is coerced to info.
func (b *Bus) Add(in Input) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	if !in.Kind.Valid() {
		in.Kind = KindInfo
	}

	b.nextID++
	id := b.nextID

	b.queue = append(b.queue, Notification{
		ID:           id,
		Kind:         in.Kind,
		Title:        in.Title,
		Message:      in.Message,
		CreatedAt:    b.now(),
		ExpiresAfter: in.ExpiresAfter,
	})

	if len(b.queue) > b.capacity {
		evicted := b.queue[0]
		b.queue = b.queue[1:]
		b.cancelTimerLocked(evicted.ID)
	}

	if in.ExpiresAfter > 0 {
		b.timers[id] = time.AfterFunc(in.ExpiresAfter, func() {
			b.expire(id)
		})
	}

	b.publishLocked()
	return id
}

// Remove dismisses the notification with the given ID and cancels its
// expiry timer. Removing an unknown or already-removed ID is a no-op.
func (b *Bus) Remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cancelTimerLocked(id)
	if b.removeFromQueueLocked(id) {
		b.publishLocked()
	}
}

// ClearAll removes every notification and cancels every pending timer.
func (b *Bus) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, timer := range b.timers {
		timer.Stop()
		delete(b.timers, id)
	}
	if len(b.queue) == 0 {
		return
	}
	b.queue = nil
	b.publishLocked()
}

// Snapshot returns a copy of the queue, oldest first.
func (b *Bus) Snapshot() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Notification, len(b.queue))
	copy(out, b.queue)
	return out
}

// Len returns the current queue length, for badge counts.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Subscribe registers a consumer. The returned channel receives queue
// snapshots after every change, coalescing bursts: a slow consumer only
// sees the latest state. Cancel deregisters the consumer and closes the
// channel.
func (b *Bus) Subscribe() (<-chan []Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSub++
	key := b.nextSub
	ch := make(chan []Notification, 1)
	b.subs[key] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[key]; ok {
			delete(b.subs, key)
			close(sub)
		}
	}
	return ch, cancel
}

// Close cancels all timers and closes all subscriber channels. The bus
// drops any operation issued after Close.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, timer := range b.timers {
		timer.Stop()
		delete(b.timers, id)
	}
	for key, ch := range b.subs {
		delete(b.subs, key)
		close(ch)
	}
	b.queue = nil
}

// expire is the timer callback. The presence check against b.timers makes
// a timer that fires after cancellation a no-op: Remove, ClearAll, and
// eviction all delete the map entry under the same lock.
func (b *Bus) expire(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, pending := b.timers[id]; !pending {
		return
	}
	delete(b.timers, id)

	if b.removeFromQueueLocked(id) {
		b.publishLocked()
	}
}

// cancelTimerLocked stops and forgets the timer for id, if any. Callers
// must hold b.mu.
func (b *Bus) cancelTimerLocked(id uint64) {
	if timer, ok := b.timers[id]; ok {
		timer.Stop()
		delete(b.timers, id)
	}
}

// removeFromQueueLocked deletes the entry with the given id, preserving
// order. Callers must hold b.mu.
func (b *Bus) removeFromQueueLocked(id uint64) bool {
	for i, n := range b.queue {
		if n.ID == id {
			b.queue = append(b.queue[:i], b.queue[i+1:]...)
			return true
		}
	}
	return false
}

// publishLocked pushes the current snapshot to every subscriber. Callers
// must hold b.mu. Sends never block: a full subscriber buffer is drained
// first so the consumer always observes the newest snapshot.
func (b *Bus) publishLocked() {
	if len(b.subs) == 0 {
		return
	}

	snapshot := make([]Notification, len(b.queue))
	copy(snapshot, b.queue)

	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}
