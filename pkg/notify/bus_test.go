package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	busTestExpiry = 30 * time.Millisecond
	busTestWait   = 150 * time.Millisecond
)

func newTestBus(t *testing.T, capacity int) *Bus {
	t.Helper()
	bus := NewBus(capacity)
	t.Cleanup(bus.Close)
	return bus
}

func TestAddAssignsMonotonicIDs(t *testing.T) {
	bus := newTestBus(t, 0)

	first := bus.Add(Input{Kind: KindInfo, Title: "one"})
	second := bus.Add(Input{Kind: KindInfo, Title: "two"})
	third := bus.Add(Input{Kind: KindInfo, Title: "three"})

	assert.Less(t, first, second)
	assert.Less(t, second, third)

	snapshot := bus.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "one", snapshot[0].Title)
	assert.Equal(t, "three", snapshot[2].Title)
	assert.False(t, snapshot[0].CreatedAt.IsZero())
}

func TestAddCoercesUnknownKind(t *testing.T) {
	bus := newTestBus(t, 0)

	bus.Add(Input{Kind: Kind("fatal"), Title: "odd"})

	snapshot := bus.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, KindInfo, snapshot[0].Kind)
}

func TestCapacityEvictsOldest(t *testing.T) {
	const capacity = 5
	const added = 12
	bus := newTestBus(t, capacity)

	for i := 0; i < added; i++ {
		bus.Add(Input{Kind: KindInfo, Title: fmt.Sprintf("n-%d", i)})
	}

	snapshot := bus.Snapshot()
	require.Len(t, snapshot, capacity)

	// The survivors are the most recently added, oldest first.
	for i, n := range snapshot {
		assert.Equal(t, fmt.Sprintf("n-%d", added-capacity+i), n.Title)
	}
	assert.Equal(t, capacity, bus.Len())
}

func TestEvictionCancelsExpiryTimer(t *testing.T) {
	bus := newTestBus(t, 1)

	bus.Add(Input{Kind: KindInfo, Title: "doomed", ExpiresAfter: busTestExpiry})
	bus.Add(Input{Kind: KindInfo, Title: "survivor"})

	// The evicted entry's timer must not fire and remove anything.
	time.Sleep(busTestWait)

	snapshot := bus.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "survivor", snapshot[0].Title)
}

func TestRemoveIsIdempotent(t *testing.T) {
	bus := newTestBus(t, 0)

	id := bus.Add(Input{Kind: KindSuccess, Title: "booked"})
	keep := bus.Add(Input{Kind: KindInfo, Title: "keep"})

	bus.Remove(id)
	bus.Remove(id)
	bus.Remove(99999)

	snapshot := bus.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, keep, snapshot[0].ID)
}

func TestExpiryRemovesEntry(t *testing.T) {
	bus := newTestBus(t, 0)

	bus.Add(Input{
		Kind:         KindWarning,
		Title:        "Missing Information",
		Message:      "Please fill in all required fields to book your appointment.",
		ExpiresAfter: busTestExpiry,
	})
	require.Equal(t, 1, bus.Len())

	assert.Eventually(t, func() bool { return bus.Len() == 0 },
		busTestWait, 5*time.Millisecond)
}

func TestRemoveCancelsExpiry(t *testing.T) {
	bus := newTestBus(t, 0)

	id := bus.Add(Input{Kind: KindInfo, Title: "short", ExpiresAfter: busTestExpiry})
	other := bus.Add(Input{Kind: KindInfo, Title: "other"})
	bus.Remove(id)

	// A late timer firing must not touch the remaining entry.
	time.Sleep(busTestWait)

	snapshot := bus.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, other, snapshot[0].ID)
}

func TestClearAll(t *testing.T) {
	bus := newTestBus(t, 0)

	bus.Add(Input{Kind: KindInfo, Title: "a", ExpiresAfter: busTestExpiry})
	bus.Add(Input{Kind: KindError, Title: "b"})
	bus.ClearAll()

	assert.Equal(t, 0, bus.Len())

	// No pending timer may fire after ClearAll.
	time.Sleep(busTestWait)
	assert.Equal(t, 0, bus.Len())
}

func TestClearAllOnEmptyBus(t *testing.T) {
	bus := newTestBus(t, 0)
	bus.ClearAll()
	assert.Equal(t, 0, bus.Len())
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	bus := newTestBus(t, 0)

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Add(Input{Kind: KindSuccess, Title: "Appointment Booked!"})

	select {
	case snapshot := <-ch:
		require.Len(t, snapshot, 1)
		assert.Equal(t, "Appointment Booked!", snapshot[0].Title)
	case <-time.After(busTestWait):
		t.Fatal("no snapshot delivered")
	}
}

func TestSubscribeCoalescesBursts(t *testing.T) {
	bus := newTestBus(t, 0)

	ch, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < 10; i++ {
		bus.Add(Input{Kind: KindInfo, Title: fmt.Sprintf("n-%d", i)})
	}

	// The subscriber buffer holds only the latest snapshot.
	select {
	case snapshot := <-ch:
		assert.Len(t, snapshot, 10)
	case <-time.After(busTestWait):
		t.Fatal("no snapshot delivered")
	}
}

func TestSubscribeCancel(t *testing.T) {
	bus := newTestBus(t, 0)

	ch, cancel := bus.Subscribe()
	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)
}

func TestCloseStopsEverything(t *testing.T) {
	bus := NewBus(0)

	ch, _ := bus.Subscribe()
	bus.Add(Input{Kind: KindInfo, Title: "pending", ExpiresAfter: busTestExpiry})
	bus.Close()
	bus.Close() // idempotent

	assert.Equal(t, 0, bus.Len())
	assert.Equal(t, uint64(0), bus.Add(Input{Kind: KindInfo, Title: "dropped"}))

	// Channel is drained of any pre-close snapshot, then closed.
	for {
		if _, open := <-ch; !open {
			break
		}
	}
}

func TestConcurrentAddRemove(t *testing.T) {
	bus := newTestBus(t, 0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			id := bus.Add(Input{Kind: KindInfo, Title: "x"})
			bus.Remove(id)
		}
	}()
	for i := 0; i < 100; i++ {
		bus.Add(Input{Kind: KindInfo, Title: "y", ExpiresAfter: busTestExpiry})
	}
	<-done

	assert.Eventually(t, func() bool { return bus.Len() == 0 },
		time.Second, 10*time.Millisecond)
}
