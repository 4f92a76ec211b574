package sim

import (
	"container/heap"
	"math"

	"github.com/pkg/errors"
)

// eventEntry wraps an Event with a sequence ID for deterministic FIFO
// tie-breaking when timestamps are equal.
type eventEntry struct {
	event Event
	seqID uint64
}

// eventQueue is a min-heap ordered by (Timestamp, seqID).
// Implements heap.Interface.
type eventQueue []eventEntry

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].event.Timestamp() != q[j].event.Timestamp() {
		return q[i].event.Timestamp() < q[j].event.Timestamp()
	}
	return q[i].seqID < q[j].seqID
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(eventEntry))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Clock owns simulated time and the pending event set. There is one Clock per
// run, owned by the Simulator; nothing else moves time forward.
type Clock struct {
	now     float64
	queue   eventQueue
	nextSeq uint64
	popped  uint64
}

// NewClock returns a clock at time zero with an empty queue.
func NewClock() *Clock {
	return &Clock{queue: make(eventQueue, 0)}
}

// Now returns the current simulated time.
func (c *Clock) Now() float64 {
	return c.now
}

// Schedule inserts ev into the queue. Events in the past (or with a NaN
// timestamp) are rejected with ErrInvalidScheduling.
func (c *Clock) Schedule(ev Event) error {
	at := ev.Timestamp()
	if math.IsNaN(at) || at < c.now {
		return errors.Wrapf(ErrInvalidScheduling, "%s event at t=%g precedes clock t=%g", ev.Kind(), at, c.now)
	}
	heap.Push(&c.queue, eventEntry{event: ev, seqID: c.nextSeq})
	c.nextSeq++
	return nil
}

// Pop removes the earliest event and moves the clock to its timestamp.
// Returns nil when the queue is empty.
func (c *Clock) Pop() Event {
	if len(c.queue) == 0 {
		return nil
	}
	entry := heap.Pop(&c.queue).(eventEntry)
	c.now = entry.event.Timestamp()
	c.popped++
	return entry.event
}

// Peek returns the earliest event without removing it.
func (c *Clock) Peek() Event {
	if len(c.queue) == 0 {
		return nil
	}
	return c.queue[0].event
}

// Pending returns the number of queued events.
func (c *Clock) Pending() int {
	return len(c.queue)
}

// Processed returns how many events have been popped so far.
func (c *Clock) Processed() uint64 {
	return c.popped
}

// setNow moves the clock forward without an event; used to close the run at
// its deadline. Never moves time backwards.
func (c *Clock) setNow(t float64) {
	if t > c.now {
		c.now = t
	}
}
