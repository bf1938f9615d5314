// Package pqueue implements the deterministic (priority, insertion-order)
// work queue used by the expansion scheduler (spec §4.F): lower priority
// values dequeue first, equal priorities preserve FIFO.
package pqueue

import "github.com/tidwall/tinyqueue"

// Item is a single queued unit of scheduler work.
type Item struct {
	Priority float64
	NodeID   int32
	seq      uint64
}

// Queue wraps tidwall/tinyqueue with the ordering contract spec §4.F and
// §8 property 6 require: a binary min-heap keyed first by Priority, tied
// broken by insertion order.
type Queue struct {
	tq  *tinyqueue.Queue
	seq uint64
}

func compare(a, b tinyqueue.Item) bool {
	ia, ib := a.(Item), b.(Item)
	if ia.Priority != ib.Priority {
		return ia.Priority < ib.Priority
	}
	return ia.seq < ib.seq
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{tq: tinyqueue.New(nil, compare)}
}

// Push inserts item with the given priority and node id, stamping it with
// the next insertion sequence number for FIFO tie-breaking.
func (q *Queue) Push(priority float64, nodeID int32) {
	q.tq.Push(Item{Priority: priority, NodeID: nodeID, seq: q.seq})
	q.seq++
}

// Pop removes and returns the lowest-priority item. ok is false if the
// queue is empty.
func (q *Queue) Pop() (item Item, ok bool) {
	if q.tq.Len() == 0 {
		return Item{}, false
	}
	return q.tq.Pop().(Item), true
}

// Peek returns the lowest-priority item without removing it.
func (q *Queue) Peek() (item Item, ok bool) {
	if q.tq.Len() == 0 {
		return Item{}, false
	}
	return q.tq.Peek().(Item), true
}

func (q *Queue) Len() int { return q.tq.Len() }

// Clear empties the queue without freeing its backing capacity (spec §4.F),
// used by the scheduler between ticks. tinyqueue doesn't expose a reset, so
// this drains it one Pop at a time rather than allocating a fresh Queue;
// Pop only shrinks tinyqueue's internal slice length, leaving its array
// allocation in place for the next tick's Push calls to reuse.
func (q *Queue) Clear() {
	for q.tq.Len() > 0 {
		q.tq.Pop()
	}
}
