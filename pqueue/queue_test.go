package pqueue_test

import (
	"testing"

	"github.com/tileflow/streamcore/pqueue"
)

// TestPriorityDequeueOrder reproduces scenario S6 (spec §8): insertions
// (3,a),(1,b),(3,c),(2,d) must dequeue b, d, a, c.
func TestPriorityDequeueOrder(t *testing.T) {
	q := pqueue.New()
	ids := map[int32]string{0: "a", 1: "b", 2: "c", 3: "d"}
	q.Push(3, 0) // a
	q.Push(1, 1) // b
	q.Push(3, 2) // c
	q.Push(2, 3) // d

	var got []string
	for q.Len() > 0 {
		item, ok := q.Pop()
		if !ok {
			t.Fatal("Pop reported empty while Len() > 0")
		}
		got = append(got, ids[item.NodeID])
	}
	want := []string{"b", "d", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestClearEmptiesQueue(t *testing.T) {
	q := pqueue.New()
	q.Push(1, 0)
	q.Push(2, 1)
	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("len after clear = %d, want 0", q.Len())
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected Pop to report empty after Clear")
	}
}

func TestEqualPriorityFIFO(t *testing.T) {
	q := pqueue.New()
	for i := int32(0); i < 5; i++ {
		q.Push(1, i)
	}
	for i := int32(0); i < 5; i++ {
		item, _ := q.Pop()
		if item.NodeID != i {
			t.Fatalf("pop order = %d, want %d (FIFO within equal priority)", item.NodeID, i)
		}
	}
}
