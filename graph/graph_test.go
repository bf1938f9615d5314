package graph_test

import (
	"testing"

	"github.com/tileflow/streamcore/commandbuf"
	"github.com/tileflow/streamcore/graph"
	"github.com/tileflow/streamcore/observer"
)

func TestObserverMultiplexerBatchesLatestPerInput(t *testing.T) {
	in0 := graph.NewPort[observer.DetailObserverData](4)
	in1 := graph.NewPort[observer.DetailObserverData](4)
	out := graph.NewPort[[]observer.DetailObserverData](4)

	mux := graph.NewObserverMultiplexer([]*graph.Port[observer.DetailObserverData]{in0, in1}, out)

	in0.Send(observer.DetailObserverData{ErrorMultiplier: 1})
	in0.Send(observer.DetailObserverData{ErrorMultiplier: 2}) // superseded
	in1.Send(observer.DetailObserverData{ErrorMultiplier: 9})

	if !mux.ScheduleMainThread() {
		t.Fatal("expected main-thread work with pending input data")
	}
	mux.MainThreadProcess()

	batch, ok := out.Receive()
	if !ok {
		t.Fatal("expected a batch on the output port")
	}
	if len(batch) != 2 {
		t.Fatalf("batch len = %d, want 2", len(batch))
	}
	if batch[0].ErrorMultiplier != 2 {
		t.Fatalf("input 0 = %v, want latest value 2", batch[0].ErrorMultiplier)
	}
	if batch[1].ErrorMultiplier != 9 {
		t.Fatalf("input 1 = %v, want 9", batch[1].ErrorMultiplier)
	}
}

func TestObserverMultiplexerCarriesForwardStaleInputs(t *testing.T) {
	in0 := graph.NewPort[observer.DetailObserverData](4)
	in1 := graph.NewPort[observer.DetailObserverData](4)
	out := graph.NewPort[[]observer.DetailObserverData](4)
	mux := graph.NewObserverMultiplexer([]*graph.Port[observer.DetailObserverData]{in0, in1}, out)

	in0.Send(observer.DetailObserverData{ErrorMultiplier: 5})
	in1.Send(observer.DetailObserverData{ErrorMultiplier: 7})
	mux.MainThreadProcess()
	out.Receive()

	// Next tick only input 0 sends; input 1's prior value must carry
	// forward rather than reset to zero.
	in0.Send(observer.DetailObserverData{ErrorMultiplier: 6})
	mux.MainThreadProcess()
	batch, _ := out.Receive()
	if batch[0].ErrorMultiplier != 6 || batch[1].ErrorMultiplier != 7 {
		t.Fatalf("batch = %+v, want [6 7]", batch)
	}
}

func TestDecoderMultiplexerPinsThroughAtomicGroup(t *testing.T) {
	in0 := graph.NewPort[commandbuf.Command](8)
	in1 := graph.NewPort[commandbuf.Command](8)
	out := graph.NewPort[commandbuf.Command](8)
	demux := graph.NewDecoderMultiplexer([]*graph.Port[commandbuf.Command]{in0, in1}, out)

	in0.Send(commandbuf.Command{Kind: commandbuf.KindBeginAtomic})
	in0.Send(commandbuf.Command{Kind: commandbuf.KindAllocateInstance, InstanceID: 1})
	in1.Send(commandbuf.Command{Kind: commandbuf.KindAllocateInstance, InstanceID: 99})
	in0.Send(commandbuf.Command{Kind: commandbuf.KindEndAtomic})

	for demux.ScheduleMainThread() {
		demux.MainThreadProcess()
	}

	var got []commandbuf.Command
	for {
		c, ok := out.Receive()
		if !ok {
			break
		}
		got = append(got, c)
	}

	if len(got) != 4 {
		t.Fatalf("got %d commands, want 4 (the pinned group plus in1's item)", len(got))
	}
	if got[0].Kind != commandbuf.KindBeginAtomic || got[2].Kind != commandbuf.KindEndAtomic {
		t.Fatalf("got = %+v, want Begin...End bracketing the pinned group", got)
	}
	if got[1].InstanceID != 1 {
		t.Fatalf("middle command instance id = %d, want 1 (from the pinned input, never interleaved with in1)", got[1].InstanceID)
	}
	if got[3].InstanceID != 99 {
		t.Fatalf("trailing command instance id = %d, want 99 (in1's item, forwarded only after the group closed)", got[3].InstanceID)
	}
}

func TestBroadcastWaitsForSlowestConsumer(t *testing.T) {
	in := graph.NewPort[int](4)
	slow := graph.NewPort[int](1)
	fast := graph.NewPort[int](4)
	bc := graph.NewBroadcast(in, []*graph.Port[int]{slow, fast})

	in.Send(1)
	slow.Send(999) // fills the slow consumer's single slot

	if bc.ScheduleMainThread() {
		t.Fatal("expected broadcast to stall while the slow consumer's port is full")
	}

	slow.Receive() // drains the blocker
	if !bc.ScheduleMainThread() {
		t.Fatal("expected broadcast to be ready once the slow consumer can accept again")
	}
	bc.MainThreadProcess()

	if v, ok := slow.Receive(); !ok || v != 1 {
		t.Fatalf("slow output = %v, %v, want 1, true", v, ok)
	}
	if v, ok := fast.Receive(); !ok || v != 1 {
		t.Fatalf("fast output = %v, %v, want 1, true", v, ok)
	}
}

func TestInstantiatorRequiresAllOutputsReady(t *testing.T) {
	in := graph.NewPort[string](4)
	a := graph.NewPort[string](1)
	b := graph.NewPort[string](1)
	inst := graph.NewInstantiator(in, []*graph.Port[string]{a, b})

	in.Send("payload")
	a.Send("occupying-a")

	if inst.ScheduleMainThread() {
		t.Fatal("expected hard sync to block while output a is full")
	}
	a.Receive()
	if !inst.ScheduleMainThread() {
		t.Fatal("expected hard sync to proceed once every output is ready")
	}
	inst.MainThreadProcess()
	if va, _ := a.Receive(); va != "payload" {
		t.Fatalf("a = %q, want payload", va)
	}
	if vb, _ := b.Receive(); vb != "payload" {
		t.Fatalf("b = %q, want payload", vb)
	}
}
