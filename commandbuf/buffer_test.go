package commandbuf_test

import (
	"testing"

	"github.com/tileflow/streamcore/commandbuf"
)

type recordingPresenter struct {
	events   []string
	inAtomic bool
	atomics  int
}

func (p *recordingPresenter) CmdAllocate(id uint64, _ commandbuf.InstanceData) {
	p.events = append(p.events, "alloc")
}
func (p *recordingPresenter) CmdDispose(id uint64) { p.events = append(p.events, "dispose") }
func (p *recordingPresenter) CmdUpdateVisibility(id uint64, visible bool) {
	p.events = append(p.events, "vis")
}
func (p *recordingPresenter) BeginAtomic() {
	p.inAtomic = true
	p.events = append(p.events, "begin")
}
func (p *recordingPresenter) EndAtomic() {
	p.inAtomic = false
	p.atomics++
	p.events = append(p.events, "end")
}

func TestDrainOneAppliesSingleCommand(t *testing.T) {
	buf := commandbuf.NewBuffer(0)
	buf.Push(commandbuf.AllocateInstance(1, commandbuf.InstanceData{}))
	buf.Push(commandbuf.DisposeInstance(1))

	p := &recordingPresenter{}
	if !buf.DrainOne(p) {
		t.Fatal("expected a command to drain")
	}
	if len(p.events) != 1 || p.events[0] != "alloc" {
		t.Fatalf("events = %v, want single alloc", p.events)
	}
	if buf.Len() != 1 {
		t.Fatalf("buffer len = %d, want 1", buf.Len())
	}
}

func TestDrainOneAtomicGroupIsIndivisible(t *testing.T) {
	buf := commandbuf.NewBuffer(0)
	buf.QueueAtomic([]commandbuf.Command{
		commandbuf.UpdateVisibility(1, true),
		commandbuf.UpdateVisibility(2, false),
	})
	buf.Push(commandbuf.DisposeInstance(3))

	p := &recordingPresenter{}
	if !buf.DrainOne(p) {
		t.Fatal("expected the atomic group to drain as one step")
	}
	want := []string{"begin", "vis", "vis", "end"}
	if len(p.events) != len(want) {
		t.Fatalf("events = %v, want %v", p.events, want)
	}
	for i := range want {
		if p.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", p.events, want)
		}
	}
	if buf.Len() != 1 {
		t.Fatalf("buffer len after draining group = %d, want 1 (the dispose)", buf.Len())
	}
}

func TestAtomicBalanceAcrossManyGroups(t *testing.T) {
	buf := commandbuf.NewBuffer(0)
	for i := 0; i < 5; i++ {
		buf.QueueAtomic([]commandbuf.Command{commandbuf.UpdateVisibility(uint64(i), true)})
	}
	p := &recordingPresenter{}
	buf.DrainAll(p)
	if p.atomics != 5 {
		t.Fatalf("atomics = %d, want 5", p.atomics)
	}
	begins, ends := 0, 0
	for _, e := range p.events {
		if e == "begin" {
			begins++
		}
		if e == "end" {
			ends++
		}
	}
	if begins != ends {
		t.Fatalf("unbalanced atomic markers: %d begins, %d ends", begins, ends)
	}
}

func TestNextIDMonotonic(t *testing.T) {
	buf := commandbuf.NewBuffer(0)
	a := buf.NextID()
	b := buf.NextID()
	if b != a+1 {
		t.Fatalf("ids not monotonic: %d then %d", a, b)
	}
}
