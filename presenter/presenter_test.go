package presenter_test

import (
	"testing"

	"github.com/tileflow/streamcore/commandbuf"
	"github.com/tileflow/streamcore/presenter"
)

func TestAllocateDisposeRoundTrip(t *testing.T) {
	p := presenter.New()
	var allocated, disposed bool
	p.OnAllocate = func(id uint64, h presenter.Handle) { allocated = true }
	p.OnDispose = func(id uint64, h presenter.Handle) { disposed = true }

	p.CmdAllocate(1, commandbuf.InstanceData{SourceID: "tile"})
	if !allocated {
		t.Fatal("OnAllocate not fired")
	}
	if p.LiveCount() != 1 {
		t.Fatalf("LiveCount = %d, want 1", p.LiveCount())
	}

	p.CmdDispose(1)
	if !disposed {
		t.Fatal("OnDispose not fired")
	}
	if p.LiveCount() != 0 {
		t.Fatalf("LiveCount = %d, want 0", p.LiveCount())
	}
}

func TestUpdateVisibilityFiresEvent(t *testing.T) {
	p := presenter.New()
	var gotVisible bool
	p.OnUpdateVisibility = func(id uint64, h presenter.Handle, visible bool) { gotVisible = visible }

	p.CmdAllocate(1, commandbuf.InstanceData{})
	p.CmdUpdateVisibility(1, true)

	if !gotVisible {
		t.Fatal("expected visible=true")
	}
	if !p.IsVisible(1) {
		t.Fatal("IsVisible should report true")
	}
}

func TestBeginEndAtomicToggleState(t *testing.T) {
	p := presenter.New()
	p.BeginAtomic()
	p.CmdAllocate(1, commandbuf.InstanceData{})
	p.EndAtomic()

	if p.LiveCount() != 1 {
		t.Fatalf("LiveCount = %d, want 1", p.LiveCount())
	}
}

func TestDrainAppliesBufferedCommandsThroughPresenter(t *testing.T) {
	p := presenter.New()
	buf := commandbuf.NewBuffer(0)
	buf.Push(commandbuf.AllocateInstance(7, commandbuf.InstanceData{SourceID: "a"}))
	buf.QueueAtomic([]commandbuf.Command{
		commandbuf.UpdateVisibility(7, true),
	})
	buf.Push(commandbuf.UpdateVisibility(7, false))
	buf.Push(commandbuf.DisposeInstance(7))

	buf.DrainAll(p)

	if p.LiveCount() != 0 {
		t.Fatalf("LiveCount = %d, want 0 after dispose", p.LiveCount())
	}
}
