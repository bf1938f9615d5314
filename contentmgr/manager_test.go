package contentmgr_test

import (
	"errors"
	"testing"
	"time"

	"github.com/tileflow/streamcore/bvh"
	"github.com/tileflow/streamcore/cmn"
	"github.com/tileflow/streamcore/commandbuf"
	"github.com/tileflow/streamcore/content"
	"github.com/tileflow/streamcore/contentmgr"
)

type fakeContent struct {
	bvh.BaseContent
	ct  cmn.ContentType
	src string
}

func (c *fakeContent) ContentType() cmn.ContentType  { return c.ct }
func (c *fakeContent) DataSourceID() string           { return c.src }
func (c *fakeContent) Bounds() bvh.Bounds             { return bvh.Bounds{} }
func (c *fakeContent) GeometricError() float32         { return 0 }
func (c *fakeContent) AlwaysExpand() bool              { return false }

// fakeLoader lets tests control how long LoadAsync takes and whether it
// succeeds, via a channel gate.
type fakeLoader struct {
	gate chan struct{}
	fail bool
}

func (l *fakeLoader) SupportedFileTypes() []string { return []string{".fake"} }

func (l *fakeLoader) LoadAsync(node cmn.NodeId, _ interface{ DataSourceID() string }, _ [16]float64) (uint64, error) {
	if l.gate != nil {
		<-l.gate
	}
	if l.fail {
		return 0, errors.New("synthetic load failure")
	}
	return uint64(node) + 1000, nil
}

func (l *fakeLoader) UnloadNode(cmn.NodeId) error { return nil }

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func newHarness(t *testing.T, loader *fakeLoader) (*contentmgr.Manager, *bvh.Store, cmn.ContentType) {
	store := bvh.NewStore(bvh.NodeData{})
	reg := content.NewRegistry()
	ct := reg.NewContentType("fake")
	reg.Register(ct, loader)
	buf := commandbuf.NewBuffer(0)
	return contentmgr.NewManager(reg, buf, store), store, ct
}

func TestLoadCompletesAndRecordsInstance(t *testing.T) {
	loader := &fakeLoader{}
	mgr, store, ct := newHarness(t, loader)
	id := store.AddNode(cmn.NullNodeID, bvh.NodeData{}, &fakeContent{ct: ct, src: "a"})

	mgr.Load(id, store.Content(id))
	waitUntil(t, time.Second, func() bool { return mgr.ProcessNext() || mgr.LoadingCount() == 0 })

	for mgr.LoadingCount() > 0 {
		if !mgr.ProcessNext() {
			time.Sleep(time.Millisecond)
		}
	}
	if _, ok := mgr.InstanceFor(id); !ok {
		t.Fatal("expected instance to be recorded after successful load")
	}
	if cur := store.Current(id); !cur.Loaded {
		t.Fatal("expected current.Loaded to be set true once FinishLoading succeeds, independent of visibility")
	}
}

func TestProcessNextStallsOnIncompleteLoad(t *testing.T) {
	gate := make(chan struct{})
	loader := &fakeLoader{gate: gate}
	mgr, store, ct := newHarness(t, loader)
	id := store.AddNode(cmn.NullNodeID, bvh.NodeData{}, &fakeContent{ct: ct, src: "a"})

	mgr.Load(id, store.Content(id))
	if mgr.ProcessNext() {
		t.Fatal("expected ProcessNext to stall while the load is still in flight")
	}
	close(gate)
	waitUntil(t, time.Second, func() bool {
		return mgr.ProcessNext()
	})
}

func TestSecondLoadSameNodeIsDeferred(t *testing.T) {
	gate := make(chan struct{})
	loader := &fakeLoader{gate: gate}
	mgr, store, ct := newHarness(t, loader)
	id := store.AddNode(cmn.NullNodeID, bvh.NodeData{}, &fakeContent{ct: ct, src: "a"})

	mgr.Load(id, store.Content(id))
	mgr.Load(id, store.Content(id)) // queued as LoadLater behind the first
	if mgr.LoadingCount() != 1 {
		t.Fatalf("loadingCount = %d, want 1 (second load must wait)", mgr.LoadingCount())
	}
	close(gate)
}

func TestFailedLoadMarksNodeFailedAndClearsInstance(t *testing.T) {
	loader := &fakeLoader{fail: true}
	mgr, store, ct := newHarness(t, loader)
	id := store.AddNode(cmn.NullNodeID, bvh.NodeData{}, &fakeContent{ct: ct, src: "a"})

	mgr.Load(id, store.Content(id))
	waitUntil(t, time.Second, func() bool {
		return mgr.ProcessNext()
	})
	if _, ok := mgr.InstanceFor(id); ok {
		t.Fatal("failed load must not record an instance")
	}
	if !store.Failed(id) {
		t.Fatal("failed load must mark the node failed via EditCurrentState")
	}
}

func TestUnloadAfterPendingLoadIsAppended(t *testing.T) {
	gate := make(chan struct{})
	loader := &fakeLoader{gate: gate}
	mgr, store, ct := newHarness(t, loader)
	id := store.AddNode(cmn.NullNodeID, bvh.NodeData{}, &fakeContent{ct: ct, src: "a"})

	mgr.Load(id, store.Content(id))
	mgr.Load(id, store.Content(id)) // LoadLater entry
	mgr.Unload(id)                  // appended after the LoadLater entry, not cancelling the in-flight load

	close(gate)
	_ = store
}
