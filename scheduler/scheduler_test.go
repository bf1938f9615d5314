package scheduler_test

import (
	"testing"

	"github.com/tileflow/streamcore/bvh"
	"github.com/tileflow/streamcore/cmn"
	"github.com/tileflow/streamcore/format"
	"github.com/tileflow/streamcore/scheduler"
)

type recordingManager struct {
	loaded     []cmn.NodeId
	unloaded   []cmn.NodeId
	lastShow   []cmn.NodeId
	lastHide   []cmn.NodeId
	updateCalls int
	loading    int
	unloading  int
	onComplete func(cmn.NodeId, format.LoadOutcome)
}

func (m *recordingManager) Load(id cmn.NodeId, _ bvh.NodeContent) {
	m.loaded = append(m.loaded, id)
	m.loading++
}
func (m *recordingManager) Unload(id cmn.NodeId) {
	m.unloaded = append(m.unloaded, id)
}
func (m *recordingManager) UpdateVisibility(visible, hidden []cmn.NodeId) {
	m.lastShow, m.lastHide = visible, hidden
	m.updateCalls++
}
func (m *recordingManager) LoadingCount() int   { return m.loading }
func (m *recordingManager) UnloadingCount() int { return m.unloading }
func (m *recordingManager) OnLoadComplete(fn func(cmn.NodeId, format.LoadOutcome)) {
	m.onComplete = fn
}

// TestReplaceFrontierShowsChildrenHidesParent reproduces scenario S4
// (spec §8): a replace-refinement parent P with four loaded children must
// produce exactly "show A,B,C,D; hide P" in one atomic update once every
// child is loaded.
func TestReplaceFrontierShowsChildrenHidesParent(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{Refinement: bvh.RefineReplace})
	root := store.RootID()
	store.SetTarget(root, bvh.Expanded)
	store.SetCurrent(root, bvh.CurrentState{Loaded: true, Visible: true})

	var children []cmn.NodeId
	for i := 0; i < 4; i++ {
		c := store.AddNode(root, bvh.NodeData{Refinement: bvh.RefineReplace}, nil)
		store.SetTarget(c, bvh.Expanded)
		store.SetCurrent(c, bvh.CurrentState{Loaded: true, Visible: false})
		children = append(children, c)
	}

	mgr := &recordingManager{}
	sched := scheduler.New(store, mgr, 6)
	sched.Tick(root)

	if mgr.updateCalls != 1 {
		t.Fatalf("UpdateVisibility called %d times, want 1", mgr.updateCalls)
	}
	if len(mgr.lastHide) != 1 || mgr.lastHide[0] != root {
		t.Fatalf("hide list = %v, want [root]", mgr.lastHide)
	}
	if len(mgr.lastShow) != len(children) {
		t.Fatalf("show list = %v, want all 4 children", mgr.lastShow)
	}
	shown := map[cmn.NodeId]bool{}
	for _, id := range mgr.lastShow {
		shown[id] = true
	}
	for _, c := range children {
		if !shown[c] {
			t.Fatalf("child %d not in show list %v", c, mgr.lastShow)
		}
	}
}

// TestReplaceParentStaysVisibleUntilAllChildrenLoaded checks the
// frontier does not flip early: with only 2 of 4 children loaded, the
// parent must remain shown and nothing hidden.
func TestReplaceParentStaysVisibleUntilAllChildrenLoaded(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{Refinement: bvh.RefineReplace})
	root := store.RootID()
	store.SetTarget(root, bvh.Expanded)
	store.SetCurrent(root, bvh.CurrentState{Loaded: true, Visible: true})

	for i := 0; i < 4; i++ {
		c := store.AddNode(root, bvh.NodeData{Refinement: bvh.RefineReplace, HasContent: true}, nil)
		store.SetTarget(c, bvh.Expanded)
		loaded := i < 2
		store.SetCurrent(c, bvh.CurrentState{Loaded: loaded, Visible: false})
	}

	mgr := &recordingManager{}
	sched := scheduler.New(store, mgr, 6)
	sched.Tick(root)

	if mgr.updateCalls != 0 {
		t.Fatalf("expected no visibility update while children still loading, got show=%v hide=%v", mgr.lastShow, mgr.lastHide)
	}
}

// TestAddRefinementShowsParentAndLoadedChildren verifies refine-add
// cumulative visibility: the parent is shown once loaded, and loaded
// children are shown additionally without hiding the parent.
func TestAddRefinementShowsParentAndLoadedChildren(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{Refinement: bvh.RefineAdd})
	root := store.RootID()
	store.SetTarget(root, bvh.Expanded)
	store.SetCurrent(root, bvh.CurrentState{Loaded: true, Visible: false})

	child := store.AddNode(root, bvh.NodeData{Refinement: bvh.RefineAdd}, nil)
	store.SetTarget(child, bvh.Expanded)
	store.SetCurrent(child, bvh.CurrentState{Loaded: true, Visible: false})

	mgr := &recordingManager{}
	sched := scheduler.New(store, mgr, 6)
	sched.Tick(root)

	if mgr.updateCalls != 1 {
		t.Fatalf("UpdateVisibility called %d times, want 1", mgr.updateCalls)
	}
	if len(mgr.lastHide) != 0 {
		t.Fatalf("hide list = %v, want empty for refine-add", mgr.lastHide)
	}
	want := map[cmn.NodeId]bool{root: true, child: true}
	for _, id := range mgr.lastShow {
		delete(want, id)
	}
	if len(want) != 0 {
		t.Fatalf("show list = %v missing entries %v", mgr.lastShow, want)
	}
}

// TestUnloadSkippedWhileDescendantLoading reproduces the phase-1 guard
// from spec §4.H: a collapsed, loaded node with a still-loading child
// must not be enqueued for unload.
func TestUnloadSkippedWhileDescendantLoading(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{})
	root := store.RootID()
	store.SetTarget(root, bvh.Collapsed)
	store.SetCurrent(root, bvh.CurrentState{Loaded: true, Visible: false})

	child := store.AddNode(root, bvh.NodeData{HasContent: true}, nil)
	store.SetTarget(child, bvh.Expanded)
	store.SetCurrent(child, bvh.CurrentState{Loaded: false, Visible: false})

	mgr := &recordingManager{}
	sched := scheduler.New(store, mgr, 6)
	sched.Tick(root)

	if len(mgr.unloaded) != 0 {
		t.Fatalf("unloaded = %v, want empty while a descendant is still loading", mgr.unloaded)
	}
}

// TestContentLessNodeNeverDispatchedToManager reproduces the structural,
// expand-only node case from spec §3 (content handle is optional): a node
// with no content must become part of the visibility frontier without
// ever being passed to Manager.Load, and without crashing on a nil
// bvh.NodeContent.
func TestContentLessNodeNeverDispatchedToManager(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{Refinement: bvh.RefineAdd, HasContent: false})
	root := store.RootID()
	store.SetTarget(root, bvh.Expanded)

	mgr := &recordingManager{}
	sched := scheduler.New(store, mgr, 6)
	sched.Tick(root)

	if len(mgr.loaded) != 0 {
		t.Fatalf("loaded = %v, want no dispatch for a content-less node", mgr.loaded)
	}
	if mgr.updateCalls != 1 || len(mgr.lastShow) != 1 || mgr.lastShow[0] != root {
		t.Fatalf("show list = %v (calls=%d), want [root] shown on the first tick", mgr.lastShow, mgr.updateCalls)
	}
}

type sharedSourceContent struct {
	bvh.BaseContent
	src string
}

func (c *sharedSourceContent) ContentType() cmn.ContentType  { return 0 }
func (c *sharedSourceContent) DataSourceID() string           { return c.src }
func (c *sharedSourceContent) Bounds() bvh.Bounds             { return bvh.Bounds{} }
func (c *sharedSourceContent) GeometricError() float32        { return 0 }
func (c *sharedSourceContent) AlwaysExpand() bool             { return false }

// TestSharedDataSourceDispatchedOnce reproduces content.RequestKey's
// dedupe contract: two nodes whose content resolves to the same
// underlying fetch must only reach Manager.Load once per tick.
func TestSharedDataSourceDispatchedOnce(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{HasContent: false})
	root := store.RootID()
	store.SetTarget(root, bvh.Expanded)

	a := store.AddNode(root, bvh.NodeData{HasContent: true}, &sharedSourceContent{src: "shared.glb"})
	b := store.AddNode(root, bvh.NodeData{HasContent: true}, &sharedSourceContent{src: "shared.glb"})
	store.SetTarget(a, bvh.Expanded)
	store.SetTarget(b, bvh.Expanded)

	mgr := &recordingManager{}
	sched := scheduler.New(store, mgr, 6)
	sched.Tick(root)

	loaded := map[cmn.NodeId]bool{}
	for _, id := range mgr.loaded {
		loaded[id] = true
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %v, want exactly one of {a,b} dispatched (shared source deduped)", mgr.loaded)
	}
	if loaded[a] && loaded[b] {
		t.Fatalf("both a and b dispatched despite sharing a data source: %v", mgr.loaded)
	}
}

func TestLoadRespectsConcurrencyBudget(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{})
	root := store.RootID()
	var children []cmn.NodeId
	for i := 0; i < 4; i++ {
		c := store.AddNode(root, bvh.NodeData{HasContent: true}, nil)
		store.SetTarget(c, bvh.Expanded)
		children = append(children, c)
	}

	mgr := &recordingManager{}
	sched := scheduler.New(store, mgr, 2)
	sched.Tick(root)

	if len(mgr.loaded) != 2 {
		t.Fatalf("loaded %d nodes, want exactly 2 (budget)", len(mgr.loaded))
	}
}
