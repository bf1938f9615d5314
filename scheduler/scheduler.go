// Package scheduler implements the expansion scheduler (spec §4.H): a
// two-phase driver that reconciles the BVH's target state against its
// current state, dispatching load/unload requests within a concurrency
// budget and then reconciling visibility as a single atomic batch.
package scheduler

import (
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/tileflow/streamcore/bvh"
	"github.com/tileflow/streamcore/cmn"
	"github.com/tileflow/streamcore/content"
	"github.com/tileflow/streamcore/format"
	"github.com/tileflow/streamcore/metrics"
	"github.com/tileflow/streamcore/pqueue"
)

// State is the scheduler's run state (spec §4.H).
type State uint8

const (
	Done State = iota
	Processing
)

func (s State) String() string {
	if s == Done {
		return "Done"
	}
	return "Processing"
}

// Store is the narrow capability the scheduler needs from the BVH: full
// read access plus the per-tick scratch cache.
type Store interface {
	bvh.GetNodeData
	bvh.ScheduleNodeChanges
}

// Manager is the node-content manager capability the scheduler drives
// (spec §4.E); satisfied by *contentmgr.Manager.
type Manager interface {
	Load(nodeID cmn.NodeId, content bvh.NodeContent)
	Unload(nodeID cmn.NodeId)
	UpdateVisibility(visible, hidden []cmn.NodeId)
	LoadingCount() int
	UnloadingCount() int
	OnLoadComplete(fn func(cmn.NodeId, format.LoadOutcome))
}

// Scheduler runs one two-phase reconciliation pass per Tick call.
type Scheduler struct {
	store Store
	mgr   Manager

	loadQueue   *pqueue.Queue
	unloadQueue *pqueue.Queue

	budget *semaphore.Weighted

	state State

	// seenRequests dedupes same-tick load dispatches that share an
	// underlying fetch (e.g. two BVH nodes whose content both resolve to
	// the same remote payload), keyed by content.RequestKey. Reset every
	// Tick alongside the scheduler cache.
	seenRequests map[uint64]bool
}

// New creates a scheduler bounded to maxConcurrent simultaneous content
// requests (spec §6 MaximumSimultaneousContentRequests).
func New(store Store, mgr Manager, maxConcurrent int) *Scheduler {
	s := &Scheduler{
		store:       store,
		mgr:         mgr,
		loadQueue:   pqueue.New(),
		unloadQueue: pqueue.New(),
		budget:       semaphore.NewWeighted(int64(maxConcurrent)),
		state:        Done,
		seenRequests: make(map[uint64]bool),
	}
	mgr.OnLoadComplete(func(cmn.NodeId, format.LoadOutcome) {
		s.budget.Release(1)
	})
	return s
}

func (s *Scheduler) State() State { return s.state }

// Tick runs phase 1 (load/unload reconciliation) then phase 2 (atomic
// visibility reconciliation) once, starting from root (spec §4.H). Callers
// run this once per frame/tick after the target-state controller has
// evaluated the current observer set.
func (s *Scheduler) Tick(root cmn.NodeId) {
	s.state = Processing
	s.resetCache(root)
	s.phase1(root)
	s.phase2(root)

	if s.mgr.LoadingCount() == 0 && s.mgr.UnloadingCount() == 0 &&
		s.loadQueue.Len() == 0 && s.unloadQueue.Len() == 0 {
		s.state = Done
	}
}

func (s *Scheduler) resetCache(root cmn.NodeId) {
	s.seenRequests = make(map[uint64]bool)
	s.loadQueue.Clear()
	s.unloadQueue.Clear()
	s.store.Walk(root, func(id cmn.NodeId) bool {
		s.store.ResetCache(id)
		return true
	})
}

// phase1 walks the whole tree (unload reconciliation must reach loaded
// nodes regardless of an ancestor's target state) enqueuing candidate
// loads and unloads, then dispatches loads within the concurrency budget
// and unloads unconditionally.
func (s *Scheduler) phase1(root cmn.NodeId) {
	s.store.Walk(root, func(id cmn.NodeId) bool {
		if s.store.Failed(id) {
			return true // spec §7: expansion skips failed nodes forever
		}
		target := s.store.Target(id)
		current := s.store.Current(id)
		data := s.store.NodeData(id)

		switch {
		case target == bvh.Expanded && !current.Loaded && data.HasContent:
			// A content-less node has nothing to fetch; it becomes ready
			// to display the moment it is expanded (see readyForDisplay),
			// without ever passing through the content manager.
			s.enqueueLoad(id)
		case target == bvh.Collapsed && current.Loaded && !s.hasActiveDescendant(id):
			s.enqueue(s.unloadQueue, id)
		}
		return true
	})

	metrics.SchedulerQueueLength.WithLabelValues("load").Set(float64(s.loadQueue.Len()))
	metrics.SchedulerQueueLength.WithLabelValues("unload").Set(float64(s.unloadQueue.Len()))

	for s.budget.TryAcquire(1) {
		item, ok := s.loadQueue.Pop()
		if !ok {
			s.budget.Release(1)
			break
		}
		id := cmn.NodeId(item.NodeID)
		s.mgr.Load(id, s.store.Content(id))
	}

	for {
		item, ok := s.unloadQueue.Pop()
		if !ok {
			break
		}
		s.mgr.Unload(cmn.NodeId(item.NodeID))
	}
}

// enqueue pushes id onto q keyed by (error-specification, depth), which
// gives the ordering spec §4.H requires: ascending error-specification,
// ties broken by shallower depth, remaining ties broken by pqueue's own
// insertion-order tie-break (spec §4.F). Each node is enqueued at most
// once per tick via the scheduler cache.
func (s *Scheduler) enqueue(q *pqueue.Queue, id cmn.NodeId) {
	if s.store.Cache(id).Enqueued {
		return
	}
	priority := combinePriority(s.store.ErrorSpec(id).ScreenSpaceError, s.store.Depth(id))
	q.Push(priority, int32(id))
	s.store.MutateCache(id, func(c *bvh.SchedulerCache) { c.Enqueued = true })
}

// enqueueLoad is enqueue plus a same-tick dedupe keyed on the node's
// underlying fetch: two BVH nodes that both resolve to the same remote
// payload (a shared mesh/texture referenced by more than one tile) must
// only be dispatched to the content manager once.
func (s *Scheduler) enqueueLoad(id cmn.NodeId) {
	if c := s.store.Content(id); c != nil {
		uri := ""
		if uc, ok := c.(*content.URIContent); ok {
			uri = strings.Join(uc.URIs, "\x00")
		}
		key := content.RequestKey(c.DataSourceID(), uri)
		if s.seenRequests[key] {
			return
		}
		s.seenRequests[key] = true
	}
	s.enqueue(s.loadQueue, id)
}

// combinePriority folds depth into the error-specification's fractional
// range so that exact error ties (common for sibling nodes seen at the
// same geometric error) still resolve to shallower-first without a
// second sort pass.
func combinePriority(errorSpec float64, depth int32) float64 {
	return errorSpec + float64(depth)*1e-9
}

// hasActiveDescendant reports whether any descendant of id is currently
// visible, or has a load in flight (target expanded, not yet loaded).
// Phase 1's unload condition requires this to be false (spec §4.H).
func (s *Scheduler) hasActiveDescendant(id cmn.NodeId) bool {
	for _, c := range s.store.Children(id) {
		cur := s.store.Current(c)
		if cur.Visible {
			return true
		}
		if s.store.Target(c) == bvh.Expanded && !readyForDisplay(s.store.NodeData(c), cur) {
			return true
		}
		if s.hasActiveDescendant(c) {
			return true
		}
	}
	return false
}

// readyForDisplay reports whether a node may participate in the
// visibility frontier this tick. A node with real content must have
// finished loading (current.Loaded); a content-less structural node
// (spec §3: content handle is optional) has nothing to load and is
// ready as soon as it is expanded, and never transitions current.Loaded
// to true (spec's load/unload dance never runs for it).
func readyForDisplay(data bvh.NodeData, current bvh.CurrentState) bool {
	return current.Loaded || !data.HasContent
}

// phase2 computes the visibility frontier across every expanded subtree
// and submits it as a single atomic update (spec §4.H phase 2). Unlike
// phase1, this is a custom recursion rather than Store.Walk: a
// not-yet-ready replace parent must not recurse into its children (they
// are not part of the displayed frontier yet), and a child whose
// visibility the parent just decided must not re-decide itself.
func (s *Scheduler) phase2(root cmn.NodeId) {
	var toShow, toHide []cmn.NodeId
	s.collectVisibility(root, false, &toShow, &toHide)
	if len(toShow) > 0 || len(toHide) > 0 {
		s.mgr.UpdateVisibility(toShow, toHide)
	}
}

func (s *Scheduler) collectVisibility(id cmn.NodeId, selfDecided bool, toShow, toHide *[]cmn.NodeId) {
	if s.store.Target(id) != bvh.Expanded {
		return
	}
	current := s.store.Current(id)
	data := s.store.NodeData(id)
	if !readyForDisplay(data, current) {
		return
	}

	children := s.store.Children(id)

	switch data.Refinement {
	case bvh.RefineReplace:
		if len(children) > 0 && allReadyForDisplay(s.store, children) {
			if !selfDecided && current.Visible {
				*toHide = append(*toHide, id)
			}
			for _, c := range children {
				if !s.store.Current(c).Visible {
					*toShow = append(*toShow, c)
				}
				s.collectVisibility(c, true, toShow, toHide)
			}
			return
		}
		if !selfDecided && !current.Visible {
			*toShow = append(*toShow, id)
		}
		// Children of a not-yet-ready replace parent are not part of
		// the displayed frontier this tick; leave them unvisited.
	default: // RefineAdd
		if !selfDecided && !current.Visible {
			*toShow = append(*toShow, id)
		}
		for _, c := range children {
			s.collectVisibility(c, false, toShow, toHide)
		}
	}
}

func allReadyForDisplay(store Store, ids []cmn.NodeId) bool {
	for _, id := range ids {
		if !readyForDisplay(store.NodeData(id), store.Current(id)) {
			return false
		}
	}
	return true
}
