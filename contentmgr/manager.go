package contentmgr

import (
	"container/list"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tileflow/streamcore/bvh"
	"github.com/tileflow/streamcore/cmn"
	"github.com/tileflow/streamcore/commandbuf"
	"github.com/tileflow/streamcore/content"
	"github.com/tileflow/streamcore/format"
	"github.com/tileflow/streamcore/metrics"
	"github.com/tileflow/streamcore/revert"
)

// Manager is the node-content manager (spec §4.E). All public methods
// except ProcessNext are expected to be called from the same cooperative
// main task that calls ProcessNext; there is no internal locking against
// concurrent producers, only against the I/O-pool goroutines completing
// promises asynchronously (spec §5).
type Manager struct {
	mu    sync.Mutex // guards queue and counters against promise-completion goroutines
	queue *list.List

	registry *content.Registry
	buf      *commandbuf.Buffer
	current  bvh.EditCurrentState

	instances    map[cmn.NodeId]uint64
	revertStacks map[cmn.NodeId]*revert.Stack

	loadingCount   int
	unloadingCount int

	onLoadComplete func(cmn.NodeId, format.LoadOutcome)
}

// OnLoadComplete registers a callback invoked once per FinishLoading
// entry consumed by ProcessNext, after instance bookkeeping is updated.
// The expansion scheduler uses this to release its concurrency-budget
// semaphore (spec §4.H).
func (m *Manager) OnLoadComplete(fn func(cmn.NodeId, format.LoadOutcome)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLoadComplete = fn
}

func NewManager(registry *content.Registry, buf *commandbuf.Buffer, current bvh.EditCurrentState) *Manager {
	return &Manager{
		queue:        list.New(),
		registry:     registry,
		buf:          buf,
		current:      current,
		instances:    make(map[cmn.NodeId]uint64),
		revertStacks: make(map[cmn.NodeId]*revert.Stack),
	}
}

func (m *Manager) LoadingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadingCount
}

func (m *Manager) UnloadingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unloadingCount
}

// InstanceFor returns the live instance id for node, if loaded.
func (m *Manager) InstanceFor(id cmn.NodeId) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.instances[id]
	return v, ok
}

// Load implements spec §4.E's load(node-id, content) contract.
func (m *Manager) Load(nodeID cmn.NodeId, c bvh.NodeContent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// "if the tail already contains a matching Unload, cancel it and
	// return" — this is the cancellation-by-reverse-detection rule spec
	// §4.H describes for an in-flight load whose target flips back to
	// expanded before the cancelling Unload runs.
	if back := m.queue.Back(); back != nil {
		if e := back.Value.(*entry); e.kind == Unload && e.unloadNode == nodeID {
			m.queue.Remove(back)
			return
		}
	}

	if hasEarlierSameNode(m.queue, nil, nodeID) {
		m.queue.PushBack(&entry{kind: LoadLater, nodeID: nodeID, content: c})
		return
	}
	m.startLoad(nodeID, c)
}

// startLoad appends a FinishLoading entry and dispatches the I/O-pool
// task. Caller must hold m.mu.
func (m *Manager) startLoad(nodeID cmn.NodeId, c bvh.NodeContent) {
	promise := newLoadPromise()
	e := &entry{kind: FinishLoading, nodeID: nodeID, content: c, promise: promise}
	m.queue.PushBack(e)
	m.loadingCount++
	metrics.LoadingGauge.Set(float64(m.loadingCount))
	go m.runLoader(nodeID, c, promise)
}

// runLoader is the I/O-pool task: a single suspension point at the
// loader's fetch call (spec §5). Loader failures are caught here and
// translated into a null instance so the scheduler always progresses
// (spec §7).
func (m *Manager) runLoader(nodeID cmn.NodeId, c bvh.NodeContent, promise *loadPromise) {
	loader := m.registry.Lookup(c.ContentType())
	stack := revert.NewStack(m.buf)

	instanceID, err := loader.LoadAsync(nodeID, c, identityTransform())
	if err != nil {
		stack.Revert()
		promise.complete(format.Failed(err))
		return
	}
	m.mu.Lock()
	m.revertStacks[nodeID] = stack
	m.mu.Unlock()
	promise.complete(format.Ok(instanceID))
}

func identityTransform() [16]float64 {
	return [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// Unload implements spec §4.E's unload(node-id) contract.
func (m *Manager) Unload(nodeID cmn.NodeId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.PushBack(&entry{kind: Unload, unloadNode: nodeID})
	m.unloadingCount++
	metrics.UnloadingGauge.Set(float64(m.unloadingCount))
}

// UpdateVisibility implements spec §4.E's update-visibility(visible-ids,
// hidden-ids) contract.
func (m *Manager) UpdateVisibility(visible, hidden []cmn.NodeId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.PushBack(&entry{kind: UpdateOp, visible: visible, hidden: hidden})
}

// ProcessNext consumes one queue item per spec §4.E. Returns true if
// progress was made (an item was consumed or a batch of LoadLater items
// was promoted), false if the queue is empty or head-of-line blocked on a
// stalled FinishLoading.
func (m *Manager) ProcessNext() bool {
	m.mu.Lock()
	head := m.queue.Front()
	if head == nil {
		m.mu.Unlock()
		return false
	}
	e := head.Value.(*entry)

	switch e.kind {
	case FinishLoading:
		out, done := e.promise.Done()
		if !done {
			m.mu.Unlock()
			return false // stall: leave the queue untouched
		}
		m.loadingCount--
		metrics.LoadingGauge.Set(float64(m.loadingCount))
		if out.Success() {
			m.instances[e.nodeID] = out.InstanceID
			m.current.SetCurrent(e.nodeID, bvh.CurrentState{Loaded: true, Visible: false})
		} else {
			// translated to a null instance; the revert stack (if any
			// partial allocation occurred before the error) was already
			// drained inside runLoader.
			delete(m.instances, e.nodeID)
		}
		m.queue.Remove(head)
		cb := m.onLoadComplete
		m.mu.Unlock()
		// An IoError is recoverable (cmn.IoError): the node stays
		// unloaded but not failed, so a later tick may request it again.
		var ioErr *cmn.IoError
		if !out.Success() && !errors.As(out.Err, &ioErr) {
			m.current.SetFailed(e.nodeID, true)
		}
		if cb != nil {
			cb(e.nodeID, out)
		}
		return true

	case LoadLater:
		m.promoteEligibleLoadLater()
		m.mu.Unlock()
		return true

	case Unload:
		nodeID := e.unloadNode
		m.queue.Remove(head)
		m.unloadingCount--
		metrics.UnloadingGauge.Set(float64(m.unloadingCount))
		instanceID, hadInstance := m.instances[nodeID]
		stack := m.revertStacks[nodeID]
		delete(m.instances, nodeID)
		delete(m.revertStacks, nodeID)
		m.mu.Unlock()

		m.current.SetCurrent(nodeID, bvh.CurrentState{Loaded: false, Visible: false})
		if stack != nil {
			stack.Revert()
		} else if hadInstance {
			m.buf.Push(commandbuf.DisposeInstance(instanceID))
		}
		return true

	case UpdateOp:
		m.queue.Remove(head)
		visible, hidden := e.visible, e.hidden
		instances := make(map[cmn.NodeId]uint64, len(visible)+len(hidden))
		for _, id := range visible {
			if iid, ok := m.instances[id]; ok {
				instances[id] = iid
			}
		}
		for _, id := range hidden {
			if iid, ok := m.instances[id]; ok {
				instances[id] = iid
			}
		}
		m.mu.Unlock()

		// Loaded reflects whether id actually has a live instance, not a
		// blanket true: a content-less structural node (spec §3's optional
		// content handle) can appear in visible/hidden without ever having
		// gone through FinishLoading, and must stay Loaded=false.
		var sub []commandbuf.Command
		for _, id := range visible {
			iid, hasInstance := instances[id]
			if hasInstance {
				sub = append(sub, commandbuf.UpdateVisibility(iid, true))
			}
			m.current.SetCurrent(id, bvh.CurrentState{Loaded: hasInstance, Visible: true})
		}
		for _, id := range hidden {
			iid, hasInstance := instances[id]
			if hasInstance {
				sub = append(sub, commandbuf.UpdateVisibility(iid, false))
			}
			m.current.SetCurrent(id, bvh.CurrentState{Loaded: hasInstance, Visible: false})
		}
		if len(sub) > 0 {
			m.buf.QueueAtomic(sub)
		}
		return true

	default:
		m.mu.Unlock()
		cmn.Assertf(false, "unknown queue entry kind %v", e.kind)
		return false
	}
}

// promoteEligibleLoadLater scans the whole queue and promotes every
// LoadLater entry that has no earlier same-node entry, starting each
// one's loader task (spec §4.E: "scan all LoadLater items that have no
// prior same-node entry and start their tasks"). Caller must hold m.mu.
func (m *Manager) promoteEligibleLoadLater() {
	var toStart []*entry
	for el := m.queue.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if e.kind != LoadLater {
			continue
		}
		if hasEarlierSameNode(m.queue, el, e.nodeID) {
			continue
		}
		e.kind = FinishLoading
		e.promise = newLoadPromise()
		m.loadingCount++
		metrics.LoadingGauge.Set(float64(m.loadingCount))
		toStart = append(toStart, e)
	}
	if len(toStart) == 0 {
		return
	}
	var g errgroup.Group
	for _, e := range toStart {
		e := e
		g.Go(func() error {
			m.runLoader(e.nodeID, e.content, e.promise)
			return nil
		})
	}
	// Fire-and-forget: the main executor polls promises via ProcessNext,
	// it never blocks on g.Wait(). errgroup here only bounds the fan-out
	// goroutines as a group for observability/shutdown, mirroring the
	// teacher's fs/mpather JoggerGroup use of errgroup.Group for a batch
	// of concurrent workers.
	go func() { _ = g.Wait() }()
}
