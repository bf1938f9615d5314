// Package presenter implements the downstream consumer boundary (spec
// §6): the commandbuf.Presenter interface plus an in-memory reference
// implementation used by tests and the demo binary, since streamcore
// ships no real scene-graph integration of its own.
package presenter

import (
	"sync"

	"github.com/tileflow/streamcore/cmn"
	"github.com/tileflow/streamcore/commandbuf"
)

// Handle is the opaque per-instance handle events carry (spec §6:
// "on-allocate(id, opaque-handle)"). InMemory hands back the instance's
// own id cast to this type; a real presenter would hand back a
// scene-graph node reference instead.
type Handle uint64

// InMemory is a reference commandbuf.Presenter: it tracks live
// instances and their visibility in plain maps and fires the three
// spec §6 events, with no actual rendering behind it.
type InMemory struct {
	mu sync.Mutex

	live     map[uint64]commandbuf.InstanceData
	visible  map[uint64]bool
	inAtomic bool

	OnAllocate         func(id uint64, handle Handle)
	OnDispose          func(id uint64, handle Handle)
	OnUpdateVisibility func(id uint64, handle Handle, visible bool)
}

// New creates an empty InMemory presenter. Event callbacks are nil by
// default; assign OnAllocate/OnDispose/OnUpdateVisibility to observe.
func New() *InMemory {
	return &InMemory{
		live:    make(map[uint64]commandbuf.InstanceData),
		visible: make(map[uint64]bool),
	}
}

func (p *InMemory) CmdAllocate(instanceID uint64, payload commandbuf.InstanceData) {
	p.mu.Lock()
	cmn.Assertf(!p.exists(instanceID), "double allocate of instance %d", instanceID)
	p.live[instanceID] = payload
	p.mu.Unlock()
	if p.OnAllocate != nil {
		p.OnAllocate(instanceID, Handle(instanceID))
	}
}

func (p *InMemory) CmdDispose(instanceID uint64) {
	p.mu.Lock()
	cmn.Assertf(!p.visible[instanceID], "dispose of still-visible instance %d", instanceID)
	delete(p.live, instanceID)
	delete(p.visible, instanceID)
	p.mu.Unlock()
	if p.OnDispose != nil {
		p.OnDispose(instanceID, Handle(instanceID))
	}
}

func (p *InMemory) CmdUpdateVisibility(instanceID uint64, visible bool) {
	p.mu.Lock()
	cmn.Assertf(p.exists(instanceID), "visibility update for unknown instance %d", instanceID)
	p.visible[instanceID] = visible
	p.mu.Unlock()
	if p.OnUpdateVisibility != nil {
		p.OnUpdateVisibility(instanceID, Handle(instanceID), visible)
	}
}

func (p *InMemory) BeginAtomic() {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmn.Assertf(!p.inAtomic, "nested BeginAtomic observed by presenter")
	p.inAtomic = true
}

func (p *InMemory) EndAtomic() {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmn.Assertf(p.inAtomic, "EndAtomic without BeginAtomic observed by presenter")
	p.inAtomic = false
}

func (p *InMemory) exists(id uint64) bool {
	_, ok := p.live[id]
	return ok
}

// IsVisible reports whether instanceID is currently visible. Intended
// for test assertions.
func (p *InMemory) IsVisible(instanceID uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible[instanceID]
}

// LiveCount returns the number of currently allocated (not yet
// disposed) instances.
func (p *InMemory) LiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

var _ commandbuf.Presenter = (*InMemory)(nil)
