package commandbuf

import (
	"sync"

	"github.com/tileflow/streamcore/cmn"
	"github.com/tileflow/streamcore/metrics"
)

// Presenter is the downstream scene-graph integration boundary (spec §6).
// It is the only consumer of a Buffer.
type Presenter interface {
	CmdAllocate(instanceID uint64, payload InstanceData)
	CmdDispose(instanceID uint64)
	CmdUpdateVisibility(instanceID uint64, visible bool)
	BeginAtomic()
	EndAtomic()
}

// Buffer is the append-only, bounded, single-producer/single-consumer
// command queue (spec §4.C). It is not safe for concurrent producers; the
// expansion scheduler and node-content manager are expected to be the only
// callers, both running on the single cooperative main task (spec §5).
type Buffer struct {
	mu       sync.Mutex
	items    []Command
	capacity int

	ids *cmn.IDGenerator

	inAtomic bool
}

// NewBuffer creates a Buffer bounded to capacity entries. A capacity of 0
// means unbounded.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{capacity: capacity, ids: cmn.NewIDGenerator()}
}

// NextID returns the next dense, monotonic, 64-bit id shared across
// meshes/materials/textures/instances (spec §4.C).
func (b *Buffer) NextID() uint64 { return b.ids.Next() }

// Push appends a single command. Not valid to call while a sub-buffer
// queued via QueueAtomic is being assembled by the caller — use
// QueueAtomic for grouped appends.
func (b *Buffer) Push(cmd Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushLocked(cmd)
}

func (b *Buffer) pushLocked(cmd Command) {
	if b.capacity > 0 {
		cmn.Assertf(len(b.items) < b.capacity, "command buffer overflow (capacity %d)", b.capacity)
	}
	b.items = append(b.items, cmd)
	metrics.CommandBufferLength.Set(float64(len(b.items)))
}

// QueueAtomic appends BeginAtomic, the sub-buffer's items in order, then
// EndAtomic (spec §4.C). The whole group is appended under one lock so a
// concurrent Drain call never observes a partial group.
func (b *Buffer) QueueAtomic(sub []Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushLocked(Command{Kind: KindBeginAtomic})
	for _, c := range sub {
		b.pushLocked(c)
	}
	b.pushLocked(Command{Kind: KindEndAtomic})
}

// Len reports the number of buffered (undrained) commands.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Snapshot returns a copy of the currently buffered commands without
// draining them. Intended for test assertions (spec §8 properties), not
// for production control flow.
func (b *Buffer) Snapshot() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Command(nil), b.items...)
}

// DrainOne applies exactly one command to p, unless the head of the queue
// is a BeginAtomic, in which case the whole atomic group is applied
// instead (spec §4.C: "The consumer either drains one command per tick or
// one entire atomic group per tick"). Returns false if the buffer is
// empty.
func (b *Buffer) DrainOne(p Presenter) bool {
	b.mu.Lock()
	if len(b.items) == 0 {
		b.mu.Unlock()
		return false
	}
	if b.items[0].Kind == KindBeginAtomic {
		end := b.findAtomicEnd()
		group := append([]Command(nil), b.items[1:end]...)
		b.items = b.items[end+1:]
		metrics.CommandBufferLength.Set(float64(len(b.items)))
		b.mu.Unlock()
		applyGroup(p, group)
		return true
	}
	cmd := b.items[0]
	b.items = b.items[1:]
	metrics.CommandBufferLength.Set(float64(len(b.items)))
	b.mu.Unlock()
	apply(p, cmd)
	return true
}

// findAtomicEnd returns the index of the EndAtomic matching the
// BeginAtomic at b.items[0]. Must be called with b.mu held. Atomic groups
// never nest (spec §3 invariant), so the first EndAtomic found closes it.
func (b *Buffer) findAtomicEnd() int {
	for i := 1; i < len(b.items); i++ {
		switch b.items[i].Kind {
		case KindBeginAtomic:
			cmn.Assertf(false, "nested BeginAtomic at index %d", i)
		case KindEndAtomic:
			return i
		}
	}
	cmn.Assertf(false, "BeginAtomic with no matching EndAtomic")
	return -1
}

// DrainAll applies every buffered command/group, in order. Used by
// "hurried" streaming mode (spec §6).
func (b *Buffer) DrainAll(p Presenter) {
	for b.DrainOne(p) {
	}
}

func applyGroup(p Presenter, group []Command) {
	p.BeginAtomic()
	for _, c := range group {
		apply(p, c)
	}
	p.EndAtomic()
}

func apply(p Presenter, c Command) {
	switch c.Kind {
	case KindAllocateInstance:
		p.CmdAllocate(c.InstanceID, c.Payload)
	case KindDisposeInstance:
		p.CmdDispose(c.InstanceID)
	case KindUpdateVisibility:
		p.CmdUpdateVisibility(c.InstanceID, c.Visible)
	case KindQueueAction:
		if c.DeferredAction != nil {
			c.DeferredAction()
		}
	case KindAllocateMesh, KindAllocateMaterial, KindAllocateTexture,
		KindDisposeMesh, KindDisposeMaterial, KindDisposeTexture,
		KindAddMaterialProperty:
		// Mesh/material/texture sub-resource commands are carried on the
		// same log so atomic groups can interleave them with instance
		// commands (spec §3); a presenter that does not model them
		// separately from instances may ignore these kinds.
	default:
		cmn.Assertf(false, "unknown command kind %d", c.Kind)
	}
}
