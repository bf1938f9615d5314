// Package revert implements the revertible command stack (spec §4.D):
// every allocate-* call records its inverse dispose-* action; revert()
// unwinds them LIFO. Used when a tile's decode fails or it is unloaded
// before decode completes.
package revert

import (
	"github.com/tinylib/msgp/msgp"

	"github.com/tileflow/streamcore/commandbuf"
)

// LoaderActions is the subset of Buffer operations a format loader is
// allowed to call while materializing a tile. Stack implements it over a
// commandbuf.Buffer so every allocation's inverse is recorded automatically.
type LoaderActions interface {
	AllocateMesh() uint64
	AllocateMaterial() uint64
	AllocateTexture() uint64
	AllocateInstance(payload commandbuf.InstanceData) uint64
	AddMaterialProperty(materialID uint64, key string, value []byte) // already msgp-encoded
}

type inverse struct {
	kind commandbuf.CommandKind
	id   uint64
	key  string
}

// Stack wraps a commandbuf.Buffer's producer side, recording the inverse
// of every allocation it forwards. Not safe for concurrent use by more
// than one loader task at a time (spec §4.E: "at most one non-completed
// operation per node").
type Stack struct {
	buf     *commandbuf.Buffer
	inverses []inverse

	onRevertComplete func()
}

func NewStack(buf *commandbuf.Buffer) *Stack {
	return &Stack{buf: buf}
}

func (s *Stack) AllocateMesh() uint64 {
	id := s.buf.NextID()
	s.buf.Push(commandbuf.AllocateMesh(id))
	s.inverses = append(s.inverses, inverse{kind: commandbuf.KindDisposeMesh, id: id})
	return id
}

func (s *Stack) AllocateMaterial() uint64 {
	id := s.buf.NextID()
	s.buf.Push(commandbuf.AllocateMaterial(id))
	s.inverses = append(s.inverses, inverse{kind: commandbuf.KindDisposeMaterial, id: id})
	return id
}

func (s *Stack) AllocateTexture() uint64 {
	id := s.buf.NextID()
	s.buf.Push(commandbuf.AllocateTexture(id))
	s.inverses = append(s.inverses, inverse{kind: commandbuf.KindDisposeTexture, id: id})
	return id
}

func (s *Stack) AllocateInstance(payload commandbuf.InstanceData) uint64 {
	id := s.buf.NextID()
	s.buf.Push(commandbuf.AllocateInstance(id, payload))
	s.inverses = append(s.inverses, inverse{kind: commandbuf.KindDisposeInstance, id: id})
	return id
}

// AddMaterialProperty records the paired remove-material-property inverse
// alongside the forward command (spec §4.D).
func (s *Stack) AddMaterialProperty(materialID uint64, key string, value []byte) {
	s.buf.Push(commandbuf.AddMaterialProperty(materialID, key, value))
	s.inverses = append(s.inverses, inverse{kind: commandbuf.KindAddMaterialProperty, id: materialID, key: key})
}

// OnRevertComplete registers the callback queued (via commandbuf.QueueAction,
// the loader's deferred-action channel) once revert() finishes unwinding.
func (s *Stack) OnRevertComplete(fn func()) { s.onRevertComplete = fn }

// Revert pops and invokes every recorded inverse in LIFO order, then
// queues the optional on-revert-complete callback (spec §4.D). After
// Revert returns, the stack holds no more inverses — spec §8 property 8
// ("revert exactness").
func (s *Stack) Revert() {
	for i := len(s.inverses) - 1; i >= 0; i-- {
		inv := s.inverses[i]
		switch inv.kind {
		case commandbuf.KindDisposeMesh:
			s.buf.Push(commandbuf.DisposeMesh(inv.id))
		case commandbuf.KindDisposeMaterial:
			s.buf.Push(commandbuf.DisposeMaterial(inv.id))
		case commandbuf.KindDisposeTexture:
			s.buf.Push(commandbuf.DisposeTexture(inv.id))
		case commandbuf.KindDisposeInstance:
			s.buf.Push(commandbuf.DisposeInstance(inv.id))
		case commandbuf.KindAddMaterialProperty:
			// the inverse of "add" is "remove": encode a tombstone empty
			// value under the same key so the presenter's property map
			// drops it.
			s.buf.Push(commandbuf.AddMaterialProperty(inv.id, inv.key, nil))
		}
	}
	s.inverses = s.inverses[:0]
	if s.onRevertComplete != nil {
		fn := s.onRevertComplete
		s.onRevertComplete = nil
		s.buf.Push(commandbuf.QueueAction(fn))
	}
}

// LiveCount reports the number of un-reverted allocations, used by spec §8
// property 8's test to assert zero after Revert.
func (s *Stack) LiveCount() int { return len(s.inverses) }

// EncodeProperty msgpack-encodes a batch-table property value for
// AddMaterialProperty, using tinylib/msgp's streaming writer directly
// (spec SPEC_FULL.md domain stack) rather than a second JSON pass over
// tile metadata already carried as bytes.
func EncodeProperty(values map[string]interface{}) ([]byte, error) {
	var buf []byte
	w := msgp.NewWriter(&byteSliceWriter{buf: &buf})
	if err := w.WriteMapHeader(uint32(len(values))); err != nil {
		return nil, err
	}
	for k, v := range values {
		if err := w.WriteString(k); err != nil {
			return nil, err
		}
		if err := w.WriteIntf(v); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf, nil
}

// byteSliceWriter adapts an append-only []byte to io.Writer for msgp.Writer.
type byteSliceWriter struct{ buf *[]byte }

func (w *byteSliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}
