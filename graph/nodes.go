package graph

import (
	"github.com/tileflow/streamcore/commandbuf"
	"github.com/tileflow/streamcore/observer"
)

// Node is the processing graph's scheduling contract (spec §4.I): every
// node reports whether it has main-thread work and whether its output
// currently accepts more data.
type Node interface {
	ReadyForData() bool
	ScheduleMainThread() bool
	MainThreadProcess()
}

// ObserverMultiplexer fans N per-observer input ports into a single
// batched output (spec §4.I): "batches latest per-observer value each
// tick". Each tick it takes the most recently sent value on every input
// that has one, carrying forward the previous value for inputs that
// didn't send this tick.
type ObserverMultiplexer struct {
	inputs []*Port[observer.DetailObserverData]
	output *Port[[]observer.DetailObserverData]
	last   []observer.DetailObserverData
}

func NewObserverMultiplexer(inputs []*Port[observer.DetailObserverData], output *Port[[]observer.DetailObserverData]) *ObserverMultiplexer {
	return &ObserverMultiplexer{inputs: inputs, output: output, last: make([]observer.DetailObserverData, len(inputs))}
}

func (m *ObserverMultiplexer) ReadyForData() bool { return m.output.Ready() }

func (m *ObserverMultiplexer) ScheduleMainThread() bool {
	for _, in := range m.inputs {
		if in.HasData() {
			return true
		}
	}
	return false
}

func (m *ObserverMultiplexer) MainThreadProcess() {
	for i, in := range m.inputs {
		// Drain to the latest value; intermediate values this tick are
		// superseded, matching "batches latest per-observer value".
		for {
			v, ok := in.Receive()
			if !ok {
				break
			}
			m.last[i] = v
		}
	}
	batch := make([]observer.DetailObserverData, len(m.last))
	copy(batch, m.last)
	m.output.Send(batch)
}

// DecoderMultiplexer fans in command streams round-robin, pinning to
// whichever input is mid atomic-group so a group is never split across
// inputs (spec §4.I).
type DecoderMultiplexer struct {
	inputs []*Port[commandbuf.Command]
	output *Port[commandbuf.Command]

	turn     int
	pinned   bool
	pinIndex int
}

func NewDecoderMultiplexer(inputs []*Port[commandbuf.Command], output *Port[commandbuf.Command]) *DecoderMultiplexer {
	return &DecoderMultiplexer{inputs: inputs, output: output}
}

func (d *DecoderMultiplexer) ReadyForData() bool { return d.output.Ready() }

func (d *DecoderMultiplexer) ScheduleMainThread() bool {
	if !d.output.Ready() {
		return false
	}
	if d.pinned {
		return d.inputs[d.pinIndex].HasData()
	}
	for _, in := range d.inputs {
		if in.HasData() {
			return true
		}
	}
	return false
}

func (d *DecoderMultiplexer) MainThreadProcess() {
	idx := d.turn
	if d.pinned {
		idx = d.pinIndex
	} else {
		for i := 0; i < len(d.inputs); i++ {
			candidate := (d.turn + i) % len(d.inputs)
			if d.inputs[candidate].HasData() {
				idx = candidate
				break
			}
		}
	}

	cmd, ok := d.inputs[idx].Receive()
	if !ok {
		return
	}
	d.output.Send(cmd)

	switch cmd.Kind {
	case commandbuf.KindBeginAtomic:
		d.pinned = true
		d.pinIndex = idx
	case commandbuf.KindEndAtomic:
		d.pinned = false
		d.turn = (idx + 1) % len(d.inputs)
	default:
		if !d.pinned {
			d.turn = (idx + 1) % len(d.inputs)
		}
	}
}

// Broadcast copies a single input to every output, gated on all outputs
// being ready so the slowest consumer sets the pace (spec §4.I).
type Broadcast[T any] struct {
	input   *Port[T]
	outputs []*Port[T]
}

func NewBroadcast[T any](input *Port[T], outputs []*Port[T]) *Broadcast[T] {
	return &Broadcast[T]{input: input, outputs: outputs}
}

func (b *Broadcast[T]) ReadyForData() bool { return b.input.Ready() }

func (b *Broadcast[T]) ScheduleMainThread() bool {
	return b.input.HasData() && allReady(b.outputs)
}

func (b *Broadcast[T]) MainThreadProcess() {
	if !allReady(b.outputs) {
		return
	}
	v, ok := b.input.Peek()
	if !ok {
		return
	}
	b.input.Receive()
	for _, out := range b.outputs {
		out.Send(v)
	}
}

// Instantiator forwards its input to every output only once all outputs
// are simultaneously ready, a hard synchronization barrier used for
// operations that must apply to every consumer atomically (spec §4.I).
type Instantiator[T any] struct {
	input   *Port[T]
	outputs []*Port[T]
}

func NewInstantiator[T any](input *Port[T], outputs []*Port[T]) *Instantiator[T] {
	return &Instantiator[T]{input: input, outputs: outputs}
}

func (n *Instantiator[T]) ReadyForData() bool { return n.input.Ready() }

func (n *Instantiator[T]) ScheduleMainThread() bool {
	return n.input.HasData() && allReady(n.outputs)
}

func (n *Instantiator[T]) MainThreadProcess() {
	if !allReady(n.outputs) {
		return
	}
	v, ok := n.input.Receive()
	if !ok {
		return
	}
	for _, out := range n.outputs {
		out.Send(v)
	}
}

func allReady[T any](ports []*Port[T]) bool {
	for _, p := range ports {
		if !p.Ready() {
			return false
		}
	}
	return true
}
