// Package observer implements the upstream observer interface (spec §6):
// every observer emits a DetailObserverData snapshot once per tick,
// consumed by the processing graph's observer multiplexer and, after
// batching, by the target-state controller.
package observer

import "github.com/tileflow/streamcore/bvh"

// DetailObserverData is one observer's per-tick viewpoint snapshot
// (spec §6). ErrorFunction computes the screen-space error of a bounding
// volume against opaque per-observer data (e.g. a cached view-projection
// matrix); ErrorMultiplier scales the result, letting callers bias
// specific observers (e.g. a picking ray) without changing their
// geometry.
type DetailObserverData struct {
	ClipFromUniverse bvh.Mat4
	NearClipPlane    *float64
	ErrorFunction    func(data interface{}, bounds bvh.Bounds) float64
	ErrorMultiplier  float64
	Data             interface{}
}

// Error evaluates this observer's screen-space error for bounds.
func (d DetailObserverData) Error(bounds bvh.Bounds) float64 {
	return d.ErrorFunction(d.Data, bounds) * d.ErrorMultiplier
}

// Producer is implemented by upstream viewpoint sources (e.g. a camera
// rig) feeding the observer multiplexer.
type Producer interface {
	Snapshot() DetailObserverData
}

// StaticProducer is a reference Producer for tests and simple callers: it
// always returns the same snapshot until Set is called.
type StaticProducer struct {
	data DetailObserverData
}

func NewStaticProducer(initial DetailObserverData) *StaticProducer {
	return &StaticProducer{data: initial}
}

func (p *StaticProducer) Snapshot() DetailObserverData { return p.data }

func (p *StaticProducer) Set(d DetailObserverData) { p.data = d }
