// Package bvh implements the flat-arena bounding-volume hierarchy described
// in spec §4.A: every known tile with its target/current state and
// per-node scheduler cache, stored in fixed-size records so that parent and
// child relationships are plain integer indices rather than owning
// pointers (spec §9 — this is how the design avoids reference cycles).
package bvh

import "github.com/tileflow/streamcore/cmn"

// RefinementMode selects how a node's children relate to it visually
// (spec §3).
type RefinementMode uint8

const (
	RefineAdd RefinementMode = iota
	RefineReplace
)

// Bounds is an axis-aligned double-precision bounding box.
type Bounds struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Mat4 is a 4x4 double-precision transform, row-major.
type Mat4 [16]float64

// Identity4 returns the identity transform.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// NodeData is the immutable-once-set spatial/refinement description of a
// node (spec §3).
type NodeData struct {
	Bounds         Bounds
	GeometricError float32
	Refinement     RefinementMode
	Transform      Mat4
	HasContent     bool
}

// CurrentState is the two-bit field {loaded?, visible?}. Only the content
// manager may transition it (spec §3).
type CurrentState struct {
	Loaded  bool
	Visible bool
}

// TargetState is the one-bit field {collapsed | expanded}. Only the
// target-state controller may write it (spec §3).
type TargetState uint8

const (
	Collapsed TargetState = iota
	Expanded
)

// ErrorSpecification records the screen-space error that produced the
// current TargetState decision (spec §4.G step 3).
type ErrorSpecification struct {
	ScreenSpaceError float64
}

// SchedulerCache is scratch space owned by the expansion scheduler and
// target-state controller, reset at the start of every tick (spec §4.G,
// §4.H "Scheduler cache").
type SchedulerCache struct {
	Enqueued           bool
	ObservationPriority float64
	ResolvableChildren  bool
	childrenCheckedTick uint64
}

// Node is a single BVH record. Fixed size: children are held indirectly via
// ChildrenBlock, an index into Store.blocks, so that Node itself never
// grows with fan-out (spec §4.A).
type Node struct {
	Data    NodeData
	Content NodeContent

	ParentID      cmn.NodeId
	ChildrenBlock int32 // index into Store.blocks, or -1 if none
	Depth         int32

	Current CurrentState
	Target  TargetState
	Error   ErrorSpecification
	Cache   SchedulerCache

	// Failed is set permanently by a FormatError (spec §7); expansion
	// skips failed nodes forever.
	Failed bool
	// free marks a slot on the freelist, reused by AddNode.
	free bool
}
