package bvh

import "github.com/tileflow/streamcore/cmn"

// The following narrow interfaces are the Go rendition of the teacher's
// multiple-inheritance BVH "view" layers (spec §9): a single owning Store
// plus narrow interfaces that borrow it immutably or mutably. Packages
// that only need one capability (e.g. targetstate only ever writes target
// state and reads data) should depend on the interface, not *Store, so
// that a future alternate Store implementation or a test fake stays
// drop-in compatible.

// GetNodeData is read-only access to spatial/content data and tree shape.
type GetNodeData interface {
	RootID() cmn.NodeId
	NodeData(id cmn.NodeId) NodeData
	Content(id cmn.NodeId) NodeContent
	Parent(id cmn.NodeId) cmn.NodeId
	Depth(id cmn.NodeId) int32
	Children(id cmn.NodeId) []cmn.NodeId
	Current(id cmn.NodeId) CurrentState
	Target(id cmn.NodeId) TargetState
	ErrorSpec(id cmn.NodeId) ErrorSpecification
	Failed(id cmn.NodeId) bool
	Walk(root cmn.NodeId, visit func(id cmn.NodeId) bool)
}

// EditTargetState is the write capability used exclusively by the
// target-state controller (spec §4.G).
type EditTargetState interface {
	SetTarget(id cmn.NodeId, t TargetState)
	SetErrorSpec(id cmn.NodeId, e ErrorSpecification)
}

// EditCurrentState is the write capability used exclusively by the
// node-content manager (spec §4.E) as load/unload/visibility operations
// complete.
type EditCurrentState interface {
	SetCurrent(id cmn.NodeId, st CurrentState)
	SetFailed(id cmn.NodeId, failed bool)
}

// ScheduleNodeChanges is the scheduler-cache read/write capability used by
// the target-state controller and expansion scheduler within a tick
// (spec §4.G "Scheduler cache", §4.H "Scheduler cache").
type ScheduleNodeChanges interface {
	Cache(id cmn.NodeId) SchedulerCache
	MutateCache(id cmn.NodeId, fn func(*SchedulerCache))
	ResetCache(id cmn.NodeId)
}

var (
	_ GetNodeData          = (*Store)(nil)
	_ EditTargetState       = (*Store)(nil)
	_ EditCurrentState      = (*Store)(nil)
	_ ScheduleNodeChanges   = (*Store)(nil)
)
