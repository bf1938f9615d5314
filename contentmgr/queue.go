// Package contentmgr implements the node-content manager (spec §4.E): a
// single queue state machine serializing load/unload/visibility-change
// work per node against the format-loader layer, enforcing "at most one
// non-completed operation per node" (spec §3 invariant).
//
// The single-goroutine-owns-a-mailbox shape follows gioverse-chat's
// list.Manager/asyncProcess (one goroutine draining a request channel,
// promoting queued work), generalized here from list-virtualization
// semantics to per-node load/unload/visibility semantics.
package contentmgr

import (
	"container/list"

	"github.com/tileflow/streamcore/bvh"
	"github.com/tileflow/streamcore/cmn"
)

// EntryKind tags a queued operation (spec §4.E).
type EntryKind uint8

const (
	FinishLoading EntryKind = iota
	LoadLater
	Unload
	UpdateOp
)

func (k EntryKind) String() string {
	switch k {
	case FinishLoading:
		return "FinishLoading"
	case LoadLater:
		return "LoadLater"
	case Unload:
		return "Unload"
	case UpdateOp:
		return "Update"
	default:
		return "Unknown"
	}
}

// entry is one node of the manager's doubly linked queue (spec §4.E: "The
// queue is a doubly linked list of items").
type entry struct {
	kind EntryKind

	// Load{Later,FinishLoading}
	nodeID  cmn.NodeId
	content bvh.NodeContent
	promise *loadPromise

	// Unload
	unloadNode cmn.NodeId

	// Update
	visible []cmn.NodeId
	hidden  []cmn.NodeId
}

// hasEarlierSameNode reports whether any entry strictly before el in the
// queue refers to the same node as el. Per spec §4.E's ordering
// guarantee, a LoadLater may only promote to FinishLoading once it is the
// first entry for its node.
func hasEarlierSameNode(q *list.List, el *list.Element, nodeID cmn.NodeId) bool {
	for e := q.Front(); e != el; e = e.Next() {
		if e.Value.(*entry).nodeFor() == nodeID {
			return true
		}
	}
	return false
}

func (e *entry) nodeFor() cmn.NodeId {
	switch e.kind {
	case Unload:
		return e.unloadNode
	default:
		return e.nodeID
	}
}
