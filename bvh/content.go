package bvh

import "github.com/tileflow/streamcore/cmn"

// NodeContent is the abstract descriptor of a node's loadable payload
// (spec §3). Concrete subtypes (URI collections, inline payloads) live in
// package content; bvh only needs the shared envelope so that Node stays
// self-contained.
type NodeContent interface {
	ContentType() cmn.ContentType
	DataSourceID() string
	Bounds() Bounds
	GeometricError() float32
	AlwaysExpand() bool

	// NodeID returns the owning node's id, or cmn.NullNodeID before
	// BindNode has been called.
	NodeID() cmn.NodeId
	// BindNode sets the owning node id exactly once; a second call is an
	// InvariantViolation (spec §3 invariant: "content.node-id, once set,
	// equals its BVH id forever").
	BindNode(id cmn.NodeId)
}

// BaseContent is embedded by concrete content types to implement the
// NodeID/BindNode half of NodeContent uniformly.
type BaseContent struct {
	nodeID cmn.NodeId
	bound  bool
}

func NewBaseContent() BaseContent {
	return BaseContent{nodeID: cmn.NullNodeID}
}

func (b *BaseContent) NodeID() cmn.NodeId { return b.nodeID }

func (b *BaseContent) BindNode(id cmn.NodeId) {
	if b.bound {
		panic("streamcore assertion failed: content node id already bound")
	}
	b.nodeID = id
	b.bound = true
}
