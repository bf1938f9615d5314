// Package cmn provides the identifiers, error kinds, assertions, and id
// generator shared by every streamcore package.
package cmn

import "go.uber.org/atomic"

// NodeId is an opaque handle into a bvh.Store arena. Ids are arena slot
// indices starting at 0 (a store's root is id 0); NullNodeID is the
// explicit sentinel for "no node".
type NodeId int32

// NullNodeID denotes the absence of a node, e.g. the parent of the root.
const NullNodeID NodeId = -1

func (id NodeId) Valid() bool { return id != NullNodeID }

// ContentType is a wrapped integer identifying the format/decoder family of
// a piece of tile content. Values 0-9 are reserved; the rest are issued by
// a ContentTypeGenerator starting at 10.
type ContentType int32

const firstGeneratedContentType ContentType = 10

// ContentTypeGenerator issues fresh, monotonically increasing content type
// tags. Safe for concurrent use.
type ContentTypeGenerator struct {
	next atomic.Int32
}

func NewContentTypeGenerator() *ContentTypeGenerator {
	g := &ContentTypeGenerator{}
	g.next.Store(int32(firstGeneratedContentType))
	return g
}

func (g *ContentTypeGenerator) Next() ContentType {
	return ContentType(g.next.Inc() - 1)
}

// IDGenerator produces dense, monotonic, 64-bit ids shared by meshes,
// materials, textures, and instances in the command buffer (spec §4.C).
type IDGenerator struct {
	next atomic.Uint64
}

func NewIDGenerator() *IDGenerator { return &IDGenerator{} }

func (g *IDGenerator) Next() uint64 { return g.next.Inc() - 1 }
