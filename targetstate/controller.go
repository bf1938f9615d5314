// Package targetstate implements the target-state controller (spec §4.G):
// a deterministic top-down BFS over the BVH that decides, for every
// visited node, whether it should be expanded or collapsed given the
// current observer set.
package targetstate

import (
	"encoding/binary"

	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/tileflow/streamcore/bvh"
	"github.com/tileflow/streamcore/cmn"
	"github.com/tileflow/streamcore/observer"
)

// ObserverSpec is one viewpoint the controller evaluates error against
// (spec §4.G). ClipFromUniverse and NearClip are carried for callers that
// need them when implementing Error; the controller itself only calls
// Error.
type ObserverSpec struct {
	ClipFromUniverse bvh.Mat4
	NearClip         *float64
	Error            func(bounds bvh.Bounds) float64
}

// ChildrenResolver reports whether every child of a node has been
// resolved into the BVH (spec §4.G: "a node that lacks resolved children
// must remain collapsed — it cannot leapfrog missing data"). Resolution
// is dataset-specific (a tileset's child count may not yet be known until
// its own content has been fetched), so it is supplied by the caller
// rather than inferred from Store.Children alone.
type ChildrenResolver interface {
	ChildrenResolved(id cmn.NodeId) bool
}

// Store is the narrow capability the controller needs: read access plus
// the exclusive write capability for target state.
type Store interface {
	bvh.GetNodeData
	bvh.EditTargetState
}

// Controller runs one BFS evaluation pass per Evaluate call.
type Controller struct {
	store     Store
	resolver  ChildrenResolver
	threshold func(geometricError float32) float64

	// resolvedCache records nodes the resolver confirmed within a single
	// Evaluate call. A cuckoo filter trades an unbounded map for a fixed
	// small footprint; a false positive only causes a redundant resolver
	// call on the next lookup (the filter is consulted before, never
	// instead of, the authoritative store state used to set target), so
	// the rare false-positive rate costs at most one extra call, never a
	// wrong decision.
	resolvedCache *cuckoo.Filter
}

// New creates a controller. threshold computes the screen-space-error
// budget for a node given its geometric error (spec §4.G step 2); pass a
// function that ignores its argument and returns a constant to reproduce
// a single global MaximumScreenSpaceError budget.
func New(store Store, resolver ChildrenResolver, threshold func(geometricError float32) float64) *Controller {
	return &Controller{
		store:         store,
		resolver:      resolver,
		threshold:     threshold,
		resolvedCache: cuckoo.NewFilter(1024),
	}
}

// Evaluate runs one deterministic top-down BFS pass from root over the
// given observers, writing target-state and error-specification for
// every visited node (spec §4.G). Children of a collapsed node are not
// visited this pass; they become eligible on a later pass once their
// parent flips to expanded (spec §4.G: "makes its immediate children
// eligible for evaluation next pass").
func (c *Controller) Evaluate(root cmn.NodeId, observers []ObserverSpec) {
	c.resolvedCache.Reset()
	c.store.Walk(root, func(id cmn.NodeId) bool {
		expanded := c.evaluateNode(id, observers)
		return expanded
	})
}

func (c *Controller) evaluateNode(id cmn.NodeId, observers []ObserverSpec) bool {
	data := c.store.NodeData(id)

	sse := minScreenSpaceError(observers, data.Bounds)
	c.store.SetErrorSpec(id, bvh.ErrorSpecification{ScreenSpaceError: sse})

	alwaysExpand := false
	if content := c.store.Content(id); content != nil {
		alwaysExpand = content.AlwaysExpand()
	}

	expand := alwaysExpand || (sse > c.threshold(data.GeometricError) && c.allChildrenResolved(id))
	if expand {
		c.store.SetTarget(id, bvh.Expanded)
	} else {
		c.store.SetTarget(id, bvh.Collapsed)
	}
	return expand
}

func minScreenSpaceError(observers []ObserverSpec, bounds bvh.Bounds) float64 {
	if len(observers) == 0 {
		return 0
	}
	best := observers[0].Error(bounds)
	for _, obs := range observers[1:] {
		if e := obs.Error(bounds); e < best {
			best = e
		}
	}
	return best
}

func (c *Controller) allChildrenResolved(id cmn.NodeId) bool {
	children := c.store.Children(id)
	if len(children) == 0 {
		// A leaf with no known children yet is exactly the "lacks
		// resolved children" case unless the resolver says otherwise
		// (e.g. it already knows this node is a true leaf).
		return c.resolver.ChildrenResolved(id)
	}
	key := idKey(id)
	if c.resolvedCache.Lookup(key) {
		return c.resolver.ChildrenResolved(id)
	}
	if !c.resolver.ChildrenResolved(id) {
		return false
	}
	c.resolvedCache.Insert(key)
	return true
}

// FromObserverData adapts the processing graph's batched observer
// snapshots (spec §6 DetailObserverData, fanned in by the observer
// multiplexer) into the ObserverSpec slice Evaluate expects.
func FromObserverData(batch []observer.DetailObserverData) []ObserverSpec {
	specs := make([]ObserverSpec, len(batch))
	for i, d := range batch {
		d := d
		specs[i] = ObserverSpec{
			ClipFromUniverse: d.ClipFromUniverse,
			NearClip:         d.NearClipPlane,
			Error:            func(bounds bvh.Bounds) float64 { return d.Error(bounds) },
		}
	}
	return specs
}

func idKey(id cmn.NodeId) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(id))
	return b[:]
}
