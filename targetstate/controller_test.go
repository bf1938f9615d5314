package targetstate_test

import (
	"testing"

	"github.com/tileflow/streamcore/bvh"
	"github.com/tileflow/streamcore/cmn"
	"github.com/tileflow/streamcore/targetstate"
)

// alwaysResolved treats every node's children as resolved, for tests that
// don't exercise the missing-children invariant.
type alwaysResolved struct{}

func (alwaysResolved) ChildrenResolved(cmn.NodeId) bool { return true }

type neverResolved struct{}

func (neverResolved) ChildrenResolved(cmn.NodeId) bool { return false }

func constError(v float64) func(bvh.Bounds) float64 {
	return func(bvh.Bounds) float64 { return v }
}

// TestFourChildrenExpandAtHighError reproduces scenario S1 (spec §8): a
// root with four children all seen at screen-space error 2.0 against a
// threshold of 1.0 must all be targeted expanded after one Evaluate pass.
func TestFourChildrenExpandAtHighError(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{})
	root := store.RootID()
	var children []cmn.NodeId
	for i := 0; i < 4; i++ {
		children = append(children, store.AddNode(root, bvh.NodeData{GeometricError: 1}, nil))
	}

	ctrl := targetstate.New(store, alwaysResolved{}, func(float32) float64 { return 1.0 })
	observers := []targetstate.ObserverSpec{{Error: constError(2.0)}}
	ctrl.Evaluate(root, observers)

	for _, id := range children {
		if store.Target(id) != bvh.Expanded {
			t.Fatalf("child %d target = %v, want Expanded", id, store.Target(id))
		}
		if store.ErrorSpec(id).ScreenSpaceError != 2.0 {
			t.Fatalf("child %d error-spec = %v, want 2.0", id, store.ErrorSpec(id).ScreenSpaceError)
		}
	}
}

func TestBelowThresholdStaysCollapsed(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{})
	root := store.RootID()
	child := store.AddNode(root, bvh.NodeData{GeometricError: 1}, nil)

	ctrl := targetstate.New(store, alwaysResolved{}, func(float32) float64 { return 5.0 })
	ctrl.Evaluate(root, []targetstate.ObserverSpec{{Error: constError(1.0)}})

	if store.Target(child) != bvh.Collapsed {
		t.Fatalf("target = %v, want Collapsed", store.Target(child))
	}
}

func TestMissingChildrenCannotLeapfrog(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{})
	root := store.RootID()
	store.AddNode(root, bvh.NodeData{GeometricError: 1}, nil)

	ctrl := targetstate.New(store, neverResolved{}, func(float32) float64 { return 1.0 })
	ctrl.Evaluate(root, []targetstate.ObserverSpec{{Error: constError(100.0)}})

	if store.Target(root) != bvh.Collapsed {
		t.Fatalf("root target = %v, want Collapsed (children unresolved)", store.Target(root))
	}
}

func TestCollapsedNodeChildrenNotVisitedThisPass(t *testing.T) {
	store := bvh.NewStore(bvh.NodeData{})
	root := store.RootID()
	child := store.AddNode(root, bvh.NodeData{GeometricError: 1}, nil)
	grandchild := store.AddNode(child, bvh.NodeData{GeometricError: 1}, nil)

	ctrl := targetstate.New(store, alwaysResolved{}, func(float32) float64 { return 1000.0 })
	ctrl.Evaluate(root, []targetstate.ObserverSpec{{Error: constError(1.0)}})

	// Root stays collapsed (error below threshold); grandchild was never
	// visited, so its error-spec remains the zero value.
	if store.Target(root) != bvh.Collapsed {
		t.Fatalf("root target = %v, want Collapsed", store.Target(root))
	}
	if store.ErrorSpec(grandchild).ScreenSpaceError != 0 {
		t.Fatalf("grandchild error-spec = %v, want untouched zero value", store.ErrorSpec(grandchild).ScreenSpaceError)
	}
}
