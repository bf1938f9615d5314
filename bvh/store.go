package bvh

import "github.com/tileflow/streamcore/cmn"

// childBlock is a variable-length list of child ids, held in a side arena
// so that Node records stay fixed size (spec §4.A).
type childBlock struct {
	children []cmn.NodeId
	free     bool
}

// Store is the BVH arena. Not thread-safe: all mutation is expected to
// come from the content manager or the target-state/expansion controllers,
// both of which run on the single cooperative main task (spec §4.A, §5).
type Store struct {
	nodes  []Node
	blocks []childBlock

	nodeFreelist  []int32
	blockFreelist []int32

	root cmn.NodeId
}

// NewStore creates an empty store and immediately installs its root node.
func NewStore(rootData NodeData) *Store {
	s := &Store{}
	s.root = s.addNodeRaw(cmn.NullNodeID, rootData, nil)
	return s
}

// RootID returns the store's root node id.
func (s *Store) RootID() cmn.NodeId { return s.root }

// AddNode appends a child of parent and returns its id. Tiles are added in
// arbitrary order, lazily, as parents expand (spec §3 Lifecycle).
func (s *Store) AddNode(parent cmn.NodeId, data NodeData, content NodeContent) cmn.NodeId {
	cmn.Assertf(parent.Valid() || parent == cmn.NullNodeID, "invalid parent id %d", parent)
	id := s.addNodeRaw(parent, data, content)
	if parent.Valid() {
		s.appendChild(parent, id)
	}
	return id
}

func (s *Store) addNodeRaw(parent cmn.NodeId, data NodeData, content NodeContent) cmn.NodeId {
	depth := int32(0)
	if parent.Valid() {
		depth = s.nodes[parent].Depth + 1
	}

	var id cmn.NodeId
	if n := len(s.nodeFreelist); n > 0 {
		idx := s.nodeFreelist[n-1]
		s.nodeFreelist = s.nodeFreelist[:n-1]
		id = cmn.NodeId(idx)
	} else {
		id = cmn.NodeId(len(s.nodes))
		s.nodes = append(s.nodes, Node{})
	}

	if content != nil {
		content.BindNode(id)
	}
	s.nodes[id] = Node{
		Data:          data,
		Content:       content,
		ParentID:      parent,
		ChildrenBlock: -1,
		Depth:         depth,
	}
	return id
}

func (s *Store) appendChild(parent, child cmn.NodeId) {
	p := &s.nodes[parent]
	if p.ChildrenBlock == -1 {
		p.ChildrenBlock = s.allocBlock()
	}
	b := &s.blocks[p.ChildrenBlock]
	b.children = append(b.children, child)
}

func (s *Store) allocBlock() int32 {
	if n := len(s.blockFreelist); n > 0 {
		idx := s.blockFreelist[n-1]
		s.blockFreelist = s.blockFreelist[:n-1]
		s.blocks[idx] = childBlock{}
		return idx
	}
	idx := int32(len(s.blocks))
	s.blocks = append(s.blocks, childBlock{})
	return idx
}

// Children returns the ordered child ids of id.
func (s *Store) Children(id cmn.NodeId) []cmn.NodeId {
	n := &s.nodes[id]
	if n.ChildrenBlock == -1 {
		return nil
	}
	return s.blocks[n.ChildrenBlock].children
}

// RemoveNode detaches id from its parent's child list and frees its slot
// and its children block. O(children) per spec §4.A. Does not recurse:
// callers remove a subtree bottom-up or top-down as their lifecycle
// requires (spec §3: tiles are removed only when a data source is
// unmounted).
func (s *Store) RemoveNode(id cmn.NodeId) {
	n := &s.nodes[id]
	if n.ParentID.Valid() {
		p := &s.nodes[n.ParentID]
		if p.ChildrenBlock != -1 {
			b := &s.blocks[p.ChildrenBlock]
			for i, c := range b.children {
				if c == id {
					b.children = append(b.children[:i], b.children[i+1:]...)
					break
				}
			}
		}
	}
	if n.ChildrenBlock != -1 {
		s.blocks[n.ChildrenBlock] = childBlock{}
		s.blockFreelist = append(s.blockFreelist, n.ChildrenBlock)
	}
	*n = Node{free: true}
	s.nodeFreelist = append(s.nodeFreelist, int32(id))
}

// --- narrow accessor views (spec §9) ---

func (s *Store) NodeData(id cmn.NodeId) NodeData   { return s.nodes[id].Data }
func (s *Store) Content(id cmn.NodeId) NodeContent { return s.nodes[id].Content }
func (s *Store) Parent(id cmn.NodeId) cmn.NodeId   { return s.nodes[id].ParentID }
func (s *Store) Depth(id cmn.NodeId) int32         { return s.nodes[id].Depth }
func (s *Store) Current(id cmn.NodeId) CurrentState { return s.nodes[id].Current }
func (s *Store) Target(id cmn.NodeId) TargetState   { return s.nodes[id].Target }
func (s *Store) ErrorSpec(id cmn.NodeId) ErrorSpecification { return s.nodes[id].Error }
func (s *Store) Failed(id cmn.NodeId) bool          { return s.nodes[id].Failed }
func (s *Store) Cache(id cmn.NodeId) SchedulerCache { return s.nodes[id].Cache }

func (s *Store) SetCurrent(id cmn.NodeId, st CurrentState) {
	if st.Visible {
		cmn.Assertf(st.Loaded, "node %d set visible while not loaded", id)
	}
	s.nodes[id].Current = st
}

func (s *Store) SetTarget(id cmn.NodeId, t TargetState) { s.nodes[id].Target = t }

func (s *Store) SetErrorSpec(id cmn.NodeId, e ErrorSpecification) { s.nodes[id].Error = e }

func (s *Store) SetFailed(id cmn.NodeId, failed bool) { s.nodes[id].Failed = failed }

func (s *Store) MutateCache(id cmn.NodeId, fn func(*SchedulerCache)) {
	fn(&s.nodes[id].Cache)
}

func (s *Store) ResetCache(id cmn.NodeId) {
	s.nodes[id].Cache = SchedulerCache{}
}

// Walk performs a deterministic top-down breadth-first traversal starting
// at root, calling visit(id) for every reached node. If visit returns
// false, that node's children are not enqueued (used by the target-state
// controller to prune at collapsed nodes, spec §4.G step 4).
func (s *Store) Walk(root cmn.NodeId, visit func(id cmn.NodeId) bool) {
	queue := []cmn.NodeId{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if !visit(id) {
			continue
		}
		queue = append(queue, s.Children(id)...)
	}
}

// Len reports the number of live (non-freed) node slots, for diagnostics.
func (s *Store) Len() int {
	return len(s.nodes) - len(s.nodeFreelist)
}
