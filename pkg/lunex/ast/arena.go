package ast

const arenaSlab = 256

// Arena allocates the nodes of one compile. Node ids are dense and stable,
// so per-compile caches can be keyed by NodeID. Not safe for concurrent use.
type Arena struct {
	nodes []*Node
	slab  []Node
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// New allocates a node of kind with the slots the registry declares.
func (a *Arena) New(kind Kind) *Node {
	if len(a.slab) == 0 {
		a.slab = make([]Node, arenaSlab)
	}

	nd := &a.slab[0]
	a.slab = a.slab[1:]

	nd.ID = NodeID(len(a.nodes))
	nd.Kind = kind

	if count := len(ChildFields(kind)); count > 0 {
		nd.slots = make([]slot, count)
	}

	a.nodes = append(a.nodes, nd)

	return nd
}

// Get returns the node with the given id, nil when out of range.
func (a *Arena) Get(id NodeID) *Node {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil
	}

	return a.nodes[id]
}

// Len returns the number of allocated nodes.
func (a *Arena) Len() int { return len(a.nodes) }

// Clone deep-copies n into fresh nodes. Positions are kept.
func (a *Arena) Clone(n *Node) *Node {
	if n == nil {
		return nil
	}

	out := a.New(n.Kind)
	id, slots := out.ID, out.slots
	*out = *n
	out.ID, out.slots = id, slots

	if n.Loc != nil {
		loc := *n.Loc
		out.Loc = &loc
	}

	if n.Globals != nil {
		out.Globals = append([]string(nil), n.Globals...)
	}

	for i, s := range n.slots {
		out.slots[i].node = a.Clone(s.node)

		if s.list != nil {
			list := make([]*Node, len(s.list))
			for j, child := range s.list {
				list[j] = a.Clone(child)
			}

			out.slots[i].list = list
		}
	}

	return out
}
