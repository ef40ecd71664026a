// Package tree holds the exploration tree grown by the planner.  Nodes live in
// a single slice and refer to their parent by index, so regions and the
// available set can hold plain NodeIDs instead of pointers.
package tree

import (
	"fmt"

	"github.com/turtacn/syclop/internal/planning/space"
	"github.com/turtacn/syclop/pkg/errors"
)

// NodeID addresses a node inside a Tree.
type NodeID int

// NoParent is the parent of the root.
const NoParent NodeID = -1

// Node is a tree vertex: a state and the node it was extended from.
type Node struct {
	State  space.State
	Parent NodeID
}

// Tree is an append-only arena of nodes.  It is not safe for concurrent use.
type Tree struct {
	nodes []Node
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{nodes: make([]Node, 0, 64)}
}

// AddRoot appends a node without a parent.
func (t *Tree) AddRoot(s space.State) NodeID {
	t.nodes = append(t.nodes, Node{State: s, Parent: NoParent})
	return NodeID(len(t.nodes) - 1)
}

// Add appends a node whose parent is parent.
func (t *Tree) Add(s space.State, parent NodeID) (NodeID, error) {
	if !t.Contains(parent) {
		return NoParent, errors.New(errors.ErrCodeInvalidState, "parent node does not exist").
			WithDetail(fmt.Sprintf("parent=%d len=%d", parent, len(t.nodes)))
	}
	t.nodes = append(t.nodes, Node{State: s, Parent: parent})
	return NodeID(len(t.nodes) - 1), nil
}

// Contains reports whether id addresses a node of t.
func (t *Tree) Contains(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node addressed by id.  It panics when id is out of range.
func (t *Tree) Node(id NodeID) Node { return t.nodes[id] }

// State returns the state of node id.
func (t *Tree) State(id NodeID) space.State { return t.nodes[id].State }

// Parent returns the parent of node id, or NoParent for a root.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].Parent }

// PathTo returns the states from the root to id, inclusive.
func (t *Tree) PathTo(id NodeID) []space.State {
	if !t.Contains(id) {
		return nil
	}
	var rev []space.State
	for cur := id; cur != NoParent; cur = t.nodes[cur].Parent {
		rev = append(rev, t.nodes[cur].State)
	}
	path := make([]space.State, len(rev))
	for i, s := range rev {
		path[len(rev)-1-i] = s
	}
	return path
}
