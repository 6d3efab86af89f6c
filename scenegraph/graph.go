// Package scenegraph is a small host scene graph: an arena of named nodes with local
// position/rotation/scale, addressed by integer handles, that composes local, model and
// world matrices for the constraint solver.
package scenegraph

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/nodeconstraint/spatialmath"
	"go.viam.com/nodeconstraint/utils"
)

// NodeID is a handle to a node of a Graph. Handles are dense indices and stay valid for the life of the graph.
type NodeID int

// NoNode is the handle used where no node is referenced, e.g. the parent of a top-level node.
const NoNode NodeID = -1

type node struct {
	name     string
	parent   NodeID
	children []NodeID
	root     bool

	position r3.Vector
	rotation quat.Number
	scale    r3.Vector

	matrix mgl64.Mat4
	dirty  bool
}

// Graph owns every node and its transform. Methods taking a NodeID expect a handle returned by AddNode
// on the same graph and panic on anything else, the same way slice indexing does.
type Graph struct {
	name  string
	nodes []*node
	names map[string]NodeID
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{name: name, names: map[string]NodeID{}}
}

// Name returns the name of the graph.
func (g *Graph) Name() string {
	return g.name
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Exists reports whether id refers to a node of this graph.
func (g *Graph) Exists(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// AddNode creates a node with an identity transform under parent. Pass NoNode to add a top-level node.
func (g *Graph) AddNode(name string, parent NodeID) (NodeID, error) {
	if _, ok := g.names[name]; ok {
		return NoNode, NewDuplicateNodeError(name)
	}
	if parent != NoNode && !g.Exists(parent) {
		return NoNode, NewNodeMissingError(parent)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &node{
		name:     name,
		parent:   parent,
		rotation: spatialmath.QuatIdentity(),
		scale:    r3.Vector{X: 1, Y: 1, Z: 1},
		matrix:   mgl64.Ident4(),
	})
	g.names[name] = id
	if parent != NoNode {
		g.nodes[parent].children = append(g.nodes[parent].children, id)
	}
	return id, nil
}

// SetParent moves a node under a new parent, or to the top level with NoNode. Moving a node below one of
// its own descendants is rejected.
func (g *Graph) SetParent(id, parent NodeID) error {
	if !g.Exists(id) {
		return NewNodeMissingError(id)
	}
	if parent != NoNode {
		if !g.Exists(parent) {
			return NewNodeMissingError(parent)
		}
		if parent == id || g.IsAncestor(id, parent) {
			return NewAncestorCycleError(g.nodes[id].name, g.nodes[parent].name)
		}
	}

	if old := g.nodes[id].parent; old != NoNode {
		siblings := g.nodes[old].children
		for i, c := range siblings {
			if c == id {
				g.nodes[old].children = append(siblings[:i:i], siblings[i+1:]...)
				break
			}
		}
	}
	g.nodes[id].parent = parent
	if parent != NoNode {
		g.nodes[parent].children = append(g.nodes[parent].children, id)
	}
	return nil
}

// MarkRoot marks a node as the root of an articulated hierarchy. Model space for the nodes below it
// stops at this node.
func (g *Graph) MarkRoot(id NodeID) error {
	if !g.Exists(id) {
		return NewNodeMissingError(id)
	}
	g.nodes[id].root = true
	return nil
}

// IsRoot reports whether a node was marked as a hierarchy root.
func (g *Graph) IsRoot(id NodeID) bool {
	return g.nodes[id].root
}

// Lookup returns the handle of the node with the given name.
func (g *Graph) Lookup(name string) (NodeID, bool) {
	id, ok := g.names[name]
	return id, ok
}

// NodeName returns the name of a node.
func (g *Graph) NodeName(id NodeID) string {
	return g.nodes[id].name
}

// Parent returns the parent of a node, or ErrNoParent for a top-level node.
func (g *Graph) Parent(id NodeID) (NodeID, error) {
	if !g.Exists(id) {
		return NoNode, NewNodeMissingError(id)
	}
	p := g.nodes[id].parent
	if p == NoNode {
		return NoNode, ErrNoParent
	}
	return p, nil
}

// Children returns the direct children of a node in insertion order.
func (g *Graph) Children(id NodeID) []NodeID {
	return append([]NodeID(nil), g.nodes[id].children...)
}

// Traceback returns the chain from id up to its top-level ancestor, both included.
func (g *Graph) Traceback(id NodeID) ([]NodeID, error) {
	if !g.Exists(id) {
		return nil, NewNodeMissingError(id)
	}
	chain := []NodeID{id}
	for p := g.nodes[id].parent; p != NoNode; p = g.nodes[p].parent {
		chain = append(chain, p)
	}
	return chain, nil
}

// IsAncestor reports whether ancestor is a strict ancestor of id.
func (g *Graph) IsAncestor(ancestor, id NodeID) bool {
	for p := g.nodes[id].parent; p != NoNode; p = g.nodes[p].parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// InModelChain reports whether ancestor contributes to the model matrix of id: it is a strict ancestor of
// id at or below the nearest ancestor-or-self of id marked as root.
func (g *Graph) InModelChain(ancestor, id NodeID) bool {
	for cur := id; !g.nodes[cur].root && g.nodes[cur].parent != NoNode; {
		cur = g.nodes[cur].parent
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Position returns the local position of a node.
func (g *Graph) Position(id NodeID) r3.Vector {
	return g.nodes[id].position
}

// SetPosition sets the local position of a node and marks it dirty.
func (g *Graph) SetPosition(id NodeID, p r3.Vector) {
	g.nodes[id].position = p
	g.nodes[id].dirty = true
}

// Rotation returns the local rotation of a node.
func (g *Graph) Rotation(id NodeID) quat.Number {
	return g.nodes[id].rotation
}

// SetRotation sets the local rotation of a node and marks it dirty.
func (g *Graph) SetRotation(id NodeID, q quat.Number) {
	g.nodes[id].rotation = q
	g.nodes[id].dirty = true
}

// Scale returns the local scale of a node.
func (g *Graph) Scale(id NodeID) r3.Vector {
	return g.nodes[id].scale
}

// SetScale sets the local scale of a node and marks it dirty.
func (g *Graph) SetScale(id NodeID, s r3.Vector) {
	g.nodes[id].scale = s
	g.nodes[id].dirty = true
}

// SetLocalTransform replaces the whole local transform of a node and recomputes its matrix.
func (g *Graph) SetLocalTransform(id NodeID, position r3.Vector, rotation quat.Number, scale r3.Vector) {
	n := g.nodes[id]
	n.position, n.rotation, n.scale = position, rotation, scale
	g.UpdateMatrix(id)
}

// Dirty reports whether a node's transform changed since its matrix was last computed.
func (g *Graph) Dirty(id NodeID) bool {
	return g.nodes[id].dirty
}

// UpdateMatrix recomputes the local matrix of a node from its position, rotation and scale.
func (g *Graph) UpdateMatrix(id NodeID) {
	n := g.nodes[id]
	n.matrix = spatialmath.ComposeMatrix(n.position, n.rotation, n.scale)
	n.dirty = false
}

// LocalMatrix returns the matrix of a node relative to its parent, recomputing it first if the node is dirty.
func (g *Graph) LocalMatrix(id NodeID) mgl64.Mat4 {
	if g.nodes[id].dirty {
		g.UpdateMatrix(id)
	}
	return g.nodes[id].matrix
}

// ModelMatrix returns the matrix of a node relative to its articulated hierarchy: the local matrices from
// the nearest ancestor-or-self marked as root down to the node. Without a marked root the chain runs to
// the top of the graph.
func (g *Graph) ModelMatrix(id NodeID) mgl64.Mat4 {
	m := g.LocalMatrix(id)
	for cur := id; !g.nodes[cur].root && g.nodes[cur].parent != NoNode; {
		cur = g.nodes[cur].parent
		// add new transforms to the left
		m = g.LocalMatrix(cur).Mul4(m)
	}
	return m
}

// ParentModelMatrix returns the model matrix of a node's parent, or identity for a hierarchy root or a
// top-level node.
func (g *Graph) ParentModelMatrix(id NodeID) mgl64.Mat4 {
	n := g.nodes[id]
	if n.root || n.parent == NoNode {
		return mgl64.Ident4()
	}
	return g.ModelMatrix(n.parent)
}

// WorldMatrix returns the matrix of a node composed through every ancestor, ignoring hierarchy roots.
func (g *Graph) WorldMatrix(id NodeID) mgl64.Mat4 {
	m := g.LocalMatrix(id)
	for p := g.nodes[id].parent; p != NoNode; p = g.nodes[p].parent {
		m = g.LocalMatrix(p).Mul4(m)
	}
	return m
}

// String prints out a table of each node in the graph, with columns of name, parent, translation and rotation.
func (g *Graph) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Name", "Parent", "Translation", "Rotation"})
	for i, n := range g.nodes {
		parent := ""
		if n.parent != NoNode {
			parent = g.nodes[n.parent].name
		}
		ea := spatialmath.QuatToEulerAngles(n.rotation)
		t.AppendRow(table.Row{
			fmt.Sprintf("%d", i),
			n.name,
			parent,
			fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", n.position.X, n.position.Y, n.position.Z),
			fmt.Sprintf(
				"Roll:%.2f, Pitch:%.2f, Yaw:%.2f",
				utils.RadToDeg(ea.Roll),
				utils.RadToDeg(ea.Pitch),
				utils.RadToDeg(ea.Yaw),
			),
		})
	}
	return t.Render()
}
