package scenegraph

import "github.com/pkg/errors"

// ErrNoParent is returned when asking for the parent of a top-level node.
var ErrNoParent = errors.New("no parent")

// NewNodeMissingError is returned when a handle does not refer to a node of the graph.
func NewNodeMissingError(id NodeID) error {
	return errors.Errorf("node %d not in scene graph", id)
}

// NewDuplicateNodeError is returned when a node name is already taken.
func NewDuplicateNodeError(name string) error {
	return errors.Errorf("node with name %q already in scene graph", name)
}

// NewAncestorCycleError is returned when reparenting would make a node its own ancestor.
func NewAncestorCycleError(node, parent string) error {
	return errors.Errorf("cannot parent %q to %q: %q would become its own ancestor", node, parent, node)
}
