package scene

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/nodeconstraint/constraint"
	"go.viam.com/nodeconstraint/logging"
	"go.viam.com/nodeconstraint/scenegraph"
	"go.viam.com/nodeconstraint/spatialmath"
)

// Scene is a built scene graph with its constraints captured and ready to tick.
type Scene struct {
	cfg    *Config
	graph  *scenegraph.Graph
	nodes  []scenegraph.NodeID
	solver *constraint.Solver
	ticks  int
	logger logging.Logger
}

// NewMultipleParentsError is used when a node is listed as the child of more than one node.
func NewMultipleParentsError(child string, parents ...string) error {
	return errors.Errorf("node %q has more than one parent: %v", child, parents)
}

// parents derives each node's parent index from the children lists, -1 for a top-level node.
func parents(cfg *Config) ([]int, error) {
	parent := make([]int, len(cfg.Nodes))
	for i := range parent {
		parent[i] = -1
	}
	for i, n := range cfg.Nodes {
		for _, child := range n.Children {
			if child == i {
				return nil, errors.Errorf("node %q lists itself as a child", n.Name)
			}
			if parent[child] != -1 {
				return nil, NewMultipleParentsError(cfg.Nodes[child].Name, cfg.Nodes[parent[child]].Name, n.Name)
			}
			parent[child] = i
		}
	}
	return parent, nil
}

// Build creates the scene graph, wires every declared constraint, orders them and captures the rest state.
func Build(cfg *Config, logger logging.Logger) (*Scene, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("scene")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	parent, err := parents(cfg)
	if err != nil {
		return nil, err
	}

	// breadth first from the top-level nodes, so every parent exists before its children
	children := make(map[int][]int, len(cfg.Nodes))
	for i, p := range parent {
		children[p] = append(children[p], i)
	}
	graph := scenegraph.New(cfg.Name)
	nodes := make([]scenegraph.NodeID, len(cfg.Nodes))
	for i := range nodes {
		nodes[i] = scenegraph.NoNode
	}
	queue := []int{-1}
	for len(queue) != 0 {
		p := queue[0]
		queue = queue[1:]
		sort.Ints(children[p])
		for _, i := range children[p] {
			parentID := scenegraph.NoNode
			if p != -1 {
				parentID = nodes[p]
			}
			id, err := addNode(graph, cfg.Nodes[i], parentID)
			if err != nil {
				return nil, err
			}
			nodes[i] = id
			queue = append(queue, i)
		}
	}
	for i, id := range nodes {
		if id == scenegraph.NoNode {
			return nil, errors.Errorf("the scene contains a cycle through node %q", cfg.Nodes[i].Name)
		}
	}

	var constraints []constraint.Constraint
	for i, n := range cfg.Nodes {
		raw, ok := n.Extensions[ExtensionName]
		if !ok {
			continue
		}
		attributes, ok := raw.(map[string]interface{})
		if !ok {
			return nil, errors.Wrapf(constraint.ErrInvalidConfig, "%s: extension %s is not an object", n.Name, ExtensionName)
		}
		decl, err := constraint.DecodeNodeConstraintConfig(attributes)
		if err != nil {
			return nil, errors.Wrap(err, n.Name)
		}
		built, err := constraint.NewFromConfig(graph, nodes[i], decl, nodes, logger.Sublogger(n.Name))
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, built...)
	}

	solver, err := constraint.NewSolver(graph, constraints, logger.Sublogger("solver"))
	if err != nil {
		return nil, err
	}
	if err := solver.SetInitState(); err != nil {
		return nil, err
	}
	logger.Debugw("scene built", "nodes", graph.Len(), "constraints", solver.Len())
	return &Scene{cfg: cfg, graph: graph, nodes: nodes, solver: solver, logger: logger}, nil
}

func addNode(graph *scenegraph.Graph, n NodeConfig, parent scenegraph.NodeID) (scenegraph.NodeID, error) {
	id, err := graph.AddNode(n.Name, parent)
	if err != nil {
		return scenegraph.NoNode, err
	}
	if n.Root {
		if err := graph.MarkRoot(id); err != nil {
			return scenegraph.NoNode, err
		}
	}
	applyTransform(graph, id, n.Translation, n.Rotation, n.Scale)
	return id, nil
}

func applyTransform(graph *scenegraph.Graph, id scenegraph.NodeID, translation, rotation, scale []float64) {
	if translation != nil {
		graph.SetPosition(id, toVector(translation))
	}
	if rotation != nil {
		graph.SetRotation(id, spatialmath.Normalize(toQuat(rotation)))
	}
	if scale != nil {
		graph.SetScale(id, toVector(scale))
	}
	graph.UpdateMatrix(id)
}

// Graph returns the scene graph.
func (s *Scene) Graph() *scenegraph.Graph {
	return s.graph
}

// Solver returns the solver evaluating the scene's constraints.
func (s *Scene) Solver() *constraint.Solver {
	return s.solver
}

// Node returns the handle of the node at the given index of the scene file.
func (s *Scene) Node(index int) (scenegraph.NodeID, bool) {
	if index < 0 || index >= len(s.nodes) {
		return scenegraph.NoNode, false
	}
	return s.nodes[index], true
}

// Ticks returns the number of ticks run so far.
func (s *Scene) Ticks() int {
	return s.ticks
}

// Step applies the overrides of the next tick, if the scene file has one, and solves the constraints.
func (s *Scene) Step() error {
	if s.ticks < len(s.cfg.Ticks) {
		for _, o := range s.cfg.Ticks[s.ticks].Nodes {
			id, ok := s.graph.Lookup(o.Node)
			if !ok {
				return errors.Errorf("tick %d: no node named %q", s.ticks, o.Node)
			}
			applyTransform(s.graph, id, o.Translation, o.Rotation, o.Scale)
		}
	}
	if err := s.solver.Update(); err != nil {
		return errors.Wrapf(err, "tick %d", s.ticks)
	}
	s.ticks++
	return nil
}

// Run steps the scene n times. With n <= 0 it runs once per tick in the scene file.
func (s *Scene) Run(n int) error {
	if n <= 0 {
		n = len(s.cfg.Ticks)
	}
	for i := 0; i < n; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	s.logger.Debugw("scene run", "ticks", n)
	return nil
}

// Play steps the scene once per interval of clk until n steps have run or ctx is done. With n <= 0 it runs
// once per tick in the scene file.
func (s *Scene) Play(ctx context.Context, clk clock.Clock, interval time.Duration, n int) error {
	if n <= 0 {
		n = len(s.cfg.Ticks)
	}
	t := clk.Ticker(interval)
	defer t.Stop()
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// String prints out the scene graph as a table.
func (s *Scene) String() string {
	return fmt.Sprintf("%s\n%s", s.graph.String(), s.solver.String())
}
