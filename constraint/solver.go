package constraint

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/nodeconstraint/logging"
	"go.viam.com/nodeconstraint/scenegraph"
)

// Solver evaluates a set of constraints in an order where every node is fully resolved before any
// constraint reads it.
type Solver struct {
	graph        SceneGraph
	order        []Constraint
	dependencies [][2]Constraint
	logger       logging.Logger
}

// NewSolver orders the constraints and returns a solver for them. The constraints must already be wired
// to graph. A dependency cycle, a constraint reading its own destination, or a model-space source placed
// below its own destination is a configuration error.
func NewSolver(graph SceneGraph, constraints []Constraint, logger logging.Logger) (*Solver, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("solver")
	}
	order, edges, err := sortConstraints(graph, constraints)
	if err != nil {
		return nil, err
	}
	for i, c := range order {
		logger.Debugw("constraint order", "index", i, "constraint", c.String())
	}
	dependencies := make([][2]Constraint, 0, len(edges))
	for _, e := range edges {
		dependencies = append(dependencies, [2]Constraint{constraints[e[0]], constraints[e[1]]})
	}
	return &Solver{graph: graph, order: order, dependencies: dependencies, logger: logger}, nil
}

// Dependencies returns every ordering edge as a pair: the first constraint must run before the second.
func (s *Solver) Dependencies() [][2]Constraint {
	out := make([][2]Constraint, len(s.dependencies))
	copy(out, s.dependencies)
	return out
}

// Order returns the constraints in evaluation order.
func (s *Solver) Order() []Constraint {
	out := make([]Constraint, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of constraints.
func (s *Solver) Len() int {
	return len(s.order)
}

// SetInitState captures the rest state of every constraint. Call it once, after the scene graph is
// assembled and before the first Update.
func (s *Solver) SetInitState() error {
	var err error
	for _, c := range s.order {
		if cErr := c.SetInitState(); cErr != nil {
			err = multierr.Append(err, errors.Wrap(cErr, c.String()))
		}
	}
	s.logger.Debugw("captured rest state", "constraints", len(s.order))
	return err
}

// Update runs one tick. Every constraint is evaluated even if an earlier one fails.
func (s *Solver) Update() error {
	var err error
	for _, c := range s.order {
		if cErr := c.Update(); cErr != nil {
			err = multierr.Append(err, errors.Wrap(cErr, c.String()))
		}
	}
	return err
}

// String prints out a table of the constraints in evaluation order.
func (s *Solver) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Kind", "Destination", "Source", "Spaces", "Weight"})
	for i, c := range s.order {
		source := ""
		if src, ok := c.Source(); ok {
			source = s.graph.NodeName(src)
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("%d", i),
			string(c.Kind()),
			s.graph.NodeName(c.Destination()),
			source,
			fmt.Sprintf("%s -> %s", c.SourceSpace(), c.DestinationSpace()),
			fmt.Sprintf("%.3f", c.Weight()),
		})
	}
	return t.Render()
}

// reads reports whether b reads the node that a writes, so a must run first.
func reads(graph SceneGraph, a, b Constraint) bool {
	written := a.Destination()
	if src, ok := b.Source(); ok {
		if src == written {
			return true
		}
		if b.SourceSpace() == ModelSpace && graph.InModelChain(written, src) {
			return true
		}
	}
	return b.DestinationSpace() == ModelSpace && graph.InModelChain(written, b.Destination())
}

func checkConstraint(graph SceneGraph, c Constraint) error {
	src, ok := c.Source()
	if !ok {
		return nil
	}
	dst := c.Destination()
	if src == dst {
		return NewSelfReferenceError(graph.NodeName(dst))
	}
	if c.SourceSpace() == ModelSpace && graph.InModelChain(dst, src) {
		return NewSourceBelowDestinationError(graph.NodeName(src), graph.NodeName(dst))
	}
	return nil
}

// SortConstraints returns the constraints in dependency order. Among constraints that are ready at the same
// time, the one declared first runs first, and constraints sharing a destination keep their declared order.
func SortConstraints(graph SceneGraph, constraints []Constraint) ([]Constraint, error) {
	sorted, _, err := sortConstraints(graph, constraints)
	return sorted, err
}

// sortConstraints also returns the dependency edges as pairs of indices into constraints.
func sortConstraints(graph SceneGraph, constraints []Constraint) ([]Constraint, [][2]int, error) {
	var err error
	for _, c := range constraints {
		err = multierr.Append(err, checkConstraint(graph, c))
	}
	if err != nil {
		return nil, nil, err
	}

	n := len(constraints)
	dependents := make([][]int, n)
	inDegree := make([]int, n)
	var edges [][2]int
	for i, a := range constraints {
		for j, b := range constraints {
			if i == j {
				continue
			}
			sameDestination := a.Destination() == b.Destination() && i < j
			if sameDestination || reads(graph, a, b) {
				dependents[i] = append(dependents[i], j)
				inDegree[j]++
				edges = append(edges, [2]int{i, j})
			}
		}
	}

	sorted := make([]Constraint, 0, n)
	done := make([]bool, n)
	for len(sorted) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && inDegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			var names []string
			for i, c := range constraints {
				if !done[i] {
					names = append(names, c.String())
				}
			}
			return nil, nil, NewCycleError(names)
		}
		done[next] = true
		sorted = append(sorted, constraints[next])
		for _, j := range dependents[next] {
			inDegree[j]--
		}
	}
	return sorted, edges, nil
}

// ValidateOrder checks that a caller supplied sequence evaluates every constraint after the constraints it
// reads from, and reports the first violation.
func ValidateOrder(graph SceneGraph, constraints []Constraint) error {
	for _, c := range constraints {
		if err := checkConstraint(graph, c); err != nil {
			return err
		}
	}
	for i, b := range constraints {
		for _, a := range constraints[i:] {
			if a == b {
				continue
			}
			if reads(graph, a, b) {
				return errors.Wrapf(ErrInvalidConfig, "%s reads %s but runs before %s",
					b.String(), graph.NodeName(a.Destination()), a.String())
			}
		}
	}
	return nil
}

var _ SceneGraph = (*scenegraph.Graph)(nil)
