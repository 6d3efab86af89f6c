package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"go.viam.com/nodeconstraint/constraint"
)

// writeDOT renders the solver's dependency graph in graphviz dot format. Nodes are labelled with their
// evaluation order.
func writeDOT(w io.Writer, solver *constraint.Solver) (err error) {
	g := graphviz.New()
	graph, err := g.Graph()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := graph.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if closeErr := g.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	nodes := map[constraint.Constraint]*cgraph.Node{}
	for i, c := range solver.Order() {
		n, err := graph.CreateNode(fmt.Sprintf("%d: %s", i, c.String()))
		if err != nil {
			return err
		}
		nodes[c] = n
	}
	for i, dep := range solver.Dependencies() {
		if _, err := graph.CreateEdge(fmt.Sprintf("e%d", i), nodes[dep[0]], nodes[dep[1]]); err != nil {
			return err
		}
	}
	return g.Render(graph, "dot", w)
}
