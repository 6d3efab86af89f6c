package constraint

import (
	"github.com/golang/geo/r3"

	"go.viam.com/nodeconstraint/spatialmath"
)

// singularEpsilon is the smallest parent determinant a model-space position can be mapped through.
const singularEpsilon = 1e-12

type positionRest struct {
	src      r3.Vector
	dst      r3.Vector
	dstLocal r3.Vector
}

// Position moves the destination by the source's displacement since the rest state was captured.
type Position struct {
	base
	axes spatialmath.Axes
	rest *positionRest
}

// NewPosition creates a position constraint.
func NewPosition(graph SceneGraph, link Link, axes spatialmath.Axes) (*Position, error) {
	b, err := newBase(KindPosition, graph, link)
	if err != nil {
		return nil, err
	}
	return &Position{base: b, axes: axes}, nil
}

// FreezeAxes returns the X, Y and Z participation mask.
func (c *Position) FreezeAxes() spatialmath.Axes {
	return c.axes
}

// Initialized reports whether the rest state has been captured.
func (c *Position) Initialized() bool {
	return c.rest != nil
}

// SetInitState captures the source and destination positions in the configured spaces.
func (c *Position) SetInitState() error {
	if c.rest != nil {
		return ErrAlreadyInitialized
	}
	c.rest = &positionRest{
		src:      c.sourcePosition(),
		dst:      spatialmath.DecomposePosition(c.destinationMatrix()),
		dstLocal: c.graph.Position(c.destination),
	}
	return nil
}

// Update offsets the destination from its rest position for this tick.
func (c *Position) Update() error {
	if c.rest == nil {
		return ErrNotInitialized
	}
	delta := spatialmath.Vector3FreezeAxes(c.sourcePosition().Sub(c.rest.src), c.axes).Mul(c.weight)
	if !spatialmath.R3IsFinite(delta) {
		c.degenerate("non-finite position delta")
		delta = r3.Vector{}
	}
	target := c.rest.dst.Add(delta)

	if c.destinationSpace == LocalSpace {
		c.commitPosition(target)
		return nil
	}

	parent := c.parentMatrixInModelSpace()
	if det := parent.Det(); det > -singularEpsilon && det < singularEpsilon {
		c.degenerate("singular parent transform")
		c.commitPosition(c.rest.dstLocal)
		return nil
	}
	c.commitPosition(spatialmath.TransformPoint(parent.Inv(), target))
	return nil
}

func (c *Position) sourcePosition() r3.Vector {
	if _, ok := c.Source(); !ok {
		return r3.Vector{}
	}
	return spatialmath.DecomposePosition(c.sourceMatrix())
}
