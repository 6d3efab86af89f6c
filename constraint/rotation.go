package constraint

import (
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/nodeconstraint/spatialmath"
)

type rotationRest struct {
	dst    quat.Number
	invSrc quat.Number
}

// Rotation turns the destination by the source's rotation since the rest state was captured. Frozen axes
// are removed from the Euler decomposition of that rotation.
type Rotation struct {
	base
	axes spatialmath.Axes
	rest *rotationRest
}

// NewRotation creates a rotation constraint.
func NewRotation(graph SceneGraph, link Link, axes spatialmath.Axes) (*Rotation, error) {
	b, err := newBase(KindRotation, graph, link)
	if err != nil {
		return nil, err
	}
	return &Rotation{base: b, axes: axes}, nil
}

// FreezeAxes returns the X, Y and Z participation mask.
func (c *Rotation) FreezeAxes() spatialmath.Axes {
	return c.axes
}

// Initialized reports whether the rest state has been captured.
func (c *Rotation) Initialized() bool {
	return c.rest != nil
}

// SetInitState captures the source and destination rotations in the configured spaces.
func (c *Rotation) SetInitState() error {
	if c.rest != nil {
		return ErrAlreadyInitialized
	}
	c.rest = &rotationRest{
		dst:    spatialmath.DecomposeRotation(c.destinationMatrix()),
		invSrc: spatialmath.QuatInvertCompat(c.sourceRotation()),
	}
	return nil
}

// Update rotates the destination from its rest rotation for this tick.
func (c *Rotation) Update() error {
	if c.rest == nil {
		return ErrNotInitialized
	}
	seed := c.seedRotation()

	delta := quat.Mul(c.sourceRotation(), c.rest.invSrc)
	delta = c.blend(spatialmath.QuatFreezeAxes(delta, c.axes))
	if !spatialmath.QuatIsFinite(delta) {
		c.degenerate("non-finite rotation delta")
		delta = spatialmath.QuatIdentity()
	}

	c.commitRotation(quat.Mul(quat.Mul(seed, delta), c.rest.dst))
	return nil
}

func (c *Rotation) sourceRotation() quat.Number {
	if _, ok := c.Source(); !ok {
		return spatialmath.QuatIdentity()
	}
	return spatialmath.DecomposeRotation(c.sourceMatrix())
}
