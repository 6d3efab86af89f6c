package constraint

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/nodeconstraint/spatialmath"
)

// Default reference vectors of an aim constraint: the local forward and up axes.
var (
	DefaultAimVector = r3.Vector{X: 0, Y: 0, Z: 1}
	DefaultUpVector  = r3.Vector{X: 0, Y: 1, Z: 0}
)

type aimRest struct {
	dst    quat.Number
	invAim quat.Number
}

// Aim turns the destination so its aim vector points at the source, relative to the direction it pointed
// in when the rest state was captured.
type Aim struct {
	base
	aimVector r3.Vector
	upVector  r3.Vector
	axes      spatialmath.AimAxes
	rest      *aimRest
}

// NewAim creates an aim constraint. aimVector and upVector are normalized here; a zero vector is accepted
// and makes every tick degenerate.
func NewAim(graph SceneGraph, link Link, aimVector, upVector r3.Vector, axes spatialmath.AimAxes) (*Aim, error) {
	b, err := newBase(KindAim, graph, link)
	if err != nil {
		return nil, err
	}
	return &Aim{
		base:      b,
		aimVector: normalizeVector(aimVector),
		upVector:  normalizeVector(upVector),
		axes:      axes,
	}, nil
}

// AimVector returns the normalized local forward vector.
func (c *Aim) AimVector() r3.Vector {
	return c.aimVector
}

// UpVector returns the normalized local up vector.
func (c *Aim) UpVector() r3.Vector {
	return c.upVector
}

// FreezeAxes returns the yaw and pitch participation mask.
func (c *Aim) FreezeAxes() spatialmath.AimAxes {
	return c.axes
}

// Initialized reports whether the rest state has been captured.
func (c *Aim) Initialized() bool {
	return c.rest != nil
}

// SetInitState captures the destination rotation and the aim direction in the configured spaces.
func (c *Aim) SetInitState() error {
	if c.rest != nil {
		return ErrAlreadyInitialized
	}
	restAim, ok := c.aimQuaternion()
	if !ok {
		c.degenerate("rest aim direction undefined")
	}
	c.rest = &aimRest{
		dst:    spatialmath.DecomposeRotation(c.destinationMatrix()),
		invAim: spatialmath.QuatInvertCompat(restAim),
	}
	return nil
}

// Update rotates the destination toward the source for this tick.
func (c *Aim) Update() error {
	if c.rest == nil {
		return ErrNotInitialized
	}
	seed := c.seedRotation()

	diff := spatialmath.QuatIdentity()
	if liveAim, ok := c.aimQuaternion(); ok {
		diff = quat.Mul(liveAim, c.rest.invAim)
	} else {
		c.degenerate("aim direction undefined")
	}
	diff = c.blend(diff)
	if !spatialmath.QuatIsFinite(diff) {
		c.degenerate("non-finite aim delta")
		diff = spatialmath.QuatIdentity()
	}

	c.commitRotation(quat.Mul(quat.Mul(seed, diff), c.rest.dst))
	return nil
}

// aimQuaternion is the rotation turning the aim vector from the destination toward the source.
func (c *Aim) aimQuaternion() (quat.Number, bool) {
	from := spatialmath.DecomposePosition(c.destinationMatrix())
	var to r3.Vector
	if _, ok := c.Source(); ok {
		to = spatialmath.DecomposePosition(c.sourceMatrix())
	}
	return spatialmath.AimQuaternion(from, to, c.aimVector, c.upVector, c.axes)
}

func normalizeVector(v r3.Vector) r3.Vector {
	n := v.Norm()
	if n == 0 || !isFinite(n) {
		return r3.Vector{}
	}
	return v.Mul(1 / n)
}
