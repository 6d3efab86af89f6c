package constraint

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/nodeconstraint/logging"
	"go.viam.com/nodeconstraint/scenegraph"
	"go.viam.com/nodeconstraint/spatialmath"
	"go.viam.com/nodeconstraint/utils"
)

const tolerance = 1e-9

// scene -> root -> {arm -> dst, src}. arm carries a parent rotation so model and local space differ.
type rig struct {
	graph *scenegraph.Graph
	root  scenegraph.NodeID
	arm   scenegraph.NodeID
	dst   scenegraph.NodeID
	src   scenegraph.NodeID
}

func newRig(t *testing.T) *rig {
	t.Helper()
	g := scenegraph.New("rig")
	scene, err := g.AddNode("scene", scenegraph.NoNode)
	test.That(t, err, test.ShouldBeNil)
	root, err := g.AddNode("root", scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.MarkRoot(root), test.ShouldBeNil)
	arm, err := g.AddNode("arm", root)
	test.That(t, err, test.ShouldBeNil)
	dst, err := g.AddNode("dst", arm)
	test.That(t, err, test.ShouldBeNil)
	src, err := g.AddNode("src", root)
	test.That(t, err, test.ShouldBeNil)

	// everything above root is outside model space
	g.SetPosition(scene, r3.Vector{X: 100, Y: -50, Z: 7})
	g.SetRotation(scene, axisAngle(r3.Vector{X: 1, Y: 1}, 1.1))
	g.UpdateMatrix(scene)
	return &rig{graph: g, root: root, arm: arm, dst: dst, src: src}
}

func (r *rig) link(t *testing.T, sourceSpace, destinationSpace Space, weight float64) Link {
	t.Helper()
	return Link{
		Destination:      r.dst,
		Source:           r.src,
		SourceSpace:      sourceSpace,
		DestinationSpace: destinationSpace,
		Weight:           weight,
		Logger:           logging.NewTestLogger(t),
	}
}

func axisAngle(axis r3.Vector, theta float64) quat.Number {
	return spatialmath.NewR4AAFromAxis(axis, theta).ToQuat()
}

func quatShouldAlmostEqual(t *testing.T, got, want quat.Number) {
	t.Helper()
	test.That(t, spatialmath.QuatIsFinite(got), test.ShouldBeTrue)
	test.That(t, spatialmath.QuaternionAlmostEqual(got, want, 1e-9), test.ShouldBeTrue)
}

func vectorShouldAlmostEqual(t *testing.T, got, want r3.Vector) {
	t.Helper()
	test.That(t, got.X, test.ShouldAlmostEqual, want.X, tolerance)
	test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, tolerance)
	test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, tolerance)
}

func modelRotation(g *scenegraph.Graph, id scenegraph.NodeID) quat.Number {
	return spatialmath.DecomposeRotation(g.ModelMatrix(id))
}

func modelPosition(g *scenegraph.Graph, id scenegraph.NodeID) r3.Vector {
	return spatialmath.DecomposePosition(g.ModelMatrix(id))
}

func TestDefaultLink(t *testing.T) {
	r := newRig(t)
	link := DefaultLink(r.dst, r.src)
	test.That(t, link.Weight, test.ShouldEqual, 1.0)
	test.That(t, link.SourceSpace, test.ShouldEqual, ModelSpace)
	test.That(t, link.DestinationSpace, test.ShouldEqual, ModelSpace)

	c, err := NewRotation(r.graph, Link{Destination: r.dst, Source: r.src}, spatialmath.AllAxes)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.SourceSpace(), test.ShouldEqual, ModelSpace)
	test.That(t, c.DestinationSpace(), test.ShouldEqual, ModelSpace)
	test.That(t, c.String(), test.ShouldEqual, "rotation(dst <- src)")
}

func TestNewConstraintErrors(t *testing.T) {
	r := newRig(t)

	_, err := NewPosition(r.graph, DefaultLink(r.dst, r.dst), spatialmath.AllAxes)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot constrain itself")

	_, err = NewRotation(r.graph, DefaultLink(scenegraph.NodeID(77), r.src), spatialmath.AllAxes)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not in scene graph")

	link := DefaultLink(r.dst, r.src)
	link.SourceSpace = "world"
	_, err = NewAim(r.graph, link, DefaultAimVector, DefaultUpVector, spatialmath.AimAxes{true, true})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown space "world"`)
}

func TestLifecycle(t *testing.T) {
	r := newRig(t)
	aim, err := NewAim(r.graph, r.link(t, ModelSpace, ModelSpace, 1), DefaultAimVector, DefaultUpVector,
		spatialmath.AimAxes{true, true})
	test.That(t, err, test.ShouldBeNil)
	pos, err := NewPosition(r.graph, r.link(t, ModelSpace, ModelSpace, 1), spatialmath.AllAxes)
	test.That(t, err, test.ShouldBeNil)
	rot, err := NewRotation(r.graph, r.link(t, ModelSpace, ModelSpace, 1), spatialmath.AllAxes)
	test.That(t, err, test.ShouldBeNil)

	for _, c := range []Constraint{aim, pos, rot} {
		t.Run(string(c.Kind()), func(t *testing.T) {
			test.That(t, c.Initialized(), test.ShouldBeFalse)
			test.That(t, c.Update(), test.ShouldEqual, ErrNotInitialized)
			test.That(t, c.SetInitState(), test.ShouldBeNil)
			test.That(t, c.Initialized(), test.ShouldBeTrue)
			test.That(t, c.SetInitState(), test.ShouldEqual, ErrAlreadyInitialized)
			test.That(t, c.Update(), test.ShouldBeNil)
		})
	}
}

func TestAimScenario(t *testing.T) {
	g := scenegraph.New("aim")
	root, err := g.AddNode("root", scenegraph.NoNode)
	test.That(t, err, test.ShouldBeNil)
	dst, err := g.AddNode("dst", root)
	test.That(t, err, test.ShouldBeNil)
	src, err := g.AddNode("src", root)
	test.That(t, err, test.ShouldBeNil)
	g.SetPosition(src, r3.Vector{Z: 1})

	c, err := NewAim(g, DefaultLink(dst, src), DefaultAimVector, DefaultUpVector, spatialmath.AimAxes{true, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.SetInitState(), test.ShouldBeNil)

	test.That(t, c.Update(), test.ShouldBeNil)
	quatShouldAlmostEqual(t, g.Rotation(dst), spatialmath.QuatIdentity())

	g.SetPosition(src, r3.Vector{X: 1})
	test.That(t, c.Update(), test.ShouldBeNil)
	quatShouldAlmostEqual(t, g.Rotation(dst), axisAngle(r3.Vector{Y: 1}, math.Pi/2))
	vectorShouldAlmostEqual(t, spatialmath.RotateVector(g.Rotation(dst), r3.Vector{Z: 1}), r3.Vector{X: 1})

	// composed with a non-identity rest rotation
	rest := axisAngle(r3.Vector{Z: 1}, utils.DegToRad(30))
	g.SetRotation(dst, rest)
	g.SetPosition(src, r3.Vector{Z: 1})
	c, err = NewAim(g, DefaultLink(dst, src), DefaultAimVector, DefaultUpVector, spatialmath.AimAxes{true, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.SetInitState(), test.ShouldBeNil)
	g.SetPosition(src, r3.Vector{X: 1})
	test.That(t, c.Update(), test.ShouldBeNil)
	quatShouldAlmostEqual(t, g.Rotation(dst), quat.Mul(axisAngle(r3.Vector{Y: 1}, math.Pi/2), rest))
}

func TestAimFreezeAxes(t *testing.T) {
	g := scenegraph.New("aim")
	dst, err := g.AddNode("dst", scenegraph.NoNode)
	test.That(t, err, test.ShouldBeNil)
	src, err := g.AddNode("src", scenegraph.NoNode)
	test.That(t, err, test.ShouldBeNil)
	g.SetPosition(src, r3.Vector{Z: 1})

	c, err := NewAim(g, DefaultLink(dst, src), DefaultAimVector, DefaultUpVector, spatialmath.AimAxes{true, false})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.SetInitState(), test.ShouldBeNil)

	// up and to the right: only the yaw is kept
	g.SetPosition(src, r3.Vector{X: 1, Y: 1, Z: 0})
	test.That(t, c.Update(), test.ShouldBeNil)
	quatShouldAlmostEqual(t, g.Rotation(dst), axisAngle(r3.Vector{Y: 1}, math.Pi/2))

	c, err = NewAim(g, DefaultLink(dst, src), DefaultAimVector, DefaultUpVector, spatialmath.AimAxes{})
	test.That(t, err, test.ShouldBeNil)
	g.SetRotation(dst, spatialmath.QuatIdentity())
	g.SetPosition(src, r3.Vector{Z: 1})
	test.That(t, c.SetInitState(), test.ShouldBeNil)
	g.SetPosition(src, r3.Vector{X: -3, Y: 2, Z: 0.5})
	test.That(t, c.Update(), test.ShouldBeNil)
	quatShouldAlmostEqual(t, g.Rotation(dst), spatialmath.QuatIdentity())
}

func TestAimDegenerate(t *testing.T) {
	r := newRig(t)
	logger, logs := logging.NewObservedTestLogger(t)
	r.graph.SetRotation(r.arm, axisAngle(r3.Vector{Z: 1}, utils.DegToRad(90)))
	rest := axisAngle(r3.Vector{X: 1, Z: 1}, utils.DegToRad(25))
	r.graph.SetRotation(r.dst, rest)
	r.graph.SetPosition(r.src, r3.Vector{X: 2, Y: 1})

	link := r.link(t, ModelSpace, ModelSpace, 1)
	link.Logger = logger
	c, err := NewAim(r.graph, link, DefaultAimVector, DefaultUpVector, spatialmath.AimAxes{true, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.SetInitState(), test.ShouldBeNil)

	// source moved onto the destination
	r.graph.SetPosition(r.src, modelPosition(r.graph, r.dst))
	test.That(t, c.Update(), test.ShouldBeNil)
	quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), rest)
	test.That(t, logs.FilterMessage("degenerate geometry, keeping rest pose").Len(), test.ShouldBeGreaterThan, 0)

	// an up vector parallel to the aim vector never defines a rotation
	c, err = NewAim(r.graph, r.link(t, ModelSpace, ModelSpace, 1), DefaultAimVector, r3.Vector{Z: 5},
		spatialmath.AimAxes{true, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.UpVector(), test.ShouldResemble, r3.Vector{Z: 1})
	test.That(t, c.SetInitState(), test.ShouldBeNil)
	r.graph.SetPosition(r.src, r3.Vector{X: -4, Y: 3, Z: 1})
	test.That(t, c.Update(), test.ShouldBeNil)
	quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), rest)

	// a zero up vector
	c, err = NewAim(r.graph, r.link(t, LocalSpace, LocalSpace, 1), DefaultAimVector, r3.Vector{},
		spatialmath.AimAxes{true, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.SetInitState(), test.ShouldBeNil)
	test.That(t, c.Update(), test.ShouldBeNil)
	quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), rest)
}

func TestAimMissingSource(t *testing.T) {
	g := scenegraph.New("aim")
	dst, err := g.AddNode("dst", scenegraph.NoNode)
	test.That(t, err, test.ShouldBeNil)
	g.SetPosition(dst, r3.Vector{Z: -1})

	c, err := NewAim(g, DefaultLink(dst, scenegraph.NoNode), DefaultAimVector, DefaultUpVector,
		spatialmath.AimAxes{true, true})
	test.That(t, err, test.ShouldBeNil)
	_, ok := c.Source()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, c.String(), test.ShouldEqual, "aim(dst)")
	test.That(t, c.SetInitState(), test.ShouldBeNil)

	// the source is the origin, so moving the destination sideways turns it back toward the origin
	g.SetPosition(dst, r3.Vector{X: -1})
	test.That(t, c.Update(), test.ShouldBeNil)
	quatShouldAlmostEqual(t, g.Rotation(dst), axisAngle(r3.Vector{Y: 1}, math.Pi/2))
}

func TestPosition(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		r := newRig(t)
		r.graph.SetPosition(r.dst, r3.Vector{Y: 1})
		r.graph.SetPosition(r.src, r3.Vector{X: 5})
		c, err := NewPosition(r.graph, r.link(t, LocalSpace, LocalSpace, 1), spatialmath.AllAxes)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.SetInitState(), test.ShouldBeNil)

		test.That(t, c.Update(), test.ShouldBeNil)
		vectorShouldAlmostEqual(t, r.graph.Position(r.dst), r3.Vector{Y: 1})

		r.graph.SetPosition(r.src, r3.Vector{X: 6, Y: 2, Z: 3})
		test.That(t, c.Update(), test.ShouldBeNil)
		vectorShouldAlmostEqual(t, r.graph.Position(r.dst), r3.Vector{X: 1, Y: 3, Z: 3})

		c.SetWeight(0.5)
		test.That(t, c.Update(), test.ShouldBeNil)
		vectorShouldAlmostEqual(t, r.graph.Position(r.dst), r3.Vector{X: 0.5, Y: 2, Z: 1.5})
	})

	t.Run("model", func(t *testing.T) {
		r := newRig(t)
		r.graph.SetPosition(r.arm, r3.Vector{X: 1})
		r.graph.SetRotation(r.arm, axisAngle(r3.Vector{Z: 1}, utils.DegToRad(90)))
		r.graph.SetScale(r.arm, r3.Vector{X: 2, Y: 2, Z: 2})
		r.graph.SetPosition(r.dst, r3.Vector{X: 1})
		vectorShouldAlmostEqual(t, modelPosition(r.graph, r.dst), r3.Vector{X: 1, Y: 2})

		c, err := NewPosition(r.graph, r.link(t, ModelSpace, ModelSpace, 1), spatialmath.Axes{true, false, true})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.SetInitState(), test.ShouldBeNil)

		r.graph.SetPosition(r.src, r3.Vector{X: 1, Y: 4, Z: 2})
		test.That(t, c.Update(), test.ShouldBeNil)
		vectorShouldAlmostEqual(t, modelPosition(r.graph, r.dst), r3.Vector{X: 2, Y: 2, Z: 2})
	})

	t.Run("singular parent keeps rest", func(t *testing.T) {
		r := newRig(t)
		r.graph.SetPosition(r.dst, r3.Vector{X: 1, Y: 2, Z: 3})
		c, err := NewPosition(r.graph, r.link(t, ModelSpace, ModelSpace, 1), spatialmath.AllAxes)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.SetInitState(), test.ShouldBeNil)

		r.graph.SetScale(r.arm, r3.Vector{X: 1, Y: 0, Z: 1})
		r.graph.SetPosition(r.src, r3.Vector{X: 3})
		test.That(t, c.Update(), test.ShouldBeNil)
		vectorShouldAlmostEqual(t, r.graph.Position(r.dst), r3.Vector{X: 1, Y: 2, Z: 3})
	})
}

func TestRotation(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		r := newRig(t)
		rest := axisAngle(r3.Vector{Y: 1}, utils.DegToRad(10))
		r.graph.SetRotation(r.dst, rest)
		r.graph.SetRotation(r.src, axisAngle(r3.Vector{X: 1}, utils.DegToRad(15)))
		c, err := NewRotation(r.graph, r.link(t, LocalSpace, LocalSpace, 1), spatialmath.AllAxes)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.SetInitState(), test.ShouldBeNil)

		delta := axisAngle(r3.Vector{Z: 1}, utils.DegToRad(90))
		r.graph.SetRotation(r.src, quat.Mul(delta, axisAngle(r3.Vector{X: 1}, utils.DegToRad(15))))
		test.That(t, c.Update(), test.ShouldBeNil)
		quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), quat.Mul(delta, rest))

		c.SetWeight(0.5)
		test.That(t, c.Update(), test.ShouldBeNil)
		quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), quat.Mul(axisAngle(r3.Vector{Z: 1}, utils.DegToRad(45)), rest))

		// extrapolates past the full delta
		c.SetWeight(2)
		test.That(t, c.Update(), test.ShouldBeNil)
		quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), quat.Mul(axisAngle(r3.Vector{Z: 1}, utils.DegToRad(180)), rest))
	})

	t.Run("model is independent of parent rotation", func(t *testing.T) {
		r := newRig(t)
		r.graph.SetRotation(r.arm, axisAngle(r3.Vector{Z: 1}, utils.DegToRad(90)))
		r.graph.SetRotation(r.dst, axisAngle(r3.Vector{Y: 1}, utils.DegToRad(20)))
		c, err := NewRotation(r.graph, r.link(t, ModelSpace, ModelSpace, 1), spatialmath.AllAxes)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.SetInitState(), test.ShouldBeNil)
		restModel := modelRotation(r.graph, r.dst)

		delta := axisAngle(r3.Vector{X: 1}, utils.DegToRad(90))
		r.graph.SetRotation(r.src, delta)
		test.That(t, c.Update(), test.ShouldBeNil)
		quatShouldAlmostEqual(t, modelRotation(r.graph, r.dst), quat.Mul(delta, restModel))

		// turning the parent afterwards does not move the destination in model space
		r.graph.SetRotation(r.arm, axisAngle(r3.Vector{X: 1, Y: -1}, utils.DegToRad(70)))
		test.That(t, c.Update(), test.ShouldBeNil)
		quatShouldAlmostEqual(t, modelRotation(r.graph, r.dst), quat.Mul(delta, restModel))
	})

	t.Run("local follows parent rotation", func(t *testing.T) {
		r := newRig(t)
		r.graph.SetRotation(r.arm, axisAngle(r3.Vector{Z: 1}, utils.DegToRad(90)))
		c, err := NewRotation(r.graph, r.link(t, ModelSpace, LocalSpace, 1), spatialmath.AllAxes)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.SetInitState(), test.ShouldBeNil)

		delta := axisAngle(r3.Vector{X: 1}, utils.DegToRad(90))
		r.graph.SetRotation(r.src, delta)
		test.That(t, c.Update(), test.ShouldBeNil)
		quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), delta)
		quatShouldAlmostEqual(t, modelRotation(r.graph, r.dst), quat.Mul(axisAngle(r3.Vector{Z: 1}, utils.DegToRad(90)), delta))
	})

	t.Run("compound rotation keeps euler roll", func(t *testing.T) {
		r := newRig(t)
		c, err := NewRotation(r.graph, r.link(t, LocalSpace, LocalSpace, 1), spatialmath.Axes{true, false, false})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.SetInitState(), test.ShouldBeNil)

		r.graph.SetRotation(r.src, quat.Mul(axisAngle(r3.Vector{X: 1}, utils.DegToRad(40)), axisAngle(r3.Vector{Z: 1}, utils.DegToRad(60))))
		test.That(t, c.Update(), test.ShouldBeNil)
		quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), axisAngle(r3.Vector{X: 1}, utils.DegToRad(22.7604762746)))
	})

	t.Run("missing source is identity", func(t *testing.T) {
		r := newRig(t)
		rest := axisAngle(r3.Vector{Y: 1}, utils.DegToRad(33))
		r.graph.SetRotation(r.dst, rest)
		link := r.link(t, ModelSpace, ModelSpace, 1)
		link.Source = scenegraph.NoNode
		c, err := NewRotation(r.graph, link, spatialmath.AllAxes)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.SetInitState(), test.ShouldBeNil)
		test.That(t, c.Update(), test.ShouldBeNil)
		quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), rest)
	})
}

// newMoved builds each kind of constraint on a fresh rig with a non-trivial rest pose, captures the rest
// state and then moves the source.
func newMoved(t *testing.T, kind Kind, space Space, weight float64, all bool) (*rig, Constraint) {
	t.Helper()
	r := newRig(t)
	r.graph.SetRotation(r.arm, axisAngle(r3.Vector{Z: 1}, utils.DegToRad(35)))
	r.graph.SetPosition(r.dst, r3.Vector{X: 1, Y: 0.5})
	r.graph.SetRotation(r.dst, axisAngle(r3.Vector{Y: 1, Z: 1}, utils.DegToRad(12)))
	r.graph.SetPosition(r.src, r3.Vector{Z: 3})

	link := r.link(t, space, space, weight)
	var c Constraint
	var err error
	switch kind {
	case KindAim:
		axes := spatialmath.AimAxes{all, all}
		c, err = NewAim(r.graph, link, DefaultAimVector, DefaultUpVector, axes)
	case KindPosition:
		axes := spatialmath.Axes{all, all, all}
		c, err = NewPosition(r.graph, link, axes)
	case KindRotation:
		axes := spatialmath.Axes{all, all, all}
		c, err = NewRotation(r.graph, link, axes)
	}
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.SetInitState(), test.ShouldBeNil)

	r.graph.SetPosition(r.src, r3.Vector{X: 2, Y: -1, Z: 1})
	r.graph.SetRotation(r.src, axisAngle(r3.Vector{X: 1, Y: 2, Z: 3}, utils.DegToRad(50)))
	return r, c
}

func TestRestPoseProperties(t *testing.T) {
	for _, kind := range []Kind{KindAim, KindPosition, KindRotation} {
		for _, space := range []Space{LocalSpace, ModelSpace} {
			t.Run(string(kind)+"/"+string(space), func(t *testing.T) {
				cases := []struct {
					name   string
					weight float64
					all    bool
				}{
					{"weight zero", 0, true},
					{"all axes frozen", 1, false},
				}
				for _, tc := range cases {
					r, c := newMoved(t, kind, space, tc.weight, tc.all)
					restPos := r.graph.Position(r.dst)
					restRot := r.graph.Rotation(r.dst)
					test.That(t, c.Update(), test.ShouldBeNil)
					vectorShouldAlmostEqual(t, r.graph.Position(r.dst), restPos)
					quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), restRot)
				}

				// capture followed by an update with nothing moved reproduces the rest pose
				r := newRig(t)
				r.graph.SetRotation(r.arm, axisAngle(r3.Vector{Z: 1}, utils.DegToRad(35)))
				r.graph.SetPosition(r.dst, r3.Vector{X: 1, Y: 0.5})
				r.graph.SetRotation(r.dst, axisAngle(r3.Vector{Y: 1, Z: 1}, utils.DegToRad(12)))
				r.graph.SetPosition(r.src, r3.Vector{Z: 3})
				restPos := r.graph.Position(r.dst)
				restRot := r.graph.Rotation(r.dst)
				var c Constraint
				var err error
				link := r.link(t, space, space, 1)
				switch kind {
				case KindAim:
					c, err = NewAim(r.graph, link, DefaultAimVector, DefaultUpVector, spatialmath.AimAxes{true, true})
				case KindPosition:
					c, err = NewPosition(r.graph, link, spatialmath.AllAxes)
				case KindRotation:
					c, err = NewRotation(r.graph, link, spatialmath.AllAxes)
				}
				test.That(t, err, test.ShouldBeNil)
				test.That(t, c.SetInitState(), test.ShouldBeNil)
				for i := 0; i < 3; i++ {
					test.That(t, c.Update(), test.ShouldBeNil)
				}
				vectorShouldAlmostEqual(t, r.graph.Position(r.dst), restPos)
				quatShouldAlmostEqual(t, r.graph.Rotation(r.dst), restRot)
			})
		}
	}
}
