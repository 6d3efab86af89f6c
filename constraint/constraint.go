// Package constraint implements node constraints for an articulated scene graph: position, rotation and
// aim constraints that drive a destination node from a source node relative to a captured rest pose, and
// the solver that evaluates a set of them in dependency order once per tick.
//
// Every constraint has a two-phase lifecycle. SetInitState captures the rest state once, after the scene
// graph is fully assembled. Update then recomputes the destination's local transform each tick. Constraints
// are deltas from the rest pose, never absolute targets.
package constraint

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/nodeconstraint/logging"
	"go.viam.com/nodeconstraint/scenegraph"
	"go.viam.com/nodeconstraint/spatialmath"
)

// SceneGraph is the part of the host scene graph the constraints read and write. *scenegraph.Graph
// implements it.
type SceneGraph interface {
	Exists(id scenegraph.NodeID) bool
	NodeName(id scenegraph.NodeID) string
	Parent(id scenegraph.NodeID) (scenegraph.NodeID, error)
	// InModelChain reports whether ancestor is one of the nodes ModelMatrix(id) composes, other than id.
	InModelChain(ancestor, id scenegraph.NodeID) bool

	Position(id scenegraph.NodeID) r3.Vector
	SetPosition(id scenegraph.NodeID, p r3.Vector)
	Rotation(id scenegraph.NodeID) quat.Number
	SetRotation(id scenegraph.NodeID, q quat.Number)

	LocalMatrix(id scenegraph.NodeID) mgl64.Mat4
	ModelMatrix(id scenegraph.NodeID) mgl64.Mat4
	ParentModelMatrix(id scenegraph.NodeID) mgl64.Mat4
	// UpdateMatrix recomputes the node's local matrix so descendants see the new transform.
	UpdateMatrix(id scenegraph.NodeID)
}

// Constraint drives the local transform of one destination node from one optional source node.
type Constraint interface {
	Kind() Kind
	Destination() scenegraph.NodeID
	// Source returns the source node and whether the constraint has one.
	Source() (scenegraph.NodeID, bool)
	SourceSpace() Space
	DestinationSpace() Space

	Weight() float64
	SetWeight(weight float64)

	// SetInitState captures the rest state. It must be called exactly once, before the first Update.
	SetInitState() error
	// Initialized reports whether the rest state has been captured.
	Initialized() bool
	// Update writes this tick's transform into the destination node.
	Update() error

	String() string
}

// Link names the nodes a constraint connects and how they are evaluated.
type Link struct {
	Destination scenegraph.NodeID
	// Source is scenegraph.NoNode when the constraint has no source.
	Source           scenegraph.NodeID
	SourceSpace      Space
	DestinationSpace Space
	// Weight scales the effect: 0 keeps the rest pose, 1 applies the full delta. Values outside [0, 1]
	// over- or under-shoot.
	Weight float64
	// Logger is optional.
	Logger logging.Logger
}

// DefaultLink returns a link in model space on both ends with full weight.
func DefaultLink(destination, source scenegraph.NodeID) Link {
	return Link{
		Destination:      destination,
		Source:           source,
		SourceSpace:      ModelSpace,
		DestinationSpace: ModelSpace,
		Weight:           1,
	}
}

type base struct {
	kind             Kind
	graph            SceneGraph
	destination      scenegraph.NodeID
	source           scenegraph.NodeID
	sourceSpace      Space
	destinationSpace Space
	weight           float64
	logger           logging.Logger
}

func newBase(kind Kind, graph SceneGraph, link Link) (base, error) {
	if !graph.Exists(link.Destination) {
		return base{}, NewMissingNodeError(link.Destination)
	}
	if link.Source != scenegraph.NoNode {
		if !graph.Exists(link.Source) {
			return base{}, NewMissingNodeError(link.Source)
		}
		if link.Source == link.Destination {
			return base{}, NewSelfReferenceError(graph.NodeName(link.Destination))
		}
	}
	sourceSpace, ok := ParseSpace(string(link.SourceSpace))
	if !ok {
		return base{}, NewInvalidSpaceError("sourceSpace", string(link.SourceSpace))
	}
	destinationSpace, ok := ParseSpace(string(link.DestinationSpace))
	if !ok {
		return base{}, NewInvalidSpaceError("destinationSpace", string(link.DestinationSpace))
	}
	logger := link.Logger
	if logger == nil {
		logger = logging.NewBlankLogger("constraint")
	}
	return base{
		kind:             kind,
		graph:            graph,
		destination:      link.Destination,
		source:           link.Source,
		sourceSpace:      sourceSpace,
		destinationSpace: destinationSpace,
		weight:           link.Weight,
		logger:           logger,
	}, nil
}

func (b *base) Kind() Kind {
	return b.kind
}

func (b *base) Destination() scenegraph.NodeID {
	return b.destination
}

func (b *base) Source() (scenegraph.NodeID, bool) {
	return b.source, b.source != scenegraph.NoNode
}

func (b *base) SourceSpace() Space {
	return b.sourceSpace
}

func (b *base) DestinationSpace() Space {
	return b.destinationSpace
}

func (b *base) Weight() float64 {
	return b.weight
}

func (b *base) SetWeight(weight float64) {
	b.weight = weight
}

func (b *base) String() string {
	dst := b.graph.NodeName(b.destination)
	if src, ok := b.Source(); ok {
		return fmt.Sprintf("%s(%s <- %s)", b.kind, dst, b.graph.NodeName(src))
	}
	return fmt.Sprintf("%s(%s)", b.kind, dst)
}

func (b *base) matrixInSpace(id scenegraph.NodeID, space Space) mgl64.Mat4 {
	if space == LocalSpace {
		return b.graph.LocalMatrix(id)
	}
	return b.graph.ModelMatrix(id)
}

// sourceMatrix resolves the source transform in the source space. Callers check for a source first.
func (b *base) sourceMatrix() mgl64.Mat4 {
	return b.matrixInSpace(b.source, b.sourceSpace)
}

func (b *base) destinationMatrix() mgl64.Mat4 {
	return b.matrixInSpace(b.destination, b.destinationSpace)
}

func (b *base) parentMatrixInModelSpace() mgl64.Mat4 {
	return b.graph.ParentModelMatrix(b.destination)
}

// seedRotation is the rotation a rotational update starts from. In local space the rest rotation carries
// everything, so the seed is identity. In model space the seed cancels the current parent rotation, making
// the result independent of the ancestors.
func (b *base) seedRotation() quat.Number {
	if b.destinationSpace == LocalSpace {
		return spatialmath.QuatIdentity()
	}
	return spatialmath.QuatInvertCompat(spatialmath.DecomposeRotation(b.parentMatrixInModelSpace()))
}

// blend pulls a rotation delta toward identity by 1 - weight.
func (b *base) blend(delta quat.Number) quat.Number {
	return spatialmath.Slerp(delta, spatialmath.QuatIdentity(), 1-b.weight)
}

func (b *base) commitRotation(q quat.Number) {
	b.graph.SetRotation(b.destination, spatialmath.Normalize(q))
	b.graph.UpdateMatrix(b.destination)
}

func (b *base) commitPosition(p r3.Vector) {
	b.graph.SetPosition(b.destination, p)
	b.graph.UpdateMatrix(b.destination)
}

// degenerate logs that a tick fell back to the rest pose.
func (b *base) degenerate(reason string) {
	b.logger.Debugw("degenerate geometry, keeping rest pose", "constraint", b.String(), "reason", reason)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
