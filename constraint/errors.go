package constraint

import (
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/nodeconstraint/scenegraph"
)

var (
	// ErrNotInitialized is returned by Update when the rest state was never captured.
	ErrNotInitialized = errors.New("rest state not captured; call SetInitState first")
	// ErrAlreadyInitialized is returned by a second SetInitState call.
	ErrAlreadyInitialized = errors.New("rest state already captured")
	// ErrInvalidConfig is wrapped by every configuration error so callers can test for the class with errors.Is.
	ErrInvalidConfig = errors.New("invalid node constraint configuration")
)

// NewCycleError is used when constraints depend on each other in a loop.
func NewCycleError(names []string) error {
	return errors.Wrapf(ErrInvalidConfig, "constraints form a cycle: %s", strings.Join(names, ", "))
}

// NewSelfReferenceError is used when a constraint uses its destination as its own source.
func NewSelfReferenceError(name string) error {
	return errors.Wrapf(ErrInvalidConfig, "node %q cannot constrain itself", name)
}

// NewSourceBelowDestinationError is used when a model-space source lies below the destination it drives, so
// every update would move its own input.
func NewSourceBelowDestinationError(source, destination string) error {
	return errors.Wrapf(ErrInvalidConfig, "source %q is a descendant of its own destination %q", source, destination)
}

// NewAxisMaskLengthError is used when a freezeAxes mask has the wrong number of entries.
func NewAxisMaskLengthError(path string, kind Kind, got, want int) error {
	return errors.Wrapf(ErrInvalidConfig, "%s: %s freezeAxes must have %d entries, got %d", path, kind, want, got)
}

// NewInvalidSpaceError is used for a space name other than local or model.
func NewInvalidSpaceError(path, value string) error {
	return errors.Wrapf(ErrInvalidConfig, "%s: unknown space %q, expected %q or %q", path, value, LocalSpace, ModelSpace)
}

// NewNodeIndexError is used when a declaration references a node index that does not exist.
func NewNodeIndexError(path string, index int) error {
	return errors.Wrapf(ErrInvalidConfig, "%s: node index %d out of range", path, index)
}

// NewMissingNodeError is used when a constraint is built against a handle the scene graph does not know.
func NewMissingNodeError(id scenegraph.NodeID) error {
	return errors.Wrapf(ErrInvalidConfig, "node %d not in scene graph", id)
}
