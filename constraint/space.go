package constraint

// Space selects how a node's transform is read by a constraint.
type Space string

const (
	// LocalSpace uses the node's transform relative to its parent.
	LocalSpace Space = "local"
	// ModelSpace uses the node's transform composed through its ancestors up to the hierarchy root.
	ModelSpace Space = "model"
)

// ParseSpace converts a declared space name. An empty name is ModelSpace.
func ParseSpace(s string) (Space, bool) {
	switch Space(s) {
	case "", ModelSpace:
		return ModelSpace, true
	case LocalSpace:
		return LocalSpace, true
	default:
		return "", false
	}
}

// Kind names the concrete constraint type.
type Kind string

// The constraint kinds.
const (
	KindPosition Kind = "position"
	KindRotation Kind = "rotation"
	KindAim      Kind = "aim"
)
