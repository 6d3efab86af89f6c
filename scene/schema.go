package scene

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"go.viam.com/nodeconstraint/constraint"
)

// Schemas holds the JSON schema of a scene file and of the declaration carried in a node's
// VRMC_node_constraint extension.
var Schemas = map[string]*jsonschema.Schema{
	"scene":       jsonschema.Reflect(&Config{}),
	ExtensionName: jsonschema.Reflect(&constraint.NodeConstraintConfig{}),
}

// Schema returns Schemas as indented JSON.
func Schema() ([]byte, error) {
	return json.MarshalIndent(Schemas, "", "  ")
}
