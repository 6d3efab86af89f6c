// Package scene loads scene files: a node hierarchy with constraint declarations attached to nodes,
// followed by per-tick node overrides that drive the constraints.
package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"
)

// ExtensionName is the node extension that carries a constraint declaration.
const ExtensionName = "VRMC_node_constraint"

// Config is a scene file.
type Config struct {
	Name  string       `json:"name,omitempty"`
	Nodes []NodeConfig `json:"nodes"`
	Ticks []TickConfig `json:"ticks,omitempty"`
}

// NodeConfig describes one node. Children are indices into the scene's node list. Rotation is a quaternion
// in x, y, z, w order.
type NodeConfig struct {
	Name        string                 `json:"name"`
	Children    []int                  `json:"children,omitempty"`
	Translation []float64              `json:"translation,omitempty"`
	Rotation    []float64              `json:"rotation,omitempty"`
	Scale       []float64              `json:"scale,omitempty"`
	Root        bool                   `json:"root,omitempty"`
	Extensions  map[string]interface{} `json:"extensions,omitempty"`
}

// TickConfig lists the nodes moved before one tick is solved.
type TickConfig struct {
	Nodes []NodeOverride `json:"nodes"`
}

// NodeOverride replaces parts of a node's local transform. Omitted parts are left as they are.
type NodeOverride struct {
	Node        string    `json:"node"`
	Translation []float64 `json:"translation,omitempty"`
	Rotation    []float64 `json:"rotation,omitempty"`
	Scale       []float64 `json:"scale,omitempty"`
}

// Read reads a scene from the given file, substituting environment variables first. Files ending in
// .json5 may use JSON5 syntax.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(filePath), ".json5") {
		var cfg Config
		if err := json5.Unmarshal(buf, &cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to decode scene %q from json5", filePath)
		}
		return &cfg, nil
	}
	return FromReader(bytes.NewReader(buf))
}

// FromReader reads a scene in JSON format from the given reader.
func FromReader(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode scene from json")
	}
	return &cfg, nil
}

// Validate checks the shape of every node and override. Hierarchy and constraint problems are reported
// by Build.
func (cfg *Config) Validate() error {
	var err error
	if len(cfg.Nodes) == 0 {
		err = multierr.Append(err, errors.New("scene has no nodes"))
	}
	for i, n := range cfg.Nodes {
		path := fmt.Sprintf("nodes.%d", i)
		if n.Name == "" {
			err = multierr.Append(err, errors.Errorf("%s: name is required", path))
		}
		err = multierr.Append(err, validateTransform(path, n.Translation, n.Rotation, n.Scale))
		for _, child := range n.Children {
			if child < 0 || child >= len(cfg.Nodes) {
				err = multierr.Append(err, errors.Errorf("%s.children: node index %d out of range", path, child))
			}
		}
	}
	for i, tick := range cfg.Ticks {
		for j, o := range tick.Nodes {
			path := fmt.Sprintf("ticks.%d.nodes.%d", i, j)
			if o.Node == "" {
				err = multierr.Append(err, errors.Errorf("%s: node is required", path))
			}
			err = multierr.Append(err, validateTransform(path, o.Translation, o.Rotation, o.Scale))
		}
	}
	return err
}

func validateTransform(path string, translation, rotation, scale []float64) error {
	var err error
	if translation != nil && len(translation) != 3 {
		err = multierr.Append(err, errors.Errorf("%s.translation: expected 3 components, got %d", path, len(translation)))
	}
	if rotation != nil && len(rotation) != 4 {
		err = multierr.Append(err, errors.Errorf("%s.rotation: expected 4 components, got %d", path, len(rotation)))
	}
	if scale != nil && len(scale) != 3 {
		err = multierr.Append(err, errors.Errorf("%s.scale: expected 3 components, got %d", path, len(scale)))
	}
	return err
}

func toVector(v []float64) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// toQuat converts an x, y, z, w array.
func toQuat(v []float64) quat.Number {
	return quat.Number{Real: v[3], Imag: v[0], Jmag: v[1], Kmag: v[2]}
}
