package constraint

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/nodeconstraint/logging"
	"go.viam.com/nodeconstraint/scenegraph"
	"go.viam.com/nodeconstraint/spatialmath"
)

// SpecVersion is the declaration format version written by this package.
const SpecVersion = "1.0"

var supportedSpecVersions = map[string]bool{"": true, SpecVersion: true, "1.0-draft": true}

// NodeConstraintConfig is the constraint declaration attached to one destination node.
type NodeConstraintConfig struct {
	SpecVersion string     `json:"specVersion,omitempty"`
	Position    *Config    `json:"position,omitempty"`
	Rotation    *Config    `json:"rotation,omitempty"`
	Aim         *AimConfig `json:"aim,omitempty"`

	// Carried through untouched.
	Extensions map[string]interface{} `json:"extensions,omitempty"`
	Extras     interface{}            `json:"extras,omitempty"`
}

// Config declares a position or rotation constraint. Source is a node index in the declaring document.
type Config struct {
	Source           *int     `json:"source,omitempty" jsonschema:"minimum=0"`
	SourceSpace      string   `json:"sourceSpace,omitempty" jsonschema:"enum=local,enum=model"`
	DestinationSpace string   `json:"destinationSpace,omitempty" jsonschema:"enum=local,enum=model"`
	FreezeAxes       []bool   `json:"freezeAxes,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
}

// AimConfig declares an aim constraint. FreezeAxes has two entries, yaw then pitch.
type AimConfig struct {
	Config    `json:",squash"`
	AimVector []float64 `json:"aimVector,omitempty"`
	UpVector  []float64 `json:"upVector,omitempty"`
}

// DecodeNodeConstraintConfig converts a generic attribute map, such as a decoded JSON extension object, into
// a declaration.
func DecodeNodeConstraintConfig(attributes map[string]interface{}) (*NodeConstraintConfig, error) {
	var conf NodeConstraintConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Squash:     true,
		DecodeHook: mapstructure.DecodeHookFuncType(wholeNumberHook),
		Result:     &conf,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "decoding node constraint: %v", err)
	}
	return &conf, nil
}

// wholeNumberHook rejects fractional numbers decoded into integer fields such as node indices.
func wholeNumberHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() == reflect.Ptr {
		to = to.Elem()
	}
	if to.Kind() != reflect.Int {
		return data, nil
	}
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	if f := reflect.ValueOf(data).Float(); math.Trunc(f) != f {
		return nil, errors.Errorf("expected a whole number, got %v", f)
	}
	return data, nil
}

// Validate checks the declaration and reports every problem found.
func (conf *NodeConstraintConfig) Validate(path string) error {
	var err error
	if !supportedSpecVersions[conf.SpecVersion] {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "%s: unsupported specVersion %q", path, conf.SpecVersion))
	}
	if conf.Position != nil {
		err = multierr.Append(err, conf.Position.validate(fmt.Sprintf("%s.position", path), KindPosition, 3))
	}
	if conf.Rotation != nil {
		err = multierr.Append(err, conf.Rotation.validate(fmt.Sprintf("%s.rotation", path), KindRotation, 3))
	}
	if conf.Aim != nil {
		err = multierr.Append(err, conf.Aim.Validate(fmt.Sprintf("%s.aim", path)))
	}
	return err
}

func (conf *Config) validate(path string, kind Kind, axes int) error {
	var err error
	if conf.Source != nil && *conf.Source < 0 {
		err = multierr.Append(err, NewNodeIndexError(path+".source", *conf.Source))
	}
	if _, ok := ParseSpace(conf.SourceSpace); !ok {
		err = multierr.Append(err, NewInvalidSpaceError(path+".sourceSpace", conf.SourceSpace))
	}
	if _, ok := ParseSpace(conf.DestinationSpace); !ok {
		err = multierr.Append(err, NewInvalidSpaceError(path+".destinationSpace", conf.DestinationSpace))
	}
	if conf.FreezeAxes != nil && len(conf.FreezeAxes) != axes {
		err = multierr.Append(err, NewAxisMaskLengthError(path, kind, len(conf.FreezeAxes), axes))
	}
	if conf.Weight != nil && !isFinite(*conf.Weight) {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "%s: weight must be finite", path))
	}
	return err
}

// Validate checks an aim declaration.
func (conf *AimConfig) Validate(path string) error {
	err := conf.Config.validate(path, KindAim, 2)
	err = multierr.Append(err, validateVector(path+".aimVector", conf.AimVector))
	err = multierr.Append(err, validateVector(path+".upVector", conf.UpVector))
	return err
}

func validateVector(path string, v []float64) error {
	if v == nil {
		return nil
	}
	if len(v) != 3 {
		return errors.Wrapf(ErrInvalidConfig, "%s: expected 3 components, got %d", path, len(v))
	}
	for _, f := range v {
		if !isFinite(f) {
			return errors.Wrapf(ErrInvalidConfig, "%s: components must be finite", path)
		}
	}
	return nil
}

func (conf *Config) link(destination scenegraph.NodeID, nodes []scenegraph.NodeID, path string) (Link, error) {
	link := Link{
		Destination:      destination,
		Source:           scenegraph.NoNode,
		SourceSpace:      Space(conf.SourceSpace),
		DestinationSpace: Space(conf.DestinationSpace),
		Weight:           1,
	}
	if conf.Weight != nil {
		link.Weight = *conf.Weight
	}
	if conf.Source != nil {
		if *conf.Source < 0 || *conf.Source >= len(nodes) {
			return Link{}, NewNodeIndexError(path+".source", *conf.Source)
		}
		link.Source = nodes[*conf.Source]
	}
	return link, nil
}

func (conf *Config) axes() spatialmath.Axes {
	if conf.FreezeAxes == nil {
		return spatialmath.AllAxes
	}
	return spatialmath.Axes{conf.FreezeAxes[0], conf.FreezeAxes[1], conf.FreezeAxes[2]}
}

func (conf *AimConfig) axes() spatialmath.AimAxes {
	if conf.FreezeAxes == nil {
		return spatialmath.AimAxes{true, true}
	}
	return spatialmath.AimAxes{conf.FreezeAxes[0], conf.FreezeAxes[1]}
}

func vectorOrDefault(v []float64, def r3.Vector) r3.Vector {
	if v == nil {
		return def
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// NewFromConfig validates a declaration and builds its constraints for the destination node. nodes maps the
// declaration's node indices to scene graph handles. Constraints are returned in position, rotation, aim
// order.
func NewFromConfig(
	graph SceneGraph,
	destination scenegraph.NodeID,
	conf *NodeConstraintConfig,
	nodes []scenegraph.NodeID,
	logger logging.Logger,
) ([]Constraint, error) {
	path := graph.NodeName(destination)
	if err := conf.Validate(path); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewBlankLogger("constraint")
	}

	var constraints []Constraint
	if conf.Position != nil {
		link, err := conf.Position.link(destination, nodes, path+".position")
		if err != nil {
			return nil, err
		}
		link.Logger = logger.Sublogger(string(KindPosition))
		c, err := NewPosition(graph, link, conf.Position.axes())
		if err != nil {
			return nil, errors.Wrapf(err, "%s.position", path)
		}
		constraints = append(constraints, c)
	}
	if conf.Rotation != nil {
		link, err := conf.Rotation.link(destination, nodes, path+".rotation")
		if err != nil {
			return nil, err
		}
		link.Logger = logger.Sublogger(string(KindRotation))
		c, err := NewRotation(graph, link, conf.Rotation.axes())
		if err != nil {
			return nil, errors.Wrapf(err, "%s.rotation", path)
		}
		constraints = append(constraints, c)
	}
	if conf.Aim != nil {
		link, err := conf.Aim.link(destination, nodes, path+".aim")
		if err != nil {
			return nil, err
		}
		link.Logger = logger.Sublogger(string(KindAim))
		c, err := NewAim(
			graph,
			link,
			vectorOrDefault(conf.Aim.AimVector, DefaultAimVector),
			vectorOrDefault(conf.Aim.UpVector, DefaultUpVector),
			conf.Aim.axes(),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.aim", path)
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}
