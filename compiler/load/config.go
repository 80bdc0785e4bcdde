// Package load reads declarative mapping definitions from YAML. A definition
// file names the value-object types to generate, their attributes, and the
// column layout metadata the runtime descriptors are built from.
package load

import (
	"fmt"
	"io"
	"os"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"
)

// Config is the root of a mapping definition file.
type Config struct {
	// Package is the Go package name of the generated files.
	Package string `yaml:"package"`
	// Types holds the value-object definitions.
	Types []*TypeSpec `yaml:"types"`
}

// TypeSpec defines one value-object type and its structured-column layout.
type TypeSpec struct {
	// Name is the exported Go type name, e.g. "Point".
	Name string `yaml:"name"`
	// DBType is the named database struct type, e.g. "my_point_type".
	DBType string `yaml:"db_type"`
	// Table and Column default the mapping location; both may be empty for
	// types bound to a table at runtime.
	Table  string `yaml:"table,omitempty"`
	Column string `yaml:"column,omitempty"`
	// Codec selects the wire format: composite, json or binary.
	// The default is json.
	Codec string `yaml:"codec,omitempty"`
	// NullPolicy is "absent" (default) or "zero".
	NullPolicy string `yaml:"null_policy,omitempty"`
	// Constructor lists attribute names in constructor parameter order.
	// Empty means declaration order.
	Constructor []string `yaml:"constructor,omitempty"`
	// ColumnOrder lists attribute names in physical column order.
	// Empty means declaration order.
	ColumnOrder []string    `yaml:"column_order,omitempty"`
	Attributes  []*AttrSpec `yaml:"attributes"`
}

// AttrSpec defines one attribute of a value-object type.
type AttrSpec struct {
	// Name is the logical attribute name in snake_case, e.g. "zip_code".
	Name string `yaml:"name"`
	// Type is the Go scalar type of the attribute.
	Type string `yaml:"type"`
	// Nillable attributes map to pointer fields and accept NULL.
	Nillable bool `yaml:"nillable,omitempty"`
	// Column overrides the sub-column name. Defaults to the snake_case
	// attribute name.
	Column string `yaml:"column,omitempty"`
}

// KnownTypes is the scalar type set attributes may use.
var KnownTypes = map[string]bool{
	"bool": true, "string": true, "[]byte": true, "time.Time": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true,
}

// Codecs is the codec name set TypeSpec.Codec may use.
var Codecs = map[string]bool{"composite": true, "json": true, "binary": true}

// Parse reads a mapping definition from r, applies defaults and validates it.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("load: decoding config: %w", err)
	}
	if err := cfg.defaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseFile reads a mapping definition file.
func ParseFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// defaults fills in derived values: codec, null policy and column names.
func (c *Config) defaults() error {
	if c.Package == "" {
		c.Package = "model"
	}
	for _, t := range c.Types {
		if t.Codec == "" {
			t.Codec = "json"
		}
		if t.NullPolicy == "" {
			t.NullPolicy = "absent"
		}
		for _, a := range t.Attributes {
			if a.Column == "" {
				a.Column = inflect.Underscore(a.Name)
			}
		}
	}
	return nil
}

// Validate checks the definition against the descriptor rules, so mistakes
// surface at load time instead of inside generated code.
func (c *Config) Validate() error {
	names := make(map[string]bool, len(c.Types))
	dbTypes := make(map[string]bool, len(c.Types))
	for _, t := range c.Types {
		if t.Name == "" {
			return fmt.Errorf("load: type with empty name")
		}
		if t.DBType == "" {
			return fmt.Errorf("load: type %q: missing db_type", t.Name)
		}
		if names[t.Name] {
			return fmt.Errorf("load: type %q defined twice", t.Name)
		}
		if dbTypes[t.DBType] {
			return fmt.Errorf("load: db_type %q defined twice", t.DBType)
		}
		names[t.Name], dbTypes[t.DBType] = true, true
		if err := t.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t *TypeSpec) validate() error {
	if len(t.Attributes) == 0 {
		return fmt.Errorf("load: type %q has no attributes", t.Name)
	}
	if !Codecs[t.Codec] {
		return fmt.Errorf("load: type %q: unknown codec %q", t.Name, t.Codec)
	}
	if t.NullPolicy != "absent" && t.NullPolicy != "zero" {
		return fmt.Errorf("load: type %q: unknown null policy %q", t.Name, t.NullPolicy)
	}
	attrs := make(map[string]bool, len(t.Attributes))
	for _, a := range t.Attributes {
		if a.Name == "" {
			return fmt.Errorf("load: type %q: attribute with empty name", t.Name)
		}
		if attrs[a.Name] {
			return fmt.Errorf("load: type %q: attribute %q defined twice", t.Name, a.Name)
		}
		attrs[a.Name] = true
		if !KnownTypes[a.Type] {
			return fmt.Errorf("load: type %q: attribute %q has unknown type %q", t.Name, a.Name, a.Type)
		}
	}
	if err := t.checkOrder("constructor", t.Constructor, attrs); err != nil {
		return err
	}
	return t.checkOrder("column_order", t.ColumnOrder, attrs)
}

// checkOrder verifies that an order list is a permutation of the attributes.
func (t *TypeSpec) checkOrder(what string, order []string, attrs map[string]bool) error {
	if order == nil {
		return nil
	}
	if len(order) != len(t.Attributes) {
		return fmt.Errorf("load: type %q: %s names %d attributes, want %d", t.Name, what, len(order), len(t.Attributes))
	}
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if !attrs[name] {
			return fmt.Errorf("load: type %q: %s references unknown attribute %q", t.Name, what, name)
		}
		if seen[name] {
			return fmt.Errorf("load: type %q: %s references attribute %q twice", t.Name, what, name)
		}
		seen[name] = true
	}
	return nil
}

// Attribute returns the attribute definition with the given name.
func (t *TypeSpec) Attribute(name string) (*AttrSpec, bool) {
	for _, a := range t.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}
