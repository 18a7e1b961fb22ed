// Package config parses declarative component specifications and resolves
// them into live object graphs.
//
// A specification is a nested mapping with the reserved keys "class_path"
// and "init_args". Values inside init_args are classified once at parse
// time into a closed set of shapes (literal, sequence, mapping, nested
// spec) so the resolver never has to re-probe structure.
package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	classPathKey = "class_path"
	initArgsKey  = "init_args"
)

// ValueKind discriminates the closed set of init_args value shapes.
type ValueKind int

const (
	LiteralValue ValueKind = iota
	SequenceValue
	MappingValue
	SpecValue
)

// Value is one init_args value, classified at parse time.
// A Value is immutable once built.
type Value struct {
	kind    ValueKind
	literal any
	seq     []Value
	mapping map[string]Value
	spec    *Spec
}

// Kind reports the value's shape.
func (v Value) Kind() ValueKind { return v.kind }

// Literal returns the underlying scalar for LiteralValue values.
func (v Value) Literal() any { return v.literal }

// Sequence returns the elements of a SequenceValue.
func (v Value) Sequence() []Value { return v.seq }

// Mapping returns the entries of a MappingValue.
func (v Value) Mapping() map[string]Value { return v.mapping }

// Spec returns the nested spec of a SpecValue.
func (v Value) Spec() *Spec { return v.spec }

// Spec is a declarative description of a component to construct.
type Spec struct {
	ClassPath string
	InitArgs  map[string]Value
}

// ParseYAML decodes a YAML document into a component spec.
// The document root must be spec-shaped.
func ParseYAML(data []byte) (*Spec, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	return specFromMapping(raw)
}

// ParseJSON decodes a JSON document into a component spec.
// The document root must be spec-shaped.
func ParseJSON(data []byte) (*Spec, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse json: %w", err)
	}
	return specFromMapping(raw)
}

// FromAny classifies an arbitrary decoded value into the closed Value set.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil, bool, int, int64, float64, string:
		return Value{kind: LiteralValue, literal: normalizeScalar(x)}, nil
	case []any:
		seq := make([]Value, len(x))
		for i, elem := range x {
			ev, err := FromAny(elem)
			if err != nil {
				return Value{}, err
			}
			seq[i] = ev
		}
		return Value{kind: SequenceValue, seq: seq}, nil
	case map[string]any:
		if isSpecShaped(x) {
			spec, err := specFromMapping(x)
			if err != nil {
				return Value{}, err
			}
			return Value{kind: SpecValue, spec: spec}, nil
		}
		m := make(map[string]Value, len(x))
		for k, elem := range x {
			ev, err := FromAny(elem)
			if err != nil {
				return Value{}, err
			}
			m[k] = ev
		}
		return Value{kind: MappingValue, mapping: m}, nil
	case map[any]any:
		// Older yaml decoders produce interface-keyed maps.
		m := make(map[string]any, len(x))
		for k, elem := range x {
			ks, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("config: non-string mapping key %v", k)
			}
			m[ks] = elem
		}
		return FromAny(m)
	default:
		return Value{}, fmt.Errorf("config: unsupported value type %T", v)
	}
}

// isSpecShaped reports whether a mapping is a nested component spec: it has
// a string class_path and no keys beyond class_path/init_args. Mappings with
// extraneous keys stay plain mappings.
func isSpecShaped(m map[string]any) bool {
	cp, ok := m[classPathKey]
	if !ok {
		return false
	}
	if _, isString := cp.(string); !isString {
		return false
	}
	for k := range m {
		if k != classPathKey && k != initArgsKey {
			return false
		}
	}
	return true
}

func specFromMapping(m map[string]any) (*Spec, error) {
	if !isSpecShaped(m) {
		return nil, fmt.Errorf("config: mapping is not a component spec (want %q and optional %q)", classPathKey, initArgsKey)
	}
	spec := &Spec{
		ClassPath: m[classPathKey].(string),
		InitArgs:  make(map[string]Value),
	}
	rawArgs, ok := m[initArgsKey]
	if !ok || rawArgs == nil {
		return spec, nil
	}
	args, ok := rawArgs.(map[string]any)
	if !ok {
		if iargs, isIface := rawArgs.(map[any]any); isIface {
			args = make(map[string]any, len(iargs))
			for k, v := range iargs {
				ks, isString := k.(string)
				if !isString {
					return nil, fmt.Errorf("config: non-string init_args key %v in %q", k, spec.ClassPath)
				}
				args[ks] = v
			}
		} else {
			return nil, fmt.Errorf("config: init_args of %q must be a mapping, got %T", spec.ClassPath, rawArgs)
		}
	}
	for name, raw := range args {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("config: argument %q of %q: %w", name, spec.ClassPath, err)
		}
		spec.InitArgs[name] = v
	}
	return spec, nil
}

// normalizeScalar folds integral numeric types so downstream binding sees a
// consistent scalar domain regardless of the source config language.
func normalizeScalar(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case float64:
		if x == float64(int(x)) {
			return int(x)
		}
		return x
	default:
		return v
	}
}
