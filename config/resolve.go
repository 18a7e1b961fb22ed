package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/takaswie/flexeval/api"
	"github.com/takaswie/flexeval/registry"
)

// Resolver instantiates component specs against a registry.
//
// Resolution is depth-first and deterministic: nested specs are resolved
// before their parent's factory runs, and each call produces fresh objects.
// A Resolver holds no mutable state, so one instance may serve concurrent
// callers.
type Resolver struct {
	registry *registry.Registry
}

// NewResolver returns a resolver backed by the given registry.
func NewResolver(r *registry.Registry) *Resolver {
	return &Resolver{registry: r}
}

// Resolve turns a component spec into a live object.
//
// It fails with api.ErrUnknownType when the class_path is unregistered and
// with api.ErrInvalidArguments when the factory rejects the argument shape.
// Construction errors abort resolution; no partially built graph escapes.
func (r *Resolver) Resolve(spec *Spec) (any, error) {
	if spec == nil {
		return nil, fmt.Errorf("config: nil spec")
	}
	factory, _, err := r.registry.Lookup(spec.ClassPath)
	if err != nil {
		return nil, err
	}
	args := make(map[string]any, len(spec.InitArgs))
	for name, value := range spec.InitArgs {
		resolved, err := r.resolveValue(value)
		if err != nil {
			return nil, fmt.Errorf("resolve %s.%s: %w", spec.ClassPath, name, err)
		}
		args[name] = resolved
	}
	instance, err := factory(args)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", spec.ClassPath, err)
	}
	return instance, nil
}

func (r *Resolver) resolveValue(v Value) (any, error) {
	switch v.Kind() {
	case LiteralValue:
		return v.Literal(), nil
	case SpecValue:
		return r.Resolve(v.Spec())
	case SequenceValue:
		out := make([]any, len(v.Sequence()))
		for i, elem := range v.Sequence() {
			resolved, err := r.resolveValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case MappingValue:
		out := make(map[string]any, len(v.Mapping()))
		for k, elem := range v.Mapping() {
			resolved, err := r.resolveValue(elem)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	default:
		return nil, fmt.Errorf("config: unknown value kind %d", v.Kind())
	}
}

// DecodeArgs binds resolved init_args onto a component's option struct.
//
// Fields are matched by their "config" tag. Arguments that do not
// correspond to any declared option are rejected, so typos in a config
// surface at construction time instead of being silently ignored.
func DecodeArgs(args map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "config",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("config: build decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("%w: %v", api.ErrInvalidArguments, err)
	}
	return nil
}
