package config

import (
	"errors"
	"fmt"
	"testing"

	"github.com/takaswie/flexeval/api"
	"github.com/takaswie/flexeval/registry"
)

type fakeModel struct {
	model string
}

type fakeMetric struct {
	model     *fakeModel
	threshold float64
	labels    []any
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.MustRegister("FakeModel", registry.KindLanguageModel, func(args map[string]any) (any, error) {
		model, ok := args["model"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: model is required", api.ErrInvalidArguments)
		}
		return &fakeModel{model: model}, nil
	})
	r.MustRegister("FakeMetric", registry.KindMetric, func(args map[string]any) (any, error) {
		m := &fakeMetric{}
		if v, ok := args["language_model"]; ok {
			fm, ok := v.(*fakeModel)
			if !ok {
				return nil, fmt.Errorf("%w: language_model must be a model, got %T", api.ErrInvalidArguments, v)
			}
			m.model = fm
		}
		if v, ok := args["threshold"]; ok {
			m.threshold = v.(float64)
		}
		if v, ok := args["labels"]; ok {
			m.labels = v.([]any)
		}
		return m, nil
	})
	return r
}

func TestResolveNestedGraph(t *testing.T) {
	spec, err := ParseYAML([]byte(`
class_path: FakeMetric
init_args:
  language_model:
    class_path: FakeModel
    init_args:
      model: judge-1
  threshold: 0.25
  labels: [good, bad]
`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	resolver := NewResolver(testRegistry(t))
	instance, err := resolver.Resolve(spec)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	metric, ok := instance.(*fakeMetric)
	if !ok {
		t.Fatalf("Resolve() returned %T, want *fakeMetric", instance)
	}
	if metric.model == nil || metric.model.model != "judge-1" {
		t.Errorf("nested model = %#v, want judge-1", metric.model)
	}
	if metric.threshold != 0.25 {
		t.Errorf("threshold = %v, want 0.25", metric.threshold)
	}
	if len(metric.labels) != 2 || metric.labels[0] != "good" {
		t.Errorf("labels = %#v", metric.labels)
	}
}

func TestResolveIdempotent(t *testing.T) {
	spec, err := ParseYAML([]byte(`
class_path: FakeModel
init_args:
  model: judge-1
`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	resolver := NewResolver(testRegistry(t))
	first, err := resolver.Resolve(spec)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := resolver.Resolve(spec)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if first == second {
		t.Error("Resolve() returned the same instance twice, want fresh objects")
	}
	if first.(*fakeModel).model != second.(*fakeModel).model {
		t.Error("Resolve() produced differing objects from the same spec")
	}
}

func TestResolveUnknownType(t *testing.T) {
	spec := &Spec{ClassPath: "NoSuchComponent"}
	_, err := NewResolver(testRegistry(t)).Resolve(spec)
	if !errors.Is(err, api.ErrUnknownType) {
		t.Errorf("Resolve() error = %v, want ErrUnknownType", err)
	}
}

func TestResolveNestedFactoryFailureAborts(t *testing.T) {
	spec, err := ParseYAML([]byte(`
class_path: FakeMetric
init_args:
  language_model:
    class_path: FakeModel
    init_args:
      model: 42
`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	_, err = NewResolver(testRegistry(t)).Resolve(spec)
	if !errors.Is(err, api.ErrInvalidArguments) {
		t.Errorf("Resolve() error = %v, want ErrInvalidArguments from nested factory", err)
	}
}

func TestDecodeArgs(t *testing.T) {
	type options struct {
		Model    string `config:"model"`
		MaxTries int    `config:"max_tries"`
	}

	var opts options
	err := DecodeArgs(map[string]any{"model": "m", "max_tries": 5}, &opts)
	if err != nil {
		t.Fatalf("DecodeArgs() error = %v", err)
	}
	if opts.Model != "m" || opts.MaxTries != 5 {
		t.Errorf("DecodeArgs() = %+v", opts)
	}

	err = DecodeArgs(map[string]any{"model": "m", "typo_field": 1}, &options{})
	if !errors.Is(err, api.ErrInvalidArguments) {
		t.Errorf("DecodeArgs() with extraneous key error = %v, want ErrInvalidArguments", err)
	}
}

func TestDecodeArgsInterfaceField(t *testing.T) {
	type options struct {
		LanguageModel api.LanguageModel `config:"language_model"`
	}

	var opts options
	err := DecodeArgs(map[string]any{"language_model": "not a model"}, &opts)
	if !errors.Is(err, api.ErrInvalidArguments) {
		t.Errorf("DecodeArgs() with string for interface field error = %v, want ErrInvalidArguments", err)
	}
}
