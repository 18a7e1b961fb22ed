package config

import (
	"testing"
)

const nestedYAML = `
class_path: ChatLLMScore
init_args:
  language_model:
    class_path: OpenAIChatAPI
    init_args:
      model: gpt-4o-mini
  prompt_template:
    class_path: Jinja2PromptTemplate
    init_args:
      template: "Rate: {{ lm_output }}"
  valid_score_range: [1, 10]
  system_message: You are a judge.
`

func TestParseYAML(t *testing.T) {
	spec, err := ParseYAML([]byte(nestedYAML))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if spec.ClassPath != "ChatLLMScore" {
		t.Errorf("ClassPath = %q, want %q", spec.ClassPath, "ChatLLMScore")
	}
	if len(spec.InitArgs) != 4 {
		t.Fatalf("len(InitArgs) = %d, want 4", len(spec.InitArgs))
	}

	lm := spec.InitArgs["language_model"]
	if lm.Kind() != SpecValue {
		t.Fatalf("language_model kind = %v, want SpecValue", lm.Kind())
	}
	if lm.Spec().ClassPath != "OpenAIChatAPI" {
		t.Errorf("language_model class path = %q", lm.Spec().ClassPath)
	}
	model := lm.Spec().InitArgs["model"]
	if model.Kind() != LiteralValue || model.Literal() != "gpt-4o-mini" {
		t.Errorf("nested model arg = %#v", model)
	}

	rng := spec.InitArgs["valid_score_range"]
	if rng.Kind() != SequenceValue {
		t.Fatalf("valid_score_range kind = %v, want SequenceValue", rng.Kind())
	}
	elems := rng.Sequence()
	if len(elems) != 2 || elems[0].Literal() != 1 || elems[1].Literal() != 10 {
		t.Errorf("valid_score_range = %#v, want [1 10] as ints", elems)
	}

	sys := spec.InitArgs["system_message"]
	if sys.Kind() != LiteralValue || sys.Literal() != "You are a judge." {
		t.Errorf("system_message = %#v", sys)
	}
}

func TestParseJSONNormalizesIntegralNumbers(t *testing.T) {
	spec, err := ParseJSON([]byte(`{
		"class_path": "LLMScore",
		"init_args": {"valid_score_range": [0, 5], "threshold": 0.5}
	}`))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	elems := spec.InitArgs["valid_score_range"].Sequence()
	if elems[0].Literal() != 0 || elems[1].Literal() != 5 {
		t.Errorf("bounds = %#v %#v, want ints 0 and 5", elems[0].Literal(), elems[1].Literal())
	}
	if spec.InitArgs["threshold"].Literal() != 0.5 {
		t.Errorf("threshold = %#v, want float 0.5", spec.InitArgs["threshold"].Literal())
	}
}

func TestSpecShapedDetection(t *testing.T) {
	tests := []struct {
		name     string
		value    map[string]any
		wantKind ValueKind
	}{
		{
			name:     "class_path only",
			value:    map[string]any{"class_path": "X"},
			wantKind: SpecValue,
		},
		{
			name:     "class_path with init_args",
			value:    map[string]any{"class_path": "X", "init_args": map[string]any{"a": 1}},
			wantKind: SpecValue,
		},
		{
			name:     "extraneous sibling key stays a mapping",
			value:    map[string]any{"class_path": "X", "extra": true},
			wantKind: MappingValue,
		},
		{
			name:     "non-string class_path stays a mapping",
			value:    map[string]any{"class_path": 7},
			wantKind: MappingValue,
		},
		{
			name:     "plain mapping",
			value:    map[string]any{"a": 1, "b": 2},
			wantKind: MappingValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromAny(tt.value)
			if err != nil {
				t.Fatalf("FromAny() error = %v", err)
			}
			if v.Kind() != tt.wantKind {
				t.Errorf("FromAny() kind = %v, want %v", v.Kind(), tt.wantKind)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing class_path", yaml: "init_args: {a: 1}"},
		{name: "extraneous root key", yaml: "class_path: X\nother: 1"},
		{name: "init_args not a mapping", yaml: "class_path: X\ninit_args: [1, 2]"},
		{name: "invalid yaml", yaml: "class_path: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tt.yaml)); err == nil {
				t.Errorf("ParseYAML(%q) expected error, got none", tt.yaml)
			}
		})
	}
}
