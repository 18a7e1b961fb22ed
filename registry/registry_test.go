package registry

import (
	"errors"
	"sort"
	"testing"

	"github.com/takaswie/flexeval/api"
)

func noopFactory(map[string]any) (any, error) { return struct{}{}, nil }

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	if err := r.Register("ChatLLMScore", KindMetric, noopFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	factory, kind, err := r.Lookup("ChatLLMScore")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if kind != KindMetric {
		t.Errorf("Lookup() kind = %v, want %v", kind, KindMetric)
	}
	if factory == nil {
		t.Fatal("Lookup() returned nil factory")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := New()
	if err := r.Register("X", KindMetric, noopFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("X", KindLanguageModel, noopFactory); err == nil {
		t.Error("Register() of duplicate name expected error, got none")
	}
	if err := r.Register("", KindMetric, noopFactory); err == nil {
		t.Error("Register() of empty name expected error, got none")
	}
}

func TestLookupDottedClassPath(t *testing.T) {
	r := New()
	if err := r.Register("ChatLLMScore", KindMetric, noopFactory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Configs written against the original package layout address
	// components by module path; the final segment is what counts.
	_, kind, err := r.Lookup("flexeval.metric.llm_score.ChatLLMScore")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if kind != KindMetric {
		t.Errorf("Lookup() kind = %v, want %v", kind, KindMetric)
	}
}

func TestLookupUnknown(t *testing.T) {
	r := New()
	_, _, err := r.Lookup("Nope")
	if !errors.Is(err, api.ErrUnknownType) {
		t.Errorf("Lookup() error = %v, want ErrUnknownType", err)
	}
	_, _, err = r.Lookup("some.module.Nope")
	if !errors.Is(err, api.ErrUnknownType) {
		t.Errorf("Lookup() dotted error = %v, want ErrUnknownType", err)
	}
}

func TestNames(t *testing.T) {
	r := New()
	r.MustRegister("B", KindMetric, noopFactory)
	r.MustRegister("A", KindPromptTemplate, noopFactory)

	names := r.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Errorf("Names() = %v, want [A B]", names)
	}
}

func TestMustRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegister() of duplicate expected panic")
		}
	}()
	r := New()
	r.MustRegister("X", KindMetric, noopFactory)
	r.MustRegister("X", KindMetric, noopFactory)
}
