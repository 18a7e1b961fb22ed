package gemini

import (
	"errors"
	"testing"

	"github.com/takaswie/flexeval/api"
	"github.com/takaswie/flexeval/registry"
)

func TestRegisterFactoryValidation(t *testing.T) {
	r := registry.New()
	if err := Register(r); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	factory, kind, err := r.Lookup("GeminiChatAPI")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if kind != registry.KindLanguageModel {
		t.Errorf("Lookup() kind = %v, want language_model", kind)
	}

	if _, err := factory(map[string]any{"api_key": "k"}); !errors.Is(err, api.ErrInvalidArguments) {
		t.Errorf("factory without model error = %v, want ErrInvalidArguments", err)
	}
	if _, err := factory(map[string]any{"model": "m", "bogus": 1}); !errors.Is(err, api.ErrInvalidArguments) {
		t.Errorf("factory with extraneous argument error = %v, want ErrInvalidArguments", err)
	}

	instance, err := factory(map[string]any{
		"model":   "gemini-2.5-flash",
		"api_key": "test-key",
	})
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	if _, ok := instance.(api.LanguageModel); !ok {
		t.Errorf("factory returned %T, want api.LanguageModel", instance)
	}
}
