// Package template implements the strict prompt templating engine used to
// build evaluator inputs.
//
// The syntax is the familiar brace style: {{ expr }} interpolation,
// {% if %}/{% elif %}/{% else %}/{% endif %} conditionals, {% for %} loops
// and whitespace-control trim markers ({{-, -}}, {%-, -%}). Expressions
// support dotted and indexed access into the context, a length property on
// sequences and strings, comparisons, and not/and/or.
//
// Rendering is strict: referencing a path that does not exist in the
// context fails with *RenderError rather than substituting an empty value.
package template

import (
	"fmt"
	"strings"

	"github.com/takaswie/flexeval/api"
	"github.com/takaswie/flexeval/config"
	"github.com/takaswie/flexeval/registry"
)

// Template is a parsed prompt template. It is immutable and safe for
// concurrent Render calls.
type Template struct {
	src   string
	nodes []node
}

// New parses a template. Syntax errors surface here, at construction time.
func New(src string) (*Template, error) {
	segs, err := lexSegments(src)
	if err != nil {
		return nil, err
	}
	nodes, err := parseTemplate(segs)
	if err != nil {
		return nil, err
	}
	return &Template{src: src, nodes: nodes}, nil
}

// MustNew is New that panics on parse errors, for template literals.
func MustNew(src string) *Template {
	t, err := New(src)
	if err != nil {
		panic(err)
	}
	return t
}

// Render evaluates the template against the context. Same template and
// same context always produce byte-identical output.
func (t *Template) Render(context map[string]any) (string, error) {
	var b strings.Builder
	env := newEnvironment(context)
	if err := renderNodes(t.nodes, &b, env); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Source returns the original template text.
func (t *Template) Source() string { return t.src }

var _ api.PromptTemplate = (*Template)(nil)

// Options are the recognized init_args of the template component.
type Options struct {
	Template string `config:"template"`
}

// Register adds the template component to a registry under the class name
// the config schema uses.
func Register(r *registry.Registry) error {
	return r.Register("Jinja2PromptTemplate", registry.KindPromptTemplate, func(args map[string]any) (any, error) {
		var opts Options
		if err := config.DecodeArgs(args, &opts); err != nil {
			return nil, err
		}
		if opts.Template == "" {
			return nil, fmt.Errorf("%w: template is required", api.ErrInvalidArguments)
		}
		return New(opts.Template)
	})
}
