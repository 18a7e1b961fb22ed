package template

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// RenderError reports a template expression that could not be evaluated
// against the supplied context. Missing paths are a hard error so malformed
// evaluation instances surface immediately instead of rendering as blanks.
type RenderError struct {
	Expr   string
	Reason string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render template: cannot evaluate %q: %s", e.Expr, e.Reason)
}

// environment is the lookup chain during a render: the caller's context at
// the bottom, one scope per enclosing for loop above it.
type environment struct {
	scopes []map[string]any
}

func newEnvironment(context map[string]any) *environment {
	return &environment{scopes: []map[string]any{context}}
}

func (env *environment) lookup(name string) (any, bool) {
	for i := len(env.scopes) - 1; i >= 0; i-- {
		if v, ok := env.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (env *environment) push(scope map[string]any) { env.scopes = append(env.scopes, scope) }
func (env *environment) pop()                      { env.scopes = env.scopes[:len(env.scopes)-1] }

// --- node rendering ---

func (n textNode) render(b *strings.Builder, _ *environment) error {
	b.WriteString(string(n))
	return nil
}

func (n *outputNode) render(b *strings.Builder, env *environment) error {
	v, err := n.expr.eval(env)
	if err != nil {
		return err
	}
	b.WriteString(stringify(v))
	return nil
}

func (n *ifNode) render(b *strings.Builder, env *environment) error {
	for _, branch := range n.branches {
		v, err := branch.cond.eval(env)
		if err != nil {
			return err
		}
		if truthy(v) {
			return renderNodes(branch.body, b, env)
		}
	}
	return renderNodes(n.elseBody, b, env)
}

func (n *forNode) render(b *strings.Builder, env *environment) error {
	v, err := n.seq.eval(env)
	if err != nil {
		return err
	}
	seq, ok := asSequence(v)
	if !ok {
		return &RenderError{Expr: n.seq.String(), Reason: fmt.Sprintf("not iterable (%T)", v)}
	}
	for _, elem := range seq {
		env.push(map[string]any{n.loopVar: elem})
		err := renderNodes(n.body, b, env)
		env.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func renderNodes(nodes []node, b *strings.Builder, env *environment) error {
	for _, n := range nodes {
		if err := n.render(b, env); err != nil {
			return err
		}
	}
	return nil
}

// --- expression evaluation ---

func (e literalExpr) eval(_ *environment) (any, error) { return e.val, nil }

func (e nameExpr) eval(env *environment) (any, error) {
	v, ok := env.lookup(e.name)
	if !ok {
		return nil, &RenderError{Expr: e.name, Reason: "not defined in context"}
	}
	return v, nil
}

func (e *attrExpr) eval(env *environment) (any, error) {
	base, err := e.base.eval(env)
	if err != nil {
		return nil, err
	}
	if m, ok := asMapping(base); ok {
		if v, found := m[e.name]; found {
			return v, nil
		}
		if e.name == "length" {
			return len(m), nil
		}
		return nil, &RenderError{Expr: e.String(), Reason: fmt.Sprintf("key %q not present", e.name)}
	}
	if e.name == "length" {
		if n, ok := lengthOf(base); ok {
			return n, nil
		}
	}
	return nil, &RenderError{Expr: e.String(), Reason: fmt.Sprintf("%T has no attribute %q", base, e.name)}
}

func (e *indexExpr) eval(env *environment) (any, error) {
	base, err := e.base.eval(env)
	if err != nil {
		return nil, err
	}
	idx, err := e.index.eval(env)
	if err != nil {
		return nil, err
	}
	switch key := idx.(type) {
	case int:
		seq, ok := asSequence(base)
		if !ok {
			return nil, &RenderError{Expr: e.String(), Reason: fmt.Sprintf("cannot index %T with an integer", base)}
		}
		if key < 0 || key >= len(seq) {
			return nil, &RenderError{Expr: e.String(), Reason: fmt.Sprintf("index %d out of range (length %d)", key, len(seq))}
		}
		return seq[key], nil
	case string:
		m, ok := asMapping(base)
		if !ok {
			return nil, &RenderError{Expr: e.String(), Reason: fmt.Sprintf("cannot index %T with a string", base)}
		}
		v, found := m[key]
		if !found {
			return nil, &RenderError{Expr: e.String(), Reason: fmt.Sprintf("key %q not present", key)}
		}
		return v, nil
	default:
		return nil, &RenderError{Expr: e.String(), Reason: fmt.Sprintf("unsupported index type %T", idx)}
	}
}

func (e *cmpExpr) eval(env *environment) (any, error) {
	left, err := e.left.eval(env)
	if err != nil {
		return nil, err
	}
	right, err := e.right.eval(env)
	if err != nil {
		return nil, err
	}
	switch e.op {
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	}
	ln, lok := asNumber(left)
	rn, rok := asNumber(right)
	if lok && rok {
		switch e.op {
		case "<":
			return ln < rn, nil
		case "<=":
			return ln <= rn, nil
		case ">":
			return ln > rn, nil
		case ">=":
			return ln >= rn, nil
		}
	}
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch e.op {
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		}
	}
	return nil, &RenderError{Expr: e.String(), Reason: fmt.Sprintf("cannot compare %T and %T", left, right)}
}

func (e notExpr) eval(env *environment) (any, error) {
	v, err := e.x.eval(env)
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

func (e *boolExpr) eval(env *environment) (any, error) {
	left, err := e.left.eval(env)
	if err != nil {
		return nil, err
	}
	if e.op == "and" {
		if !truthy(left) {
			return left, nil
		}
	} else {
		if truthy(left) {
			return left, nil
		}
	}
	return e.right.eval(env)
}

// --- value helpers ---

func asSequence(v any) ([]any, bool) {
	if seq, ok := v.([]any); ok {
		return seq, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asMapping(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func lengthOf(v any) (int, bool) {
	switch x := v.(type) {
	case string:
		return len(x), true
	case map[string]any:
		return len(x), true
	}
	if seq, ok := asSequence(v); ok {
		return len(seq), true
	}
	return 0, false
}

func looseEqual(a, b any) bool {
	if an, ok := asNumber(a); ok {
		if bn, ok := asNumber(b); ok {
			return an == bn
		}
	}
	return reflect.DeepEqual(a, b)
}

// truthy follows sequence semantics: empty strings, sequences and mappings
// are false, as are zero numbers and nil.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case map[string]any:
		return len(x) > 0
	}
	if n, ok := asNumber(v); ok {
		return n != 0
	}
	if seq, ok := asSequence(v); ok {
		return len(seq) > 0
	}
	return true
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
