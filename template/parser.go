package template

import (
	"fmt"
	"strconv"
	"strings"
)

// --- AST ---

type node interface {
	render(b *strings.Builder, env *environment) error
}

type textNode string

type outputNode struct {
	expr expr
}

type ifBranch struct {
	cond expr
	body []node
}

type ifNode struct {
	branches []ifBranch
	elseBody []node
}

type forNode struct {
	loopVar string
	seq     expr
	body    []node
}

// --- expressions ---

type expr interface {
	eval(env *environment) (any, error)
	String() string
}

type literalExpr struct{ val any }

func (e literalExpr) String() string {
	if s, ok := e.val.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(e.val)
}

type nameExpr struct{ name string }

func (e nameExpr) String() string { return e.name }

type attrExpr struct {
	base expr
	name string
}

func (e attrExpr) String() string { return e.base.String() + "." + e.name }

type indexExpr struct {
	base  expr
	index expr
}

func (e indexExpr) String() string { return e.base.String() + "[" + e.index.String() + "]" }

type cmpExpr struct {
	op    string
	left  expr
	right expr
}

func (e cmpExpr) String() string { return e.left.String() + " " + e.op + " " + e.right.String() }

type notExpr struct{ x expr }

func (e notExpr) String() string { return "not " + e.x.String() }

type boolExpr struct {
	op    string // "and" or "or"
	left  expr
	right expr
}

func (e boolExpr) String() string { return e.left.String() + " " + e.op + " " + e.right.String() }

// --- segment parser ---

type parser struct {
	segs []segment
	pos  int
}

func parseTemplate(segs []segment) ([]node, error) {
	p := &parser{segs: segs}
	nodes, term, err := p.parseUntil()
	if err != nil {
		return nil, err
	}
	if term != "" {
		return nil, fmt.Errorf("template: unexpected {%% %s %%}", term)
	}
	return nodes, nil
}

// parseUntil consumes segments until it hits one of the given block
// keywords, which it returns without consuming past the node stream.
func (p *parser) parseUntil(terminators ...string) ([]node, string, error) {
	var nodes []node
	for p.pos < len(p.segs) {
		seg := p.segs[p.pos]
		switch seg.kind {
		case segText:
			p.pos++
			if seg.text != "" {
				nodes = append(nodes, textNode(seg.text))
			}
		case segVar:
			p.pos++
			e, err := parseExpr(seg.text)
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, &outputNode{expr: e})
		case segBlock:
			keyword, rest := splitKeyword(seg.text)
			for _, t := range terminators {
				if keyword == t {
					p.pos++
					return nodes, keyword, nil
				}
			}
			switch keyword {
			case "if":
				p.pos++
				n, err := p.parseIf(rest)
				if err != nil {
					return nil, "", err
				}
				nodes = append(nodes, n)
			case "for":
				p.pos++
				n, err := p.parseFor(rest)
				if err != nil {
					return nil, "", err
				}
				nodes = append(nodes, n)
			default:
				return nil, "", fmt.Errorf("template: unknown block tag {%% %s %%} at offset %d", seg.text, seg.pos)
			}
		}
	}
	if len(terminators) > 0 {
		return nil, "", fmt.Errorf("template: missing {%% %s %%}", terminators[len(terminators)-1])
	}
	return nodes, "", nil
}

func (p *parser) parseIf(condSrc string) (node, error) {
	cond, err := parseExpr(condSrc)
	if err != nil {
		return nil, err
	}
	n := &ifNode{}
	current := ifBranch{cond: cond}
	for {
		body, term, err := p.parseUntil("elif", "else", "endif")
		if err != nil {
			return nil, err
		}
		current.body = body
		n.branches = append(n.branches, current)
		switch term {
		case "elif":
			_, rest := splitKeyword(p.segs[p.pos-1].text)
			cond, err := parseExpr(rest)
			if err != nil {
				return nil, err
			}
			current = ifBranch{cond: cond}
		case "else":
			elseBody, term, err := p.parseUntil("endif")
			if err != nil {
				return nil, err
			}
			if term != "endif" {
				return nil, fmt.Errorf("template: missing {%% endif %%}")
			}
			n.elseBody = elseBody
			return n, nil
		case "endif":
			return n, nil
		}
	}
}

func (p *parser) parseFor(header string) (node, error) {
	fields := strings.Fields(header)
	if len(fields) < 3 || fields[1] != "in" {
		return nil, fmt.Errorf("template: malformed for tag %q (want {%% for x in seq %%})", header)
	}
	seq, err := parseExpr(strings.Join(fields[2:], " "))
	if err != nil {
		return nil, err
	}
	body, term, err := p.parseUntil("endfor")
	if err != nil {
		return nil, err
	}
	if term != "endfor" {
		return nil, fmt.Errorf("template: missing {%% endfor %%}")
	}
	return &forNode{loopVar: fields[0], seq: seq, body: body}, nil
}

func splitKeyword(s string) (keyword, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// --- expression parser ---

type exprParser struct {
	toks []token
	pos  int
	src  string
}

func parseExpr(src string) (expr, error) {
	toks, err := tokenizeExpr(src)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks, src: src}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("template: trailing %q in expression %q", p.peek().text, src)
	}
	return e, nil
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) parseOr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && p.peek().text == "or" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &boolExpr{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && p.peek().text == "and" {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &boolExpr{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseNot() (expr, error) {
	if p.peek().kind == tokIdent && p.peek().text == "not" {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notExpr{x: x}, nil
	}
	return p.parseComparison()
}

func (p *exprParser) parseComparison() (expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokOp {
		switch t.text {
		case "==", "!=", "<", "<=", ">", ">=":
			p.next()
			right, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}
			return &cmpExpr{op: t.text, left: left, right: right}, nil
		}
	}
	return left, nil
}

func (p *exprParser) parsePostfix() (expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			return e, nil
		}
		switch t.text {
		case ".":
			p.next()
			name := p.next()
			if name.kind != tokIdent {
				return nil, fmt.Errorf("template: expected attribute name after '.' in %q", p.src)
			}
			e = &attrExpr{base: e, name: name.text}
		case "[":
			p.next()
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if t := p.next(); t.kind != tokOp || t.text != "]" {
				return nil, fmt.Errorf("template: missing ']' in expression %q", p.src)
			}
			e = &indexExpr{base: e, index: idx}
		default:
			return e, nil
		}
	}
}

func (p *exprParser) parsePrimary() (expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		if strings.Contains(t.text, ".") {
			f, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return nil, fmt.Errorf("template: bad number %q in %q", t.text, p.src)
			}
			return literalExpr{val: f}, nil
		}
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, fmt.Errorf("template: bad number %q in %q", t.text, p.src)
		}
		return literalExpr{val: n}, nil
	case tokString:
		return literalExpr{val: t.text}, nil
	case tokIdent:
		switch t.text {
		case "true", "True":
			return literalExpr{val: true}, nil
		case "false", "False":
			return literalExpr{val: false}, nil
		case "none", "None":
			return literalExpr{val: nil}, nil
		}
		return nameExpr{name: t.text}, nil
	case tokOp:
		if t.text == "(" {
			e, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if t := p.next(); t.kind != tokOp || t.text != ")" {
				return nil, fmt.Errorf("template: missing ')' in expression %q", p.src)
			}
			return e, nil
		}
	}
	return nil, fmt.Errorf("template: unexpected token %q in expression %q", t.text, p.src)
}
