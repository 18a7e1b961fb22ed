package template

import (
	"fmt"
	"strings"
	"unicode"
)

type segmentKind int

const (
	segText segmentKind = iota
	segVar              // {{ expr }}
	segBlock            // {% keyword ... %}
)

// segment is one lexed slice of the template source. Tag segments carry
// their inner content with the delimiters and trim markers stripped.
type segment struct {
	kind      segmentKind
	text      string
	trimLeft  bool
	trimRight bool
	pos       int // byte offset in the source, for error messages
}

// lexSegments splits the source into text and tag segments and applies
// whitespace-control trimming to the adjacent text.
func lexSegments(src string) ([]segment, error) {
	var segs []segment
	rest := src
	offset := 0
	for {
		iVar := strings.Index(rest, "{{")
		iBlock := strings.Index(rest, "{%")
		start := -1
		var open string
		switch {
		case iVar >= 0 && (iBlock < 0 || iVar < iBlock):
			start, open = iVar, "{{"
		case iBlock >= 0:
			start, open = iBlock, "{%"
		}
		if start < 0 {
			if rest != "" {
				segs = append(segs, segment{kind: segText, text: rest, pos: offset})
			}
			break
		}
		if start > 0 {
			segs = append(segs, segment{kind: segText, text: rest[:start], pos: offset})
		}
		close := "}}"
		kind := segVar
		if open == "{%" {
			close = "%}"
			kind = segBlock
		}
		end := strings.Index(rest[start+2:], close)
		if end < 0 {
			return nil, fmt.Errorf("template: unterminated %q tag at offset %d", open, offset+start)
		}
		inner := rest[start+2 : start+2+end]
		seg := segment{kind: kind, pos: offset + start}
		if strings.HasPrefix(inner, "-") {
			seg.trimLeft = true
			inner = inner[1:]
		}
		if strings.HasSuffix(inner, "-") {
			seg.trimRight = true
			inner = inner[:len(inner)-1]
		}
		seg.text = strings.TrimSpace(inner)
		segs = append(segs, seg)
		consumed := start + 2 + end + 2
		rest = rest[consumed:]
		offset += consumed
	}
	applyTrim(segs)
	return segs, nil
}

// applyTrim removes whitespace around tags carrying trim markers.
func applyTrim(segs []segment) {
	for i := range segs {
		if segs[i].kind == segText {
			continue
		}
		if segs[i].trimLeft && i > 0 && segs[i-1].kind == segText {
			segs[i-1].text = strings.TrimRightFunc(segs[i-1].text, unicode.IsSpace)
		}
		if segs[i].trimRight && i+1 < len(segs) && segs[i+1].kind == segText {
			segs[i+1].text = strings.TrimLeftFunc(segs[i+1].text, unicode.IsSpace)
		}
	}
}

// tokenKind enumerates expression tokens.
type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokOp
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

// tokenizeExpr splits a tag's expression text into tokens.
func tokenizeExpr(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '.' || c == '[' || c == ']' || c == '(' || c == ')':
			toks = append(toks, token{tokOp, string(c)})
			i++
		case c == '=' || c == '!':
			if i+1 >= len(src) || src[i+1] != '=' {
				return nil, fmt.Errorf("template: unexpected %q in expression %q", string(c), src)
			}
			toks = append(toks, token{tokOp, src[i : i+2]})
			i += 2
		case c == '<' || c == '>':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{tokOp, src[i : i+2]})
				i += 2
			} else {
				toks = append(toks, token{tokOp, string(c)})
				i++
			}
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(src) && src[j] != c {
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("template: unterminated string in expression %q", src)
			}
			toks = append(toks, token{tokString, src[i+1 : j]})
			i = j + 1
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j]})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("template: unexpected character %q in expression %q", string(c), src)
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
