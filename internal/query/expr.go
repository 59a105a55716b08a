package query

import (
	"fmt"
	"strings"
)

// Block conditions are a closed boolean grammar over named flags:
//
//	expr    := orExpr
//	orExpr  := andExpr ("or" andExpr)*
//	andExpr := notExpr ("and" notExpr)*
//	notExpr := "not" notExpr | primary
//	primary := ident | "true" | "false" | "(" expr ")"
//
// There is no attribute access, no indexing, no function calls and no
// literals beyond the two booleans. Unknown flags evaluate to false.

type expr interface {
	eval(flags map[string]bool) bool
}

type identExpr string

func (e identExpr) eval(flags map[string]bool) bool { return flags[string(e)] }

type litExpr bool

func (e litExpr) eval(map[string]bool) bool { return bool(e) }

type notExpr struct{ inner expr }

func (e notExpr) eval(flags map[string]bool) bool { return !e.inner.eval(flags) }

type binExpr struct {
	op   string // "and" | "or"
	l, r expr
}

func (e binExpr) eval(flags map[string]bool) bool {
	if e.op == "and" {
		return e.l.eval(flags) && e.r.eval(flags)
	}
	return e.l.eval(flags) || e.r.eval(flags)
}

type exprParser struct {
	tokens []string
	pos    int
}

func parseExpr(src string) (expr, error) {
	tokens, err := lexExpr(src)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty condition")
	}
	p := &exprParser{tokens: tokens}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected token %q in condition", p.tokens[p.pos])
	}
	return e, nil
}

func lexExpr(src string) ([]string, error) {
	var tokens []string
	src = strings.TrimSpace(src)
	for len(src) > 0 {
		switch src[0] {
		case ' ', '\t', '\n':
			src = src[1:]
		case '(', ')':
			tokens = append(tokens, string(src[0]))
			src = src[1:]
		default:
			i := 0
			for i < len(src) && isIdentChar(src[i]) {
				i++
			}
			if i == 0 {
				return nil, fmt.Errorf("invalid character %q in condition", src[0])
			}
			tokens = append(tokens, src[:i])
			src = src[i:]
		}
	}
	return tokens, nil
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *exprParser) parseOr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == "or" {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binExpr{op: "or", l: left, r: right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek() == "and" {
		p.pos++
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = binExpr{op: "and", l: left, r: right}
	}
	return left, nil
}

func (p *exprParser) parseNot() (expr, error) {
	if p.peek() == "not" {
		p.pos++
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notExpr{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (expr, error) {
	tok := p.peek()
	switch tok {
	case "":
		return nil, fmt.Errorf("unexpected end of condition")
	case "(":
		p.pos++
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return e, nil
	case ")", "and", "or", "not":
		return nil, fmt.Errorf("unexpected token %q in condition", tok)
	case "true", "True":
		p.pos++
		return litExpr(true), nil
	case "false", "False":
		p.pos++
		return litExpr(false), nil
	default:
		if !isIdent(tok) {
			return nil, fmt.Errorf("invalid identifier %q in condition", tok)
		}
		p.pos++
		return identExpr(tok), nil
	}
}

func (p *exprParser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func isIdent(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}
