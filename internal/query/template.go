package query

import (
	"fmt"
	"strings"
)

// The template parser builds a small tree of text and conditional nodes.
// Tags recognised: {% if EXPR %}, {% elif EXPR %}, {% else %}, {% endif %}
// and {# comment #}. Anything else inside {% %} is a parse error. The
// {{ ... }} expression form is rejected outright: value interpolation into
// SQL text is never allowed.

type node interface{}

type textNode string

type condBranch struct {
	expr expr
	body []node
}

type condNode struct {
	branches []condBranch // if / elif chain
	elseBody []node
}

type token struct {
	kind string // "text", "tag", "comment"
	body string
}

func lex(s string) ([]token, error) {
	var tokens []token
	for len(s) > 0 {
		i := strings.IndexByte(s, '{')
		if i < 0 || i == len(s)-1 {
			tokens = append(tokens, token{"text", s})
			break
		}
		switch s[i+1] {
		case '%':
			if i > 0 {
				tokens = append(tokens, token{"text", s[:i]})
			}
			end := strings.Index(s[i+2:], "%}")
			if end < 0 {
				return nil, fmt.Errorf("unterminated block tag")
			}
			tokens = append(tokens, token{"tag", strings.TrimSpace(s[i+2 : i+2+end])})
			s = s[i+2+end+2:]
		case '#':
			if i > 0 {
				tokens = append(tokens, token{"text", s[:i]})
			}
			end := strings.Index(s[i+2:], "#}")
			if end < 0 {
				return nil, fmt.Errorf("unterminated comment")
			}
			s = s[i+2+end+2:]
		case '{':
			return nil, fmt.Errorf("expression interpolation {{ ... }} is not supported")
		default:
			tokens = append(tokens, token{"text", s[:i+1]})
			s = s[i+1:]
		}
	}
	return tokens, nil
}

func parse(s string) ([]node, error) {
	tokens, err := lex(s)
	if err != nil {
		return nil, err
	}
	nodes, rest, err := parseNodes(tokens, false)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected tag %q outside any block", rest[0].body)
	}
	return nodes, nil
}

// parseNodes consumes tokens until EOF or, when inBlock is set, until an
// elif/else/endif tag, which is left for the caller.
func parseNodes(tokens []token, inBlock bool) ([]node, []token, error) {
	var nodes []node
	for len(tokens) > 0 {
		tok := tokens[0]
		if tok.kind == "text" {
			nodes = append(nodes, textNode(tok.body))
			tokens = tokens[1:]
			continue
		}

		word, rest := splitTag(tok.body)
		switch word {
		case "if":
			cond, remaining, err := parseIf(rest, tokens[1:])
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, cond)
			tokens = remaining
		case "elif", "else", "endif":
			if !inBlock {
				return nil, nil, fmt.Errorf("%q without matching if", word)
			}
			return nodes, tokens, nil
		default:
			return nil, nil, fmt.Errorf("unsupported tag %q", tok.body)
		}
	}
	if inBlock {
		return nil, nil, fmt.Errorf("missing endif")
	}
	return nodes, tokens, nil
}

func parseIf(condSrc string, tokens []token) (*condNode, []token, error) {
	first, err := parseExpr(condSrc)
	if err != nil {
		return nil, nil, err
	}
	cond := &condNode{}
	current := condBranch{expr: first}

	for {
		body, rest, err := parseNodes(tokens, true)
		if err != nil {
			return nil, nil, err
		}
		current.body = body
		cond.branches = append(cond.branches, current)

		word, arg := splitTag(rest[0].body)
		switch word {
		case "elif":
			e, err := parseExpr(arg)
			if err != nil {
				return nil, nil, err
			}
			current = condBranch{expr: e}
			tokens = rest[1:]
		case "else":
			elseBody, afterElse, err := parseNodes(rest[1:], true)
			if err != nil {
				return nil, nil, err
			}
			if w, _ := splitTag(afterElse[0].body); w != "endif" {
				return nil, nil, fmt.Errorf("expected endif after else, got %q", afterElse[0].body)
			}
			cond.elseBody = elseBody
			return cond, afterElse[1:], nil
		case "endif":
			return cond, rest[1:], nil
		}
	}
}

func splitTag(body string) (word, rest string) {
	parts := strings.SplitN(body, " ", 2)
	word = parts[0]
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return word, rest
}

func evalNodes(sb *strings.Builder, nodes []node, flags map[string]bool) {
	for _, n := range nodes {
		switch t := n.(type) {
		case textNode:
			sb.WriteString(string(t))
		case *condNode:
			taken := false
			for _, br := range t.branches {
				if br.expr.eval(flags) {
					evalNodes(sb, br.body, flags)
					taken = true
					break
				}
			}
			if !taken && t.elseBody != nil {
				evalNodes(sb, t.elseBody, flags)
			}
		}
	}
}
