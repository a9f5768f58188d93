package visibility

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Scope is what a rule is evaluated against. Identifiers resolve against
// Values ("owner.name", "tags.0"); identifiers starting with "extras."
// resolve against Extras.
type Scope struct {
	Values any
	Extras map[string]any
}

// Rule is a compiled visibility expression.
//
// Grammar: identifiers are truthy checks; comparisons use ==, !=, <, <=, >
// and >= against string, number, boolean or null literals; terms combine
// with !, && and || and group with parentheses.
type Rule struct {
	source string
	root   node
}

// Compile parses rule. A blank rule compiles to one that is always true.
func Compile(rule string) (*Rule, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return &Rule{}, nil
	}
	tokens, err := lex(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("visibility: unexpected %q in %q", p.tokens[p.pos].text, trimmed)
	}
	return &Rule{source: trimmed, root: root}, nil
}

// String returns the rule source.
func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	return r.source
}

// Eval reports whether the rule holds for scope.
func (r *Rule) Eval(scope Scope) bool {
	if r == nil || r.root == nil {
		return true
	}
	return r.root.eval(scope)
}

type kind int

const (
	kIdent kind = iota
	kString
	kNumber
	kBool
	kNull
	kOp
	kNot
	kAnd
	kOr
	kLParen
	kRParen
)

type token struct {
	kind kind
	text string
}

const delimiters = " \t\r\n()!=<>&|"

func lex(input string) ([]token, error) {
	var out []token
	for i := 0; i < len(input); {
		ch := input[i]
		two := ""
		if i+1 < len(input) {
			two = input[i : i+2]
		}
		switch {
		case strings.IndexByte(" \t\r\n", ch) >= 0:
			i++
		case ch == '(':
			out = append(out, token{kLParen, "("})
			i++
		case ch == ')':
			out = append(out, token{kRParen, ")"})
			i++
		case two == "==" || two == "!=" || two == "<=" || two == ">=":
			out = append(out, token{kOp, two})
			i += 2
		case ch == '<' || ch == '>':
			out = append(out, token{kOp, string(ch)})
			i++
		case ch == '!':
			out = append(out, token{kNot, "!"})
			i++
		case two == "&&":
			out = append(out, token{kAnd, two})
			i += 2
		case two == "||":
			out = append(out, token{kOr, two})
			i += 2
		case ch == '=' || ch == '&' || ch == '|':
			return nil, fmt.Errorf("visibility: unexpected %q at offset %d", ch, i)
		case ch == '"' || ch == '\'':
			end := i + 1
			for end < len(input) && input[end] != ch {
				if input[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(input) {
				return nil, errors.New("visibility: unterminated string literal")
			}
			literal := input[i+1 : end]
			if ch == '\'' {
				literal = strings.ReplaceAll(literal, `\'`, `'`)
				literal = strings.ReplaceAll(literal, `"`, `\"`)
			}
			text, err := strconv.Unquote(`"` + literal + `"`)
			if err != nil {
				return nil, fmt.Errorf("visibility: invalid string literal: %w", err)
			}
			out = append(out, token{kString, text})
			i = end + 1
		default:
			end := i
			for end < len(input) && strings.IndexByte(delimiters, input[end]) < 0 {
				end++
			}
			word := input[i:end]
			i = end
			switch lower := strings.ToLower(word); {
			case lower == "true" || lower == "false":
				out = append(out, token{kBool, lower})
			case lower == "null" || lower == "nil":
				out = append(out, token{kNull, "null"})
			case isNumber(word):
				out = append(out, token{kNumber, word})
			default:
				out = append(out, token{kIdent, word})
			}
		}
	}
	return out, nil
}

func isNumber(word string) bool {
	if word == "" || strings.IndexByte("0123456789+-.", word[0]) < 0 {
		return false
	}
	_, err := strconv.ParseFloat(word, 64)
	return err == nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek(k kind) bool {
	return p.pos < len(p.tokens) && p.tokens[p.pos].kind == k
}

func (p *parser) take(k kind) (token, bool) {
	if !p.peek(k) {
		return token{}, false
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, true
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.take(kOr); !ok {
			return left, nil
		}
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.take(kAnd); !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
}

func (p *parser) unary() (node, error) {
	if _, ok := p.take(kNot); ok {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if _, ok := p.take(kLParen); ok {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, ok := p.take(kRParen); !ok {
			return nil, errors.New("visibility: missing closing ')'")
		}
		return inner, nil
	}
	ident, ok := p.take(kIdent)
	if !ok {
		if p.pos >= len(p.tokens) {
			return nil, errors.New("visibility: incomplete expression")
		}
		return nil, fmt.Errorf("visibility: expected identifier, got %q", p.tokens[p.pos].text)
	}
	op, ok := p.take(kOp)
	if !ok {
		return truthyNode{ident.text}, nil
	}
	if p.pos >= len(p.tokens) {
		return nil, fmt.Errorf("visibility: missing value after %q", op.text)
	}
	lit := p.tokens[p.pos]
	p.pos++
	switch lit.kind {
	case kString, kNumber, kBool, kNull:
	case kIdent:
		// Bare words compare as strings.
		lit.kind = kString
	default:
		return nil, fmt.Errorf("visibility: expected value after %q, got %q", op.text, lit.text)
	}
	if (op.text != "==" && op.text != "!=") && lit.kind != kNumber {
		return nil, fmt.Errorf("visibility: %q needs a number", op.text)
	}
	return compareNode{ident: ident.text, op: op.text, lit: lit}, nil
}

type node interface {
	eval(Scope) bool
}

type orNode struct{ left, right node }

func (n orNode) eval(s Scope) bool { return n.left.eval(s) || n.right.eval(s) }

type andNode struct{ left, right node }

func (n andNode) eval(s Scope) bool { return n.left.eval(s) && n.right.eval(s) }

type notNode struct{ inner node }

func (n notNode) eval(s Scope) bool { return !n.inner.eval(s) }

type truthyNode struct{ ident string }

func (n truthyNode) eval(s Scope) bool {
	value, _ := resolve(s, n.ident)
	return truthy(value)
}

type compareNode struct {
	ident string
	op    string
	lit   token
}

func (n compareNode) eval(s Scope) bool {
	value, _ := resolve(s, n.ident)
	var equal bool
	switch n.lit.kind {
	case kNull:
		equal = value == nil
	case kBool:
		equal = truthy(value) == (n.lit.text == "true")
	case kString:
		equal = value != nil && fmt.Sprint(value) == n.lit.text
	case kNumber:
		want, _ := strconv.ParseFloat(n.lit.text, 64)
		got, ok := number(value)
		if !ok {
			return n.op == "!="
		}
		switch n.op {
		case "<":
			return got < want
		case "<=":
			return got <= want
		case ">":
			return got > want
		case ">=":
			return got >= want
		}
		equal = got == want
	}
	if n.op == "!=" {
		return !equal
	}
	return equal
}

func resolve(s Scope, ident string) (any, bool) {
	if rest, ok := strings.CutPrefix(ident, "extras."); ok {
		value, found := s.Extras[rest]
		if found {
			return value, true
		}
		return schema.ValueAt(toAny(s.Extras), strings.Split(rest, "."))
	}
	return schema.ValueAt(s.Values, strings.Split(ident, "."))
}

func toAny(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := number(value); ok {
		return n != 0
	}
	return true
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
