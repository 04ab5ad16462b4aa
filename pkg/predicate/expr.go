package predicate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Expression is a compiled filter expression.
//
// Supported syntax:
//   - truthy checks: `archived`
//   - comparisons: `status == "open"`, `level != 3`, `flag == true`, `x == null`
//   - composition: `a && !b`, `(a || b) && c`
//
// Identifiers name filters. A filter is truthy when it is set to anything
// other than "", "0" or "false".
type Expression struct {
	source string
	root   node
}

// Compile parses expr once. An empty expression always allows.
func Compile(expr string) (*Expression, error) {
	trimmed := strings.TrimSpace(expr)
	out := &Expression{source: trimmed}
	if trimmed == "" {
		return out, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return out, nil
	}
	root, err := parse(tokens)
	if err != nil {
		return nil, err
	}
	out.root = root
	return out, nil
}

// MustCompile is like Compile but panics on a parse error.
func MustCompile(expr string) *Expression {
	out, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return out
}

// String returns the source expression.
func (e *Expression) String() string { return e.source }

// Allow implements Predicate.
func (e *Expression) Allow(filters map[string]string) (bool, error) {
	if e == nil || e.root == nil {
		return true, nil
	}
	return e.root.eval(filters)
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isBoundary(c byte) bool {
	return isSpace(c) || c == '(' || c == ')' || c == '!' || c == '=' || c == '&' || c == '|'
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		ch := input[i]
		if isSpace(ch) {
			i++
			continue
		}
		pair := ""
		if i+1 < len(input) {
			pair = input[i : i+2]
		}
		switch {
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case pair == "!=":
			tokens = append(tokens, token{kind: tokenNeq, raw: pair})
			i += 2
		case ch == '!':
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			i++
		case pair == "==":
			tokens = append(tokens, token{kind: tokenEq, raw: pair})
			i += 2
		case pair == "&&":
			tokens = append(tokens, token{kind: tokenAnd, raw: pair})
			i += 2
		case pair == "||":
			tokens = append(tokens, token{kind: tokenOr, raw: pair})
			i += 2
		case ch == '=' || ch == '&' || ch == '|':
			return nil, fmt.Errorf("predicate: unexpected %q at offset %d", ch, i)
		case ch == '"' || ch == '\'':
			value, next, err := readString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, raw: value})
			i = next
		default:
			start := i
			for i < len(input) && !isBoundary(input[i]) {
				i++
			}
			tokens = append(tokens, word(input[start:i]))
		}
	}
	return tokens, nil
}

func readString(input string, start int) (string, int, error) {
	quote := input[start]
	var b strings.Builder
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		if c == '\\' && i+1 < len(input) {
			i++
			b.WriteByte(input[i])
			continue
		}
		if c == quote {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
	}
	return "", 0, errors.New("predicate: unterminated string literal")
}

func word(raw string) token {
	switch strings.ToLower(raw) {
	case "true", "false":
		return token{kind: tokenBool, raw: strings.ToLower(raw)}
	case "null", "nil":
		return token{kind: tokenNull, raw: "null"}
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return token{kind: tokenNumber, raw: raw}
	}
	return token{kind: tokenIdentifier, raw: raw}
}

type node interface {
	eval(filters map[string]string) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(filters map[string]string) (bool, error) {
	ok, err := n.left.eval(filters)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(filters)
}

type andNode struct{ left, right node }

func (n andNode) eval(filters map[string]string) (bool, error) {
	ok, err := n.left.eval(filters)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(filters)
}

type notNode struct{ inner node }

func (n notNode) eval(filters map[string]string) (bool, error) {
	ok, err := n.inner.eval(filters)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type truthyNode struct{ name string }

func (n truthyNode) eval(filters map[string]string) (bool, error) {
	return truthy(filters[n.name]), nil
}

type compareNode struct {
	name    string
	negate  bool
	literal token
}

func (n compareNode) eval(filters map[string]string) (bool, error) {
	value, present := filters[n.name]
	var equal bool
	switch n.literal.kind {
	case tokenNull:
		equal = !present || value == ""
	case tokenBool:
		equal = truthy(value) == (n.literal.raw == "true")
	case tokenNumber:
		want, _ := strconv.ParseFloat(n.literal.raw, 64)
		got, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		equal = err == nil && got == want
	default:
		equal = present && value == n.literal.raw
	}
	if n.negate {
		return !equal, nil
	}
	return equal, nil
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false":
		return false
	}
	return true
}

type stream struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (node, error) {
	s := &stream{tokens: tokens}
	root, err := s.or()
	if err != nil {
		return nil, err
	}
	if s.pos < len(s.tokens) {
		return nil, fmt.Errorf("predicate: unexpected token %q", s.tokens[s.pos].raw)
	}
	return root, nil
}

func (s *stream) match(kind tokenKind) bool {
	if s.pos < len(s.tokens) && s.tokens[s.pos].kind == kind {
		s.pos++
		return true
	}
	return false
}

func (s *stream) or() (node, error) {
	left, err := s.and()
	if err != nil {
		return nil, err
	}
	for s.match(tokenOr) {
		right, err := s.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (s *stream) and() (node, error) {
	left, err := s.unary()
	if err != nil {
		return nil, err
	}
	for s.match(tokenAnd) {
		right, err := s.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (s *stream) unary() (node, error) {
	if s.match(tokenNot) {
		inner, err := s.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return s.primary()
}

func (s *stream) primary() (node, error) {
	if s.match(tokenLParen) {
		inner, err := s.or()
		if err != nil {
			return nil, err
		}
		if !s.match(tokenRParen) {
			return nil, errors.New("predicate: missing closing ')'")
		}
		return inner, nil
	}
	if s.pos >= len(s.tokens) {
		return nil, errors.New("predicate: unexpected end of expression")
	}
	tok := s.tokens[s.pos]
	if tok.kind != tokenIdentifier {
		return nil, fmt.Errorf("predicate: expected filter name, got %q", tok.raw)
	}
	s.pos++

	negate := false
	switch {
	case s.match(tokenEq):
	case s.match(tokenNeq):
		negate = true
	default:
		return truthyNode{name: tok.raw}, nil
	}
	if s.pos >= len(s.tokens) {
		return nil, errors.New("predicate: missing literal")
	}
	lit := s.tokens[s.pos]
	s.pos++
	switch lit.kind {
	case tokenString, tokenNumber, tokenBool, tokenNull:
	case tokenIdentifier:
		lit.kind = tokenString
	default:
		return nil, fmt.Errorf("predicate: expected literal, got %q", lit.raw)
	}
	return compareNode{name: tok.raw, negate: negate, literal: lit}, nil
}
