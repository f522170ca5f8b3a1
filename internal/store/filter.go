package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/resource"
)

// A filter is a small predicate language over the field names of a
// projection:
//
//	expr    := or
//	or      := and { OR and }
//	and     := unary { AND unary }
//	unary   := NOT unary | primary
//	primary := "(" expr ")"
//	         | field op operand
//	         | field IS [NOT] NULL
//	         | field IN "(" operand { "," operand } ")"
//	op      := = | != | <> | < | <= | > | >=  | LIKE
//	operand := ? | integer | 'string'
//
// Field names are rewritten to their source columns and every operand,
// literal or placeholder, becomes a bound argument. The compiled SQL never
// contains caller text.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPlaceholder
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		case c == '?':
			toks = append(toks, token{kind: tokPlaceholder, text: "?", pos: i})
			i++
		case c == '=':
			toks = append(toks, token{kind: tokOp, text: "=", pos: i})
			i++
		case c == '!' || c == '<' || c == '>':
			start := i
			i++
			if i < len(src) && (src[i] == '=' || (c == '<' && src[i] == '>')) {
				i++
			}
			op := src[start:i]
			if op == "!" {
				return nil, fmt.Errorf("unexpected %q at %d", op, start)
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: start})
		case c == '\'':
			start := i
			i++
			var sb strings.Builder
			closed := false
			for i < len(src) {
				if src[i] == '\'' {
					// '' is an escaped quote.
					if i+1 < len(src) && src[i+1] == '\'' {
						sb.WriteByte('\'')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				sb.WriteByte(src[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string at %d", start)
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), pos: start})
		case c == '-' || (c >= '0' && c <= '9'):
			start := i
			i++
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			if src[start:i] == "-" {
				return nil, fmt.Errorf("unexpected %q at %d", "-", start)
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			return nil, fmt.Errorf("unexpected %q at %d", string(c), i)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

type filterParser struct {
	toks    []token
	pos     int
	proj    *resource.Projection
	args    []any
	nextArg int
	out     strings.Builder
	bound   []any
}

// compileFilter turns a caller filter into a SQL predicate and its bound
// arguments. An empty filter compiles to "" and requires no arguments.
func compileFilter(filter string, args []any, proj *resource.Projection) (string, []any, error) {
	if strings.TrimSpace(filter) == "" {
		if len(args) > 0 {
			return "", nil, fmt.Errorf("store: %w: %d arguments for empty filter", apperr.ErrInvalidFilter, len(args))
		}
		return "", nil, nil
	}
	toks, err := tokenize(filter)
	if err != nil {
		return "", nil, fmt.Errorf("store: %w: %v", apperr.ErrInvalidFilter, err)
	}
	p := &filterParser{toks: toks, proj: proj, args: args}
	if err := p.parseOr(); err != nil {
		return "", nil, fmt.Errorf("store: %w: %v", apperr.ErrInvalidFilter, err)
	}
	if t := p.peek(); t.kind != tokEOF {
		return "", nil, fmt.Errorf("store: %w: unexpected %q at %d", apperr.ErrInvalidFilter, t.text, t.pos)
	}
	if p.nextArg != len(args) {
		return "", nil, fmt.Errorf("store: %w: filter has %d placeholders, got %d arguments",
			apperr.ErrInvalidFilter, p.nextArg, len(args))
	}
	return p.out.String(), p.bound, nil
}

func (p *filterParser) peek() token { return p.toks[p.pos] }

func (p *filterParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *filterParser) keyword(word string) bool {
	t := p.peek()
	if t.kind == tokIdent && strings.EqualFold(t.text, word) {
		p.pos++
		return true
	}
	return false
}

func (p *filterParser) parseOr() error {
	if err := p.parseAnd(); err != nil {
		return err
	}
	for p.keyword("OR") {
		p.out.WriteString(" OR ")
		if err := p.parseAnd(); err != nil {
			return err
		}
	}
	return nil
}

func (p *filterParser) parseAnd() error {
	if err := p.parseUnary(); err != nil {
		return err
	}
	for p.keyword("AND") {
		p.out.WriteString(" AND ")
		if err := p.parseUnary(); err != nil {
			return err
		}
	}
	return nil
}

func (p *filterParser) parseUnary() error {
	if p.keyword("NOT") {
		p.out.WriteString("NOT ")
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *filterParser) parsePrimary() error {
	t := p.next()
	switch t.kind {
	case tokLParen:
		p.out.WriteByte('(')
		if err := p.parseOr(); err != nil {
			return err
		}
		if r := p.next(); r.kind != tokRParen {
			return fmt.Errorf("expected ) at %d", r.pos)
		}
		p.out.WriteByte(')')
		return nil
	case tokIdent:
		if isKeyword(t.text) {
			return fmt.Errorf("unexpected keyword %q at %d", t.text, t.pos)
		}
		col, ok := p.proj.Lookup(t.text)
		if !ok {
			return fmt.Errorf("unknown field %q", t.text)
		}
		p.out.WriteString(col.Source)
		return p.parsePredicate()
	default:
		return fmt.Errorf("expected field at %d", t.pos)
	}
}

func (p *filterParser) parsePredicate() error {
	switch {
	case p.keyword("IS"):
		if p.keyword("NOT") {
			p.out.WriteString(" IS NOT")
		} else {
			p.out.WriteString(" IS")
		}
		if !p.keyword("NULL") {
			return fmt.Errorf("expected NULL at %d", p.peek().pos)
		}
		p.out.WriteString(" NULL")
		return nil
	case p.keyword("IN"):
		if t := p.next(); t.kind != tokLParen {
			return fmt.Errorf("expected ( at %d", t.pos)
		}
		p.out.WriteString(" IN (")
		for n := 0; ; n++ {
			if n > 0 {
				p.out.WriteString(", ")
			}
			if err := p.parseOperand(); err != nil {
				return err
			}
			t := p.next()
			if t.kind == tokRParen {
				break
			}
			if t.kind != tokComma {
				return fmt.Errorf("expected , or ) at %d", t.pos)
			}
		}
		p.out.WriteByte(')')
		return nil
	case p.keyword("LIKE"):
		p.out.WriteString(" LIKE ")
		return p.parseOperand()
	}

	t := p.next()
	if t.kind != tokOp {
		return fmt.Errorf("expected operator at %d", t.pos)
	}
	p.out.WriteString(" " + t.text + " ")
	return p.parseOperand()
}

func (p *filterParser) parseOperand() error {
	t := p.next()
	switch t.kind {
	case tokPlaceholder:
		if p.nextArg >= len(p.args) {
			return fmt.Errorf("missing argument for placeholder at %d", t.pos)
		}
		p.bound = append(p.bound, p.args[p.nextArg])
		p.nextArg++
	case tokNumber:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return fmt.Errorf("bad number %q at %d", t.text, t.pos)
		}
		p.bound = append(p.bound, n)
	case tokString:
		p.bound = append(p.bound, t.text)
	default:
		return fmt.Errorf("expected operand at %d", t.pos)
	}
	p.out.WriteByte('?')
	return nil
}

func isKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "AND", "OR", "NOT", "IS", "NULL", "IN", "LIKE":
		return true
	}
	return false
}

// compileSort validates "field [ASC|DESC], ..." against the projection.
// An empty sort yields the default order, newest id first.
func compileSort(sort string, proj *resource.Projection) (string, error) {
	if strings.TrimSpace(sort) == "" {
		return resource.ColumnID + " DESC", nil
	}
	terms := strings.Split(sort, ",")
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		parts := strings.Fields(term)
		if len(parts) == 0 || len(parts) > 2 {
			return "", fmt.Errorf("store: %w: bad sort term %q", apperr.ErrInvalidFilter, strings.TrimSpace(term))
		}
		col, ok := proj.Lookup(parts[0])
		if !ok {
			return "", fmt.Errorf("store: %w: unknown sort field %q", apperr.ErrInvalidFilter, parts[0])
		}
		dir := "ASC"
		if len(parts) == 2 {
			switch strings.ToUpper(parts[1]) {
			case "ASC":
			case "DESC":
				dir = "DESC"
			default:
				return "", fmt.Errorf("store: %w: bad sort direction %q", apperr.ErrInvalidFilter, parts[1])
			}
		}
		out = append(out, col.Source+" "+dir)
	}
	return strings.Join(out, ", "), nil
}
