// Package parse reads terms written in the textual syntax produced by
// term.Format:
//
//	bread                 atom
//	'Hello world'         quoted atom
//	X, _Tmp               variables
//	_                     anonymous variable, fresh per occurrence
//	-42                   integer
//	parent(alice, X)      compound
//	!food                 persistent wrapper
package parse

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/linlog/pkg/linlog/internalerr"
	"github.com/cognicore/linlog/pkg/linlog/symbol"
	"github.com/cognicore/linlog/pkg/linlog/term"
)

// ParseTerm parses exactly one term
func ParseTerm(tab *symbol.Table, src string) (term.Term, error) {
	p := &parser{tab: tab, src: src}
	t, err := p.term()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q after term", p.peek())
	}
	return t, nil
}

// ParseGoals parses a comma-separated goal list. Blank input yields no goals.
func ParseGoals(tab *symbol.Table, src string) ([]term.Term, error) {
	p := &parser{tab: tab, src: src}
	p.skipSpace()
	if p.eof() {
		return nil, nil
	}

	var goals []term.Term
	for {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		goals = append(goals, t)

		p.skipSpace()
		if p.eof() {
			return goals, nil
		}
		if p.peek() == '.' {
			p.pos++
			p.skipSpace()
			if !p.eof() {
				return nil, p.errorf("unexpected input after '.'")
			}
			return goals, nil
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
	}
}

// MustParseTerm is ParseTerm for literals known to be valid; it panics on error.
func MustParseTerm(tab *symbol.Table, src string) term.Term {
	t, err := ParseTerm(tab, src)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	tab *symbol.Table
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s: %w", p.pos, fmt.Sprintf(format, args...), internalerr.ErrParse)
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r
}

func (p *parser) next() rune {
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return r
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.next()
	}
}

func (p *parser) expect(r rune) error {
	p.skipSpace()
	if p.eof() {
		return p.errorf("expected %q, got end of input", r)
	}
	if got := p.peek(); got != r {
		return p.errorf("expected %q, got %q", r, got)
	}
	p.next()
	return nil
}

func (p *parser) term() (term.Term, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("expected term, got end of input")
	}

	r := p.peek()
	switch {
	case r == '!':
		p.next()
		inner, err := p.term()
		if err != nil {
			return nil, err
		}
		return term.NewPersistent(inner), nil
	case r == '-' || unicode.IsDigit(r):
		return p.integer()
	case r == '_' || unicode.IsUpper(r):
		name := p.ident()
		if name == "_" {
			return term.NewVar(p.tab.FreshVar("_")), nil
		}
		return term.NewVar(p.tab.InternVar(name)), nil
	case r == '\'':
		name, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return p.atomOrCompound(name)
	case unicode.IsLower(r):
		return p.atomOrCompound(p.ident())
	default:
		return nil, p.errorf("unexpected %q", r)
	}
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		r := p.peek()
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.next()
	}
	return p.src[start:p.pos]
}

func (p *parser) integer() (term.Term, error) {
	start := p.pos
	if p.peek() == '-' {
		p.next()
	}
	for !p.eof() && unicode.IsDigit(p.peek()) {
		p.next()
	}
	lit := p.src[start:p.pos]
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("bad integer %q", lit)
	}
	return term.NewInt(v), nil
}

func (p *parser) quoted() (string, error) {
	start := p.pos
	p.next() // opening quote
	var b strings.Builder
	for !p.eof() {
		r := p.next()
		switch r {
		case '\'':
			return b.String(), nil
		case '\\':
			if p.eof() {
				break
			}
			b.WriteRune(p.next())
		default:
			b.WriteRune(r)
		}
	}
	p.pos = start
	return "", p.errorf("unterminated quoted atom")
}

func (p *parser) atomOrCompound(name string) (term.Term, error) {
	functor := p.tab.Intern(name)
	// no whitespace allowed between functor and '('
	if p.eof() || p.peek() != '(' {
		return term.NewAtom(functor), nil
	}
	p.next()

	var args []term.Term
	for {
		arg, err := p.term()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unclosed argument list of %s", name)
		}
		at := p.pos
		switch p.next() {
		case ',':
			continue
		case ')':
			return term.NewCompound(functor, args...), nil
		default:
			p.pos = at
			return nil, p.errorf("expected ',' or ')' in arguments of %s", name)
		}
	}
}
