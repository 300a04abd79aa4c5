package dalgebra

import (
	"fmt"
	"math/big"
	"strconv"
)

// ============================================================
// ParsePoly — textual polynomial input
// ============================================================

// ParsePoly reads a polynomial in the canonical textual form: integers,
// symbols, "+", "-", "*", "^", "/" and parentheses. Division is only allowed
// by nonzero rational constants, so "1/2*x" parses while "1/x" does not.
func ParsePoly(input string) (*Poly, error) {
	p := &polyParser{src: input}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("parse %q: empty input", input)
	}
	out, err := p.parseExpr()
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", input, err)
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("parse %q: unexpected %q at offset %d", input, p.src[p.pos], p.pos)
	}
	return out, nil
}

type polyParser struct {
	src string
	pos int
}

func (p *polyParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *polyParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *polyParser) parseExpr() (*Poly, error) {
	neg := false
	switch p.peek() {
	case '+':
		p.pos++
	case '-':
		p.pos++
		neg = true
	}
	acc, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if neg {
		acc = acc.Neg()
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			t, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			acc = acc.Add(t)
		case '-':
			p.pos++
			t, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			acc = acc.Sub(t)
		default:
			return acc, nil
		}
	}
}

func (p *polyParser) parseTerm() (*Poly, error) {
	acc, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			f, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			acc = acc.Mul(f)
		case '/':
			p.pos++
			f, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			r, ok := f.AsRat()
			if !ok || r.Sign() == 0 {
				return nil, fmt.Errorf("division by non-constant at offset %d", p.pos)
			}
			acc = acc.Mul(R(new(big.Rat).Inv(r)))
		default:
			return acc, nil
		}
	}
}

func (p *polyParser) parseFactor() (*Poly, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek() == '^' {
		p.pos++
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		if start == p.pos {
			return nil, fmt.Errorf("expected exponent at offset %d", p.pos)
		}
		e, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil {
			return nil, err
		}
		base = base.Pow(e)
	}
	return base, nil
}

func (p *polyParser) parseAtom() (*Poly, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing ')' at offset %d", p.pos)
		}
		p.pos++
		return inner, nil
	case c == '-':
		p.pos++
		f, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return f.Neg(), nil
	case c >= '0' && c <= '9':
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer too large at offset %d", start)
		}
		return N(n), nil
	case isIdentStart(c):
		start := p.pos
		for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		return S(p.src[start:p.pos]), nil
	case c == 0:
		return nil, fmt.Errorf("unexpected end of input")
	default:
		return nil, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
