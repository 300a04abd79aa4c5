// Package dalgebra implements differential and difference polynomial rings
// over Q and resultant-based elimination of differential indeterminates.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat)
//   - Canonical polynomial form and stable, deterministic output
//   - Explicit ring handles, no package-level mutable state
//   - Elimination results as explicit variants, never panics or sentinel nils
package dalgebra

import (
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Variable names
// ============================================================

// splitIndex splits a trailing "_<digits>" suffix: "u_12" -> ("u", 12, true).
// Names without such a suffix report ok=false.
func splitIndex(name string) (string, int, bool) {
	i := strings.LastIndex(name, "_")
	if i < 0 || i == len(name)-1 {
		return name, -1, false
	}
	n := 0
	for _, r := range name[i+1:] {
		if r < '0' || r > '9' {
			return name, -1, false
		}
		n = n*10 + int(r-'0')
	}
	return name[:i], n, true
}

// compareNames orders variable names naturally: base name first, then the
// numeric index, so u_2 < u_10 < v_0 < x.
func compareNames(a, b string) int {
	ba, ia, _ := splitIndex(a)
	bb, ib, _ := splitIndex(b)
	if ba != bb {
		return strings.Compare(ba, bb)
	}
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	}
	return 0
}

func sortNames(names []string) {
	sort.Slice(names, func(i, j int) bool { return compareNames(names[i], names[j]) < 0 })
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		alpha := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !alpha && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// ============================================================
// Monomials
// ============================================================

type varpow struct {
	name string
	exp  int
}

// mono is a power product with variables sorted in natural name order.
type mono struct {
	vp []varpow
}

var monoOne = mono{}

func monoOf(names map[string]int) mono {
	vp := make([]varpow, 0, len(names))
	for n, e := range names {
		if e != 0 {
			vp = append(vp, varpow{name: n, exp: e})
		}
	}
	sort.Slice(vp, func(i, j int) bool { return compareNames(vp[i].name, vp[j].name) < 0 })
	return mono{vp: vp}
}

func (m mono) key() string {
	if len(m.vp) == 0 {
		return ""
	}
	var b strings.Builder
	for i, v := range m.vp {
		if i > 0 {
			b.WriteByte('*')
		}
		b.WriteString(v.name)
		if v.exp != 1 {
			b.WriteByte('^')
			b.WriteString(strconv.Itoa(v.exp))
		}
	}
	return b.String()
}

func (m mono) degree() int {
	d := 0
	for _, v := range m.vp {
		d += v.exp
	}
	return d
}

func (m mono) exp(name string) int {
	for _, v := range m.vp {
		if v.name == name {
			return v.exp
		}
	}
	return 0
}

func (m mono) mul(o mono) mono {
	names := make(map[string]int, len(m.vp)+len(o.vp))
	for _, v := range m.vp {
		names[v.name] += v.exp
	}
	for _, v := range o.vp {
		names[v.name] += v.exp
	}
	return monoOf(names)
}

// div returns m/o when o divides m.
func (m mono) div(o mono) (mono, bool) {
	names := make(map[string]int, len(m.vp))
	for _, v := range m.vp {
		names[v.name] = v.exp
	}
	for _, v := range o.vp {
		names[v.name] -= v.exp
		if names[v.name] < 0 {
			return monoOne, false
		}
	}
	return monoOf(names), true
}

// compareMono is the canonical graded lex order: total degree first, then the
// exponent of the naturally-smallest variable where the monomials differ (the
// higher exponent wins).
func compareMono(a, b mono) int {
	da, db := a.degree(), b.degree()
	switch {
	case da < db:
		return -1
	case da > db:
		return 1
	}
	i, j := 0, 0
	for i < len(a.vp) || j < len(b.vp) {
		switch {
		case i >= len(a.vp):
			return -1
		case j >= len(b.vp):
			return 1
		}
		c := compareNames(a.vp[i].name, b.vp[j].name)
		switch {
		case c < 0:
			return 1
		case c > 0:
			return -1
		}
		switch {
		case a.vp[i].exp > b.vp[j].exp:
			return 1
		case a.vp[i].exp < b.vp[j].exp:
			return -1
		}
		i++
		j++
	}
	return 0
}

// ============================================================
// Poly — exact multivariate polynomial over Q
// ============================================================

type term struct {
	m mono
	c *big.Rat
}

// Poly is an immutable multivariate polynomial with rational coefficients.
// All operations return fresh values.
type Poly struct {
	terms map[string]*term
}

func newPoly() *Poly { return &Poly{terms: map[string]*term{}} }

// N builds the constant polynomial n.
func N(n int64) *Poly {
	p := newPoly()
	p.addTerm(monoOne, new(big.Rat).SetInt64(n))
	return p
}

// F builds the constant polynomial p/q.
func F(p, q int64) *Poly {
	if q == 0 {
		panic("dalgebra: denominator is zero")
	}
	r := newPoly()
	r.addTerm(monoOne, new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q)))
	return r
}

// R builds a constant polynomial from a rational.
func R(v *big.Rat) *Poly {
	p := newPoly()
	p.addTerm(monoOne, new(big.Rat).Set(v))
	return p
}

// S builds the polynomial consisting of the single variable name.
func S(name string) *Poly {
	if !validName(name) {
		panic("dalgebra: invalid variable name " + name)
	}
	p := newPoly()
	p.addTerm(monoOf(map[string]int{name: 1}), new(big.Rat).SetInt64(1))
	return p
}

func (p *Poly) addTerm(m mono, c *big.Rat) {
	if c.Sign() == 0 {
		return
	}
	k := m.key()
	if t, ok := p.terms[k]; ok {
		t.c.Add(t.c, c)
		if t.c.Sign() == 0 {
			delete(p.terms, k)
		}
		return
	}
	p.terms[k] = &term{m: m, c: new(big.Rat).Set(c)}
}

func (p *Poly) clone() *Poly {
	q := newPoly()
	for _, t := range p.terms {
		q.addTerm(t.m, t.c)
	}
	return q
}

// sorted returns the terms in descending canonical order.
func (p *Poly) sorted() []*term {
	ts := make([]*term, 0, len(p.terms))
	for _, t := range p.terms {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return compareMono(ts[i].m, ts[j].m) > 0 })
	return ts
}

// AddOf sums any number of polynomials.
func AddOf(ps ...*Poly) *Poly {
	r := newPoly()
	for _, p := range ps {
		for _, t := range p.terms {
			r.addTerm(t.m, t.c)
		}
	}
	return r
}

// MulOf multiplies any number of polynomials.
func MulOf(ps ...*Poly) *Poly {
	r := N(1)
	for _, p := range ps {
		r = r.Mul(p)
	}
	return r
}

func (p *Poly) Add(q *Poly) *Poly { return AddOf(p, q) }

func (p *Poly) Sub(q *Poly) *Poly { return AddOf(p, q.Neg()) }

func (p *Poly) Neg() *Poly {
	r := newPoly()
	for _, t := range p.terms {
		r.addTerm(t.m, new(big.Rat).Neg(t.c))
	}
	return r
}

func (p *Poly) Mul(q *Poly) *Poly {
	r := newPoly()
	for _, a := range p.terms {
		for _, b := range q.terms {
			r.addTerm(a.m.mul(b.m), new(big.Rat).Mul(a.c, b.c))
		}
	}
	return r
}

func (p *Poly) Pow(k int) *Poly {
	if k < 0 {
		panic("dalgebra: negative exponent")
	}
	r := N(1)
	for i := 0; i < k; i++ {
		r = r.Mul(p)
	}
	return r
}

func (p *Poly) IsZero() bool { return len(p.terms) == 0 }

func (p *Poly) Equal(q *Poly) bool {
	if len(p.terms) != len(q.terms) {
		return false
	}
	for k, t := range p.terms {
		o, ok := q.terms[k]
		if !ok || t.c.Cmp(o.c) != 0 {
			return false
		}
	}
	return true
}

// AsRat reports the value of a constant polynomial.
func (p *Poly) AsRat() (*big.Rat, bool) {
	if len(p.terms) == 0 {
		return new(big.Rat), true
	}
	if len(p.terms) == 1 {
		if t, ok := p.terms[""]; ok {
			return new(big.Rat).Set(t.c), true
		}
	}
	return nil, false
}

// ============================================================
// Queries
// ============================================================

// Vars lists the occurring variables in natural order.
func (p *Poly) Vars() []string {
	set := map[string]bool{}
	for _, t := range p.terms {
		for _, v := range t.m.vp {
			set[v.name] = true
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return compareNames(out[i], out[j]) < 0 })
	return out
}

func (p *Poly) Appears(name string) bool {
	for _, t := range p.terms {
		if t.m.exp(name) > 0 {
			return true
		}
	}
	return false
}

// Degree is the largest exponent of name; 0 when absent.
func (p *Poly) Degree(name string) int {
	d := 0
	for _, t := range p.terms {
		if e := t.m.exp(name); e > d {
			d = e
		}
	}
	return d
}

func (p *Poly) TotalDegree() int {
	d := 0
	for _, t := range p.terms {
		if td := t.m.degree(); td > d {
			d = td
		}
	}
	return d
}

// TotalDegreeIn is the largest combined exponent of the given variables.
func (p *Poly) TotalDegreeIn(names []string) int {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	d := 0
	for _, t := range p.terms {
		td := 0
		for _, v := range t.m.vp {
			if set[v.name] {
				td += v.exp
			}
		}
		if td > d {
			d = td
		}
	}
	return d
}

// CoeffsIn views p as univariate in name, with polynomial coefficients
// indexed by exponent.
func (p *Poly) CoeffsIn(name string) map[int]*Poly {
	out := map[int]*Poly{}
	for _, t := range p.terms {
		e := t.m.exp(name)
		rest := map[string]int{}
		for _, v := range t.m.vp {
			if v.name != name {
				rest[v.name] = v.exp
			}
		}
		if out[e] == nil {
			out[e] = newPoly()
		}
		out[e].addTerm(monoOf(rest), t.c)
	}
	return out
}

// Coeff reports the coefficient of the power product described by exps.
func (p *Poly) Coeff(exps map[string]int) *big.Rat {
	if t, ok := p.terms[monoOf(exps).key()]; ok {
		return new(big.Rat).Set(t.c)
	}
	return new(big.Rat)
}

// Monomials lists the occurring monomial keys in descending canonical order.
func (p *Poly) Monomials() []string {
	ts := p.sorted()
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.m.key()
	}
	return out
}

// Substitute replaces every variable present in sub by its image.
func (p *Poly) Substitute(sub map[string]*Poly) *Poly {
	r := newPoly()
	for _, t := range p.terms {
		f := R(t.c)
		for _, v := range t.m.vp {
			if img, ok := sub[v.name]; ok {
				f = f.Mul(img.Pow(v.exp))
			} else {
				f = f.Mul(S(v.name).Pow(v.exp))
			}
		}
		for _, ft := range f.terms {
			r.addTerm(ft.m, ft.c)
		}
	}
	return r
}

// ============================================================
// Normal form
// ============================================================

func (p *Poly) leading() (*term, bool) {
	var best *term
	for _, t := range p.terms {
		if best == nil || compareMono(t.m, best.m) > 0 {
			best = t
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// Content is the positive rational c with p = c * (primitive polynomial).
func (p *Poly) Content() *big.Rat {
	if len(p.terms) == 0 {
		return new(big.Rat)
	}
	g := new(big.Int)
	l := big.NewInt(1)
	for _, t := range p.terms {
		n := new(big.Int).Abs(t.c.Num())
		g.GCD(nil, nil, g, n)
		d := t.c.Denom()
		tmp := new(big.Int).GCD(nil, nil, l, d)
		l.Div(new(big.Int).Mul(l, d), tmp)
	}
	return new(big.Rat).SetFrac(g, l)
}

// Normalize divides by the content and fixes the sign so the leading
// coefficient in canonical order is positive. The zero polynomial is returned
// unchanged. Every resultant the engine reports is normalized.
func (p *Poly) Normalize() *Poly {
	lt, ok := p.leading()
	if !ok {
		return newPoly()
	}
	c := p.Content()
	if lt.c.Sign() < 0 {
		c.Neg(c)
	}
	inv := new(big.Rat).Inv(c)
	r := newPoly()
	for _, t := range p.terms {
		r.addTerm(t.m, new(big.Rat).Mul(t.c, inv))
	}
	return r
}

// divExact divides a by b when the division is exact in Q[vars].
func divExact(a, b *Poly) (*Poly, bool) {
	lb, ok := b.leading()
	if !ok {
		return nil, false
	}
	rem := a.clone()
	q := newPoly()
	for !rem.IsZero() {
		lr, _ := rem.leading()
		m, ok := lr.m.div(lb.m)
		if !ok {
			return nil, false
		}
		c := new(big.Rat).Quo(lr.c, lb.c)
		q.addTerm(m, c)
		step := newPoly()
		step.addTerm(m, c)
		rem = rem.Sub(step.Mul(b))
	}
	return q, true
}

// ============================================================
// Output
// ============================================================

func (p *Poly) String() string {
	ts := p.sorted()
	if len(ts) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range ts {
		c := new(big.Rat).Set(t.c)
		neg := c.Sign() < 0
		if neg {
			c.Neg(c)
		}
		switch {
		case i == 0 && neg:
			b.WriteByte('-')
		case i > 0 && neg:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		k := t.m.key()
		one := c.Cmp(new(big.Rat).SetInt64(1)) == 0
		switch {
		case k == "":
			b.WriteString(ratString(c))
		case one:
			b.WriteString(k)
		default:
			b.WriteString(ratString(c))
			b.WriteByte('*')
			b.WriteString(k)
		}
	}
	return b.String()
}

func ratOne() *big.Rat { return new(big.Rat).SetInt64(1) }

func ratString(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}
