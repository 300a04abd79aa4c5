package dalgebra

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Ring — differential / difference polynomial ring
// ============================================================

type OperatorKind int

const (
	// Derivation satisfies op(a+b) = op(a)+op(b) and the Leibniz rule;
	// rational constants map to zero.
	Derivation OperatorKind = iota
	// Shift is a ring endomorphism; rational constants are fixed.
	Shift
)

func (k OperatorKind) String() string {
	if k == Derivation {
		return "derivation"
	}
	return "shift"
}

// Ring is a polynomial ring Q[params][inds] together with one operator. Each
// indeterminate u owns an infinite tower u_0, u_1, ... materialized lazily;
// the operator maps u_k to u_{k+1} and acts on parameters through the image
// table given at construction.
type Ring struct {
	kind   OperatorKind
	params []string
	inds   []string
	images map[string]*Poly
}

// NewDifferentialRing builds a ring whose operator is a derivation. A
// parameter missing from images is a constant (image zero).
func NewDifferentialRing(params []string, images map[string]*Poly, inds []string) (*Ring, error) {
	return newRing(Derivation, params, images, inds)
}

// NewDifferenceRing builds a ring whose operator is a shift endomorphism. A
// parameter missing from images is fixed by the shift.
func NewDifferenceRing(params []string, images map[string]*Poly, inds []string) (*Ring, error) {
	return newRing(Shift, params, images, inds)
}

func newRing(kind OperatorKind, params []string, images map[string]*Poly, inds []string) (*Ring, error) {
	r := &Ring{
		kind:   kind,
		params: append([]string(nil), params...),
		inds:   append([]string(nil), inds...),
		images: map[string]*Poly{},
	}
	if len(r.inds) == 0 {
		return nil, fmt.Errorf("ring: no indeterminates")
	}
	seen := map[string]bool{}
	for _, p := range r.params {
		if !validName(p) {
			return nil, fmt.Errorf("ring: invalid parameter name %q", p)
		}
		if seen[p] {
			return nil, fmt.Errorf("ring: duplicate name %q", p)
		}
		seen[p] = true
	}
	indSet := map[string]bool{}
	for _, u := range r.inds {
		if !validName(u) {
			return nil, fmt.Errorf("ring: invalid indeterminate name %q", u)
		}
		if seen[u] {
			return nil, fmt.Errorf("ring: duplicate name %q", u)
		}
		seen[u] = true
		indSet[u] = true
	}
	// A name that reads as u_k would shadow the tower of u.
	for name := range seen {
		if base, _, ok := splitIndex(name); ok && indSet[base] {
			return nil, fmt.Errorf("ring: name %q collides with the tower of %q", name, base)
		}
	}
	for p, img := range images {
		if !seen[p] || indSet[p] {
			return nil, fmt.Errorf("ring: operator image for unknown parameter %q", p)
		}
		if img == nil {
			continue
		}
		for _, v := range img.Vars() {
			if !seen[v] || indSet[v] {
				return nil, fmt.Errorf("ring: operator image of %q mentions %q, not a parameter", p, v)
			}
		}
		r.images[p] = img.clone()
	}
	return r, nil
}

func (r *Ring) Kind() OperatorKind { return r.kind }

func (r *Ring) Parameters() []string { return append([]string(nil), r.params...) }

func (r *Ring) Indeterminates() []string { return append([]string(nil), r.inds...) }

// Equal compares operator kind, parameters, indeterminates and images.
func (r *Ring) Equal(o *Ring) bool {
	if r == o {
		return true
	}
	if r.kind != o.kind || len(r.params) != len(o.params) ||
		len(r.inds) != len(o.inds) || len(r.images) != len(o.images) {
		return false
	}
	for i, p := range r.params {
		if o.params[i] != p {
			return false
		}
	}
	for i, u := range r.inds {
		if o.inds[i] != u {
			return false
		}
	}
	for p, img := range r.images {
		other, ok := o.images[p]
		if !ok || !img.Equal(other) {
			return false
		}
	}
	return true
}

func (r *Ring) String() string {
	var b strings.Builder
	if r.kind == Derivation {
		b.WriteString("DifferentialRing(Q[")
	} else {
		b.WriteString("DifferenceRing(Q[")
	}
	b.WriteString(strings.Join(r.params, ", "))
	b.WriteString("], {")
	b.WriteString(strings.Join(r.inds, ", "))
	b.WriteString("})")
	return b.String()
}

// ============================================================
// Generators
// ============================================================

// Gen is the handle for one indeterminate tower.
type Gen struct {
	ring *Ring
	name string
}

// Gen looks up an indeterminate handle. Unknown names are a programmer error.
func (r *Ring) Gen(name string) *Gen {
	for _, u := range r.inds {
		if u == name {
			return &Gen{ring: r, name: name}
		}
	}
	panic("dalgebra: unknown indeterminate " + name)
}

func (g *Gen) Name() string { return g.name }

// At materializes the k-th element of the tower as a polynomial.
func (g *Gen) At(k int) *Poly {
	if k < 0 {
		panic("dalgebra: negative tower index")
	}
	return S(g.name + "_" + strconv.Itoa(k))
}

// ============================================================
// Membership and classification
// ============================================================

// indexOf classifies an occurring variable as a tower element.
func (r *Ring) indexOf(name string) (string, int, bool) {
	base, k, ok := splitIndex(name)
	if !ok {
		return "", 0, false
	}
	for _, u := range r.inds {
		if u == base {
			return u, k, true
		}
	}
	return "", 0, false
}

func (r *Ring) isParam(name string) bool {
	for _, p := range r.params {
		if p == name {
			return true
		}
	}
	return false
}

// Member checks that p only uses symbols of the ring. Unknown symbols are an
// error at the boundary, never coerced later.
func (r *Ring) Member(p *Poly) error {
	for _, v := range p.Vars() {
		if _, _, ok := r.indexOf(v); ok {
			continue
		}
		if r.isParam(v) {
			continue
		}
		return fmt.Errorf("ring: %q is not a member symbol", v)
	}
	return nil
}

// ============================================================
// Operator application
// ============================================================

// opVar is the operator image of one variable.
func (r *Ring) opVar(name string) *Poly {
	if u, k, ok := r.indexOf(name); ok {
		return S(u + "_" + strconv.Itoa(k+1))
	}
	if img, ok := r.images[name]; ok {
		return img.clone()
	}
	if r.kind == Shift {
		return S(name)
	}
	return newPoly()
}

// Apply maps p through the ring operator.
func (r *Ring) Apply(p *Poly) *Poly {
	out := newPoly()
	for _, t := range p.terms {
		if r.kind == Shift {
			f := R(t.c)
			for _, v := range t.m.vp {
				f = f.Mul(r.opVar(v.name).Pow(v.exp))
			}
			for _, ft := range f.terms {
				out.addTerm(ft.m, ft.c)
			}
			continue
		}
		// Leibniz rule over the power product; op(c) = 0.
		for i, v := range t.m.vp {
			rest := map[string]int{v.name: v.exp - 1}
			for j, w := range t.m.vp {
				if j != i {
					rest[w.name] = w.exp
				}
			}
			base := newPoly()
			base.addTerm(monoOf(rest), new(big.Rat).Mul(t.c, new(big.Rat).SetInt64(int64(v.exp))))
			f := base.Mul(r.opVar(v.name))
			for _, ft := range f.terms {
				out.addTerm(ft.m, ft.c)
			}
		}
	}
	return out
}

// ApplyN applies the operator times times.
func (r *Ring) ApplyN(p *Poly, times int) *Poly {
	if times < 0 {
		panic("dalgebra: negative operator power")
	}
	out := p.clone()
	for i := 0; i < times; i++ {
		out = r.Apply(out)
	}
	return out
}

// orderIn is the largest tower index of ind occurring in p, or -1.
func (r *Ring) orderIn(p *Poly, ind string) int {
	order := -1
	for _, v := range p.Vars() {
		if u, k, ok := r.indexOf(v); ok && u == ind && k > order {
			order = k
		}
	}
	return order
}

// towerVars lists the tower elements of the given indeterminates occurring in
// ps, in natural order.
func (r *Ring) towerVars(ps []*Poly, inds []string) []string {
	want := map[string]bool{}
	for _, u := range inds {
		want[u] = true
	}
	set := map[string]bool{}
	for _, p := range ps {
		for _, v := range p.Vars() {
			if u, _, ok := r.indexOf(v); ok && want[u] {
				set[v] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return compareNames(out[i], out[j]) < 0 })
	return out
}
