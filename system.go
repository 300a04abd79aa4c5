package dalgebra

import (
	"fmt"
	"strings"
)

// ============================================================
// System — equations plus designated elimination variables
// ============================================================

// System is an ordered list of equations (each understood as = 0) over one
// ring, together with the indeterminates the elimination engine is asked to
// remove. Extension and resultant computations are cached on the value.
type System struct {
	ring *Ring
	eqs  []*Poly
	vars []string

	extCache map[string]*System
	resCache map[string]EliminationResult
}

// NewSystem validates every equation and variable against the ring. An empty
// variable list designates all indeterminates.
func NewSystem(ring *Ring, eqs []*Poly, vars []string) (*System, error) {
	if ring == nil {
		return nil, fmt.Errorf("system: nil ring")
	}
	s := &System{
		ring:     ring,
		eqs:      make([]*Poly, len(eqs)),
		extCache: map[string]*System{},
		resCache: map[string]EliminationResult{},
	}
	for i, eq := range eqs {
		if eq == nil {
			return nil, fmt.Errorf("system: equation %d is nil", i)
		}
		if err := ring.Member(eq); err != nil {
			return nil, fmt.Errorf("system: equation %d: %w", i, err)
		}
		s.eqs[i] = eq.clone()
	}
	if len(vars) == 0 {
		s.vars = ring.Indeterminates()
		return s, nil
	}
	seen := map[string]bool{}
	for _, v := range vars {
		found := false
		for _, u := range ring.inds {
			if u == v {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("system: %q is not an indeterminate of %s", v, ring)
		}
		if seen[v] {
			return nil, fmt.Errorf("system: duplicate variable %q", v)
		}
		seen[v] = true
		s.vars = append(s.vars, v)
	}
	return s, nil
}

func (s *System) Ring() *Ring { return s.ring }

func (s *System) Size() int { return len(s.eqs) }

func (s *System) Variables() []string { return append([]string(nil), s.vars...) }

func (s *System) Equation(i int) *Poly {
	if i < 0 || i >= len(s.eqs) {
		panic("dalgebra: equation index out of range")
	}
	return s.eqs[i].clone()
}

// EquationOp is the times-th operator image of equation i.
func (s *System) EquationOp(i, times int) *Poly {
	return s.ring.ApplyN(s.Equation(i), times)
}

func (s *System) Equations() []*Poly {
	out := make([]*Poly, len(s.eqs))
	for i, eq := range s.eqs {
		out[i] = eq.clone()
	}
	return out
}

// Order is the largest tower index of the indeterminate across all
// equations, or -1 when it does not occur.
func (s *System) Order(ind string) int {
	s.ring.Gen(ind)
	order := -1
	for _, eq := range s.eqs {
		if o := s.ring.orderIn(eq, ind); o > order {
			order = o
		}
	}
	return order
}

// ============================================================
// Extension
// ============================================================

// ExtendByOperation appends the operator images op, op^2, ..., op^{Ls[i]} of
// each equation i. The zero vector yields a system equal to the receiver.
// Results are cached per vector.
func (s *System) ExtendByOperation(Ls []int) (*System, error) {
	if len(Ls) != len(s.eqs) {
		return nil, fmt.Errorf("system: extension vector has %d entries for %d equations", len(Ls), len(s.eqs))
	}
	for i, l := range Ls {
		if l < 0 {
			return nil, fmt.Errorf("system: negative extension %d at position %d", l, i)
		}
	}
	key := fmt.Sprint(Ls)
	if ext, ok := s.extCache[key]; ok {
		return ext, nil
	}
	var eqs []*Poly
	for i, eq := range s.eqs {
		cur := eq.clone()
		eqs = append(eqs, cur)
		for k := 0; k < Ls[i]; k++ {
			cur = s.ring.Apply(cur)
			eqs = append(eqs, cur)
		}
	}
	ext, err := NewSystem(s.ring, eqs, s.vars)
	if err != nil {
		return nil, err
	}
	s.extCache[key] = ext
	return ext, nil
}

// ExtendByDerivation is ExtendByOperation restricted to differential rings.
func (s *System) ExtendByDerivation(Ls []int) (*System, error) {
	if s.ring.kind != Derivation {
		return nil, fmt.Errorf("system: ring operator is a %s, not a derivation", s.ring.kind)
	}
	return s.ExtendByOperation(Ls)
}

// ExtendByDifference is ExtendByOperation restricted to difference rings.
func (s *System) ExtendByDifference(Ls []int) (*System, error) {
	if s.ring.kind != Shift {
		return nil, fmt.Errorf("system: ring operator is a %s, not a shift", s.ring.kind)
	}
	return s.ExtendByOperation(Ls)
}

// EquationRef selects the Times-th operator image of equation Index.
type EquationRef struct {
	Index int
	Times int
}

// Subsystem builds a new system from selected equation images. A nil variable
// list inherits the receiver's.
func (s *System) Subsystem(refs []EquationRef, vars []string) (*System, error) {
	eqs := make([]*Poly, len(refs))
	for i, ref := range refs {
		if ref.Index < 0 || ref.Index >= len(s.eqs) {
			return nil, fmt.Errorf("system: subsystem index %d out of range", ref.Index)
		}
		if ref.Times < 0 {
			return nil, fmt.Errorf("system: subsystem times %d negative", ref.Times)
		}
		eqs[i] = s.ring.ApplyN(s.eqs[ref.Index], ref.Times)
	}
	if vars == nil {
		vars = s.vars
	}
	return NewSystem(s.ring, eqs, vars)
}

// ChangeVariables keeps the equations and redesignates the elimination set.
func (s *System) ChangeVariables(vars ...string) (*System, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("system: empty variable list")
	}
	return NewSystem(s.ring, s.eqs, vars)
}

// ============================================================
// Algebraic view
// ============================================================

// AlgebraicVariables lists the tower elements of the elimination set that
// occur in the equations, in natural order.
func (s *System) AlgebraicVariables() []string {
	return s.ring.towerVars(s.eqs, s.vars)
}

// AlgebraicEquations is the flattened view of the equations, every tower
// element read as a plain algebraic variable.
func (s *System) AlgebraicEquations() []*Poly {
	return s.Equations()
}

// Parameters lists every occurring symbol outside the elimination towers.
func (s *System) Parameters() []string {
	elim := map[string]bool{}
	for _, v := range s.AlgebraicVariables() {
		elim[v] = true
	}
	set := map[string]bool{}
	for _, eq := range s.eqs {
		for _, v := range eq.Vars() {
			if !elim[v] {
				set[v] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sortNames(out)
	return out
}

// degreeInElim is the combined exponent of elimination-tower variables in one
// power product.
func (s *System) degreeInElim(m mono) int {
	want := map[string]bool{}
	for _, u := range s.vars {
		want[u] = true
	}
	d := 0
	for _, v := range m.vp {
		if u, _, ok := s.ring.indexOf(v.name); ok && want[u] {
			d += v.exp
		}
	}
	return d
}

// IsLinear reports whether every equation has combined degree at most one in
// the towers of the given indeterminates (default: the elimination set).
func (s *System) IsLinear(vars ...string) bool {
	if len(vars) == 0 {
		vars = s.vars
	}
	towers := s.ring.towerVars(s.eqs, vars)
	for _, eq := range s.eqs {
		if eq.TotalDegreeIn(towers) > 1 {
			return false
		}
	}
	return true
}

// IsHomogeneous reports whether each equation is homogeneous with respect to
// the elimination towers.
func (s *System) IsHomogeneous() bool {
	for _, eq := range s.eqs {
		deg := -1
		for _, t := range eq.terms {
			d := s.degreeInElim(t.m)
			if deg == -1 {
				deg = d
			} else if d != deg {
				return false
			}
		}
	}
	return true
}

// IsSP2 is the counting condition under which the elimination strategies
// apply: as many equations as algebraic variables when the system is
// homogeneous, one more otherwise.
func (s *System) IsSP2() bool {
	n := len(s.AlgebraicVariables())
	if s.IsHomogeneous() {
		return len(s.eqs) == n
	}
	return len(s.eqs) == n+1
}

// Equal compares the rings, the elimination sets and the ordered equations.
func (s *System) Equal(o *System) bool {
	if !s.ring.Equal(o.ring) || len(s.eqs) != len(o.eqs) || len(s.vars) != len(o.vars) {
		return false
	}
	for i, v := range s.vars {
		if o.vars[i] != v {
			return false
		}
	}
	for i, eq := range s.eqs {
		if !eq.Equal(o.eqs[i]) {
			return false
		}
	}
	return true
}

func (s *System) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "System over %s eliminating {%s}:\n", s.ring, strings.Join(s.vars, ", "))
	for i, eq := range s.eqs {
		fmt.Fprintf(&b, "  [%d] %s == 0\n", i, eq)
	}
	return b.String()
}
