package dalgebra

import "fmt"

// ============================================================
// Witness evaluation
// ============================================================

// Witness assigns each indeterminate an explicit element of the base ring.
type Witness map[string]*Poly

// EvalAt substitutes every tower element u_k of p by op^k of the witness
// value for u. Witness values may only mention base parameters.
func (r *Ring) EvalAt(p *Poly, w Witness) (*Poly, error) {
	sub := map[string]*Poly{}
	for _, v := range p.Vars() {
		u, k, ok := r.indexOf(v)
		if !ok {
			continue
		}
		val, ok := w[u]
		if !ok {
			return nil, fmt.Errorf("witness: no value for %q", u)
		}
		for _, bv := range val.Vars() {
			if !r.isParam(bv) {
				return nil, fmt.Errorf("witness: value for %q mentions %q, not a base parameter", u, bv)
			}
		}
		sub[v] = r.ApplyN(val, k)
	}
	return p.Substitute(sub), nil
}

// CheckWitness reports whether the witness solves every equation.
func (s *System) CheckWitness(w Witness) (bool, error) {
	for i, eq := range s.eqs {
		val, err := s.ring.EvalAt(eq, w)
		if err != nil {
			return false, fmt.Errorf("equation %d: %w", i, err)
		}
		if !val.IsZero() {
			return false, nil
		}
	}
	return true, nil
}
