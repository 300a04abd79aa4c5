package dalgebra

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// ============================================================
// Elimination engine
// ============================================================

type Strategy string

const (
	// StrategyAuto picks Macaulay for linear systems and the iterative
	// elimination otherwise.
	StrategyAuto      Strategy = "auto"
	StrategyMacaulay  Strategy = "macaulay"
	StrategyIterative Strategy = "iterative"
)

type Status int

const (
	StatusOK Status = iota
	// StatusNeedsDifferentStrategy: the chosen strategy cannot produce a
	// resultant for this system; another strategy may.
	StatusNeedsDifferentStrategy
	// StatusExtensionExhausted: no extension vector within the bound turns
	// the system into an SP2 system.
	StatusExtensionExhausted
	// StatusDegenerate: the elimination ran but the resultant vanishes.
	StatusDegenerate
	// StatusTimeout: the context deadline expired mid-computation.
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNeedsDifferentStrategy:
		return "needs-different-strategy"
	case StatusExtensionExhausted:
		return "extension-exhausted"
	case StatusDegenerate:
		return "degenerate"
	case StatusTimeout:
		return "timeout"
	}
	return "unknown"
}

// EliminationResult is the outcome of DiffResultant. Resultant is non-nil
// exactly when Status is StatusOK, and is always normalized.
type EliminationResult struct {
	Resultant *Poly
	Extension []int
	Status    Status
	Detail    string
}

// DefaultBound limits the extension search when Options.Bound is unset.
const DefaultBound = 10

type Options struct {
	Bound          int
	Strategy       Strategy
	Logger         *slog.Logger
	DumpMatrixPath string
}

func (o Options) withDefaults() Options {
	if o.Bound <= 0 {
		o.Bound = DefaultBound
	}
	if o.Strategy == "" {
		o.Strategy = StrategyAuto
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// DiffResultant eliminates the designated variables and returns the operator
// resultant. Successful and failed outcomes are cached per strategy, bound and
// dump path; timeouts are not.
func (s *System) DiffResultant(ctx context.Context, opts Options) EliminationResult {
	opts = opts.withDefaults()
	key := fmt.Sprintf("%s/%d/%s", opts.Strategy, opts.Bound, opts.DumpMatrixPath)
	if res, ok := s.resCache[key]; ok {
		return res
	}
	res := s.diffResultant(ctx, opts)
	if res.Status == StatusOK {
		if res.Resultant.IsZero() {
			res = EliminationResult{Status: StatusDegenerate, Extension: res.Extension,
				Detail: "the computed resultant vanishes"}
		} else {
			res.Resultant = res.Resultant.Normalize()
		}
	}
	if res.Status != StatusTimeout {
		s.resCache[key] = res
	}
	return res
}

func (s *System) diffResultant(ctx context.Context, opts Options) EliminationResult {
	if len(s.eqs) == 0 {
		return EliminationResult{Status: StatusDegenerate, Detail: "system has no equations"}
	}
	strategy := opts.Strategy
	if strategy == StrategyAuto {
		if s.IsLinear() {
			opts.Logger.Info("system is linear, using the Macaulay resultant")
			strategy = StrategyMacaulay
		} else {
			opts.Logger.Info("system is nonlinear, using iterative elimination")
			strategy = StrategyIterative
		}
	}
	switch strategy {
	case StrategyMacaulay:
		res := s.macaulayResultant(ctx, opts)
		if res.Status == StatusNeedsDifferentStrategy && opts.Strategy == StrategyAuto {
			opts.Logger.Info("Macaulay failed, falling back to iterative elimination",
				"detail", res.Detail)
			forced := opts
			forced.Strategy = StrategyIterative
			return s.iterativeResultant(ctx, forced)
		}
		return res
	case StrategyIterative:
		return s.iterativeResultant(ctx, opts)
	}
	return EliminationResult{Status: StatusNeedsDifferentStrategy,
		Detail: fmt.Sprintf("unknown strategy %q", opts.Strategy)}
}

// ============================================================
// Extension search
// ============================================================

// enumVectors walks the length-n vectors with the given sum and entry bound
// in lexicographic order; f returns true to stop the walk.
func enumVectors(n, sum, bound int, f func([]int) bool) bool {
	vec := make([]int, n)
	var rec func(i, rem int) bool
	rec = func(i, rem int) bool {
		if i == n-1 {
			if rem > bound {
				return false
			}
			vec[i] = rem
			return f(vec)
		}
		for v := 0; v <= rem && v <= bound; v++ {
			vec[i] = v
			if rec(i+1, rem-v) {
				return true
			}
		}
		return false
	}
	if n == 0 {
		return sum == 0 && f(vec)
	}
	return rec(0, sum)
}

// findExtension looks for the first extension vector, by ascending total sum
// and then lexicographic order, whose extension satisfies SP2.
func (s *System) findExtension(ctx context.Context, opts Options) (*System, []int, EliminationResult) {
	n := len(s.eqs)
	for total := 0; total <= opts.Bound*n; total++ {
		if ctx.Err() != nil {
			return nil, nil, EliminationResult{Status: StatusTimeout,
				Detail: "deadline exceeded during the extension search"}
		}
		var found *System
		var vec []int
		enumVectors(n, total, opts.Bound, func(L []int) bool {
			ext, err := s.ExtendByOperation(L)
			if err != nil {
				return false
			}
			if ext.IsSP2() {
				found = ext
				vec = append([]int(nil), L...)
				return true
			}
			return ctx.Err() != nil
		})
		if ctx.Err() != nil && found == nil {
			return nil, nil, EliminationResult{Status: StatusTimeout,
				Detail: "deadline exceeded during the extension search"}
		}
		if found != nil {
			opts.Logger.Info("found SP2 extension", "vector", vec)
			return found, vec, EliminationResult{Status: StatusOK}
		}
	}
	return nil, nil, EliminationResult{Status: StatusExtensionExhausted,
		Detail: fmt.Sprintf("no SP2 extension with entries up to %d", opts.Bound)}
}

// FindSP2Extension searches for the first extension vector that turns the
// system into an SP2 system, without computing a resultant.
func (s *System) FindSP2Extension(ctx context.Context, bound int) ([]int, error) {
	_, vec, st := s.findExtension(ctx, Options{Bound: bound}.withDefaults())
	if st.Status != StatusOK {
		return nil, fmt.Errorf("%s: %s", st.Status, st.Detail)
	}
	return vec, nil
}

// ============================================================
// Macaulay resultant
// ============================================================

func (s *System) macaulayResultant(ctx context.Context, opts Options) EliminationResult {
	ext, vec, st := s.findExtension(ctx, opts)
	if st.Status != StatusOK {
		return st
	}
	res := macaulay(ctx, ext, opts)
	res.Extension = vec
	return res
}

// macaulay computes the classical Macaulay resultant of the flattened
// extended system: homogenize if needed, pair equation i with variable i,
// build the degree-D Macaulay matrix and divide its determinant by the
// determinant of the non-reduced minor.
func macaulay(ctx context.Context, ext *System, opts Options) EliminationResult {
	algVars := ext.AlgebraicVariables()
	eqs := ext.AlgebraicEquations()

	degs := make([]int, len(eqs))
	for i, eq := range eqs {
		degs[i] = eq.TotalDegreeIn(algVars)
		if degs[i] == 0 {
			return EliminationResult{Status: StatusNeedsDifferentStrategy,
				Detail: fmt.Sprintf("equation %d is free of the elimination variables", i)}
		}
	}

	mvars := algVars
	if !ext.IsHomogeneous() {
		h := freshVar(ext)
		hom := make([]*Poly, len(eqs))
		for i, eq := range eqs {
			hom[i] = homogenize(eq, algVars, h, degs[i])
		}
		eqs = hom
		mvars = append(append([]string(nil), algVars...), h)
	}
	if len(eqs) != len(mvars) {
		return EliminationResult{Status: StatusNeedsDifferentStrategy,
			Detail: fmt.Sprintf("%d equations for %d variables", len(eqs), len(mvars))}
	}

	// Total degree of the Macaulay matrix.
	D := 1
	for _, d := range degs {
		D += d - 1
	}

	var cols []mono
	enumVectors(len(mvars), D, D, func(exps []int) bool {
		names := map[string]int{}
		for i, e := range exps {
			names[mvars[i]] = e
		}
		cols = append(cols, monoOf(names))
		return false
	})
	sort.Slice(cols, func(i, j int) bool { return compareMono(cols[i], cols[j]) > 0 })
	opts.Logger.Info("building Macaulay matrix", "size", len(cols), "degree", D)

	colIndex := map[string]int{}
	for i, c := range cols {
		colIndex[c.key()] = i
	}
	mvarSet := map[string]bool{}
	for _, v := range mvars {
		mvarSet[v] = true
	}

	m := NewPolyMatrix(len(cols), len(cols))
	var nonReduced []int
	for r, cm := range cols {
		if ctx.Err() != nil {
			return EliminationResult{Status: StatusTimeout, Detail: "deadline exceeded building the Macaulay matrix"}
		}
		owner := -1
		divisors := 0
		for i := range eqs {
			if cm.exp(mvars[i]) >= degs[i] {
				divisors++
				if owner < 0 {
					owner = i
				}
			}
		}
		if owner < 0 {
			return EliminationResult{Status: StatusNeedsDifferentStrategy,
				Detail: fmt.Sprintf("monomial %s has no owning equation", cm.key())}
		}
		if divisors > 1 {
			nonReduced = append(nonReduced, r)
		}
		mult, _ := cm.div(monoOf(map[string]int{mvars[owner]: degs[owner]}))
		row := newPoly()
		row.addTerm(mult, ratOne())
		row = row.Mul(eqs[owner])
		for key, coeff := range splitByVars(row, mvarSet) {
			c, ok := colIndex[key]
			if !ok {
				return EliminationResult{Status: StatusNeedsDifferentStrategy,
					Detail: fmt.Sprintf("monomial %s outside the degree-%d basis", key, D)}
			}
			m.data[r][c] = coeff
		}
	}

	if ctx.Err() != nil {
		return EliminationResult{Status: StatusTimeout, Detail: "deadline exceeded before the Macaulay determinant"}
	}
	num := m.Det()
	if num.IsZero() {
		return EliminationResult{Status: StatusDegenerate, Detail: "the Macaulay determinant vanishes"}
	}
	if len(nonReduced) == 0 {
		return EliminationResult{Resultant: num, Status: StatusOK}
	}

	minor := NewPolyMatrix(len(nonReduced), len(nonReduced))
	for a, r := range nonReduced {
		for b, c := range nonReduced {
			minor.data[a][b] = m.data[r][c].clone()
		}
	}
	if ctx.Err() != nil {
		return EliminationResult{Status: StatusTimeout, Detail: "deadline exceeded before the Macaulay minor"}
	}
	den := minor.Det()
	if den.IsZero() {
		return EliminationResult{Status: StatusNeedsDifferentStrategy,
			Detail: "the non-reduced Macaulay minor is singular"}
	}
	q, ok := divExact(num, den)
	if !ok {
		return EliminationResult{Status: StatusNeedsDifferentStrategy,
			Detail: "the Macaulay quotient is not exact"}
	}
	return EliminationResult{Resultant: q, Status: StatusOK}
}

// freshVar picks a homogenization variable foreign to the ring and to every
// occurring symbol.
func freshVar(s *System) string {
	used := map[string]bool{}
	for _, eq := range s.eqs {
		for _, v := range eq.Vars() {
			used[v] = true
		}
	}
	for _, p := range s.ring.params {
		used[p] = true
	}
	for _, u := range s.ring.inds {
		used[u] = true
	}
	name := "h"
	for {
		if !used[name] {
			if base, _, ok := splitIndex(name); !ok || !used[base] {
				return name
			}
		}
		name += "h"
	}
}

// homogenize pads every term of p with powers of h up to degree d in vars.
func homogenize(p *Poly, vars []string, h string, d int) *Poly {
	set := map[string]bool{}
	for _, v := range vars {
		set[v] = true
	}
	out := newPoly()
	for _, t := range p.terms {
		td := 0
		for _, v := range t.m.vp {
			if set[v.name] {
				td += v.exp
			}
		}
		out.addTerm(t.m.mul(monoOf(map[string]int{h: d - td})), t.c)
	}
	return out
}

// splitByVars groups the terms of p by their power product in vars; values
// are the cofactor polynomials in the remaining symbols.
func splitByVars(p *Poly, vars map[string]bool) map[string]*Poly {
	out := map[string]*Poly{}
	for _, t := range p.terms {
		in := map[string]int{}
		rest := map[string]int{}
		for _, v := range t.m.vp {
			if vars[v.name] {
				in[v.name] = v.exp
			} else {
				rest[v.name] = v.exp
			}
		}
		key := monoOf(in).key()
		if out[key] == nil {
			out[key] = newPoly()
		}
		out[key].addTerm(monoOf(rest), t.c)
	}
	return out
}

// ============================================================
// Iterative elimination
// ============================================================

func (s *System) iterativeResultant(ctx context.Context, opts Options) EliminationResult {
	if ctx.Err() != nil {
		return EliminationResult{Status: StatusTimeout, Detail: "deadline exceeded"}
	}

	// Eliminate a maximal linear subset first, unless iteration was forced.
	if opts.Strategy != StrategyIterative {
		if linVars := s.maximalLinearVariables(); len(linVars) > 0 {
			return s.eliminateLinear(ctx, opts, linVars)
		}
	}

	if len(s.vars) > 1 {
		return s.eliminateBestVariable(ctx, opts)
	}
	return s.eliminateSingleVariable(ctx, opts)
}

// maximalLinearVariables finds the largest subset of the elimination set in
// which every equation is linear; subsets with a rejected subset are pruned.
func (s *System) maximalLinearVariables() []string {
	var rejected [][]string
	var best []string
	n := len(s.vars)
	for mask := 1; mask < 1<<uint(n); mask++ {
		var sub []string
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				sub = append(sub, s.vars[i])
			}
		}
		if containsAnySubset(sub, rejected) {
			continue
		}
		if s.IsLinear(sub...) {
			if len(sub) > len(best) {
				best = sub
			}
		} else {
			rejected = append(rejected, sub)
		}
	}
	return best
}

func containsAnySubset(sub []string, rejected [][]string) bool {
	set := map[string]bool{}
	for _, v := range sub {
		set[v] = true
	}
	for _, r := range rejected {
		all := true
		for _, v := range r {
			if !set[v] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// eliminateLinear removes the linear variables through recursive subsystem
// resultants against the smallest base equations, then recurses on the rest.
func (s *System) eliminateLinear(ctx context.Context, opts Options, linVars []string) EliminationResult {
	opts.Logger.Info("eliminating linear variables first", "vars", linVars)
	if len(linVars) > s.Size() {
		return EliminationResult{Status: StatusNeedsDifferentStrategy,
			Detail: fmt.Sprintf("%d linear variables but only %d equations", len(linVars), s.Size())}
	}
	sys, err := s.ChangeVariables(linVars...)
	if err != nil {
		return EliminationResult{Status: StatusNeedsDifferentStrategy, Detail: err.Error()}
	}
	order := make([]int, sys.Size())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(sys.eqs[order[a]].terms) < len(sys.eqs[order[b]].terms)
	})
	base := order[:len(linVars)]
	var newEqs []*Poly
	for _, i := range order[len(linVars):] {
		refs := make([]EquationRef, 0, len(base)+1)
		for _, b := range base {
			refs = append(refs, EquationRef{Index: b})
		}
		refs = append(refs, EquationRef{Index: i})
		sub, err := sys.Subsystem(refs, nil)
		if err != nil {
			return EliminationResult{Status: StatusNeedsDifferentStrategy, Detail: err.Error()}
		}
		inner := sub.DiffResultant(ctx, Options{Bound: opts.Bound, Logger: opts.Logger,
			DumpMatrixPath: opts.DumpMatrixPath})
		if inner.Status != StatusOK {
			inner.Detail = "eliminating linear variables: " + inner.Detail
			return inner
		}
		newEqs = append(newEqs, inner.Resultant)
	}
	var rem []string
	linSet := map[string]bool{}
	for _, v := range linVars {
		linSet[v] = true
	}
	for _, v := range s.vars {
		if !linSet[v] {
			rem = append(rem, v)
		}
	}
	if len(rem) == 0 {
		if len(newEqs) == 0 {
			return EliminationResult{Status: StatusDegenerate,
				Detail: "no equations remain after eliminating the linear variables"}
		}
		return EliminationResult{Resultant: smallestPoly(newEqs), Status: StatusOK}
	}
	next, err := NewSystem(s.ring, newEqs, rem)
	if err != nil {
		return EliminationResult{Status: StatusNeedsDifferentStrategy, Detail: err.Error()}
	}
	return next.DiffResultant(ctx, opts)
}

// eliminateBestVariable removes one differential variable by pairwise
// elimination against the minimal-order pivot, then recurses.
func (s *System) eliminateBestVariable(ctx context.Context, opts Options) EliminationResult {
	v := s.bestVariable()
	opts.Logger.Info("eliminating differential variable", "var", v)
	var rem []string
	for _, nv := range s.vars {
		if nv != v {
			rem = append(rem, nv)
		}
	}
	if s.Order(v) < 0 {
		next, err := s.ChangeVariables(rem...)
		if err != nil {
			return EliminationResult{Status: StatusNeedsDifferentStrategy, Detail: err.Error()}
		}
		return next.DiffResultant(ctx, opts)
	}
	var withV, others []int
	for i, eq := range s.eqs {
		if s.ring.orderIn(eq, v) >= 0 {
			withV = append(withV, i)
		} else {
			others = append(others, i)
		}
	}
	sort.SliceStable(withV, func(a, b int) bool {
		return s.ring.orderIn(s.eqs[withV[a]], v) < s.ring.orderIn(s.eqs[withV[b]], v)
	})
	if len(withV) < 2 {
		return EliminationResult{Status: StatusNeedsDifferentStrategy,
			Detail: fmt.Sprintf("not enough equations to eliminate %q", v)}
	}
	pivot := withV[0]
	var newEqs []*Poly
	for _, i := range withV[1:] {
		sub, err := s.Subsystem([]EquationRef{{Index: pivot}, {Index: i}}, []string{v})
		if err != nil {
			return EliminationResult{Status: StatusNeedsDifferentStrategy, Detail: err.Error()}
		}
		inner := sub.DiffResultant(ctx, opts)
		if inner.Status != StatusOK {
			inner.Detail = fmt.Sprintf("eliminating %q: %s", v, inner.Detail)
			return inner
		}
		newEqs = append(newEqs, inner.Resultant)
	}
	for _, i := range others {
		newEqs = append(newEqs, s.eqs[i].clone())
	}
	next, err := NewSystem(s.ring, newEqs, rem)
	if err != nil {
		return EliminationResult{Status: StatusNeedsDifferentStrategy, Detail: err.Error()}
	}
	return next.DiffResultant(ctx, opts)
}

// bestVariable scores each elimination variable by the order-weighted measure
// sum of k^deg over its occurring tower elements; lowest wins, first on ties.
func (s *System) bestVariable() string {
	best := s.vars[0]
	bestM := s.variableMeasure(best)
	for _, nv := range s.vars[1:] {
		if m := s.variableMeasure(nv); m < bestM {
			best, bestM = nv, m
		}
	}
	return best
}

func (s *System) variableMeasure(v string) int {
	c := 0
	for _, eq := range s.eqs {
		for _, name := range eq.Vars() {
			if u, k, ok := s.ring.indexOf(name); ok && u == v {
				c += intPow(k, eq.Degree(name))
			}
		}
	}
	return c
}

func intPow(b, e int) int {
	r := 1
	for i := 0; i < e; i++ {
		r *= b
	}
	return r
}

// eliminateSingleVariable extends the system to SP2 and removes the tower of
// the last variable by repeated Sylvester resultants.
func (s *System) eliminateSingleVariable(ctx context.Context, opts Options) EliminationResult {
	logger := opts.Logger
	ext, vec, st := s.findExtension(ctx, opts)
	if st.Status != StatusOK {
		return st
	}
	algEqs := ext.AlgebraicEquations()
	algVars := ext.AlgebraicVariables()
	logger.Info("starting algebraic elimination", "vars", algVars, "equations", len(algEqs))

	for len(algEqs) > 1 && len(algVars) > 0 {
		if ctx.Err() != nil {
			return EliminationResult{Status: StatusTimeout, Detail: "deadline exceeded during algebraic elimination"}
		}
		// The variable that appears in the fewest equations goes first;
		// the last such variable on ties.
		appearances := make([]int, len(algVars))
		for iv, v := range algVars {
			for _, eq := range algEqs {
				if eq.Degree(v) > 0 {
					appearances[iv]++
				}
			}
		}
		iv := 0
		for i := 1; i < len(appearances); i++ {
			if appearances[i] <= appearances[iv] {
				iv = i
			}
		}
		v := algVars[iv]
		algVars = append(algVars[:iv], algVars[iv+1:]...)
		logger.Info("eliminating algebraic variable", "var", v, "appearances", appearances)
		// Pivot: the equation of minimal positive degree in v, first on ties.
		pivotIdx := -1
		for i, eq := range algEqs {
			d := eq.Degree(v)
			if d > 0 && (pivotIdx < 0 || d < algEqs[pivotIdx].Degree(v)) {
				pivotIdx = i
			}
		}
		if pivotIdx < 0 {
			// v vanished from the system along the way; nothing to do.
			continue
		}
		pivot := algEqs[pivotIdx]
		algEqs = append(algEqs[:pivotIdx], algEqs[pivotIdx+1:]...)

		for i := range algEqs {
			if algEqs[i].Degree(v) == 0 {
				continue
			}
			if ctx.Err() != nil {
				return EliminationResult{Status: StatusTimeout, Detail: "deadline exceeded during algebraic elimination"}
			}
			syl := SylvesterMatrix(pivot, algEqs[i], v)
			if len(algVars) == 0 && opts.DumpMatrixPath != "" {
				if err := WriteMatrixFile(opts.DumpMatrixPath, syl); err != nil {
					logger.Warn("could not store the Sylvester matrix", "path", opts.DumpMatrixPath, "err", err)
				}
			}
			algEqs[i] = syl.Det()
		}
	}

	// No eliminated variable may survive.
	old := map[string]bool{}
	for _, v := range ext.AlgebraicVariables() {
		old[v] = true
	}
	for _, eq := range algEqs {
		for _, v := range eq.Vars() {
			if old[v] {
				return EliminationResult{Status: StatusNeedsDifferentStrategy, Extension: vec,
					Detail: fmt.Sprintf("variable %q survived the elimination", v)}
			}
		}
	}
	if len(algEqs) == 0 {
		return EliminationResult{Status: StatusDegenerate, Extension: vec,
			Detail: "no equations remain after the elimination"}
	}
	return EliminationResult{Resultant: smallestPoly(algEqs), Extension: vec, Status: StatusOK}
}

// smallestPoly picks the minimal polynomial by total degree squared plus
// monomial count; first on ties.
func smallestPoly(ps []*Poly) *Poly {
	best := ps[0]
	bestM := best.TotalDegree()*best.TotalDegree() + len(best.terms)
	for _, p := range ps[1:] {
		if m := p.TotalDegree()*p.TotalDegree() + len(p.terms); m < bestM {
			best, bestM = p, m
		}
	}
	return best.clone()
}
