package dalgebra_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"dalgebra"
)

func TestLinearODEResultant(t *testing.T) {
	sys := linearODESystem(t)

	res := sys.DiffResultant(context.Background(), dalgebra.Options{})
	require.Equal(t, dalgebra.StatusOK, res.Status, res.Detail)
	require.Equal(t, []int{1, 2}, res.Extension)

	// -x^3*v'''' + (x^3 - x^2)*v''' + x*v' - v, up to normalization.
	want, err := dalgebra.ParsePoly("-x^3*v_4 + (x^3 - x^2)*v_3 + x*v_1 - v_0")
	require.NoError(t, err)
	if !res.Resultant.Equal(want) {
		t.Fatalf("resultant = %s, want %s", res.Resultant, want)
	}
	require.Equal(t, []string{"v_0", "v_1", "v_3", "v_4", "x"}, res.Resultant.Vars())

	// Idempotence: asking again returns an equal result.
	again := sys.DiffResultant(context.Background(), dalgebra.Options{})
	require.Equal(t, dalgebra.StatusOK, again.Status)
	if !again.Resultant.Equal(res.Resultant) {
		t.Error("second call returned a different resultant")
	}
	require.Equal(t, res.Extension, again.Extension)
}

// epidemicSystem is the two-equation C/S difference model, eliminating S.
func epidemicSystem(t *testing.T) *dalgebra.System {
	t.Helper()
	ring, err := dalgebra.NewDifferenceRing(
		[]string{"K_se", "K_cp", "K_rb", "K_sc", "I_0"},
		nil,
		[]string{"C", "S"},
	)
	require.NoError(t, err)
	C, S := ring.Gen("C"), ring.Gen("S")
	kse, kcp := dalgebra.S("K_se"), dalgebra.S("K_cp")
	krb, ksc := dalgebra.S("K_rb"), dalgebra.S("K_sc")
	i0 := dalgebra.S("I_0")
	one := dalgebra.N(1)

	e1 := C.At(1).
		Sub(dalgebra.MulOf(kse, i0, S.At(0))).
		Sub(one.Sub(kcp).Sub(krb).Mul(C.At(0))).
		Add(dalgebra.MulOf(kse, S.At(0), C.At(0)))
	e2 := S.At(1).
		Sub(one.Sub(kse.Mul(i0)).Mul(S.At(0))).
		Sub(krb.Mul(C.At(0))).
		Sub(dalgebra.MulOf(ksc, C.At(0), S.At(0)))

	sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{e1, e2}, []string{"S"})
	require.NoError(t, err)
	return sys
}

func TestEpidemicResultant(t *testing.T) {
	sys := epidemicSystem(t)
	require.True(t, sys.IsLinear(), "the model is linear in the S towers")

	ext, err := sys.ExtendByDifference([]int{1, 0})
	require.NoError(t, err)
	require.True(t, ext.IsSP2())
	require.Equal(t, []string{"S_0", "S_1"}, ext.AlgebraicVariables())

	res := sys.DiffResultant(context.Background(), dalgebra.Options{})
	require.Equal(t, dalgebra.StatusOK, res.Status, res.Detail)
	require.Equal(t, []int{1, 0}, res.Extension)

	// No S tower element survives the elimination.
	for _, v := range res.Resultant.Vars() {
		require.NotContains(t, []string{"S_0", "S_1", "S_2"}, v)
	}
	require.Equal(t, 3, res.Resultant.TotalDegreeIn([]string{"C_0", "C_1", "C_2"}))

	// The linear Macaulay resultant is the coefficient determinant of the
	// extension, row i against variable i and the constant column last.
	eqs := ext.AlgebraicEquations()
	m := dalgebra.NewPolyMatrix(3, 3)
	for r, eq := range eqs {
		rest := eq.Substitute(map[string]*dalgebra.Poly{
			"S_0": dalgebra.N(0), "S_1": dalgebra.N(0),
		})
		if c := eq.CoeffsIn("S_0")[1]; c != nil {
			m.Set(r, 0, c)
		}
		if c := eq.CoeffsIn("S_1")[1]; c != nil {
			m.Set(r, 1, c)
		}
		m.Set(r, 2, rest)
	}
	want := m.Det().Normalize()
	if !res.Resultant.Equal(want) {
		t.Fatalf("resultant = %s, want determinant %s", res.Resultant, want)
	}
}

func TestDoublingSequenceResultant(t *testing.T) {
	ring, err := dalgebra.NewDifferenceRing(nil, nil, []string{"a", "b"})
	require.NoError(t, err)
	a, b := ring.Gen("a"), ring.Gen("b")

	// a_{n+1} = 2 a_n and b_n = 3 a_n force b_{n+1} = 2 b_n.
	f1 := a.At(1).Sub(dalgebra.N(2).Mul(a.At(0)))
	f2 := b.At(0).Sub(dalgebra.N(3).Mul(a.At(0)))
	sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{f1, f2}, []string{"a"})
	require.NoError(t, err)

	res := sys.DiffResultant(context.Background(), dalgebra.Options{})
	require.Equal(t, dalgebra.StatusOK, res.Status, res.Detail)
	require.Equal(t, []int{0, 1}, res.Extension)
	if got, want := res.Resultant.String(), "2*b_0 - b_1"; got != want {
		t.Errorf("resultant = %q, want %q", got, want)
	}

	// The relation holds on the explicit sequence a_n = 5*2^n, b_n = 15*2^n.
	check := res.Resultant.Substitute(map[string]*dalgebra.Poly{
		"b_0": dalgebra.N(15), "b_1": dalgebra.N(30),
	})
	require.True(t, check.IsZero())
}

func TestIterativeSquareRootElimination(t *testing.T) {
	ring, err := dalgebra.NewDifferenceRing(nil, nil, []string{"u", "b"})
	require.NoError(t, err)
	u, b := ring.Gen("u"), ring.Gen("b")

	// u_n^2 = b_n and u_{n+1} = u_n force b_{n+1} = b_n, seen through the
	// squared resultant (b_0 - b_1)^2.
	e1 := u.At(0).Pow(2).Sub(b.At(0))
	e2 := u.At(1).Sub(u.At(0))
	sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{e1, e2}, []string{"u"})
	require.NoError(t, err)
	require.False(t, sys.IsLinear())

	// A run without a dump path must not shadow a later run with one.
	plain := sys.DiffResultant(context.Background(), dalgebra.Options{})
	require.Equal(t, dalgebra.StatusOK, plain.Status, plain.Detail)

	dumpPath := filepath.Join(t.TempDir(), "sylvester.txt")
	res := sys.DiffResultant(context.Background(), dalgebra.Options{DumpMatrixPath: dumpPath})
	require.Equal(t, dalgebra.StatusOK, res.Status, res.Detail)
	require.Equal(t, []int{1, 0}, res.Extension)
	require.True(t, res.Resultant.Equal(plain.Resultant))
	if got, want := res.Resultant.String(), "b_0^2 - 2*b_0*b_1 + b_1^2"; got != want {
		t.Errorf("resultant = %q, want %q", got, want)
	}

	// The final Sylvester matrix was persisted in the dump format.
	m, err := dalgebra.ReadMatrixFile(dumpPath)
	require.NoError(t, err)
	require.Equal(t, 4, m.Rows())
	require.Equal(t, 4, m.Cols())
	if got, want := m.Get(0, 2).String(), "-b_0"; got != want {
		t.Errorf("dumped entry (0,2) = %q, want %q", got, want)
	}
}

func TestMacaulayResultant(t *testing.T) {
	t.Run("univariate", func(t *testing.T) {
		ring, err := dalgebra.NewDifferenceRing(nil, nil, []string{"u", "b"})
		require.NoError(t, err)
		u, b := ring.Gen("u"), ring.Gen("b")

		// u_0^2 = b_0 and u_0 = b_1: the classical resultant b_1^2 - b_0.
		e1 := u.At(0).Pow(2).Sub(b.At(0))
		e2 := u.At(0).Sub(b.At(1))
		sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{e1, e2}, []string{"u"})
		require.NoError(t, err)

		mac := sys.DiffResultant(context.Background(), dalgebra.Options{Strategy: dalgebra.StrategyMacaulay})
		require.Equal(t, dalgebra.StatusOK, mac.Status, mac.Detail)
		require.Equal(t, []int{0, 0}, mac.Extension)
		if got, want := mac.Resultant.String(), "b_1^2 - b_0"; got != want {
			t.Errorf("resultant = %q, want %q", got, want)
		}

		// Both strategies agree on the normalized resultant.
		iter := sys.DiffResultant(context.Background(), dalgebra.Options{Strategy: dalgebra.StrategyIterative})
		require.Equal(t, dalgebra.StatusOK, iter.Status, iter.Detail)
		require.True(t, mac.Resultant.Equal(iter.Resultant))
	})

	t.Run("quadratic tower", func(t *testing.T) {
		ring, err := dalgebra.NewDifferenceRing(nil, nil, []string{"u", "b"})
		require.NoError(t, err)
		u, b := ring.Gen("u"), ring.Gen("b")

		// The degree-3 Macaulay matrix of the [1,0] extension of u_n^2 = b_n,
		// u_{n+1} = u_n, including its non-reduced minor.
		e1 := u.At(0).Pow(2).Sub(b.At(0))
		e2 := u.At(1).Sub(u.At(0))
		sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{e1, e2}, []string{"u"})
		require.NoError(t, err)

		res := sys.DiffResultant(context.Background(), dalgebra.Options{Strategy: dalgebra.StrategyMacaulay})
		require.Equal(t, dalgebra.StatusOK, res.Status, res.Detail)
		require.Equal(t, []int{1, 0}, res.Extension)
		if got, want := res.Resultant.String(), "b_0^2 - 2*b_0*b_1 + b_1^2"; got != want {
			t.Errorf("resultant = %q, want %q", got, want)
		}
	})
}

func TestMacaulayFallback(t *testing.T) {
	ring, err := dalgebra.NewDifferenceRing(nil, nil, []string{"u", "v"})
	require.NoError(t, err)
	u, v := ring.Gen("u"), ring.Gen("v")

	// Linear, so auto starts with Macaulay; the second equation is free of
	// the u tower, which Macaulay cannot pair, and the iterative fallback
	// finishes the elimination.
	e1 := u.At(1).Sub(v.At(0))
	e2 := v.At(1).Sub(v.At(0))
	sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{e1, e2}, []string{"u"})
	require.NoError(t, err)
	require.True(t, sys.IsLinear())

	res := sys.DiffResultant(context.Background(), dalgebra.Options{})
	require.Equal(t, dalgebra.StatusOK, res.Status, res.Detail)
	require.Equal(t, []int{0, 0}, res.Extension)
	if got, want := res.Resultant.String(), "v_0 - v_1"; got != want {
		t.Errorf("resultant = %q, want %q", got, want)
	}
}

func TestUnderdeterminedSystem(t *testing.T) {
	ring, err := dalgebra.NewDifferenceRing(nil, nil, []string{"u", "v", "w"})
	require.NoError(t, err)
	u, v, w := ring.Gen("u"), ring.Gen("v"), ring.Gen("w")

	// One equation cannot support a two-variable linear pre-elimination; the
	// engine must report a status instead of failing.
	eq := u.At(0).Add(v.At(0)).Add(w.At(0).Pow(2))
	sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{eq}, nil)
	require.NoError(t, err)

	res := sys.DiffResultant(context.Background(), dalgebra.Options{})
	require.Equal(t, dalgebra.StatusNeedsDifferentStrategy, res.Status, res.Detail)
	require.Nil(t, res.Resultant)
}

func TestMultiVariableElimination(t *testing.T) {
	ring, err := dalgebra.NewDifferenceRing(nil, nil, []string{"u", "v", "w"})
	require.NoError(t, err)
	u, v, w := ring.Gen("u"), ring.Gen("v"), ring.Gen("w")

	// u_n^2 = w_n, u_n = v_n, v_n^2 = w_{n+1}: eliminating u and v leaves
	// the shifted-square relation (w_0 - w_1)^2 = 0.
	e1 := u.At(0).Pow(2).Sub(w.At(0))
	e2 := u.At(0).Sub(v.At(0))
	e3 := v.At(0).Pow(2).Sub(w.At(1))
	sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{e1, e2, e3}, []string{"u", "v"})
	require.NoError(t, err)

	res := sys.DiffResultant(context.Background(), dalgebra.Options{})
	require.Equal(t, dalgebra.StatusOK, res.Status, res.Detail)
	if got, want := res.Resultant.String(), "w_0^2 - 2*w_0*w_1 + w_1^2"; got != want {
		t.Errorf("resultant = %q, want %q", got, want)
	}
}

func TestLinearSubsetElimination(t *testing.T) {
	ring, err := dalgebra.NewDifferenceRing(nil, nil, []string{"u", "v", "w"})
	require.NoError(t, err)
	u, v, w := ring.Gen("u"), ring.Gen("v"), ring.Gen("w")

	// Linear in u, quadratic in v: the engine removes u first through the
	// recursive subsystem resultants, then eliminates v iteratively.
	e1 := u.At(0).Sub(w.At(0).Mul(v.At(0).Pow(2))).Sub(dalgebra.N(1))
	e2 := u.At(1).Sub(v.At(0))
	e3 := v.At(1).Sub(v.At(0))
	sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{e1, e2, e3}, []string{"u", "v"})
	require.NoError(t, err)
	require.False(t, sys.IsLinear())
	require.True(t, sys.IsLinear("u"))

	res := sys.DiffResultant(context.Background(), dalgebra.Options{})
	require.Equal(t, dalgebra.StatusOK, res.Status, res.Detail)
	if got, want := res.Resultant.String(), "w_1^2 - 2*w_1*w_2 + w_2^2"; got != want {
		t.Errorf("resultant = %q, want %q", got, want)
	}
}

func TestResultantFailures(t *testing.T) {
	t.Run("extension exhausted", func(t *testing.T) {
		ring, err := dalgebra.NewDifferentialRing(nil, nil, []string{"u"})
		require.NoError(t, err)
		u := ring.Gen("u")
		// One equation mixing two tower levels never balances.
		eq := u.At(0).Mul(u.At(1)).Add(dalgebra.N(1))
		sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{eq}, []string{"u"})
		require.NoError(t, err)

		res := sys.DiffResultant(context.Background(), dalgebra.Options{Bound: 3})
		require.Equal(t, dalgebra.StatusExtensionExhausted, res.Status)
		require.Nil(t, res.Resultant)
	})

	t.Run("degenerate", func(t *testing.T) {
		ring, err := dalgebra.NewDifferentialRing(nil, nil, []string{"u"})
		require.NoError(t, err)
		u := ring.Gen("u")
		// Proportional equations have a vanishing determinant.
		e1 := u.At(0).Add(dalgebra.N(1))
		e2 := dalgebra.N(2).Mul(u.At(0)).Add(dalgebra.N(2))
		sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{e1, e2}, []string{"u"})
		require.NoError(t, err)

		res := sys.DiffResultant(context.Background(), dalgebra.Options{})
		require.Equal(t, dalgebra.StatusDegenerate, res.Status)
	})

	t.Run("timeout", func(t *testing.T) {
		sys := linearODESystem(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := sys.DiffResultant(ctx, dalgebra.Options{})
		require.Equal(t, dalgebra.StatusTimeout, res.Status)
		require.Nil(t, res.Resultant)
	})
}

func TestFindSP2Extension(t *testing.T) {
	sys := linearODESystem(t)
	vec, err := sys.FindSP2Extension(context.Background(), dalgebra.DefaultBound)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, vec)
}
