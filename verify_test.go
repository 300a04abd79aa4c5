package dalgebra_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dalgebra"
)

func TestWitnessEvaluation(t *testing.T) {
	ring := diffRing(t)
	u, v := ring.Gen("u"), ring.Gen("v")
	x := dalgebra.S("x")

	// u' = 1 and v = u admit u = x, v = x.
	e1 := u.At(1).Sub(dalgebra.N(1))
	e2 := v.At(0).Sub(u.At(0))
	sys, err := dalgebra.NewSystem(ring, []*dalgebra.Poly{e1, e2}, []string{"u"})
	require.NoError(t, err)

	w := dalgebra.Witness{"u": x, "v": x}
	ok, err := sys.CheckWitness(w)
	require.NoError(t, err)
	require.True(t, ok)

	// Eliminating u gives v' - 1, which the witness also annihilates.
	res := sys.DiffResultant(context.Background(), dalgebra.Options{})
	require.Equal(t, dalgebra.StatusOK, res.Status, res.Detail)
	if got, want := res.Resultant.String(), "v_1 - 1"; got != want {
		t.Errorf("resultant = %q, want %q", got, want)
	}
	val, err := ring.EvalAt(res.Resultant, w)
	require.NoError(t, err)
	require.True(t, val.IsZero())

	// A wrong witness is rejected but not an error.
	bad := dalgebra.Witness{"u": x.Pow(2), "v": x}
	ok, err = sys.CheckWitness(bad)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWitnessErrors(t *testing.T) {
	ring := diffRing(t)
	u := ring.Gen("u")

	_, err := ring.EvalAt(u.At(2), dalgebra.Witness{})
	require.Error(t, err, "missing witness value")

	// Witness values must live in the base ring.
	_, err = ring.EvalAt(u.At(0), dalgebra.Witness{"u": dalgebra.S("v_0")})
	require.Error(t, err)

	// Parameters pass through untouched.
	got, err := ring.EvalAt(dalgebra.S("x").Pow(2), dalgebra.Witness{})
	require.NoError(t, err)
	require.Equal(t, "x^2", got.String())
}
