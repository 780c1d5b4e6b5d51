package angle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.InDelta(t, 0, Normalize(360), 1e-12)
	require.InDelta(t, 350, Normalize(-10), 1e-12)
	require.InDelta(t, 10, Normalize(730), 1e-12)
	require.InDelta(t, 0, Normalize(-720), 1e-12)
}

func TestSignedDelta(t *testing.T) {
	require.InDelta(t, 20, SignedDelta(10, 350), 1e-12)
	require.InDelta(t, -20, SignedDelta(350, 10), 1e-12)
	require.InDelta(t, 180, SignedDelta(180, 0), 1e-12)
	require.InDelta(t, 180, SignedDelta(0, 180), 1e-12)
	require.InDelta(t, 0, SignedDelta(123.4, 123.4), 1e-12)
}

func TestDiffIsSymmetricAndBounded(t *testing.T) {
	pairs := [][2]float64{{0, 0}, {10, 350}, {359.9, 0.1}, {90, 270}, {45.5, 200.25}, {-30, 400}}
	for _, p := range pairs {
		d := Diff(p[0], p[1])
		require.GreaterOrEqual(t, d, 0.0)
		require.LessOrEqual(t, d, 180.0)
		require.InDelta(t, d, Diff(p[1], p[0]), 1e-9)
	}
	require.InDelta(t, 0.2, Diff(359.9, 0.1), 1e-9)
	require.Zero(t, Diff(42, 42))
}
