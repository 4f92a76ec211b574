// Package testutil provides shared test infrastructure for the fog simulator.
// It holds numeric assertion helpers used across sim/ and sim/scenario/ test
// packages, where simulated times and energies are compared with tolerance.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal fails the test when want and got differ by more than
// relTol relative to the larger magnitude.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertAllNear fails the test when any sample is farther than absTol from want.
func AssertAllNear(t *testing.T, name string, want float64, got []float64, absTol float64) {
	t.Helper()
	for i, v := range got {
		if math.Abs(v-want) > absTol {
			t.Errorf("%s[%d]: got %v, want %v ± %v", name, i, v, want, absTol)
		}
	}
}

// AssertSameSamples fails the test unless both slices hold bit-identical values.
func AssertSameSamples(t *testing.T, name string, want, got []float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: got %d samples, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.Float64bits(want[i]) != math.Float64bits(got[i]) {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}
