// Package testutil provides shared assertions for trajectory tests across
// sim/, sim/export/ and cmd/. It works on raw compartment series so that
// package sim's own tests can use it without an import cycle.
package testutil

import (
	"math"
	"testing"
)

// AssertRelClose fails unless got is within relTol of want, measured against
// the larger magnitude. Equal values (zero included) always pass.
func AssertRelClose(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == got {
		return
	}
	scale := math.Max(math.Abs(want), math.Abs(got))
	if rel := math.Abs(want-got) / scale; !(rel <= relTol) {
		t.Errorf("%s = %v, want %v (relative error %.3g > %.3g)", name, got, want, rel, relTol)
	}
}

// AssertStepInvariants checks that S, I, R have equal length and that every
// transition is exactly one of: no change, infection (S-1, I+1), recovery (I-1, R+1).
// Conservation of S+I+R follows from the three allowed deltas.
func AssertStepInvariants(t *testing.T, s, i, r []float64) {
	t.Helper()
	if len(s) != len(i) || len(s) != len(r) {
		t.Fatalf("compartment lengths differ: S=%d I=%d R=%d", len(s), len(i), len(r))
	}
	for k := 1; k < len(s); k++ {
		dS, dI, dR := s[k]-s[k-1], i[k]-i[k-1], r[k]-r[k-1]
		switch {
		case dS == 0 && dI == 0 && dR == 0:
		case dS == -1 && dI == 1 && dR == 0:
		case dS == 0 && dI == -1 && dR == 1:
		default:
			t.Fatalf("step %d: illegal delta (dS=%v, dI=%v, dR=%v)", k, dS, dI, dR)
		}
		if s[k]+i[k]+r[k] != s[k-1]+i[k-1]+r[k-1] {
			t.Fatalf("step %d: total not conserved", k)
		}
	}
}

// AssertIntegerValued fails if any value has a fractional part.
func AssertIntegerValued(t *testing.T, name string, values []float64) {
	t.Helper()
	for k, v := range values {
		if v != math.Trunc(v) {
			t.Fatalf("%s[%d] = %v is not integer-valued", name, k, v)
		}
	}
}
