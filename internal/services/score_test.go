package services

import "testing"

func TestReverseScore(t *testing.T) {
	cases := []struct {
		raw, min, max, want float64
	}{
		{1, 1, 5, 5},
		{2, 1, 5, 4},
		{3, 1, 5, 3},
		{5, 1, 5, 1},
		{0, 0, 4, 4},
		{1, 1, 7, 7},
		{7, 1, 7, 1},
		{2, 0, 3, 1},
	}
	for _, c := range cases {
		if got := ReverseScore(c.raw, c.min, c.max); got != c.want {
			t.Fatalf("ReverseScore(%g,%g,%g)=%g, want %g", c.raw, c.min, c.max, got, c.want)
		}
	}
}

func TestReverseScoreIsInvolution(t *testing.T) {
	for raw := 1.0; raw <= 7; raw++ {
		if got := ReverseScore(ReverseScore(raw, 1, 7), 1, 7); got != raw {
			t.Fatalf("double reverse of %g = %g", raw, got)
		}
	}
}

func TestInScale(t *testing.T) {
	if !InScale(1, 1, 5) || !InScale(5, 1, 5) || !InScale(2.5, 1, 5) {
		t.Fatalf("bounds must be inclusive")
	}
	if InScale(0, 1, 5) || InScale(6, 1, 5) {
		t.Fatalf("values outside the scale must be rejected")
	}
}

func TestIntegralScale(t *testing.T) {
	if !IntegralScale(1, 7) || !IntegralScale(0, 4) {
		t.Fatalf("whole-number bounds must be integral")
	}
	if IntegralScale(0, 1.5) || IntegralScale(0.5, 3) {
		t.Fatalf("fractional bounds must not be integral")
	}
}
