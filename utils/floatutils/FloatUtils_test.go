package floatutils

import (
	"math"
	"testing"
)

func TestWrapPi(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{2 * math.Pi, 0},
		{3 * math.Pi, math.Pi},
		{math.Pi / 2, math.Pi / 2},
		{-math.Pi / 2, -math.Pi / 2},
		{5 * math.Pi / 2, math.Pi / 2},
	}

	for _, c := range cases {
		got := WrapPi(c.in)
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("WrapPi(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestWrapPiRange(t *testing.T) {
	for theta := -50.0; theta < 50.0; theta += 0.137 {
		wrapped := WrapPi(theta)
		if wrapped <= -math.Pi || wrapped > math.Pi {
			t.Errorf("WrapPi(%v) = %v outside (-π, π]", theta, wrapped)
		}
	}
}

func TestClip(t *testing.T) {
	if got := Clip(1.5, 0, 1); got != 1 {
		t.Errorf("Clip(1.5, 0, 1) = %v, want 1", got)
	}
	if got := Clip(-0.5, 0, 1); got != 0 {
		t.Errorf("Clip(-0.5, 0, 1) = %v, want 0", got)
	}
	if got := Clip(0.5, 0, 1); got != 0.5 {
		t.Errorf("Clip(0.5, 0, 1) = %v, want 0.5", got)
	}
}

func TestSign(t *testing.T) {
	if got := Sign(2.5); got != 1 {
		t.Errorf("Sign(2.5) = %v, want 1", got)
	}
	if got := Sign(-0.1); got != -1 {
		t.Errorf("Sign(-0.1) = %v, want -1", got)
	}
	if got := Sign(0); got != 0 {
		t.Errorf("Sign(0) = %v, want 0", got)
	}
}

func TestNorm(t *testing.T) {
	if got := Norm([]float64{3, 4}); got != 5 {
		t.Errorf("Norm([3 4]) = %v, want 5", got)
	}
	if got := Norm(nil); got != 0 {
		t.Errorf("Norm(nil) = %v, want 0", got)
	}
}
