package cocos

import (
	"math"
	"testing"
)

func TestIdentify(t *testing.T) {
	cases := []struct {
		bt, ip float64
		want   int
	}{
		{2.0, 1.0, 1},
		{2.0, -1.0, 3},
		{-2.0, 1.0, 5},
		{-2.0, -1.0, 7},
		{2.0, 0.0, 1},
		{-2.0, 0.0, 3},
	}
	for _, c := range cases {
		got, err := Identify(c.bt, c.ip)
		if err != nil {
			t.Fatalf("Identify(%v, %v): unexpected error: %v", c.bt, c.ip, err)
		}
		if got != c.want {
			t.Fatalf("Identify(%v, %v): expected %d, got %d", c.bt, c.ip, c.want, got)
		}
	}
}

func TestIdentify_ZeroField(t *testing.T) {
	if _, err := Identify(0, 1); err == nil {
		t.Fatal("expected error for zero toroidal field")
	}
}

func TestTransformFactor_Identity(t *testing.T) {
	f, err := TransformFactor(3, 3, KindPSI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != 1.0 {
		t.Fatalf("expected identity factor, got %v", f)
	}
}

func TestTransformFactor_PSI(t *testing.T) {
	// COCOS 1 -> 11 differs only by the 2*pi flux normalization.
	f, err := TransformFactor(1, 11, KindPSI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(f-2*math.Pi) > 1e-12 {
		t.Fatalf("expected 2*pi, got %v", f)
	}

	// COCOS 3 additionally flips the poloidal sign.
	f, err = TransformFactor(3, 11, KindPSI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(f+2*math.Pi) > 1e-12 {
		t.Fatalf("expected -2*pi, got %v", f)
	}
}

func TestTransformFactor_Derivatives(t *testing.T) {
	// Flux derivatives carry the inverse 2*pi factor.
	for _, kind := range []TransformKind{KindDPSI, KindFFPrime, KindPPrime} {
		f, err := TransformFactor(1, 11, kind)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(f-1/(2*math.Pi)) > 1e-12 {
			t.Fatalf("%s: expected 1/(2*pi), got %v", kind, f)
		}
	}
}

func TestTransformFactor_Q(t *testing.T) {
	// 1 and 11 share all signs; q is unchanged.
	f, err := TransformFactor(1, 11, KindQ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != 1.0 {
		t.Fatalf("expected 1, got %v", f)
	}

	// COCOS 5 flips sigma_rho relative to 11.
	f, err = TransformFactor(5, 11, KindQ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != -1.0 {
		t.Fatalf("expected -1, got %v", f)
	}
}

func TestTransformFactor_InvalidConvention(t *testing.T) {
	if _, err := TransformFactor(9, 11, KindPSI); err == nil {
		t.Fatal("expected error for convention 9")
	}
	if _, err := TransformFactor(1, 42, KindPSI); err == nil {
		t.Fatal("expected error for convention 42")
	}
}

func TestToTarget(t *testing.T) {
	data := []float64{1, 2, 3}
	if err := ToTarget(data, 1, KindPSI); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(data[1]-4*math.Pi) > 1e-12 {
		t.Fatalf("expected in-place 2*pi scaling, got %v", data)
	}
}
