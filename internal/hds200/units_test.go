package hds200

import (
	"errors"
	"math"
	"testing"
)

func TestSplitFloatUnits(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		unit  string
	}{
		{"2.5V", 2.5, "V"},
		{"200mV", 200, "mV"},
		{"1.00kV", 1, "kV"},
		{"10X", 10, "X"},
		{"500us", 500, "us"},
		{"1000s", 1000, "s"},
		{"42", 42, ""},
	}
	for _, tt := range tests {
		v, unit, err := SplitFloatUnits(tt.in)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if v != tt.value || unit != tt.unit {
			t.Fatalf("%q: got %v %q, want %v %q", tt.in, v, unit, tt.value, tt.unit)
		}
	}
}

func TestSplitFloatUnitsMalformed(t *testing.T) {
	for _, s := range []string{"", "mV", "..5V"} {
		if _, _, err := SplitFloatUnits(s); err == nil {
			t.Fatalf("%q: expected error", s)
		}
	}
}

func TestSplitIntUnits(t *testing.T) {
	v, unit, err := SplitIntUnits("100X")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if v != 100 || unit != "X" {
		t.Fatalf("got %d %q", v, unit)
	}
}

func TestScaleToVolts(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"10.0mV", 0.01},
		{"200mV", 0.2},
		{"2.0V", 2},
		{"1.00kV", 1000},
		{"5uV", 5e-6},
	}
	for _, tt := range tests {
		got, err := ScaleToVolts(tt.in)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("%q: got %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ScaleToVolts("2.0A"); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit for amps")
	}
}

func TestScaleToSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"2.0ns", 2e-9},
		{"500us", 5e-4},
		{"10ms", 0.01},
		{"1000s", 1000},
	}
	for _, tt := range tests {
		got, err := ScaleToSeconds(tt.in)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if math.Abs(got-tt.want) > 1e-18 {
			t.Fatalf("%q: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHorizontalOffsetSeconds(t *testing.T) {
	got, err := HorizontalOffsetSeconds("500us", -2)
	if err != nil {
		t.Fatalf("offset: %v", err)
	}
	if math.Abs(got-(-1e-3)) > 1e-12 {
		t.Fatalf("offset = %v, want -0.001", got)
	}
}

func TestProbeFactor(t *testing.T) {
	got, err := ProbeFactor("1000X")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if got != 1000 {
		t.Fatalf("factor = %v", got)
	}
	if _, err := ProbeFactor("10x"); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit for lowercase suffix")
	}
}

func TestVoltageFromScreen(t *testing.T) {
	// 10X probe on a 200mV/div scale: one screen unit is 80mV.
	if got := VoltageFromScreen(25, 10, 0.2, 0); math.Abs(got-2.0) > 1e-12 {
		t.Fatalf("25 units = %vV, want 2V", got)
	}
	if got := VoltageFromScreen(0, 10, 0.2, 25); math.Abs(got-(-2.0)) > 1e-12 {
		t.Fatalf("offset 25 at zero = %vV, want -2V", got)
	}
	if got := VoltageFromScreen(-128, 1, 1, 0); math.Abs(got-(-5.12)) > 1e-12 {
		t.Fatalf("full negative swing = %vV, want -5.12V", got)
	}
}

func TestVoltagesFromScreen(t *testing.T) {
	got := VoltagesFromScreen([]int8{-1, 0, 1}, 1, 1, 0)
	want := []float64{-0.04, 0, 0.04}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("voltages = %v, want %v", got, want)
		}
	}
}
