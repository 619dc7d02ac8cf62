package hds200

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrUnknownUnit = errors.New("hds200: unknown unit")

// SplitFloatUnits splits a number-with-unit-suffix reading ("2.5V", "10ms")
// into its numeric value and unit string.
func SplitFloatUnits(s string) (float64, string, error) {
	i := 0
	for ; i < len(s); i++ {
		if c := s[i]; (c < '0' || c > '9') && c != '.' {
			break
		}
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", fmt.Errorf("hds200: malformed quantity %q: %w", s, err)
	}
	return v, s[i:], nil
}

// SplitIntUnits splits an integer-with-unit-suffix reading ("100X") into its
// numeric value and unit string.
func SplitIntUnits(s string) (int, string, error) {
	i := 0
	for ; i < len(s); i++ {
		if c := s[i]; c < '0' || c > '9' {
			break
		}
	}
	v, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, "", fmt.Errorf("hds200: malformed quantity %q: %w", s, err)
	}
	return v, s[i:], nil
}

// ProbeFactor resolves a probe attenuation reading ("10X") to its factor.
func ProbeFactor(probe string) (float64, error) {
	v, unit, err := SplitFloatUnits(probe)
	if err != nil {
		return 0, err
	}
	if unit != "X" {
		return 0, fmt.Errorf("%w: %q in probe reading %q", ErrUnknownUnit, unit, probe)
	}
	return v, nil
}

// ScaleToVolts resolves a vertical scale reading ("200mV", "1.00kV") to
// volts per division.
func ScaleToVolts(scale string) (float64, error) {
	v, unit, err := SplitFloatUnits(scale)
	if err != nil {
		return 0, err
	}
	switch unit {
	case "kV":
		return v * 1e3, nil
	case "V":
		return v, nil
	case "mV":
		return v * 1e-3, nil
	case "uV":
		return v * 1e-6, nil
	default:
		return 0, fmt.Errorf("%w: %q in scale reading %q", ErrUnknownUnit, unit, scale)
	}
}

// ScaleToSeconds resolves a time base reading ("500us", "2.0ms") to seconds
// per division.
func ScaleToSeconds(scale string) (float64, error) {
	v, unit, err := SplitFloatUnits(scale)
	if err != nil {
		return 0, err
	}
	switch unit {
	case "s":
		return v, nil
	case "ms":
		return v * 1e-3, nil
	case "us":
		return v * 1e-6, nil
	case "ns":
		return v * 1e-9, nil
	default:
		return 0, fmt.Errorf("%w: %q in time base reading %q", ErrUnknownUnit, unit, scale)
	}
}

// HorizontalOffsetSeconds converts a time base offset in divisions to the
// real time offset.
func HorizontalOffsetSeconds(scale string, offsetDivisions float64) (float64, error) {
	perDivision, err := ScaleToSeconds(scale)
	if err != nil {
		return 0, err
	}
	return offsetDivisions * perDivision, nil
}

// VoltageFromScreen converts one screen sample to volts. Screen values are
// stored at 25 units per vertical division; offset comes from the screen
// header's OFFSET field.
func VoltageFromScreen(value int8, attenuation, scaleVolts, offset float64) float64 {
	return (float64(value) - offset) * attenuation * scaleVolts * 4 / 100
}

// VoltagesFromScreen converts a full screen trace to volts.
func VoltagesFromScreen(values []int8, attenuation, scaleVolts, offset float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = VoltageFromScreen(v, attenuation, scaleVolts, offset)
	}
	return out
}
