package hds200

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadIdentification = errors.New("hds200: malformed identification string")

// Identification is the parsed *IDN? response.
type Identification struct {
	Manufacturer    string
	Model           string
	SerialNumber    string
	FirmwareVersion string
}

// ParseIdentification splits the comma-separated 4-field *IDN? shape:
// manufacturer,model,serial,firmware.
func ParseIdentification(s string) (Identification, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Identification{}, fmt.Errorf("%w: %q", ErrBadIdentification, s)
	}
	return Identification{
		Manufacturer:    parts[0],
		Model:           parts[1],
		SerialNumber:    parts[2],
		FirmwareVersion: parts[3],
	}, nil
}

func (id Identification) String() string {
	return fmt.Sprintf("Make/Model: %s %s\nSerial:     %s\nFirmware:   %s",
		id.Manufacturer, id.Model, id.SerialNumber, id.FirmwareVersion)
}

// IsHDS200 reports whether the model is an HDS200-series scope
// (HDS25/HDS242/HDS272/HDS2102/HDS2202 and the S variants, HDS241, HDS271).
// Only tested against an HDS272S.
func (id Identification) IsHDS200() bool {
	return id.Manufacturer == "OWON" && strings.HasPrefix(id.Model, "HDS2")
}

// IsHDS300 reports whether the model is an HDS300-series scope
// (HDS307S/HDS310S/HDS320S). Untested.
func (id Identification) IsHDS300() bool {
	return id.Manufacturer == "OWON" && strings.HasPrefix(id.Model, "HDS3")
}

// WavegenSupported reports whether the model carries the arbitrary waveform
// generator. Models ending in "S" do, across both series.
func (id Identification) WavegenSupported() bool {
	if !id.IsHDS200() && !id.IsHDS300() {
		return false
	}
	return strings.HasSuffix(id.Model, "S")
}
