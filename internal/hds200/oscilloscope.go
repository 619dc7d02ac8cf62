package hds200

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/scopectl/internal/scpi"
)

var (
	ErrUnknownChannel  = errors.New("hds200: unknown channel")
	ErrUnknownCoupling = errors.New("hds200: unknown coupling mode")
	ErrUnknownProbe    = errors.New("hds200: unknown probe attenuation")
	ErrUnknownScale    = errors.New("hds200: scale not in instrument table")
	ErrEmptyResponse   = errors.New("hds200: empty response")
)

// Channel is one analog input channel.
type Channel int

const (
	CH1 Channel = 1
	CH2 Channel = 2
)

func (c Channel) String() string {
	return fmt.Sprintf("CH%d", int(c))
}

// Coupling is the channel input signal coupling mode.
type Coupling string

const (
	CouplingAC  Coupling = "AC"
	CouplingDC  Coupling = "DC"
	CouplingGND Coupling = "GND"
)

// ProbeAttenuation is the probe attenuation factor.
type ProbeAttenuation int

const (
	Atten1X     ProbeAttenuation = 1
	Atten10X    ProbeAttenuation = 10
	Atten100X   ProbeAttenuation = 100
	Atten1000X  ProbeAttenuation = 1000
	Atten10000X ProbeAttenuation = 10000
)

var attenuations = []ProbeAttenuation{Atten1X, Atten10X, Atten100X, Atten1000X, Atten10000X}

func (p ProbeAttenuation) String() string {
	return fmt.Sprintf("%dX", int(p))
}

// order is the index of the attenuation in the instrument's 1X..10000X
// sequence; it selects the vertical scale window.
func (p ProbeAttenuation) order() int {
	for i, a := range attenuations {
		if a == p {
			return i
		}
	}
	return -1
}

// ParseProbeAttenuation parses the instrument shape, e.g. "10X".
func ParseProbeAttenuation(s string) (ProbeAttenuation, error) {
	n, err := strconv.Atoi(strings.TrimSuffix(s, "X"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownProbe, s)
	}
	p := ProbeAttenuation(n)
	if p.order() < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownProbe, s)
	}
	return p, nil
}

// verticalScales is the instrument's vertical scale table in ascending
// order. Which 10-entry window is selectable depends on probe attenuation.
var verticalScales = []string{
	"10.0mV", "20.0mV", "50.0mV",
	"100mV", "200mV", "500mV",
	"1.0V", "2.0V", "5.0V",
	"10V", "20V", "50V",
	"100V", "200V", "500V",
	"1.00kV", "2.00kV", "5.00kV", "10.0kV", "20.0kV", "50.0kV", "100kV",
}

// horizontalScales is the instrument's time base table in ascending order.
var horizontalScales = []string{
	"2.0ns", "5.0ns", "10ns", "20ns", "50ns", "100ns", "200ns", "500ns",
	"1.0us", "2.0us", "5.0us", "10us", "20us", "50us", "100us", "200us", "500us",
	"1.0ms", "2.0ms", "5.0ms", "10ms", "20ms", "50ms", "100ms", "200ms", "500ms",
	"1.0s", "2.0s", "5.0s", "10s", "20s", "50s", "100s", "200s", "500s", "1000s",
}

// VerticalScales returns the full vertical scale table.
func VerticalScales() []string {
	return append([]string(nil), verticalScales...)
}

// HorizontalScales returns the full time base table.
func HorizontalScales() []string {
	return append([]string(nil), horizontalScales...)
}

// VerticalScalesFor returns the vertical scales selectable under the given
// probe attenuation: a 10-entry window that shifts 3 entries per decade.
func VerticalScalesFor(p ProbeAttenuation) []string {
	k := p.order()
	if k < 0 {
		return nil
	}
	return append([]string(nil), verticalScales[3*k:10+3*k]...)
}

// Device is one connected HDS-series oscilloscope.
type Device struct {
	client scpi.Client
	id     Identification
}

// Connect identifies the instrument behind an open SCPI client. The client
// remains owned by the caller until Close.
func Connect(client scpi.Client) (*Device, error) {
	d := &Device{client: client}
	id, err := d.Identify()
	if err != nil {
		return nil, err
	}
	d.id = id
	return d, nil
}

// ID returns the identification captured at Connect.
func (d *Device) ID() Identification {
	return d.id
}

// Identify queries and parses *IDN?.
func (d *Device) Identify() (Identification, error) {
	text, err := d.queryText("*IDN?")
	if err != nil {
		return Identification{}, err
	}
	return ParseIdentification(text)
}

// Close releases the underlying SCPI client.
func (d *Device) Close() error {
	return d.client.Close()
}

// Coupling fetches the input coupling mode for a channel.
func (d *Device) Coupling(ch Channel) (Coupling, error) {
	text, err := d.queryText(fmt.Sprintf(":CH%d:COUPling?", ch))
	if err != nil {
		return "", err
	}
	switch c := Coupling(text); c {
	case CouplingAC, CouplingDC, CouplingGND:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCoupling, text)
	}
}

// SetCoupling sets the input coupling mode for a channel.
func (d *Device) SetCoupling(ch Channel, c Coupling) error {
	return d.client.Set(fmt.Sprintf(":CH%d:COUPling %s", ch, c))
}

// ProbeAttenuation fetches the probe attenuation for a channel.
func (d *Device) ProbeAttenuation(ch Channel) (ProbeAttenuation, error) {
	text, err := d.queryText(fmt.Sprintf(":CH%d:PROBe?", ch))
	if err != nil {
		return 0, err
	}
	return ParseProbeAttenuation(text)
}

// SetProbeAttenuation sets the probe attenuation for a channel.
func (d *Device) SetProbeAttenuation(ch Channel, p ProbeAttenuation) error {
	if p.order() < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownProbe, int(p))
	}
	return d.client.Set(fmt.Sprintf(":CH%d:PROBe %s", ch, p))
}

// VerticalScale fetches the vertical scale for a channel, in the
// instrument's own notation (e.g. "200mV").
func (d *Device) VerticalScale(ch Channel) (string, error) {
	return d.queryText(fmt.Sprintf(":CH%d:SCALe?", ch))
}

// SetVerticalScale sets the vertical scale for a channel. The scale must be
// one of the instrument table entries.
func (d *Device) SetVerticalScale(ch Channel, scale string) error {
	if !contains(verticalScales, scale) {
		return fmt.Errorf("%w: %q", ErrUnknownScale, scale)
	}
	return d.client.Set(fmt.Sprintf(":CH%d:SCALe %s", ch, scale))
}

// DisplayEnabled fetches whether a channel trace is shown.
func (d *Device) DisplayEnabled(ch Channel) (bool, error) {
	text, err := d.queryText(fmt.Sprintf(":CH%d:DISPlay?", ch))
	if err != nil {
		return false, err
	}
	return text == "ON", nil
}

// SetDisplayEnabled shows or hides a channel trace.
func (d *Device) SetDisplayEnabled(ch Channel, on bool) error {
	state := "OFF"
	if on {
		state = "ON"
	}
	return d.client.Set(fmt.Sprintf(":CH%d:DISPlay %s", ch, state))
}

// HorizontalScale fetches the main time base per-division scale.
func (d *Device) HorizontalScale() (string, error) {
	return d.queryText(":HORIzontal:SCALe?")
}

// SetHorizontalScale sets the main time base per-division scale. The scale
// must be one of the instrument table entries.
func (d *Device) SetHorizontalScale(scale string) error {
	if !contains(horizontalScales, scale) {
		return fmt.Errorf("%w: %q", ErrUnknownScale, scale)
	}
	return d.client.Set(fmt.Sprintf(":HORIzontal:SCALe %s", scale))
}

// HorizontalOffset fetches the time base offset in divisions.
func (d *Device) HorizontalOffset() (float64, error) {
	text, err := d.queryText(":HORIzontal:OFFSet?")
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("hds200: horizontal offset %q: %w", text, err)
	}
	return v, nil
}

// SetHorizontalOffset sets the time base offset in divisions. The offset may
// place the trace outside the visible +6/-6 division window.
func (d *Device) SetHorizontalOffset(offset float64) error {
	return d.client.Set(fmt.Sprintf(":HORIzontal:OFFSet %g", offset))
}

// ScreenValues fetches the raw per-channel screen samples: 600 signed 8-bit
// values in screen units. This is the on-screen trace, not the 4K/8K capture
// memory the instrument saves in mass storage mode.
func (d *Device) ScreenValues(ch Channel) ([]int8, error) {
	if ch != CH1 && ch != CH2 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChannel, int(ch))
	}
	res, err := d.client.Query(fmt.Sprintf(":DATa:WAVe:SCReen:CH%d?", ch), scpi.TypeInt8, scpi.FramingLength)
	if err != nil {
		return nil, err
	}
	return res.Samples(), nil
}

// ScreenHeader fetches the structured header describing the current screen:
// per-channel settings, time base, sampling, and trigger state.
func (d *Device) ScreenHeader() (ScreenHeader, error) {
	res, err := d.client.Query(":DATa:WAVe:SCReen:HEAD?", scpi.TypeStructured, scpi.FramingLength)
	if err != nil {
		return ScreenHeader{}, err
	}
	var head ScreenHeader
	if err := res.Decode(&head); err != nil {
		return ScreenHeader{}, err
	}
	return head, nil
}

func (d *Device) queryText(command string) (string, error) {
	res, err := d.client.Query(command, scpi.TypeText, scpi.FramingNewline)
	if err != nil {
		return "", err
	}
	if len(res.Data) == 0 {
		return "", fmt.Errorf("%w to %q", ErrEmptyResponse, command)
	}
	return res.Text(), nil
}

func contains(table []string, v string) bool {
	for _, entry := range table {
		if entry == v {
			return true
		}
	}
	return false
}
