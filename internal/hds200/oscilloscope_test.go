package hds200

import (
	"errors"
	"testing"

	"github.com/danmuck/scopectl/internal/scpi"
	"github.com/danmuck/scopectl/internal/testutil/testlog"
)

// fakeClient serves canned responses keyed by command and records sets.
type fakeClient struct {
	responses map[string]string
	sets      []string
	closes    int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		responses: map[string]string{
			"*IDN?": "OWON,HDS272S,2128009,V1.7.1",
		},
	}
}

func (f *fakeClient) Set(command string) error {
	f.sets = append(f.sets, command)
	return nil
}

func (f *fakeClient) Query(command string, dataType scpi.DataType, framing scpi.Framing) (scpi.Result, error) {
	resp, ok := f.responses[command]
	if !ok {
		return scpi.Result{}, scpi.ErrTimeout
	}
	return scpi.Result{Type: dataType, Data: []byte(resp)}, nil
}

func (f *fakeClient) Close() error {
	f.closes++
	return nil
}

func (f *fakeClient) lastSet(t *testing.T) string {
	t.Helper()
	if len(f.sets) == 0 {
		t.Fatalf("no set command issued")
	}
	return f.sets[len(f.sets)-1]
}

func connect(t *testing.T, client *fakeClient) *Device {
	t.Helper()
	dev, err := Connect(client)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return dev
}

func TestConnectIdentifies(t *testing.T) {
	testlog.Start(t)
	dev := connect(t, newFakeClient())
	if !dev.ID().IsHDS200() {
		t.Fatalf("identification not recognized: %+v", dev.ID())
	}
}

func TestConnectFailsWithoutIdentification(t *testing.T) {
	client := newFakeClient()
	delete(client.responses, "*IDN?")
	if _, err := Connect(client); !errors.Is(err, scpi.ErrTimeout) {
		t.Fatalf("expected identify failure, got %v", err)
	}
}

func TestCoupling(t *testing.T) {
	client := newFakeClient()
	client.responses[":CH1:COUPling?"] = "AC"
	dev := connect(t, client)

	got, err := dev.Coupling(CH1)
	if err != nil {
		t.Fatalf("coupling: %v", err)
	}
	if got != CouplingAC {
		t.Fatalf("coupling = %q", got)
	}

	if err := dev.SetCoupling(CH2, CouplingGND); err != nil {
		t.Fatalf("set coupling: %v", err)
	}
	if cmd := client.lastSet(t); cmd != ":CH2:COUPling GND" {
		t.Fatalf("set command = %q", cmd)
	}
}

func TestCouplingRejectsUnknownMode(t *testing.T) {
	client := newFakeClient()
	client.responses[":CH1:COUPling?"] = "HF"
	dev := connect(t, client)
	if _, err := dev.Coupling(CH1); !errors.Is(err, ErrUnknownCoupling) {
		t.Fatalf("expected ErrUnknownCoupling, got %v", err)
	}
}

func TestProbeAttenuation(t *testing.T) {
	client := newFakeClient()
	client.responses[":CH1:PROBe?"] = "10X"
	dev := connect(t, client)

	got, err := dev.ProbeAttenuation(CH1)
	if err != nil {
		t.Fatalf("probe attenuation: %v", err)
	}
	if got != Atten10X {
		t.Fatalf("attenuation = %v", got)
	}

	if err := dev.SetProbeAttenuation(CH1, Atten1000X); err != nil {
		t.Fatalf("set attenuation: %v", err)
	}
	if cmd := client.lastSet(t); cmd != ":CH1:PROBe 1000X" {
		t.Fatalf("set command = %q", cmd)
	}

	if err := dev.SetProbeAttenuation(CH1, ProbeAttenuation(25)); !errors.Is(err, ErrUnknownProbe) {
		t.Fatalf("expected ErrUnknownProbe, got %v", err)
	}
}

func TestVerticalScaleWindows(t *testing.T) {
	tests := []struct {
		atten ProbeAttenuation
		first string
		last  string
	}{
		{Atten1X, "10.0mV", "10V"},
		{Atten10X, "100mV", "100V"},
		{Atten100X, "1.0V", "1.00kV"},
		{Atten1000X, "10V", "10.0kV"},
		{Atten10000X, "100V", "100kV"},
	}
	for _, tt := range tests {
		window := VerticalScalesFor(tt.atten)
		if len(window) != 10 {
			t.Fatalf("%v: window size = %d, want 10", tt.atten, len(window))
		}
		if window[0] != tt.first || window[9] != tt.last {
			t.Fatalf("%v: window = %v, want %s..%s", tt.atten, window, tt.first, tt.last)
		}
	}
	if got := VerticalScalesFor(ProbeAttenuation(7)); got != nil {
		t.Fatalf("invalid attenuation produced window %v", got)
	}
}

func TestSetVerticalScaleValidatesTable(t *testing.T) {
	dev := connect(t, newFakeClient())
	if err := dev.SetVerticalScale(CH1, "300mV"); !errors.Is(err, ErrUnknownScale) {
		t.Fatalf("expected ErrUnknownScale, got %v", err)
	}
}

func TestHorizontal(t *testing.T) {
	client := newFakeClient()
	client.responses[":HORIzontal:SCALe?"] = "500us"
	client.responses[":HORIzontal:OFFSet?"] = "-2.5"
	dev := connect(t, client)

	scale, err := dev.HorizontalScale()
	if err != nil {
		t.Fatalf("horizontal scale: %v", err)
	}
	if scale != "500us" {
		t.Fatalf("scale = %q", scale)
	}

	offset, err := dev.HorizontalOffset()
	if err != nil {
		t.Fatalf("horizontal offset: %v", err)
	}
	if offset != -2.5 {
		t.Fatalf("offset = %v", offset)
	}

	if err := dev.SetHorizontalScale("10ms"); err != nil {
		t.Fatalf("set horizontal scale: %v", err)
	}
	if cmd := client.lastSet(t); cmd != ":HORIzontal:SCALe 10ms" {
		t.Fatalf("set command = %q", cmd)
	}
	if err := dev.SetHorizontalScale("3.0ms"); !errors.Is(err, ErrUnknownScale) {
		t.Fatalf("expected ErrUnknownScale, got %v", err)
	}

	if err := dev.SetHorizontalOffset(1.5); err != nil {
		t.Fatalf("set horizontal offset: %v", err)
	}
	if cmd := client.lastSet(t); cmd != ":HORIzontal:OFFSet 1.5" {
		t.Fatalf("set command = %q", cmd)
	}
}

func TestDisplay(t *testing.T) {
	client := newFakeClient()
	client.responses[":CH2:DISPlay?"] = "OFF"
	dev := connect(t, client)

	on, err := dev.DisplayEnabled(CH2)
	if err != nil {
		t.Fatalf("display: %v", err)
	}
	if on {
		t.Fatalf("expected CH2 display off")
	}

	if err := dev.SetDisplayEnabled(CH2, true); err != nil {
		t.Fatalf("set display: %v", err)
	}
	if cmd := client.lastSet(t); cmd != ":CH2:DISPlay ON" {
		t.Fatalf("set command = %q", cmd)
	}
}

func TestScreenValues(t *testing.T) {
	client := newFakeClient()
	client.responses[":DATa:WAVe:SCReen:CH1?"] = string([]byte{0xff, 0x00, 0x7f})
	dev := connect(t, client)

	values, err := dev.ScreenValues(CH1)
	if err != nil {
		t.Fatalf("screen values: %v", err)
	}
	want := []int8{-1, 0, 127}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("values = %v, want %v", values, want)
		}
	}

	if _, err := dev.ScreenValues(Channel(3)); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}

const sampleHeaderJSON = `{
	"TIMEBASE": {"SCALE": "500us", "HOFFSET": 0},
	"SAMPLE": {"TYPE": "SAMPle", "DEPMEM": "8K"},
	"CHANNEL": [
		{"NAME": "CH1", "DISPLAY": "ON", "COUPLING": "DC", "PROBE": "10X", "SCALE": "200mV", "OFFSET": 25},
		{"NAME": "CH2", "DISPLAY": "OFF", "COUPLING": "AC", "PROBE": "1X", "SCALE": "1.0V", "OFFSET": 0}
	],
	"Trig": {"Items": {"Channel": "CH1", "Coupling": "DC", "Edge": "RISE", "Level": "1.0V", "Sweep": "AUTO"}}
}`

func TestScreenHeader(t *testing.T) {
	client := newFakeClient()
	client.responses[":DATa:WAVe:SCReen:HEAD?"] = sampleHeaderJSON
	dev := connect(t, client)

	head, err := dev.ScreenHeader()
	if err != nil {
		t.Fatalf("screen header: %v", err)
	}
	if head.Timebase.Scale != "500us" || head.Sample.DepthMem != "8K" {
		t.Fatalf("unexpected header: %+v", head)
	}

	ch1, ok := head.Channel("CH1")
	if !ok {
		t.Fatalf("CH1 missing from header")
	}
	if !ch1.Displayed() {
		t.Fatalf("CH1 should be displayed")
	}
	atten, scale, err := ch1.Calibration()
	if err != nil {
		t.Fatalf("calibration: %v", err)
	}
	if atten != 10 || scale != 0.2 {
		t.Fatalf("calibration = %vX %vV", atten, scale)
	}
	if head.Trigger.Items.Edge != "RISE" {
		t.Fatalf("trigger edge = %q", head.Trigger.Items.Edge)
	}

	if _, ok := head.Channel("CH3"); ok {
		t.Fatalf("CH3 should not exist")
	}
}

func TestCloseReleasesClient(t *testing.T) {
	client := newFakeClient()
	dev := connect(t, client)
	if err := dev.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if client.closes != 1 {
		t.Fatalf("client closed %d times", client.closes)
	}
}
