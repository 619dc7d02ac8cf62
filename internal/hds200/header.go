package hds200

// ScreenHeader is the JSON payload of :DATa:WAVe:SCReen:HEAD?. Field names
// follow the instrument's own (inconsistent) casing.
type ScreenHeader struct {
	Timebase TimebaseInfo  `json:"TIMEBASE"`
	Sample   SampleInfo    `json:"SAMPLE"`
	Channels []ChannelInfo `json:"CHANNEL"`
	Trigger  TriggerInfo   `json:"Trig"`
}

// Channel returns the entry named e.g. "CH1", if present.
func (h ScreenHeader) Channel(name string) (ChannelInfo, bool) {
	for _, ch := range h.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return ChannelInfo{}, false
}

// TimebaseInfo describes the horizontal axis.
type TimebaseInfo struct {
	Scale  string  `json:"SCALE"`
	Offset float64 `json:"HOFFSET"`
}

// SampleInfo describes the acquisition settings.
type SampleInfo struct {
	Type     string `json:"TYPE"`
	DepthMem string `json:"DEPMEM"`
}

// ChannelInfo describes one channel's settings as shown on screen. Scale and
// Probe carry unit suffixes ("200mV", "10X"); Offset is in screen units.
type ChannelInfo struct {
	Name     string  `json:"NAME"`
	Display  string  `json:"DISPLAY"`
	Coupling string  `json:"COUPLING"`
	Probe    string  `json:"PROBE"`
	Scale    string  `json:"SCALE"`
	Offset   float64 `json:"OFFSET"`
}

// Displayed reports whether the channel trace is shown.
func (c ChannelInfo) Displayed() bool {
	return c.Display == "ON"
}

// Calibration resolves the channel's probe attenuation and per-division
// scale in volts, ready for VoltageFromScreen.
func (c ChannelInfo) Calibration() (attenuation float64, scaleVolts float64, err error) {
	attenuation, err = ProbeFactor(c.Probe)
	if err != nil {
		return 0, 0, err
	}
	scaleVolts, err = ScaleToVolts(c.Scale)
	if err != nil {
		return 0, 0, err
	}
	return attenuation, scaleVolts, nil
}

// TriggerInfo describes the trigger block of the screen header.
type TriggerInfo struct {
	Items TriggerItems `json:"Items"`
}

// TriggerItems is the single-trigger settings group.
type TriggerItems struct {
	Channel  string `json:"Channel"`
	Coupling string `json:"Coupling"`
	Edge     string `json:"Edge"`
	Level    string `json:"Level"`
	Sweep    string `json:"Sweep"`
}
