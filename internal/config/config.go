package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/scopectl/internal/scpi"
	"github.com/danmuck/scopectl/internal/transport"
)

var ErrInvalid = errors.New("config: invalid")

// Transport backend selectors.
const (
	TransportSerial = "serial"
	TransportUSB    = "usb"
)

// Config is the scopectl runtime configuration.
type Config struct {
	Transport       string
	Serial          SerialConfig
	USB             USBConfig
	Timeout         time.Duration
	MaxResponseSize int
	MaxPacketLen    int
}

// SerialConfig selects the serial node.
type SerialConfig struct {
	Device string
}

// USBConfig identifies the USB device and endpoints.
type USBConfig struct {
	VendorID    uint16
	ProductID   uint16
	EndpointOut uint8
	EndpointIn  uint8
}

// Default returns the HDS-series factory defaults over serial.
func Default() Config {
	usb := transport.DefaultUSBConfig()
	return Config{
		Transport: TransportSerial,
		Serial:    SerialConfig{Device: transport.DefaultSerialDevice},
		USB: USBConfig{
			VendorID:    usb.VendorID,
			ProductID:   usb.ProductID,
			EndpointOut: usb.EndpointOut,
			EndpointIn:  usb.EndpointIn,
		},
		Timeout:         scpi.DefaultTimeout,
		MaxResponseSize: scpi.DefaultMaxResponseSize,
		MaxPacketLen:    scpi.DefaultMaxPacketLen,
	}
}

// fileConfig is the config.toml key mapping.
type fileConfig struct {
	Transport       string           `toml:"transport"`
	TimeoutMS       int              `toml:"timeout_ms"`
	MaxResponseSize int              `toml:"max_response_size"`
	MaxPacketLen    int              `toml:"max_packet_len"`
	Serial          fileSerialConfig `toml:"serial"`
	USB             fileUSBConfig    `toml:"usb"`
}

type fileSerialConfig struct {
	Device string `toml:"device"`
}

type fileUSBConfig struct {
	VendorID    int `toml:"vendor_id"`
	ProductID   int `toml:"product_id"`
	EndpointOut int `toml:"endpoint_out"`
	EndpointIn  int `toml:"endpoint_in"`
}

// Load reads a TOML file and overlays it on the defaults. Keys absent from
// the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("transport") {
		cfg.Transport = strings.TrimSpace(raw.Transport)
	}
	if meta.IsDefined("timeout_ms") {
		cfg.Timeout = time.Duration(raw.TimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("max_response_size") {
		cfg.MaxResponseSize = raw.MaxResponseSize
	}
	if meta.IsDefined("max_packet_len") {
		cfg.MaxPacketLen = raw.MaxPacketLen
	}
	if meta.IsDefined("serial", "device") {
		cfg.Serial.Device = strings.TrimSpace(raw.Serial.Device)
	}
	if meta.IsDefined("usb", "vendor_id") {
		cfg.USB.VendorID = uint16(raw.USB.VendorID)
	}
	if meta.IsDefined("usb", "product_id") {
		cfg.USB.ProductID = uint16(raw.USB.ProductID)
	}
	if meta.IsDefined("usb", "endpoint_out") {
		cfg.USB.EndpointOut = uint8(raw.USB.EndpointOut)
	}
	if meta.IsDefined("usb", "endpoint_in") {
		cfg.USB.EndpointIn = uint8(raw.USB.EndpointIn)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the transports or engine cannot honor.
func Validate(cfg Config) error {
	switch cfg.Transport {
	case TransportSerial:
		if strings.TrimSpace(cfg.Serial.Device) == "" {
			return fmt.Errorf("%w: serial transport requires a device node", ErrInvalid)
		}
	case TransportUSB:
		if cfg.USB.VendorID == 0 || cfg.USB.ProductID == 0 {
			return fmt.Errorf("%w: usb transport requires vendor and product ids", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalid, cfg.Transport)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalid)
	}
	if cfg.MaxResponseSize <= 0 {
		return fmt.Errorf("%w: max_response_size must be positive", ErrInvalid)
	}
	if cfg.MaxPacketLen <= 0 {
		return fmt.Errorf("%w: max_packet_len must be positive", ErrInvalid)
	}
	return nil
}
