package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danmuck/scopectl/internal/config"
	"github.com/danmuck/scopectl/internal/hds200"
	"github.com/danmuck/scopectl/internal/logging"
	"github.com/danmuck/scopectl/internal/scpi"
	"github.com/danmuck/scopectl/internal/transport"
)

type options struct {
	configPath string
	transport  string
	device     string
	timeoutMS  int
}

func main() {
	logger := logging.ConfigureRuntime()
	opts := parseFlags()

	cfg, err := loadConfig(opts)
	if err != nil {
		fatalf("%v", err)
	}

	tr, err := openTransport(cfg)
	if err != nil {
		fatalf("%v", err)
	}

	engine := scpi.New(tr,
		scpi.WithTimeout(cfg.Timeout),
		scpi.WithMaxResponseSize(cfg.MaxResponseSize),
		scpi.WithMaxPacketLen(cfg.MaxPacketLen),
		scpi.WithLogger(logger),
	)
	defer engine.Close()

	dev, err := hds200.Connect(engine)
	if err != nil {
		fatalf("identify instrument: %v", err)
	}
	id := dev.ID()
	if !id.IsHDS200() && !id.IsHDS300() {
		logger.Warn().
			Str("manufacturer", id.Manufacturer).
			Str("model", id.Model).
			Msg("not an HDS-series handheld; command tables may not match")
	}
	logger.Info().
		Str("model", id.Model).
		Str("serial", id.SerialNumber).
		Str("firmware", id.FirmwareVersion).
		Msg("instrument connected")

	sh := newShell(engine, dev, os.Stdout, logger)
	if err := sh.run(); err != nil {
		fatalf("%v", err)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a scopectl.toml; defaults apply when omitted")
	flag.StringVar(&opts.transport, "transport", "", "transport backend: serial | usb")
	flag.StringVar(&opts.device, "device", "", "serial device node (serial transport)")
	flag.IntVar(&opts.timeoutMS, "timeout", 0, "response timeout in milliseconds")
	flag.Parse()
	return opts
}

// loadConfig resolves the effective configuration: file over defaults,
// flags over file.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if opts.transport != "" {
		cfg.Transport = opts.transport
	}
	if opts.device != "" {
		cfg.Serial.Device = opts.device
	}
	if opts.timeoutMS > 0 {
		cfg.Timeout = time.Duration(opts.timeoutMS) * time.Millisecond
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openTransport(cfg config.Config) (scpi.Transport, error) {
	switch cfg.Transport {
	case config.TransportSerial:
		return transport.OpenSerial(cfg.Serial.Device)
	case config.TransportUSB:
		return transport.OpenUSB(transport.USBConfig{
			VendorID:    cfg.USB.VendorID,
			ProductID:   cfg.USB.ProductID,
			EndpointOut: cfg.USB.EndpointOut,
			EndpointIn:  cfg.USB.EndpointIn,
		})
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "scopectl: "+format+"\n", args...)
	os.Exit(1)
}
