package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/danmuck/scopectl/internal/scpi"
)

// Factory defaults for the OWON HDS272S. Other HDS-series scopes enumerate
// with the same IDs and endpoint layout.
const (
	DefaultUSBVendorID    = 0x5345
	DefaultUSBProductID   = 0x1234
	DefaultUSBEndpointOut = 0x01
	DefaultUSBEndpointIn  = 0x81
)

// USBConfig identifies the device and its bulk endpoints. Endpoints are
// given as bEndpointAddress values straight from the descriptor.
type USBConfig struct {
	VendorID    uint16
	ProductID   uint16
	EndpointOut uint8
	EndpointIn  uint8
}

// DefaultUSBConfig returns the HDS-series factory defaults.
func DefaultUSBConfig() USBConfig {
	return USBConfig{
		VendorID:    DefaultUSBVendorID,
		ProductID:   DefaultUSBProductID,
		EndpointOut: DefaultUSBEndpointOut,
		EndpointIn:  DefaultUSBEndpointIn,
	}
}

// USB drives a pair of bulk endpoints on a claimed USB interface.
type USB struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	in      *gousb.InEndpoint
	out     *gousb.OutEndpoint
	release func()
	closed  bool
}

var _ scpi.Transport = (*USB)(nil)

// OpenUSB finds the first matching device, detaches any kernel driver, and
// claims the default interface.
func OpenUSB(cfg USBConfig) (*USB, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(cfg.VendorID), gousb.ID(cfg.ProductID))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("transport: open usb device %04x:%04x: %w",
			cfg.VendorID, cfg.ProductID, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("transport: no usb device %04x:%04x found",
			cfg.VendorID, cfg.ProductID)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("transport: detach kernel driver: %w", err)
	}

	intf, release, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("transport: claim default usb interface: %w", err)
	}

	out, err := intf.OutEndpoint(int(cfg.EndpointOut & 0x0f))
	if err == nil {
		var in *gousb.InEndpoint
		in, err = intf.InEndpoint(int(cfg.EndpointIn & 0x0f))
		if err == nil {
			return &USB{ctx: ctx, dev: dev, in: in, out: out, release: release}, nil
		}
	}
	release()
	dev.Close()
	ctx.Close()
	return nil, fmt.Errorf("transport: open usb endpoints %#02x/%#02x: %w",
		cfg.EndpointOut, cfg.EndpointIn, err)
}

func (u *USB) Write(p []byte) error {
	n, err := u.out.Write(p)
	if err != nil {
		return fmt.Errorf("transport: usb write: %w", err)
	}
	if n != len(p) {
		return fmt.Errorf("transport: usb short write: %d of %d bytes", n, len(p))
	}
	return nil
}

func (u *USB) Read(max int, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	buf := make([]byte, max)
	n, err := u.in.ReadContext(ctx, buf)
	if err != nil {
		if isUSBTimeout(err) {
			return nil, scpi.ErrTimeout
		}
		return nil, fmt.Errorf("transport: usb read: %w", err)
	}
	return buf[:n], nil
}

// Close releases the interface, device, and libusb context. Idempotent.
func (u *USB) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	u.release()
	err := u.dev.Close()
	if cerr := u.ctx.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("transport: close usb device: %w", err)
	}
	return nil
}

func isUSBTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, gousb.ErrorTimeout) ||
		errors.Is(err, gousb.TransferTimedOut) ||
		errors.Is(err, gousb.TransferCancelled)
}
