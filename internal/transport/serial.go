package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/danmuck/scopectl/internal/scpi"
)

// DefaultSerialDevice is the node the Linux usb-serial-simple driver exposes
// for OWON scopes (mainline support since April 2025).
const DefaultSerialDevice = "/dev/ttyUSB0"

// Serial drives a serial node backed by a USB serial driver.
type Serial struct {
	port   serial.Port
	device string
	closed bool
}

var _ scpi.Transport = (*Serial)(nil)

// OpenSerial opens the serial node. Baud and line settings stay at driver
// defaults: the backing device is USB and ignores UART timing.
func OpenSerial(device string) (*Serial, error) {
	port, err := serial.Open(device, &serial.Mode{})
	if err != nil {
		return nil, fmt.Errorf("transport: open serial node %s: %w", device, err)
	}
	return &Serial{port: port, device: device}, nil
}

func (s *Serial) Write(p []byte) error {
	if _, err := s.port.Write(p); err != nil {
		return fmt.Errorf("transport: serial write %s: %w", s.device, err)
	}
	if err := s.port.Drain(); err != nil {
		return fmt.Errorf("transport: serial drain %s: %w", s.device, err)
	}
	return nil
}

func (s *Serial) Read(max int, timeout time.Duration) ([]byte, error) {
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("transport: serial read timeout %s: %w", s.device, err)
	}
	buf := make([]byte, max)
	n, err := s.port.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("transport: serial read %s: %w", s.device, err)
	}
	if n == 0 {
		// go.bug.st/serial signals an expired read deadline with a zero-byte
		// read, not an error.
		return nil, scpi.ErrTimeout
	}
	return buf[:n], nil
}

// Close releases the serial node. Idempotent.
func (s *Serial) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("transport: close serial node %s: %w", s.device, err)
	}
	return nil
}
