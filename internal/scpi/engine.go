package scpi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one transport read.
const DefaultTimeout = 1000 * time.Millisecond

// Transport is the byte-stream contract the engine drives. Implementations
// wrap a serial node or a pair of USB bulk endpoints; the engine does not
// care which. Read returns ErrTimeout when no data arrives in time.
type Transport interface {
	Write(p []byte) error
	Read(max int, timeout time.Duration) ([]byte, error)
	Close() error
}

// Client is the engine surface the device layer consumes.
type Client interface {
	Set(command string) error
	Query(command string, dataType DataType, framing Framing) (Result, error)
	Close() error
}

// Engine speaks SCPI over one exclusively-owned Transport. It is safe for
// sequential reuse but not for concurrent calls: the write-then-read pairing
// is not atomic, so interleaved callers could pair one caller's command with
// another's response. Serialize externally if needed.
type Engine struct {
	transport       Transport
	timeout         time.Duration
	maxResponseSize int
	maxPacketLen    int
	logger          zerolog.Logger
	closed          bool
}

var _ Client = (*Engine)(nil)

// Option adjusts engine limits at construction.
type Option func(*Engine)

// WithTimeout sets the per-read deadline.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithMaxResponseSize bounds one transport read.
func WithMaxResponseSize(n int) Option {
	return func(e *Engine) { e.maxResponseSize = n }
}

// WithMaxPacketLen sets the sanity ceiling for declared packet lengths.
func WithMaxPacketLen(n int) Option {
	return func(e *Engine) { e.maxPacketLen = n }
}

// WithLogger routes engine diagnostics to the given logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New wraps an open transport. The engine takes ownership: Close releases it.
func New(transport Transport, opts ...Option) *Engine {
	e := &Engine{
		transport:       transport,
		timeout:         DefaultTimeout,
		maxResponseSize: DefaultMaxResponseSize,
		maxPacketLen:    DefaultMaxPacketLen,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Set sends a fire-and-forget command. Exactly one write per call.
func (e *Engine) Set(command string) error {
	return e.send(command)
}

// Query sends a command and decodes the single bounded response read.
//
// A timeout surfaces as ErrTimeout: expected and recoverable, retry or abort
// is the caller's decision. Framing validation failures propagate as their
// typed errors; they indicate a program bug or a device incompatibility and
// are never folded into a timeout.
func (e *Engine) Query(command string, dataType DataType, framing Framing) (Result, error) {
	if dataType.requiresLengthHeader() && framing != FramingLength {
		return Result{}, fmt.Errorf("%w: %s", ErrFramingRequired, dataType)
	}
	if err := e.send(command); err != nil {
		return Result{}, err
	}

	// No delay between write and read: any artificial pause loses initial
	// response data. The device takes >10ms to start responding, which is
	// what makes the immediate read safe.
	raw, err := e.read()
	if err != nil {
		return Result{}, err
	}

	payload, extra, err := ParsePacket(raw, framing, e.maxPacketLen)
	if err != nil {
		return Result{}, fmt.Errorf("response to %q invalid: %w", command, err)
	}
	if extra > 0 {
		e.logger.Warn().
			Str("command", command).
			Int("extra_bytes", extra).
			Msg("response carries bytes past its framing boundary")
	}
	return decode(dataType, payload)
}

// QueryText queries a newline-framed ASCII response.
func (e *Engine) QueryText(command string) (string, error) {
	res, err := e.Query(command, TypeText, FramingNewline)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// QueryBytes queries a raw byte payload under the given framing.
func (e *Engine) QueryBytes(command string, framing Framing) ([]byte, error) {
	res, err := e.Query(command, TypeBinary, framing)
	if err != nil {
		return nil, err
	}
	return res.Bytes(), nil
}

// QuerySamples queries a length-prefixed signed 8-bit sample payload.
func (e *Engine) QuerySamples(command string) ([]int8, error) {
	res, err := e.Query(command, TypeInt8, FramingLength)
	if err != nil {
		return nil, err
	}
	return res.Samples(), nil
}

// QueryStructured queries a length-prefixed structured payload into v.
func (e *Engine) QueryStructured(command string, v any) error {
	res, err := e.Query(command, TypeStructured, FramingLength)
	if err != nil {
		return err
	}
	return res.Decode(v)
}

// QueryRaw sends a command and returns one bounded read untouched, framing
// metadata included. Debug escape hatch for the shell; no validation runs.
func (e *Engine) QueryRaw(command string) ([]byte, error) {
	if err := e.send(command); err != nil {
		return nil, err
	}
	return e.read()
}

// ReadPending forces one bounded read outside the usual send/read pairing
// and validates it as a newline-framed text response. Useful for draining a
// response that arrived after its query timed out.
func (e *Engine) ReadPending() (string, error) {
	raw, err := e.read()
	if err != nil {
		return "", err
	}
	payload, extra, err := ParsePacket(raw, FramingNewline, e.maxPacketLen)
	if err != nil {
		return "", err
	}
	if extra > 0 {
		e.logger.Warn().Int("extra_bytes", extra).Msg("pending read carries bytes past its terminator")
	}
	res, err := decode(TypeText, payload)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// Close releases the transport. Idempotent; never invoked implicitly.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.transport.Close()
}

// send formats and writes one command: printable-ASCII only, exactly one
// trailing newline, exactly one transport write.
func (e *Engine) send(command string) error {
	body := strings.TrimSuffix(command, "\n")
	for _, r := range body {
		if r < 0x20 || r > 0x7e {
			return fmt.Errorf("%w: %q", ErrNonASCII, command)
		}
	}
	if err := e.transport.Write([]byte(body + "\n")); err != nil {
		return fmt.Errorf("scpi: write %q: %w", body, err)
	}
	return nil
}

// read performs the single bounded read for one response.
func (e *Engine) read() ([]byte, error) {
	data, err := e.transport.Read(e.maxResponseSize, e.timeout)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			e.logger.Debug().Dur("timeout", e.timeout).Msg("read timed out")
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("scpi: read: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrTimeout
	}
	return data, nil
}

// decode applies the typed decoder for one validated payload.
func decode(dataType DataType, payload []byte) (Result, error) {
	switch dataType {
	case TypeText:
		for _, b := range payload {
			if b > 0x7f {
				return Result{}, fmt.Errorf("%w: non-ASCII byte 0x%02x in text response", ErrDecode, b)
			}
		}
	case TypeStructured:
		if !json.Valid(payload) {
			return Result{}, fmt.Errorf("%w: structured response is not valid JSON", ErrDecode)
		}
	case TypeBinary, TypeInt8:
		// Raw bytes pass through; int8 reinterpretation happens in Samples.
	default:
		return Result{}, fmt.Errorf("scpi: unsupported data type %d", int(dataType))
	}
	return Result{Type: dataType, Data: payload}, nil
}
