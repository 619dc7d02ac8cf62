package scpi

import (
	"encoding/json"
	"fmt"
)

// Framing selects how the end of one response packet is determined.
type Framing int

const (
	// FramingNewline terminates the payload at the first newline byte.
	FramingNewline Framing = iota
	// FramingLength prefixes the payload with a 4-byte little-endian length.
	FramingLength
)

func (f Framing) String() string {
	switch f {
	case FramingNewline:
		return "newline"
	case FramingLength:
		return "length-prefixed"
	default:
		return fmt.Sprintf("framing(%d)", int(f))
	}
}

// DataType selects the decoder applied to a validated payload.
type DataType int

const (
	TypeText DataType = iota
	TypeBinary
	TypeInt8
	TypeStructured
)

func (d DataType) String() string {
	switch d {
	case TypeText:
		return "text"
	case TypeBinary:
		return "binary"
	case TypeInt8:
		return "int8"
	case TypeStructured:
		return "structured"
	default:
		return fmt.Sprintf("datatype(%d)", int(d))
	}
}

// requiresLengthHeader reports whether the data type is only meaningful for
// length-prefixed responses. The instrument sends waveform samples and
// structured headers exclusively in that framing.
func (d DataType) requiresLengthHeader() bool {
	return d == TypeInt8 || d == TypeStructured
}

// Result is one decoded query response. Data holds the validated payload
// with all framing metadata stripped.
type Result struct {
	Type DataType
	Data []byte
}

// Text returns the payload as a string. Only meaningful for TypeText.
func (r Result) Text() string {
	return string(r.Data)
}

// Bytes returns the raw payload.
func (r Result) Bytes() []byte {
	return r.Data
}

// Samples reinterprets every payload byte as one signed 8-bit sample,
// preserving order.
func (r Result) Samples() []int8 {
	samples := make([]int8, len(r.Data))
	for i, b := range r.Data {
		samples[i] = int8(b)
	}
	return samples
}

// Decode unmarshals a structured payload into v.
func (r Result) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
