package scpi

import "errors"

var (
	ErrNonASCII           = errors.New("scpi: command contains non-printable or non-ASCII characters")
	ErrShortHeader        = errors.New("scpi: insufficient data to parse length header")
	ErrZeroLength         = errors.New("scpi: packet header declares zero length")
	ErrLengthUnreasonable = errors.New("scpi: packet header length unreasonably large")
	ErrTruncatedPacket    = errors.New("scpi: received less data than packet header declares")
	ErrMissingTerminator  = errors.New("scpi: no terminating newline in response packet")
	ErrFramingRequired    = errors.New("scpi: data type requires length-prefixed framing")
	ErrTimeout            = errors.New("scpi: no response within timeout")
	ErrDecode             = errors.New("scpi: payload decode failed")
)
