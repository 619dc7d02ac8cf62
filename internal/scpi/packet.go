package scpi

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// lengthHeaderSize is the size of the length prefix in bytes.
	lengthHeaderSize = 4

	// DefaultMaxResponseSize bounds one transport read. The device claims a
	// 64-byte max USB packet but happily transfers 600+ bytes in one IN
	// transaction, so one large read keeps transaction overhead down.
	DefaultMaxResponseSize = 2048

	// DefaultMaxPacketLen is the sanity ceiling for a declared packet length.
	// A header above this is treated as corrupt rather than allocated for.
	DefaultMaxPacketLen = 4096
)

// ParsePacket validates the framing of one raw response read and returns the
// payload with framing metadata stripped, plus the count of tolerated extra
// trailing bytes. maxPacketLen <= 0 selects DefaultMaxPacketLen.
//
// Length-prefixed framing: the first 4 bytes are the little-endian unsigned
// length of the remaining packet data, excluding the header itself. Too few
// bytes for the declared length is an error (the usual sign of a transport
// chunking incompatibility); too many is tolerated and reported, since a
// bounded read can carry slack from a previous response.
//
// Newline framing: the payload ends at the first newline byte. Bytes past
// the newline are tolerated and reported.
func ParsePacket(raw []byte, framing Framing, maxPacketLen int) ([]byte, int, error) {
	if maxPacketLen <= 0 {
		maxPacketLen = DefaultMaxPacketLen
	}

	if framing == FramingLength {
		if len(raw) < lengthHeaderSize {
			return nil, 0, fmt.Errorf("%w: got %d bytes", ErrShortHeader, len(raw))
		}
		declared := int(binary.LittleEndian.Uint32(raw[:lengthHeaderSize]))
		if declared == 0 {
			return nil, 0, ErrZeroLength
		}
		if declared > maxPacketLen {
			return nil, 0, fmt.Errorf("%w: header declares %d bytes, ceiling is %d",
				ErrLengthUnreasonable, declared, maxPacketLen)
		}
		supplied := len(raw) - lengthHeaderSize
		if supplied < declared {
			return nil, 0, fmt.Errorf("%w: header declares %d bytes, got %d",
				ErrTruncatedPacket, declared, supplied)
		}
		return raw[lengthHeaderSize : lengthHeaderSize+declared], supplied - declared, nil
	}

	newline := bytes.IndexByte(raw, '\n')
	if newline < 0 {
		return nil, 0, ErrMissingTerminator
	}
	return raw[:newline], len(raw) - newline - 1, nil
}
