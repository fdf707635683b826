package ws

import (
	"encoding/binary"
	"errors"
)

// Opcode is the low nibble of a frame's first byte (RFC 6455 section 5.2).
type Opcode uint8

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

func (o Opcode) String() string {
	switch o {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	default:
		return "unknown"
	}
}

// finText is FIN set, no RSV bits, text opcode. The server only ever emits
// complete single-frame text messages.
const finText = 0x80 | byte(OpText)

const (
	maxShortLen  = 125
	len16Marker  = 126
	len64Marker  = 127
	maxMediumLen = 65535
)

var (
	ErrShortFrame  = errors.New("ws: frame truncated")
	ErrMaskedFrame = errors.New("ws: masked frame")
)

// HeaderLen returns the size of the frame header for a payload of n bytes.
func HeaderLen(n int) int {
	switch {
	case n <= maxShortLen:
		return 2
	case n <= maxMediumLen:
		return 4
	default:
		return 10
	}
}

// AppendFrame appends an unmasked FIN text frame carrying payload to dst.
// Server-to-client frames are never masked.
func AppendFrame(dst, payload []byte) []byte {
	n := len(payload)
	dst = append(dst, finText)

	switch {
	case n <= maxShortLen:
		dst = append(dst, byte(n))
	case n <= maxMediumLen:
		dst = append(dst, len16Marker)
		dst = binary.BigEndian.AppendUint16(dst, uint16(n))
	default:
		dst = append(dst, len64Marker)
		dst = binary.BigEndian.AppendUint64(dst, uint64(n))
	}

	return append(dst, payload...)
}

// Encode returns payload wrapped in a single text frame.
func Encode(payload []byte) []byte {
	return AppendFrame(make([]byte, 0, HeaderLen(len(payload))+len(payload)), payload)
}

// DecodeOpcode extracts the opcode from the first byte of a frame. Inbound
// frames are never parsed beyond this.
func DecodeOpcode(b byte) Opcode {
	return Opcode(b & 0x0F)
}

// DecodeFrame is the inverse of AppendFrame for unmasked frames. It returns
// the opcode, the payload (aliasing b) and the number of bytes consumed.
func DecodeFrame(b []byte) (Opcode, []byte, int, error) {
	if len(b) < 2 {
		return 0, nil, 0, ErrShortFrame
	}
	if b[1]&0x80 != 0 {
		return 0, nil, 0, ErrMaskedFrame
	}

	op := DecodeOpcode(b[0])
	n := uint64(b[1] & 0x7F)
	off := 2

	switch n {
	case len16Marker:
		if len(b) < 4 {
			return 0, nil, 0, ErrShortFrame
		}
		n = uint64(binary.BigEndian.Uint16(b[2:4]))
		off = 4
	case len64Marker:
		if len(b) < 10 {
			return 0, nil, 0, ErrShortFrame
		}
		n = binary.BigEndian.Uint64(b[2:10])
		off = 10
	}

	if uint64(len(b)-off) < n {
		return 0, nil, 0, ErrShortFrame
	}
	end := off + int(n)
	return op, b[off:end], end, nil
}
