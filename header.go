package bloom

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// HeaderBytes is the fixed header size. The layout follows the C struct
// { int64 seed; float error_rate; uint64 capacity } on little-endian
// 64-bit targets, including the 4 padding bytes after error_rate:
//
//	+--------+------------+-----+----------+-----------------------+
//	| seed 8 | errRate 4  | 4   | cap 8    | bit array ...         |
//	+--------+------------+-----+----------+-----------------------+
const HeaderBytes = 24

const (
	seedOff      = 0
	errorRateOff = 8
	paddingOff   = 12
	capacityOff  = 16
)

// Header carries everything a filter's behaviour is derived from.
type Header struct {
	Seed      int64
	ErrorRate float32
	Capacity  uint64
}

// Bits returns the optimal bit array size for the header.
func (h Header) Bits() uint64 {
	return OptimalBits(h.Capacity, float64(h.ErrorRate))
}

// Probes returns the number of probes per element.
func (h Header) Probes() uint64 {
	return OptimalProbes(h.Bits(), h.Capacity)
}

// BitArrayBytes returns ceil(Bits()/8).
func (h Header) BitArrayBytes() uint64 {
	return (h.Bits() + 7) / 8
}

// BufferBytes returns the size of a buffer holding the header and its bit array.
func (h Header) BufferBytes() uint64 {
	return HeaderBytes + h.BitArrayBytes()
}

// Compatible reports whether filters with headers h and o hash elements to
// the same bit positions. Values are compared exactly.
func (h Header) Compatible(o Header) bool {
	return h.Seed == o.Seed && h.Capacity == o.Capacity && h.ErrorRate == o.ErrorRate
}

func (h Header) validate() error {
	rate := float64(h.ErrorRate)
	if h.Capacity == 0 {
		return errors.Wrap(ErrCorruptBuffer, "header capacity is zero")
	}
	if math.IsNaN(rate) || rate <= 0 || rate >= 1 {
		return errors.Wrapf(ErrCorruptBuffer, "header error rate %v is out of (0, 1)", rate)
	}
	if err := h.validateSizing(); err != nil {
		return errors.Wrapf(ErrCorruptBuffer, "header sizing: %v", err)
	}
	return nil
}

// EncodeHeader writes h into the first HeaderBytes of buf.
func EncodeHeader(buf []byte, h Header) error {
	if len(buf) < HeaderBytes {
		return errors.Wrapf(ErrCorruptBuffer, "buffer of %d bytes can't hold a %d bytes header", len(buf), HeaderBytes)
	}
	binary.LittleEndian.PutUint64(buf[seedOff:], uint64(h.Seed))
	binary.LittleEndian.PutUint32(buf[errorRateOff:], math.Float32bits(h.ErrorRate))
	clear(buf[paddingOff:capacityOff])
	binary.LittleEndian.PutUint64(buf[capacityOff:], h.Capacity)
	return nil
}

// DecodeHeader reads and validates the header at the start of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderBytes {
		return Header{}, errors.Wrapf(ErrCorruptBuffer, "buffer of %d bytes is shorter than the %d bytes header", len(buf), HeaderBytes)
	}
	h := Header{
		Seed:      int64(binary.LittleEndian.Uint64(buf[seedOff:])),
		ErrorRate: math.Float32frombits(binary.LittleEndian.Uint32(buf[errorRateOff:])),
		Capacity:  binary.LittleEndian.Uint64(buf[capacityOff:]),
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}
