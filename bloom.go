package bloom

import (
	"github.com/pkg/errors"
)

// Engine implements the filter operations over caller owned buffers laid out
// as a header followed by the bit array. It never allocates, resizes or
// keeps a buffer past the call; callers serialise access to a buffer.
type Engine struct {
	family HashFamily
}

func NewEngine(family HashFamily) Engine {
	return Engine{family: family}
}

// DefaultEngine hashes with DefaultHashFamily.
var DefaultEngine = NewEngine(DefaultHashFamily)

// Init zeroes buf and writes h into it. buf must be exactly h.BufferBytes() long.
func (e Engine) Init(buf []byte, h Header) error {
	p := Params{Capacity: h.Capacity, ErrorRate: float64(h.ErrorRate), Seed: ExplicitSeed(h.Seed)}
	if err := p.Validate(); err != nil {
		return err
	}
	if need := h.BufferBytes(); uint64(len(buf)) != need {
		return errors.Wrapf(ErrInvalidArgument, "buffer has %d bytes, filter needs %d", len(buf), need)
	}
	clear(buf)
	return EncodeHeader(buf, h)
}

// Add sets the probe bits of element.
func (e Engine) Add(buf []byte, element []byte) error {
	v, err := viewOf(buf)
	if err != nil {
		return err
	}
	k := int(v.header.Probes())
	for i := 0; i < k; i++ {
		lo, _ := e.family.Probe(element, i, v.header.Seed)
		setBit(v.bits, v.bitLen(), lo)
	}
	return nil
}

// Test reports whether element may have been added. False is exact, true
// may be a false positive.
func (e Engine) Test(buf []byte, element []byte) (bool, error) {
	v, err := viewOf(buf)
	if err != nil {
		return false, err
	}
	k := int(v.header.Probes())
	for i := 0; i < k; i++ {
		lo, _ := e.family.Probe(element, i, v.header.Seed)
		if !testBit(v.bits, v.bitLen(), lo) {
			return false, nil
		}
	}
	return true, nil
}

// Merge ORs the bit array of src into dst. Both filters must have the same
// seed, capacity, error rate and bit array length, otherwise dst is left
// untouched and ErrIncompatibleParameters is returned.
func (e Engine) Merge(dst, src []byte) error {
	dv, err := viewOf(dst)
	if err != nil {
		return errors.Wrap(err, "destination filter")
	}
	sv, err := viewOf(src)
	if err != nil {
		return errors.Wrap(err, "source filter")
	}
	if len(dv.bits) != len(sv.bits) {
		return errors.Wrapf(ErrIncompatibleParameters, "bit arrays of %d and %d bytes", len(dv.bits), len(sv.bits))
	}
	if !dv.header.Compatible(sv.header) {
		return errors.Wrapf(ErrIncompatibleParameters, "headers %+v and %+v", dv.header, sv.header)
	}
	for i, b := range sv.bits {
		dv.bits[i] |= b
	}
	return nil
}

func Init(buf []byte, h Header) error {
	return DefaultEngine.Init(buf, h)
}

func Add(buf []byte, element []byte) error {
	return DefaultEngine.Add(buf, element)
}

func Test(buf []byte, element []byte) (bool, error) {
	return DefaultEngine.Test(buf, element)
}

func Merge(dst, src []byte) error {
	return DefaultEngine.Merge(dst, src)
}

// view splits a filter buffer into its header and bit array.
type view struct {
	header Header
	bits   []byte
	// legacy buffers carry Bits() bytes of bit array instead of BitArrayBytes()
	legacy bool
}

func (v view) bitLen() uint64 {
	return uint64(len(v.bits)) * 8
}

func viewOf(buf []byte) (view, error) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return view{}, err
	}
	bits := buf[HeaderBytes:]
	switch uint64(len(bits)) {
	case h.BitArrayBytes():
		return view{header: h, bits: bits}, nil
	case h.Bits():
		return view{header: h, bits: bits, legacy: true}, nil
	default:
		return view{}, errors.Wrapf(
			ErrCorruptBuffer,
			"bit array of %d bytes doesn't match header (%d or %d bytes expected)",
			len(bits), h.BitArrayBytes(), h.Bits(),
		)
	}
}
