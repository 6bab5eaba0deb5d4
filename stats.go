package bloom

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"
	"github.com/bits-and-blooms/bloom/v3"
)

// Info describes a stored filter and how loaded it is.
type Info struct {
	Seed          int64   `json:"seed"`
	ErrorRate     float32 `json:"error_rate"`
	Capacity      uint64  `json:"capacity"`
	Bits          uint64  `json:"bits"`
	Probes        uint64  `json:"probes"`
	BitArrayBytes int     `json:"bit_array_bytes"`
	SetBits       uint64  `json:"set_bits"`
	FillRatio     float64 `json:"fill_ratio"`
	// ApproxElements estimates the number of distinct elements added, it is
	// zero for a saturated filter where every bit is set.
	ApproxElements uint32 `json:"approx_elements"`
	Legacy         bool   `json:"legacy"`
}

// Info reads the filter in buf without modifying it.
func (e Engine) Info(buf []byte) (Info, error) {
	v, err := viewOf(buf)
	if err != nil {
		return Info{}, err
	}
	words := bitWords(v.bits)
	setBits := uint64(bitset.From(words).Count())
	bitLen := v.bitLen()
	info := Info{
		Seed:          v.header.Seed,
		ErrorRate:     v.header.ErrorRate,
		Capacity:      v.header.Capacity,
		Bits:          v.header.Bits(),
		Probes:        v.header.Probes(),
		BitArrayBytes: len(v.bits),
		SetBits:       setBits,
		FillRatio:     float64(setBits) / float64(bitLen),
		Legacy:        v.legacy,
	}
	if setBits < bitLen {
		info.ApproxElements = bloom.FromWithM(words, uint(bitLen), uint(info.Probes)).ApproximatedSize()
	}
	return info, nil
}

// bitWords packs the bit array into little-endian words, so bit i of the
// array is bit i%64 of word i/64.
func bitWords(bits []byte) []uint64 {
	words := make([]uint64, (len(bits)+7)/8)
	var tail [8]byte
	for i := range words {
		chunk := bits[i*8:]
		if len(chunk) < 8 {
			copy(tail[:], chunk)
			chunk = tail[:]
		}
		words[i] = binary.LittleEndian.Uint64(chunk)
	}
	return words
}
