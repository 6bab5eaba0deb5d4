package bloom

import (
	"encoding/binary"
)

// Integer elements are hashed as their fixed width big-endian bytes, so
// AddUint32(7) and Add([]byte{0, 0, 0, 7}) set the same bits.

func uint16ToByte(i uint16) []byte {
	return binary.BigEndian.AppendUint16(make([]byte, 0, 2), i)
}

func uint32ToByte(i uint32) []byte {
	return binary.BigEndian.AppendUint32(make([]byte, 0, 4), i)
}

func uint64ToByte(i uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), i)
}
