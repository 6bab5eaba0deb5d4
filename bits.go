package bloom

// Bit i of a bit array lives in byte i/8 at bit i%8, least significant bit first.
// Positions are folded into [0, bitLen) so any hash value addresses a valid bit.

func setBit(bits []byte, bitLen, pos uint64) {
	pos %= bitLen
	bits[pos>>3] |= 1 << (pos & 7)
}

func testBit(bits []byte, bitLen, pos uint64) bool {
	pos %= bitLen
	return (bits[pos>>3]>>(pos&7))&1 == 1
}
