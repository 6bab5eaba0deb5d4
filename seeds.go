package bloom

import (
	"github.com/spaolacci/murmur3"
)

// SeedTableSize is the number of probes a single element can have.
const SeedTableSize = 100

// seedTable is shared by every persisted filter. Changing any value makes
// existing buffers unreadable, as well as merges with filters built elsewhere.
var seedTable = [SeedTableSize]uint32{
	15766226, 74851606, 56934393, 93602938, 65460882,
	74716504, 2706207, 82022801, 73919934, 81200056,
	25922260, 71173083, 35347855, 68586037, 70974759,
	59750831, 28944123, 44189824, 64847079, 40485340,
	94838647, 1730654, 82480656, 42318171, 54340928,
	95403952, 9457878, 11781902, 89282531, 69986542,
	32796318, 9113199, 13240675, 75855269, 15800378,
	48280550, 48686482, 69253737, 44154259, 60992987,
	4344081, 36440154, 87067658, 52019066, 3731283,
	10121861, 84087180, 38278455, 19489090, 28030746,
	59953244, 49132922, 66411905, 39168390, 27311396,
	54362764, 85005932, 44538268, 15407555, 39732788,
	96661928, 41406270, 27139095, 12609460, 98566678,
	22107564, 38362487, 3239856, 56979281, 7455893,
	61980987, 84039766, 27488181, 96874559, 19896568,
	18803538, 89491779, 77927728, 88620814, 41927712,
	53288039, 66460458, 50700738, 57519005, 42830844,
	67262694, 14268194, 38176283, 49570511, 85979003,
	79702485, 80834338, 36549018, 405149, 72562839,
	92596757, 10588781, 32693308, 67664291, 57137030,
}

// SeedTable returns a copy of the seed constants shipped with the package.
func SeedTable() [SeedTableSize]uint32 {
	return seedTable
}

// HashFamily derives as many hash values per element as it has seeds by
// offsetting the seed of a single MurmurHash3 x64 128 primitive.
type HashFamily struct {
	seeds [SeedTableSize]uint32
}

func NewHashFamily(seeds [SeedTableSize]uint32) HashFamily {
	return HashFamily{seeds: seeds}
}

// DefaultHashFamily is the family every persisted filter is built with.
var DefaultHashFamily = NewHashFamily(seedTable)

// Size returns how many distinct probes the family can produce.
func (h HashFamily) Size() int {
	return len(h.seeds)
}

// Probe returns the 128-bit hash of element for the probe index i.
// Only lo is used for addressing, hi is kept for future formats.
// The caller must ensure 0 <= i < Size().
func (h HashFamily) Probe(element []byte, i int, seed int64) (lo, hi uint64) {
	// the primitive takes a 32-bit seed, the sum wraps the same way a C uint32_t does
	return murmur3.Sum128WithSeed(element, uint32(uint64(h.seeds[i])+uint64(seed)))
}
