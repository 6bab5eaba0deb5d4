package bloom

import (
	"math"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

const (
	DefaultCapacity  uint64  = 1000000
	DefaultErrorRate float64 = 0.01

	// MaxBits caps a filter buffer, header included, at 512MB, the largest
	// string value Redis accepts.
	MaxBits uint64 = (512<<20 - HeaderBytes) * 8
)

// OptimalBits returns the bit array size for n expected elements and the
// false positive rate p: ceil(1.44 * n * log2(1/p)). It returns 0 unless
// p is in (0, 1), and saturates at math.MaxUint64.
func OptimalBits(n uint64, p float64) uint64 {
	if !(p > 0 && p < 1) {
		return 0
	}
	m := optimalBits(n, p)
	if m >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(m)
}

// OptimalProbes returns the number of probes per element for a bit array of
// m bits holding n elements: ceil(0.69 * m / n). It returns 0 for n == 0.
func OptimalProbes(m, n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return uint64(math.Ceil(0.69 * float64(m) / float64(n)))
}

func optimalBits(n uint64, p float64) float64 {
	return math.Ceil(1.44 * float64(n) * math.Log2(1/p))
}

// Params describes a filter to create. Zero fields take the defaults.
type Params struct {
	Capacity  uint64
	ErrorRate float64
	// Seed is mixed into every probe. Nil means "use the current time",
	// any explicit value including zero is kept.
	Seed *int64
}

// ExplicitSeed returns a Params seed fixed to seed.
func ExplicitSeed(seed int64) *int64 {
	return &seed
}

// WithDefaults fills the zero fields of p. The seed defaults to the Unix time
// in microseconds taken from now.
func (p Params) WithDefaults(now time.Time) Params {
	if p.Capacity == 0 {
		p.Capacity = DefaultCapacity
	}
	if p.ErrorRate == 0 {
		p.ErrorRate = DefaultErrorRate
	}
	if p.Seed == nil {
		p.Seed = ExplicitSeed(now.UnixMicro())
	}
	return p
}

// Header returns the header a filter created with p starts with. A nil seed
// is written as zero, call WithDefaults first to get a time based one.
func (p Params) Header() Header {
	var seed int64
	if p.Seed != nil {
		seed = *p.Seed
	}
	return Header{
		Seed:      seed,
		ErrorRate: float32(p.ErrorRate),
		Capacity:  p.Capacity,
	}
}

// Validate reports every reason p can't describe a filter.
func (p Params) Validate() error {
	var result *multierror.Error
	if p.Capacity == 0 {
		result = multierror.Append(result, errors.Wrap(ErrInvalidArgument, "capacity must be positive"))
	}
	// the rate is persisted as float32, so it has to stay inside (0, 1) after rounding
	rate := float32(p.ErrorRate)
	if math.IsNaN(p.ErrorRate) || rate <= 0 || rate >= 1 {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidArgument, "error rate %v must be in (0, 1)", p.ErrorRate))
	}
	if result != nil {
		return result.ErrorOrNil()
	}
	return p.Header().validateSizing()
}

// validateSizing checks the derived sizes of h, assuming its fields are in range.
func (h Header) validateSizing() error {
	var result *multierror.Error
	m := optimalBits(h.Capacity, float64(h.ErrorRate))
	if m > float64(MaxBits) {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidArgument, "filter needs %.0f bits, at most %d supported", m, MaxBits))
	} else if k := OptimalProbes(uint64(m), h.Capacity); k > SeedTableSize {
		result = multierror.Append(result, errors.Wrapf(ErrProbeTableExhausted, "%d probes needed, %d seeds available", k, SeedTableSize))
	}
	return result.ErrorOrNil()
}
