package bloom

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument is returned for capacity or error rate values a filter can't be built from.
	ErrInvalidArgument = errors.New("bloom: invalid argument")
	// ErrWrongType is returned when a store key holds something other than a byte string.
	ErrWrongType = errors.New("bloom: key is not the correct type")
	// ErrNotFound is returned when a store key doesn't exist.
	ErrNotFound = errors.New("bloom: filter not found")
	// ErrIncompatibleParameters is returned by Merge for filters with different parameters.
	ErrIncompatibleParameters = errors.New("bloom: filters don't have the same parameters")
	// ErrProbeTableExhausted is returned when a filter needs more probes than the seed table holds.
	ErrProbeTableExhausted = errors.New("bloom: probes count exceeds the seed table size")
	// ErrCorruptBuffer is returned for buffers whose size or header can't describe a filter.
	ErrCorruptBuffer = errors.New("bloom: corrupted filter buffer")
)
