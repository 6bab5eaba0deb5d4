package bloom

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Filters exposes the filter commands over named buffers kept in a Store.
type Filters struct {
	store    Store
	engine   Engine
	defaults Params
	hooks    *Hooks
	logger   Logger
	now      func() time.Time
}

func NewFilters(store Store) *Filters {
	return &Filters{
		store:  store,
		engine: DefaultEngine,
		defaults: Params{
			Capacity:  DefaultCapacity,
			ErrorRate: DefaultErrorRate,
		},
		hooks:  NewHooks(),
		logger: StdLogger(nil),
		now:    time.Now,
	}
}

func (f *Filters) SetHooks(hooks *Hooks) {
	f.hooks = hooks
}

func (f *Filters) SetLogger(logger Logger) {
	f.logger = logger
}

func (f *Filters) SetEngine(engine Engine) {
	f.engine = engine
}

// SetDefaults replaces the capacity and error rate used when Init gets zero values.
func (f *Filters) SetDefaults(defaults Params) {
	f.defaults = defaults
}

// Init creates the filter under key, replacing any byte string stored there.
func (f *Filters) Init(ctx context.Context, key string, params Params) (Header, error) {
	done := f.begin(InitFilter, key)
	h, err := f.init(ctx, key, params)
	done(err)
	return h, err
}

func (f *Filters) init(ctx context.Context, key string, params Params) (Header, error) {
	if params.Capacity == 0 {
		params.Capacity = f.defaults.Capacity
	}
	if params.ErrorRate == 0 {
		params.ErrorRate = f.defaults.ErrorRate
	}
	params = params.WithDefaults(f.now())
	if err := params.Validate(); err != nil {
		return Header{}, err
	}
	h := params.Header()
	createErr := f.store.Create(ctx, key, int(h.BufferBytes()), func(buf []byte) error {
		return f.engine.Init(buf, h)
	})
	if createErr != nil {
		return Header{}, errors.Wrapf(createErr, "init %q", key)
	}
	return h, nil
}

func (f *Filters) Add(ctx context.Context, key string, element []byte) error {
	done := f.begin(AddElement, key)
	err := f.store.Update(ctx, key, func(buf []byte) error {
		return f.engine.Add(buf, element)
	})
	err = errors.Wrapf(err, "add to %q", key)
	done(err)
	return err
}

func (f *Filters) AddString(ctx context.Context, key string, element string) error {
	return f.Add(ctx, key, []byte(element))
}

func (f *Filters) AddUint16(ctx context.Context, key string, i uint16) error {
	return f.Add(ctx, key, uint16ToByte(i))
}

func (f *Filters) AddUint32(ctx context.Context, key string, i uint32) error {
	return f.Add(ctx, key, uint32ToByte(i))
}

func (f *Filters) AddUint64(ctx context.Context, key string, i uint64) error {
	return f.Add(ctx, key, uint64ToByte(i))
}

// Exists reports whether element may be in the filter under key.
func (f *Filters) Exists(ctx context.Context, key string, element []byte) (bool, error) {
	done := f.begin(ExistsElement, key)
	var exists bool
	err := f.store.View(ctx, key, func(buf []byte) error {
		var testErr error
		exists, testErr = f.engine.Test(buf, element)
		return testErr
	})
	err = errors.Wrapf(err, "exists in %q", key)
	done(err)
	return exists, err
}

func (f *Filters) ExistsString(ctx context.Context, key string, element string) (bool, error) {
	return f.Exists(ctx, key, []byte(element))
}

func (f *Filters) ExistsUint16(ctx context.Context, key string, i uint16) (bool, error) {
	return f.Exists(ctx, key, uint16ToByte(i))
}

func (f *Filters) ExistsUint32(ctx context.Context, key string, i uint32) (bool, error) {
	return f.Exists(ctx, key, uint32ToByte(i))
}

func (f *Filters) ExistsUint64(ctx context.Context, key string, i uint64) (bool, error) {
	return f.Exists(ctx, key, uint64ToByte(i))
}

// Merge adds every element of the filter under srcKey to the one under dstKey.
func (f *Filters) Merge(ctx context.Context, dstKey, srcKey string) error {
	done := f.begin(MergeFilters, dstKey, srcKey)
	err := f.store.UpdateWith(ctx, dstKey, srcKey, f.engine.Merge)
	err = errors.Wrapf(err, "merge %q into %q", srcKey, dstKey)
	done(err)
	return err
}

func (f *Filters) Info(ctx context.Context, key string) (Info, error) {
	done := f.begin(InfoFilter, key)
	var info Info
	err := f.store.View(ctx, key, func(buf []byte) error {
		var infoErr error
		info, infoErr = f.engine.Info(buf)
		return infoErr
	})
	err = errors.Wrapf(err, "info of %q", key)
	done(err)
	return info, err
}

func (f *Filters) Delete(ctx context.Context, key string) error {
	done := f.begin(DeleteFilter, key)
	err := f.store.Delete(ctx, key)
	done(err)
	return err
}

// begin notifies the hooks of stage and returns the function reporting the command result.
func (f *Filters) begin(stage Stage, keys ...string) func(err error) {
	event := Event{Stage: stage, Keys: keys}
	f.hooks.Before(event)
	start := f.now()
	return func(err error) {
		event.Err = err
		event.Elapsed = f.now().Sub(start)
		f.hooks.After(event)
		if err != nil {
			f.logger(stage.String(), "failed:", err)
		}
	}
}
