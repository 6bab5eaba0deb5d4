package bloom

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.mills.io/bitcask/v2"
)

// DefaultDiskMaxValueSize fits the largest filter buffer, 512MB.
const DefaultDiskMaxValueSize = HeaderBytes + MaxBits/8

// DiskStore keeps filters in an embedded bitcask database. A single lock
// serialises writers, readers share it.
type DiskStore struct {
	get    func(key []byte) ([]byte, error)
	put    func(key, value []byte) error
	delete func(key []byte) error
	close  func() error
	rwm    *sync.RWMutex
}

// OpenDiskStore opens or creates the database in dir. Options are applied
// after the store's own defaults.
func OpenDiskStore(dir string, options ...bitcask.Option) (*DiskStore, error) {
	opts := append([]bitcask.Option{bitcask.WithMaxValueSize(DefaultDiskMaxValueSize)}, options...)
	db, openErr := bitcask.Open(dir, opts...)
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "bitcask open %q failed", dir)
	}
	return &DiskStore{
		get: func(key []byte) ([]byte, error) {
			v, err := db.Get(key)
			if errors.Is(err, bitcask.ErrKeyNotFound) {
				return nil, errors.Wrapf(ErrNotFound, "key %q", key)
			}
			return []byte(v), err
		},
		put: func(key, value []byte) error {
			return db.Put(key, value)
		},
		delete: func(key []byte) error {
			return db.Delete(key)
		},
		close: db.Close,
		rwm:   &sync.RWMutex{},
	}, nil
}

func (d *DiskStore) Create(_ context.Context, key string, size int, fn func(buf []byte) error) error {
	d.rwm.Lock()
	defer d.rwm.Unlock()
	buf := make([]byte, size)
	if err := fn(buf); err != nil {
		return err
	}
	return errors.Wrapf(d.put([]byte(key), buf), "bitcask put %q failed", key)
}

func (d *DiskStore) View(_ context.Context, key string, fn func(buf []byte) error) error {
	d.rwm.RLock()
	defer d.rwm.RUnlock()
	buf, getErr := d.get([]byte(key))
	if getErr != nil {
		return getErr
	}
	return fn(buf)
}

func (d *DiskStore) Update(_ context.Context, key string, fn func(buf []byte) error) error {
	d.rwm.Lock()
	defer d.rwm.Unlock()
	buf, getErr := d.get([]byte(key))
	if getErr != nil {
		return getErr
	}
	if err := fn(buf); err != nil {
		return err
	}
	return errors.Wrapf(d.put([]byte(key), buf), "bitcask put %q failed", key)
}

func (d *DiskStore) UpdateWith(_ context.Context, dst, src string, fn func(dst, src []byte) error) error {
	d.rwm.Lock()
	defer d.rwm.Unlock()
	dstBuf, getErr := d.get([]byte(dst))
	if getErr != nil {
		return getErr
	}
	srcBuf, getErr := d.get([]byte(src))
	if getErr != nil {
		return getErr
	}
	if err := fn(dstBuf, srcBuf); err != nil {
		return err
	}
	return errors.Wrapf(d.put([]byte(dst), dstBuf), "bitcask put %q failed", dst)
}

func (d *DiskStore) Delete(_ context.Context, key string) error {
	d.rwm.Lock()
	defer d.rwm.Unlock()
	err := d.delete([]byte(key))
	if errors.Is(err, bitcask.ErrKeyNotFound) {
		return nil
	}
	return errors.Wrapf(err, "bitcask delete %q failed", key)
}

func (d *DiskStore) Close() error {
	return d.close()
}

var _ Store = &DiskStore{}
