package bloom

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore keeps buffers in process memory with a lock per key.
type MemoryStore struct {
	entries map[string]*memoryEntry
	mutex   *sync.Mutex
}

type memoryEntry struct {
	buf []byte
	rwm sync.RWMutex
	// removed is set once the entry is dropped from the map, holders must look the key up again
	removed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]*memoryEntry{},
		mutex:   &sync.Mutex{},
	}
}

// Set stores a copy of value under key as is.
func (s *MemoryStore) Set(key string, value []byte) {
	e := s.lockEntry(key)
	defer e.rwm.Unlock()
	e.buf = append([]byte(nil), value...)
}

func (s *MemoryStore) Create(_ context.Context, key string, size int, fn func(buf []byte) error) error {
	e := s.lockEntry(key)
	defer e.rwm.Unlock()
	buf := make([]byte, size)
	if err := fn(buf); err != nil {
		if e.buf == nil {
			s.remove(key, e)
		}
		return err
	}
	e.buf = buf
	return nil
}

func (s *MemoryStore) View(_ context.Context, key string, fn func(buf []byte) error) error {
	e := s.lookup(key)
	if e == nil {
		return errors.Wrapf(ErrNotFound, "key %q", key)
	}
	e.rwm.RLock()
	defer e.rwm.RUnlock()
	if e.buf == nil {
		return errors.Wrapf(ErrNotFound, "key %q", key)
	}
	return fn(e.buf)
}

func (s *MemoryStore) Update(_ context.Context, key string, fn func(buf []byte) error) error {
	e := s.lookup(key)
	if e == nil {
		return errors.Wrapf(ErrNotFound, "key %q", key)
	}
	e.rwm.Lock()
	defer e.rwm.Unlock()
	if e.buf == nil {
		return errors.Wrapf(ErrNotFound, "key %q", key)
	}
	return fn(e.buf)
}

func (s *MemoryStore) UpdateWith(_ context.Context, dst, src string, fn func(dst, src []byte) error) error {
	de := s.lookup(dst)
	if de == nil {
		return errors.Wrapf(ErrNotFound, "key %q", dst)
	}
	if dst == src {
		de.rwm.Lock()
		defer de.rwm.Unlock()
		if de.buf == nil {
			return errors.Wrapf(ErrNotFound, "key %q", dst)
		}
		return fn(de.buf, de.buf)
	}

	se := s.lookup(src)
	if se == nil {
		return errors.Wrapf(ErrNotFound, "key %q", src)
	}
	// always lock in key order so concurrent merges in opposite directions can't deadlock
	if dst < src {
		de.rwm.Lock()
		se.rwm.RLock()
	} else {
		se.rwm.RLock()
		de.rwm.Lock()
	}
	defer de.rwm.Unlock()
	defer se.rwm.RUnlock()

	if de.buf == nil {
		return errors.Wrapf(ErrNotFound, "key %q", dst)
	}
	if se.buf == nil {
		return errors.Wrapf(ErrNotFound, "key %q", src)
	}
	return fn(de.buf, se.buf)
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	e, exists := s.entries[key]
	delete(s.entries, key)
	s.mutex.Unlock()
	if !exists {
		return nil
	}
	e.rwm.Lock()
	defer e.rwm.Unlock()
	e.buf = nil
	e.removed = true
	return nil
}

func (s *MemoryStore) lookup(key string) *memoryEntry {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.entries[key]
}

// lockEntry returns the write locked entry of key, adding it if the key is missing.
func (s *MemoryStore) lockEntry(key string) *memoryEntry {
	for {
		s.mutex.Lock()
		e, exists := s.entries[key]
		if !exists {
			e = &memoryEntry{}
			s.entries[key] = e
		}
		s.mutex.Unlock()

		e.rwm.Lock()
		if !e.removed {
			return e
		}
		// deleted in between
		e.rwm.Unlock()
	}
}

// remove drops e, which the caller holds write locked, if it still backs key.
func (s *MemoryStore) remove(key string, e *memoryEntry) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.entries[key] == e {
		delete(s.entries, key)
	}
	e.removed = true
}

var _ Store = &MemoryStore{}
