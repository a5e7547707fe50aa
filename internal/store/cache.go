package store

import (
	"errors"
	"sort"
	"sync"

	dbm "github.com/tendermint/tm-db"
)

// CacheStore buffers writes over a parent KVStore until Write. Discarding
// a CacheStore discards its writes.
type CacheStore struct {
	mtx    sync.RWMutex
	parent KVStore
	// nil value marks a deletion
	cache map[string][]byte
}

var _ KVStore = (*CacheStore)(nil)

// Branch returns a CacheStore over s.
func (s *Store) Branch() *CacheStore {
	return NewCacheStore(s)
}

// NewCacheStore returns a CacheStore over parent.
func NewCacheStore(parent KVStore) *CacheStore {
	return &CacheStore{parent: parent, cache: make(map[string][]byte)}
}

// Branch returns a CacheStore over c.
func (c *CacheStore) Branch() *CacheStore {
	return NewCacheStore(c)
}

func (c *CacheStore) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errors.New("empty key")
	}
	c.mtx.RLock()
	value, ok := c.cache[string(key)]
	c.mtx.RUnlock()
	if ok {
		return value, nil
	}
	return c.parent.Get(key)
}

func (c *CacheStore) Has(key []byte) (bool, error) {
	value, err := c.Get(key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

func (c *CacheStore) Set(key, value []byte) error {
	if len(key) == 0 {
		return errors.New("empty key")
	}
	if value == nil {
		return errors.New("nil value")
	}
	c.mtx.Lock()
	c.cache[string(key)] = append([]byte{}, value...)
	c.mtx.Unlock()
	return nil
}

func (c *CacheStore) Delete(key []byte) error {
	if len(key) == 0 {
		return errors.New("empty key")
	}
	c.mtx.Lock()
	c.cache[string(key)] = nil
	c.mtx.Unlock()
	return nil
}

// Iterator iterates the parent state with the buffered writes applied. The
// merged range is materialised in a MemDB.
func (c *CacheStore) Iterator(start, end []byte) (dbm.Iterator, error) {
	merged := dbm.NewMemDB()

	it, err := c.parent.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	for ; it.Valid(); it.Next() {
		if err := merged.Set(it.Key(), it.Value()); err != nil {
			it.Close()
			return nil, err
		}
	}
	if err := it.Error(); err != nil {
		it.Close()
		return nil, err
	}
	if err := it.Close(); err != nil {
		return nil, err
	}

	c.mtx.RLock()
	defer c.mtx.RUnlock()
	for key, value := range c.cache {
		if !inRange([]byte(key), start, end) {
			continue
		}
		if value == nil {
			err = merged.Delete([]byte(key))
		} else {
			err = merged.Set([]byte(key), value)
		}
		if err != nil {
			return nil, err
		}
	}
	return merged.Iterator(start, end)
}

// Write flushes the buffered writes to the parent in key order and resets
// the cache.
func (c *CacheStore) Write() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	keys := make([]string, 0, len(c.cache))
	for key := range c.cache {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		var err error
		if value := c.cache[key]; value == nil {
			err = c.parent.Delete([]byte(key))
		} else {
			err = c.parent.Set([]byte(key), value)
		}
		if err != nil {
			return err
		}
	}
	c.cache = make(map[string][]byte)
	return nil
}

// Discard drops the buffered writes.
func (c *CacheStore) Discard() {
	c.mtx.Lock()
	c.cache = make(map[string][]byte)
	c.mtx.Unlock()
}

func inRange(key, start, end []byte) bool {
	if start != nil && string(key) < string(start) {
		return false
	}
	if end != nil && string(key) >= string(end) {
		return false
	}
	return true
}
