// Package store is the versioned key/value store of the reference host
// chain. Every commit produces a Merkle root over the whole state, and the
// state of any retained height can be proven key by key.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/ibc/crypto/merkle"
)

// ErrHeightNotFound is returned for a height that was never committed or was
// pruned.
type ErrHeightNotFound struct {
	Height int64
}

func (e ErrHeightNotFound) Error() string {
	return fmt.Sprintf("height %d not found", e.Height)
}

// KVStore is the key/value interface shared by the store and its branches.
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	// Iterator iterates keys in [start, end) in ascending order.
	Iterator(start, end []byte) (dbm.Iterator, error)
}

/*
Store keeps three kinds of records in the DB:
  - State:   the current value of every key
  - Version: the value of a key as of the height it was last written at,
    or a tombstone
  - Root:    the Merkle root committed at a height

Writes go to the state records and are remembered as dirty until Commit
turns them into version records.
*/
type Store struct {
	mtx sync.RWMutex
	db  dbm.DB

	height int64
	dirty  map[string]struct{}

	// trees of recent heights, built lazily
	trees map[int64]*merkle.KVTree
	keep  int64
}

var _ KVStore = (*Store)(nil)

// NewStore returns a store over db, resuming from the last committed height.
// keepRecent bounds how many heights stay provable; 0 keeps all of them.
func NewStore(db dbm.DB, keepRecent int64) (*Store, error) {
	s := &Store{
		db:    db,
		dirty: make(map[string]struct{}),
		trees: make(map[int64]*merkle.KVTree),
		keep:  keepRecent,
	}
	height, err := s.loadHeight()
	if err != nil {
		return nil, err
	}
	s.height = height
	return s, nil
}

// Height returns the last committed height, 0 before the first commit.
func (s *Store) Height() int64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.height
}

func (s *Store) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errors.New("empty key")
	}
	return s.db.Get(stateKey(key))
}

func (s *Store) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, errors.New("empty key")
	}
	return s.db.Has(stateKey(key))
}

func (s *Store) Set(key, value []byte) error {
	if len(key) == 0 {
		return errors.New("empty key")
	}
	if value == nil {
		return errors.New("nil value")
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if err := s.db.Set(stateKey(key), value); err != nil {
		return err
	}
	s.dirty[string(key)] = struct{}{}
	return nil
}

func (s *Store) Delete(key []byte) error {
	if len(key) == 0 {
		return errors.New("empty key")
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if err := s.db.Delete(stateKey(key)); err != nil {
		return err
	}
	s.dirty[string(key)] = struct{}{}
	return nil
}

// Iterator iterates the current state. A nil end iterates to the end of the
// key space.
func (s *Store) Iterator(start, end []byte) (dbm.Iterator, error) {
	from := stateKey(start)
	var to []byte
	if end == nil {
		to = statePrefixEnd()
	} else {
		to = stateKey(end)
	}
	it, err := s.db.Iterator(from, to)
	if err != nil {
		return nil, err
	}
	return newStateIterator(it, start, end), nil
}

// Commit versions the writes since the last commit and returns the Merkle
// root of the state at the new height.
func (s *Store) Commit() (int64, []byte, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	height := s.height + 1
	batch := s.db.NewBatch()
	defer batch.Close()

	keys := make([]string, 0, len(s.dirty))
	for key := range s.dirty {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value, err := s.db.Get(stateKey([]byte(key)))
		if err != nil {
			return 0, nil, err
		}
		if err := batch.Set(versionKey([]byte(key), height), encodeVersion(value)); err != nil {
			return 0, nil, err
		}
	}

	tree, err := s.buildCurrentTree()
	if err != nil {
		return 0, nil, err
	}
	root := tree.Hash()
	if err := batch.Set(rootKey(height), root); err != nil {
		return 0, nil, err
	}
	if err := batch.Set(heightKey(), encodeHeight(height)); err != nil {
		return 0, nil, err
	}
	if err := batch.WriteSync(); err != nil {
		return 0, nil, err
	}

	s.height = height
	s.dirty = make(map[string]struct{})
	s.trees[height] = tree
	if s.keep > 0 {
		for h := range s.trees {
			if h <= height-s.keep {
				delete(s.trees, h)
			}
		}
	}
	return height, root, nil
}

// Root returns the Merkle root committed at height.
func (s *Store) Root(height int64) ([]byte, error) {
	if err := s.checkRetained(height); err != nil {
		return nil, err
	}
	root, err := s.db.Get(rootKey(height))
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrHeightNotFound{Height: height}
	}
	return root, nil
}

// Proof returns a proof of key against the root committed at height: a
// value operator when the key was set at that height and an absence
// operator otherwise.
func (s *Store) Proof(height int64, key []byte) (merkle.ProofOp, error) {
	tree, err := s.tree(height)
	if err != nil {
		return merkle.ProofOp{}, err
	}
	return tree.ProofOp(key), nil
}

// GetAt returns the value of key as of height, nil if it was not set.
func (s *Store) GetAt(height int64, key []byte) ([]byte, error) {
	if err := s.checkRetained(height); err != nil {
		return nil, err
	}
	it, err := s.db.ReverseIterator(versionKey(key, 0), versionKey(key, height+1))
	if err != nil {
		return nil, err
	}
	defer it.Close()
	if !it.Valid() {
		return nil, it.Error()
	}
	return decodeVersion(it.Value())
}

func (s *Store) checkRetained(height int64) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if height <= 0 || height > s.height {
		return ErrHeightNotFound{Height: height}
	}
	if s.keep > 0 && height <= s.height-s.keep {
		return ErrHeightNotFound{Height: height}
	}
	return nil
}

func (s *Store) tree(height int64) (*merkle.KVTree, error) {
	if err := s.checkRetained(height); err != nil {
		return nil, err
	}
	s.mtx.RLock()
	tree, ok := s.trees[height]
	s.mtx.RUnlock()
	if ok {
		return tree, nil
	}

	tree, err := s.buildTreeAt(height)
	if err != nil {
		return nil, err
	}
	s.mtx.Lock()
	s.trees[height] = tree
	s.mtx.Unlock()
	return tree, nil
}

func (s *Store) buildCurrentTree() (*merkle.KVTree, error) {
	it, err := s.db.Iterator(stateKey(nil), statePrefixEnd())
	if err != nil {
		return nil, err
	}
	defer it.Close()

	state := make(map[string][]byte)
	for ; it.Valid(); it.Next() {
		key, err := decodeStateKey(it.Key())
		if err != nil {
			return nil, err
		}
		state[string(key)] = it.Value()
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return merkle.NewKVTree(state), nil
}

// buildTreeAt replays the version records up to height.
func (s *Store) buildTreeAt(height int64) (*merkle.KVTree, error) {
	it, err := s.db.Iterator(versionPrefix(), versionPrefixEnd())
	if err != nil {
		return nil, err
	}
	defer it.Close()

	state := make(map[string][]byte)
	for ; it.Valid(); it.Next() {
		key, h, err := decodeVersionKey(it.Key())
		if err != nil {
			return nil, err
		}
		if h > height {
			continue
		}
		value, err := decodeVersion(it.Value())
		if err != nil {
			return nil, err
		}
		if value == nil {
			delete(state, string(key))
		} else {
			state[string(key)] = value
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	tree := merkle.NewKVTree(state)

	root, err := s.db.Get(rootKey(height))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(root, tree.Hash()) {
		return nil, fmt.Errorf("replayed root %X at height %d does not match committed root %X", tree.Hash(), height, root)
	}
	return tree, nil
}

func (s *Store) loadHeight() (int64, error) {
	bz, err := s.db.Get(heightKey())
	if err != nil {
		return 0, err
	}
	if len(bz) == 0 {
		return 0, nil
	}
	return decodeHeight(bz)
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	return s.db.Close()
}

//---------------------------------- KEY ENCODING -----------------------------------------

// key prefixes
// NB: prefixEvent lives in eventlog.go and shares this key space.
const (
	prefixState   = int64(0)
	prefixVersion = int64(1)
	prefixRoot    = int64(2)
	prefixHeight  = int64(3)
	prefixEvent   = int64(4)
)

func stateKey(key []byte) []byte {
	bz, err := orderedcode.Append(nil, prefixState, string(key))
	if err != nil {
		panic(err)
	}
	return bz
}

func statePrefixEnd() []byte {
	bz, err := orderedcode.Append(nil, prefixState+1)
	if err != nil {
		panic(err)
	}
	return bz
}

func decodeStateKey(bz []byte) ([]byte, error) {
	var (
		prefix int64
		key    string
	)
	remaining, err := orderedcode.Parse(string(bz), &prefix, &key)
	if err != nil {
		return nil, err
	}
	if len(remaining) != 0 {
		return nil, fmt.Errorf("expected complete key but got remainder: %s", remaining)
	}
	if prefix != prefixState {
		return nil, fmt.Errorf("incorrect prefix. Expected %v, got %v", prefixState, prefix)
	}
	return []byte(key), nil
}

func versionKey(key []byte, height int64) []byte {
	bz, err := orderedcode.Append(nil, prefixVersion, string(key), height)
	if err != nil {
		panic(err)
	}
	return bz
}

func versionPrefix() []byte {
	bz, err := orderedcode.Append(nil, prefixVersion)
	if err != nil {
		panic(err)
	}
	return bz
}

func versionPrefixEnd() []byte {
	bz, err := orderedcode.Append(nil, prefixVersion+1)
	if err != nil {
		panic(err)
	}
	return bz
}

func decodeVersionKey(bz []byte) (key []byte, height int64, err error) {
	var (
		prefix int64
		k      string
	)
	remaining, err := orderedcode.Parse(string(bz), &prefix, &k, &height)
	if err != nil {
		return nil, 0, err
	}
	if len(remaining) != 0 {
		return nil, 0, fmt.Errorf("expected complete key but got remainder: %s", remaining)
	}
	if prefix != prefixVersion {
		return nil, 0, fmt.Errorf("incorrect prefix. Expected %v, got %v", prefixVersion, prefix)
	}
	return []byte(k), height, nil
}

func rootKey(height int64) []byte {
	bz, err := orderedcode.Append(nil, prefixRoot, height)
	if err != nil {
		panic(err)
	}
	return bz
}

func heightKey() []byte {
	bz, err := orderedcode.Append(nil, prefixHeight)
	if err != nil {
		panic(err)
	}
	return bz
}

func encodeHeight(height int64) []byte {
	bz, err := orderedcode.Append(nil, height)
	if err != nil {
		panic(err)
	}
	return bz
}

func decodeHeight(bz []byte) (height int64, err error) {
	_, err = orderedcode.Parse(string(bz), &height)
	return
}

// Version records carry a one byte marker so that an empty value and a
// deletion are told apart.
const (
	versionDeleted = byte(0)
	versionSet     = byte(1)
)

func encodeVersion(value []byte) []byte {
	if value == nil {
		return []byte{versionDeleted}
	}
	return append([]byte{versionSet}, value...)
}

func decodeVersion(bz []byte) ([]byte, error) {
	if len(bz) == 0 {
		return nil, errors.New("empty version record")
	}
	switch bz[0] {
	case versionDeleted:
		return nil, nil
	case versionSet:
		return append([]byte{}, bz[1:]...), nil
	default:
		return nil, fmt.Errorf("unknown version marker %d", bz[0])
	}
}
