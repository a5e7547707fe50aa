package store

import (
	dbm "github.com/tendermint/tm-db"
)

// stateIterator strips the state prefix from the keys of a DB iterator.
type stateIterator struct {
	source     dbm.Iterator
	start, end []byte
	key        []byte
	err        error
}

var _ dbm.Iterator = (*stateIterator)(nil)

func newStateIterator(source dbm.Iterator, start, end []byte) *stateIterator {
	it := &stateIterator{source: source, start: start, end: end}
	it.decode()
	return it
}

func (it *stateIterator) decode() {
	if !it.source.Valid() {
		return
	}
	it.key, it.err = decodeStateKey(it.source.Key())
}

func (it *stateIterator) Domain() ([]byte, []byte) { return it.start, it.end }

func (it *stateIterator) Valid() bool { return it.err == nil && it.source.Valid() }

func (it *stateIterator) Next() {
	it.source.Next()
	it.decode()
}

func (it *stateIterator) Key() []byte {
	if !it.Valid() {
		panic("iterator is invalid")
	}
	return it.key
}

func (it *stateIterator) Value() []byte { return it.source.Value() }

func (it *stateIterator) Error() error {
	if it.err != nil {
		return it.err
	}
	return it.source.Error()
}

func (it *stateIterator) Close() error { return it.source.Close() }
