package merkle

import (
	"crypto/sha256"
	"hash"
)

var (
	leafPrefix  = []byte{0}
	innerPrefix = []byte{1}
)

// returns sha256(<empty>)
func emptyHash() []byte {
	h := sha256.Sum256(nil)
	return h[:]
}

// returns sha256(0x00 || leaf)
func leafHash(leaf []byte) []byte {
	return leafHashOpt(sha256.New(), leaf)
}

// returns sha256(0x00 || leaf)
func leafHashOpt(s hash.Hash, leaf []byte) []byte {
	s.Reset()
	s.Write(leafPrefix)
	s.Write(leaf)
	return s.Sum(nil)
}

// returns sha256(0x01 || left || right)
func innerHash(left []byte, right []byte) []byte {
	return innerHashOpt(sha256.New(), left, right)
}

func innerHashOpt(s hash.Hash, left []byte, right []byte) []byte {
	s.Reset()
	s.Write(innerPrefix)
	s.Write(left)
	s.Write(right)
	return s.Sum(nil)
}

func valueHash(value []byte) []byte {
	h := sha256.Sum256(value)
	return h[:]
}
