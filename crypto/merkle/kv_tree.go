package merkle

import (
	"bytes"
	"fmt"
	"sort"
)

// KVTree is an immutable Merkle tree over key/value pairs ordered by key.
// Each leaf is KVPair{key, sha256(value)}.
type KVTree struct {
	pairs  []KVPair
	root   []byte
	proofs []*Proof
}

// NewKVTree builds a tree from m. Keys are ordered bytewise.
func NewKVTree(m map[string][]byte) *KVTree {
	pairs := make([]KVPair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, KVPair{Key: []byte(k), ValueHash: valueHash(v)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return bytes.Compare(pairs[i].Key, pairs[j].Key) < 0
	})
	return newKVTree(pairs)
}

func newKVTree(pairs []KVPair) *KVTree {
	leaves := make([][]byte, len(pairs))
	for i, kv := range pairs {
		leaves[i] = kv.Bytes()
	}
	root, proofs := ProofsFromByteSlices(leaves)
	return &KVTree{pairs: pairs, root: root, proofs: proofs}
}

// HashFromMap computes a Merkle tree from a map, ordered by key.
func HashFromMap(m map[string][]byte) []byte {
	return NewKVTree(m).Hash()
}

// Hash returns the root hash.
func (t *KVTree) Hash() []byte {
	return t.root
}

// Size returns the number of leaves.
func (t *KVTree) Size() int {
	return len(t.pairs)
}

// search returns the index of the first leaf with a key >= key.
func (t *KVTree) search(key []byte) int {
	return sort.Search(len(t.pairs), func(i int) bool {
		return bytes.Compare(t.pairs[i].Key, key) >= 0
	})
}

// Has reports whether key is a leaf of the tree.
func (t *KVTree) Has(key []byte) bool {
	i := t.search(key)
	return i < len(t.pairs) && bytes.Equal(t.pairs[i].Key, key)
}

// ValueOp returns an inclusion operator for key, or an error if the key is
// absent.
func (t *KVTree) ValueOp(key []byte) (ValueOp, error) {
	i := t.search(key)
	if i >= len(t.pairs) || !bytes.Equal(t.pairs[i].Key, key) {
		return ValueOp{}, fmt.Errorf("key %X not in tree", key)
	}
	return NewValueOp(key, t.proofs[i]), nil
}

// AbsenceOp returns an exclusion operator for key, or an error if the key is
// present.
func (t *KVTree) AbsenceOp(key []byte) (AbsenceOp, error) {
	i := t.search(key)
	if i < len(t.pairs) && bytes.Equal(t.pairs[i].Key, key) {
		return AbsenceOp{}, fmt.Errorf("key %X is in tree", key)
	}
	var left, right *Neighbor
	if i > 0 {
		left = t.neighbor(i - 1)
	}
	if i < len(t.pairs) {
		right = t.neighbor(i)
	}
	return NewAbsenceOp(key, left, right), nil
}

// ProofOp returns a value op when key is present and an absence op otherwise.
func (t *KVTree) ProofOp(key []byte) ProofOp {
	if op, err := t.ValueOp(key); err == nil {
		return op.ProofOp()
	}
	op, err := t.AbsenceOp(key)
	if err != nil {
		panic(err)
	}
	return op.ProofOp()
}

func (t *KVTree) neighbor(i int) *Neighbor {
	return &Neighbor{
		Key:       t.pairs[i].Key,
		ValueHash: t.pairs[i].ValueHash,
		Proof:     t.proofs[i],
	}
}
