package merkle

import (
	"bytes"
	"encoding/binary"
	"io"
)

// KVPair is a leaf of a key/value tree. The value is stored hashed, so a
// leaf commits to sha256(value) rather than the value itself.
type KVPair struct {
	Key       []byte
	ValueHash []byte
}

// Bytes returns uvarint-length-prefixed key followed by
// uvarint-length-prefixed value hash.
func (kv KVPair) Bytes() []byte {
	var b bytes.Buffer
	if err := encodeByteSlice(&b, kv.Key); err != nil {
		panic(err)
	}
	if err := encodeByteSlice(&b, kv.ValueHash); err != nil {
		panic(err)
	}
	return b.Bytes()
}

func kvLeaf(key, value []byte) []byte {
	return KVPair{Key: key, ValueHash: valueHash(value)}.Bytes()
}

// Uvarint length prefixed byteslice
func encodeByteSlice(w io.Writer, bz []byte) (err error) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(bz)))
	_, err = w.Write(buf[0:n])
	if err != nil {
		return
	}
	_, err = w.Write(bz)
	return
}
