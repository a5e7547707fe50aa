package merkle

import (
	"bytes"
	"fmt"

	"github.com/gogo/protobuf/proto"
)

const ProofOpValue = "simple:v"

// ValueOp takes a key and a single value as argument and
// produces the root hash.  The corresponding tree structure is
// the key/value tree built by NewKVTree.  The keys may be
// arbitrary bytes, and the tree is ordered by key.
//
// If the produced root hash matches the expected hash, the
// proof is good.
type ValueOp struct {
	// Encoded in ProofOp.Key.
	key []byte

	// To encode in ProofOp.Data
	Proof *Proof `json:"proof"`
}

var _ ProofOperator = ValueOp{}

func NewValueOp(key []byte, proof *Proof) ValueOp {
	return ValueOp{
		key:   key,
		Proof: proof,
	}
}

// valueOpData is the wire form of a ValueOp's data.
type valueOpData struct {
	Key   []byte `protobuf:"bytes,1,opt,name=key,proto3"`
	Proof *Proof `protobuf:"bytes,2,opt,name=proof,proto3"`
}

func (d *valueOpData) Reset()         { *d = valueOpData{} }
func (d *valueOpData) String() string { return proto.CompactTextString(d) }
func (*valueOpData) ProtoMessage()    {}

func ValueOpDecoder(pop ProofOp) (ProofOperator, error) {
	if pop.Type != ProofOpValue {
		return nil, fmt.Errorf("unexpected ProofOp.Type; got %v, want %v", pop.Type, ProofOpValue)
	}
	var pbop valueOpData
	if err := proto.Unmarshal(pop.Data, &pbop); err != nil {
		return nil, fmt.Errorf("decoding ProofOp.Data into ValueOp: %w", err)
	}
	if pbop.Proof == nil {
		return nil, fmt.Errorf("value op %X has no proof", pop.Key)
	}
	if err := pbop.Proof.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid value op proof: %w", err)
	}

	return NewValueOp(pop.Key, pbop.Proof), nil
}

func (op ValueOp) ProofOp() ProofOp {
	pbval := valueOpData{
		Key:   op.key,
		Proof: op.Proof,
	}
	bz, err := proto.Marshal(&pbval)
	if err != nil {
		panic(err)
	}
	return ProofOp{
		Type: ProofOpValue,
		Key:  op.key,
		Data: bz,
	}
}

func (op ValueOp) String() string {
	return fmt.Sprintf("ValueOp{%v}", op.GetKey())
}

func (op ValueOp) Run(args [][]byte) ([][]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 arg, got %v", len(args))
	}
	value := args[0]
	kvhash := leafHash(kvLeaf(op.key, value))

	if !bytes.Equal(kvhash, op.Proof.LeafHash) {
		return nil, fmt.Errorf("leaf hash mismatch: want %X got %X", op.Proof.LeafHash, kvhash)
	}

	rootHash, err := op.Proof.computeRootHash()
	if err != nil {
		return nil, err
	}
	return [][]byte{
		rootHash,
	}, nil
}

func (op ValueOp) GetKey() []byte {
	return op.key
}
