package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/gogo/protobuf/proto"
)

const ProofOpAbsence = "simple:a"

// Neighbor is a leaf adjacent to an absent key, with its inclusion proof.
type Neighbor struct {
	Key       []byte `protobuf:"bytes,1,opt,name=key,proto3" json:"key"`
	ValueHash []byte `protobuf:"bytes,2,opt,name=value_hash,proto3" json:"value_hash"`
	Proof     *Proof `protobuf:"bytes,3,opt,name=proof,proto3" json:"proof"`
}

func (n *Neighbor) Reset()         { *n = Neighbor{} }
func (n *Neighbor) String() string { return proto.CompactTextString(n) }
func (*Neighbor) ProtoMessage()    {}

func (n *Neighbor) root() ([]byte, error) {
	if n.Proof == nil {
		return nil, errors.New("neighbor without proof")
	}
	if len(n.ValueHash) != sha256.Size {
		return nil, fmt.Errorf("expected neighbor value hash size %d, got %d", sha256.Size, len(n.ValueHash))
	}
	if err := n.Proof.ValidateBasic(); err != nil {
		return nil, err
	}
	lh := leafHash(KVPair{Key: n.Key, ValueHash: n.ValueHash}.Bytes())
	if !bytes.Equal(lh, n.Proof.LeafHash) {
		return nil, fmt.Errorf("neighbor leaf hash mismatch: want %X got %X", n.Proof.LeafHash, lh)
	}
	return n.Proof.computeRootHash()
}

// AbsenceOp proves that a key is not in a key/value tree by exhibiting the
// two leaves that would surround it. Left is nil when the key sorts before
// every leaf, Right is nil when it sorts after every leaf, and both are nil
// for the empty tree.
//
// Run takes no arguments and produces the root hash.
type AbsenceOp struct {
	key []byte

	Left  *Neighbor `json:"left"`
	Right *Neighbor `json:"right"`
}

var _ ProofOperator = AbsenceOp{}

func NewAbsenceOp(key []byte, left, right *Neighbor) AbsenceOp {
	return AbsenceOp{key: key, Left: left, Right: right}
}

type absenceOpData struct {
	Key   []byte    `protobuf:"bytes,1,opt,name=key,proto3"`
	Left  *Neighbor `protobuf:"bytes,2,opt,name=left,proto3"`
	Right *Neighbor `protobuf:"bytes,3,opt,name=right,proto3"`
}

func (d *absenceOpData) Reset()         { *d = absenceOpData{} }
func (d *absenceOpData) String() string { return proto.CompactTextString(d) }
func (*absenceOpData) ProtoMessage()    {}

func AbsenceOpDecoder(pop ProofOp) (ProofOperator, error) {
	if pop.Type != ProofOpAbsence {
		return nil, fmt.Errorf("unexpected ProofOp.Type; got %v, want %v", pop.Type, ProofOpAbsence)
	}
	var pbop absenceOpData
	if err := proto.Unmarshal(pop.Data, &pbop); err != nil {
		return nil, fmt.Errorf("decoding ProofOp.Data into AbsenceOp: %w", err)
	}
	return NewAbsenceOp(pop.Key, pbop.Left, pbop.Right), nil
}

func (op AbsenceOp) ProofOp() ProofOp {
	bz, err := proto.Marshal(&absenceOpData{Key: op.key, Left: op.Left, Right: op.Right})
	if err != nil {
		panic(err)
	}
	return ProofOp{
		Type: ProofOpAbsence,
		Key:  op.key,
		Data: bz,
	}
}

func (op AbsenceOp) String() string {
	return fmt.Sprintf("AbsenceOp{%v}", op.GetKey())
}

func (op AbsenceOp) GetKey() []byte {
	return op.key
}

func (op AbsenceOp) Run(args [][]byte) ([][]byte, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("expected 0 args, got %v", len(args))
	}

	switch {
	case op.Left == nil && op.Right == nil:
		return [][]byte{emptyHash()}, nil

	case op.Right == nil:
		if bytes.Compare(op.Left.Key, op.key) >= 0 {
			return nil, fmt.Errorf("left neighbor %X does not sort before %X", op.Left.Key, op.key)
		}
		if op.Left.Proof == nil || op.Left.Proof.Index != op.Left.Proof.Total-1 {
			return nil, errors.New("left neighbor is not the last leaf")
		}
		root, err := op.Left.root()
		if err != nil {
			return nil, err
		}
		return [][]byte{root}, nil

	case op.Left == nil:
		if bytes.Compare(op.Right.Key, op.key) <= 0 {
			return nil, fmt.Errorf("right neighbor %X does not sort after %X", op.Right.Key, op.key)
		}
		if op.Right.Proof == nil || op.Right.Proof.Index != 0 {
			return nil, errors.New("right neighbor is not the first leaf")
		}
		root, err := op.Right.root()
		if err != nil {
			return nil, err
		}
		return [][]byte{root}, nil

	default:
		if bytes.Compare(op.Left.Key, op.key) >= 0 || bytes.Compare(op.Right.Key, op.key) <= 0 {
			return nil, fmt.Errorf("neighbors %X and %X do not surround %X", op.Left.Key, op.Right.Key, op.key)
		}
		leftRoot, err := op.Left.root()
		if err != nil {
			return nil, err
		}
		rightRoot, err := op.Right.root()
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(leftRoot, rightRoot) {
			return nil, errors.New("neighbors prove different roots")
		}
		if op.Left.Proof.Total != op.Right.Proof.Total || op.Right.Proof.Index != op.Left.Proof.Index+1 {
			return nil, fmt.Errorf("neighbors at %d and %d are not adjacent", op.Left.Proof.Index, op.Right.Proof.Index)
		}
		return [][]byte{leftRoot}, nil
	}
}
