package merkle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gogo/protobuf/proto"
)

//----------------------------------------
// ProofOp gets converted to an instance of ProofOperator:

// ProofOp defines an operation used for calculating Merkle root. The data
// could be arbitrary format, providing necessary data for example
// neighbouring node hash.
type ProofOp struct {
	Type string `protobuf:"bytes,1,opt,name=type,proto3" json:"type"`
	Key  []byte `protobuf:"bytes,2,opt,name=key,proto3" json:"key"`
	Data []byte `protobuf:"bytes,3,opt,name=data,proto3" json:"data"`
}

func (po *ProofOp) Reset()         { *po = ProofOp{} }
func (po *ProofOp) String() string { return proto.CompactTextString(po) }
func (*ProofOp) ProtoMessage()     {}

// ProofOps is Merkle proof defined by the list of ProofOps. Operations are
// applied from the first (closest to the leaf) to the last (the root).
type ProofOps struct {
	Ops []*ProofOp `protobuf:"bytes,1,rep,name=ops,proto3" json:"ops"`
}

func (pops *ProofOps) Reset()         { *pops = ProofOps{} }
func (pops *ProofOps) String() string { return proto.CompactTextString(pops) }
func (*ProofOps) ProtoMessage()       {}

// Bytes encodes the proof for transport inside a message.
func (pops *ProofOps) Bytes() ([]byte, error) {
	return proto.Marshal(pops)
}

// ProofOpsFromBytes decodes proof bytes produced by ProofOps.Bytes.
func ProofOpsFromBytes(bz []byte) (*ProofOps, error) {
	if len(bz) == 0 {
		return nil, errors.New("empty proof")
	}
	pops := new(ProofOps)
	if err := proto.Unmarshal(bz, pops); err != nil {
		return nil, fmt.Errorf("decoding proof ops: %w", err)
	}
	if len(pops.Ops) == 0 {
		return nil, errors.New("proof has no operations")
	}
	return pops, nil
}

// ProofOperator is a layer for calculating intermediate Merkle roots
// when a series of Merkle trees are chained together.
// Run() takes leaf values from a tree and returns the Merkle
// root for the corresponding tree. It takes and returns a list of bytes
// to allow multiple leaves to be part of a single proof, for instance in a range proof.
// ProofOp() encodes the ProofOperator in a generic way so it can later be
// decoded with OpDecoder.
type ProofOperator interface {
	Run([][]byte) ([][]byte, error)
	GetKey() []byte
	ProofOp() ProofOp
}

//----------------------------------------
// Operations on a list of ProofOperators

// ProofOperators is a slice of ProofOperator(s).
// Each operator will be applied to the input value sequentially
// and the last Merkle root will be verified with already known data
type ProofOperators []ProofOperator

// VerifyValue proves value exists under keypath.
func (poz ProofOperators) VerifyValue(root []byte, keypath string, value []byte) (err error) {
	return poz.Verify(root, keypath, [][]byte{value})
}

// Verify runs the operators inner to outer. Every operator with a key consumes
// the last remaining key of keypath.
func (poz ProofOperators) Verify(root []byte, keypath string, args [][]byte) (err error) {
	keys, err := KeyPathToKeys(keypath)
	if err != nil {
		return
	}

	for i, op := range poz {
		key := op.GetKey()
		if len(key) != 0 {
			if len(keys) == 0 {
				return fmt.Errorf("key path has insufficient # of parts: expected no more keys but got %+v", string(key))
			}
			lastKey := keys[len(keys)-1]
			if !bytes.Equal(lastKey, key) {
				return fmt.Errorf("key mismatch on operation #%d: expected %+v but got %+v", i, string(lastKey), string(key))
			}
			keys = keys[:len(keys)-1]
		}
		args, err = op.Run(args)
		if err != nil {
			return
		}
	}
	if len(args) != 1 {
		return fmt.Errorf("expected a single root from proof operators, got %d", len(args))
	}
	if !bytes.Equal(root, args[0]) {
		return fmt.Errorf("calculated root hash is invalid: expected %X but got %X", root, args[0])
	}
	if len(keys) != 0 {
		return errors.New("keypath not consumed all")
	}
	return nil
}

//----------------------------------------
// ProofRuntime - main entrypoint

type OpDecoder func(ProofOp) (ProofOperator, error)

type ProofRuntime struct {
	decoders map[string]OpDecoder
}

func NewProofRuntime() *ProofRuntime {
	return &ProofRuntime{
		decoders: make(map[string]OpDecoder),
	}
}

func (prt *ProofRuntime) RegisterOpDecoder(typ string, dec OpDecoder) {
	_, ok := prt.decoders[typ]
	if ok {
		panic("already registered for type " + typ)
	}
	prt.decoders[typ] = dec
}

func (prt *ProofRuntime) Decode(pop ProofOp) (ProofOperator, error) {
	decoder := prt.decoders[pop.Type]
	if decoder == nil {
		return nil, fmt.Errorf("unrecognized proof type %v", pop.Type)
	}
	return decoder(pop)
}

func (prt *ProofRuntime) DecodeProof(proof *ProofOps) (ProofOperators, error) {
	poz := make(ProofOperators, 0, len(proof.Ops))
	for _, pop := range proof.Ops {
		if pop == nil {
			return nil, errors.New("nil proof operator")
		}
		operator, err := prt.Decode(*pop)
		if err != nil {
			return nil, fmt.Errorf("decoding a proof operator: %w", err)
		}
		poz = append(poz, operator)
	}
	return poz, nil
}

func (prt *ProofRuntime) VerifyValue(proof *ProofOps, root []byte, keypath string, value []byte) (err error) {
	return prt.Verify(proof, root, keypath, [][]byte{value})
}

// VerifyAbsence verifies that no value is stored under keypath.
func (prt *ProofRuntime) VerifyAbsence(proof *ProofOps, root []byte, keypath string) (err error) {
	return prt.Verify(proof, root, keypath, nil)
}

func (prt *ProofRuntime) Verify(proof *ProofOps, root []byte, keypath string, args [][]byte) (err error) {
	poz, err := prt.DecodeProof(proof)
	if err != nil {
		return fmt.Errorf("decoding proof: %w", err)
	}
	return poz.Verify(root, keypath, args)
}

// DefaultProofRuntime only knows about value proofs and absence proofs over
// key/value trees.
// To use e.g. IAVL proofs, register op-decoders as
// defined in the IAVL package.
func DefaultProofRuntime() (prt *ProofRuntime) {
	prt = NewProofRuntime()
	prt.RegisterOpDecoder(ProofOpValue, ValueOpDecoder)
	prt.RegisterOpDecoder(ProofOpAbsence, AbsenceOpDecoder)
	return
}
