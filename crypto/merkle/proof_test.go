package merkle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func storeKeyPath(store, key string) string {
	return KeyPath{}.
		AppendKey([]byte(store), KeyEncodingURL).
		AppendKey([]byte(key), KeyEncodingURL).String()
}

// chainedProof proves key in the inner tree and the inner root under "ibc"
// in the outer tree.
func chainedProof(t *testing.T, inner map[string][]byte, key string) (*ProofOps, []byte) {
	innerTree := NewKVTree(inner)
	outer := map[string][]byte{"ibc": innerTree.Hash(), "other": []byte("x")}
	outerTree := NewKVTree(outer)
	outerOp, err := outerTree.ValueOp([]byte("ibc"))
	require.NoError(t, err)

	innerOp := innerTree.ProofOp([]byte(key))
	outerPop := outerOp.ProofOp()
	return &ProofOps{Ops: []*ProofOp{&innerOp, &outerPop}}, outerTree.Hash()
}

func TestProofRuntimeValue(t *testing.T) {
	prt := DefaultProofRuntime()
	kvs := map[string][]byte{
		"connections/connection-0": []byte("conn0"),
		"connections/connection-1": []byte("conn1"),
		"ports/transfer":           []byte("t"),
	}

	proof, root := chainedProof(t, kvs, "connections/connection-1")

	require.NoError(t, prt.VerifyValue(proof, root, storeKeyPath("ibc", "connections/connection-1"), []byte("conn1")))
	require.Error(t, prt.VerifyValue(proof, root, storeKeyPath("ibc", "connections/connection-1"), []byte("conn0")))
	require.Error(t, prt.VerifyValue(proof, root, storeKeyPath("ibc", "connections/connection-0"), []byte("conn1")))
	require.Error(t, prt.VerifyValue(proof, root, storeKeyPath("other", "connections/connection-1"), []byte("conn1")))
	require.Error(t, prt.VerifyValue(proof, mutate(root), storeKeyPath("ibc", "connections/connection-1"), []byte("conn1")))
	require.Error(t, prt.VerifyAbsence(proof, root, storeKeyPath("ibc", "connections/connection-1")))

	// round trip through the wire encoding
	bz, err := proof.Bytes()
	require.NoError(t, err)
	decoded, err := ProofOpsFromBytes(bz)
	require.NoError(t, err)
	require.NoError(t, prt.VerifyValue(decoded, root, storeKeyPath("ibc", "connections/connection-1"), []byte("conn1")))
}

func TestProofRuntimeAbsence(t *testing.T) {
	prt := DefaultProofRuntime()
	kvs := map[string][]byte{
		"b": []byte("1"),
		"d": []byte("2"),
		"f": []byte("3"),
	}

	testCases := map[string]struct {
		kvs map[string][]byte
		key string
	}{
		"before first": {kvs, "a"},
		"between":      {kvs, "c"},
		"after last":   {kvs, "g"},
		"empty tree":   {map[string][]byte{}, "a"},
		"single leaf":  {map[string][]byte{"b": []byte("1")}, "c"},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			proof, root := chainedProof(t, tc.kvs, tc.key)
			require.NoError(t, prt.VerifyAbsence(proof, root, storeKeyPath("ibc", tc.key)))
			require.Error(t, prt.VerifyValue(proof, root, storeKeyPath("ibc", tc.key), []byte("1")))
		})
	}
}

func TestAbsenceOpRejectsNonAdjacentNeighbors(t *testing.T) {
	tree := NewKVTree(map[string][]byte{"a": {1}, "c": {2}, "e": {3}})
	forged := NewAbsenceOp([]byte("d"), tree.neighbor(0), tree.neighbor(2))

	_, err := forged.Run(nil)
	require.Error(t, err)

	_, err = tree.AbsenceOp([]byte("c"))
	require.Error(t, err)
}

func TestKVTreeProofsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z]{1,6}`), func(s string) string { return s }).
			Draw(t, "keys").([]string)
		probe := rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "probe").(string)

		kvs := make(map[string][]byte, len(keys))
		for i, k := range keys {
			kvs[k] = []byte(fmt.Sprintf("value-%d", i))
		}
		tree := NewKVTree(kvs)

		for k, v := range kvs {
			op, err := tree.ValueOp([]byte(k))
			if err != nil {
				t.Fatalf("value op for %q: %v", k, err)
			}
			roots, err := op.Run([][]byte{v})
			if err != nil || string(roots[0]) != string(tree.Hash()) {
				t.Fatalf("value op for %q did not prove root: %v", k, err)
			}
		}

		if _, ok := kvs[probe]; ok {
			return
		}
		op, err := tree.AbsenceOp([]byte(probe))
		if err != nil {
			t.Fatalf("absence op for %q: %v", probe, err)
		}
		roots, err := op.Run(nil)
		if err != nil || string(roots[0]) != string(tree.Hash()) {
			t.Fatalf("absence op for %q did not prove root: %v", probe, err)
		}
	})
}

// mutate returns a copy of bz with one byte flipped.
func mutate(bz []byte) []byte {
	out := append([]byte(nil), bz...)
	out[0] ^= 0xff
	return out
}
