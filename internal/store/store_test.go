package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/ibc/core/exported"
	"github.com/tendermint/ibc/crypto/merkle"
)

func newTestStore(t *testing.T, keep int64) *Store {
	t.Helper()
	s, err := NewStore(dbm.NewMemDB(), keep)
	require.NoError(t, err)
	return s
}

func TestStoreCommitAndProof(t *testing.T) {
	s := newTestStore(t, 0)

	require.NoError(t, s.Set([]byte("a"), []byte("1")))
	require.NoError(t, s.Set([]byte("c"), []byte("3")))
	height, root1, err := s.Commit()
	require.NoError(t, err)
	require.EqualValues(t, 1, height)

	require.NoError(t, s.Set([]byte("b"), []byte("2")))
	require.NoError(t, s.Delete([]byte("a")))
	_, root2, err := s.Commit()
	require.NoError(t, err)
	require.NotEqual(t, root1, root2)

	prt := merkle.DefaultProofRuntime()

	// "a" is present at height 1 and absent at height 2
	op, err := s.Proof(1, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, merkle.ProofOpValue, op.Type)
	require.NoError(t, prt.VerifyValue(&merkle.ProofOps{Ops: []*merkle.ProofOp{&op}}, root1, "/a", []byte("1")))

	op, err = s.Proof(2, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, merkle.ProofOpAbsence, op.Type)
	require.NoError(t, prt.VerifyAbsence(&merkle.ProofOps{Ops: []*merkle.ProofOp{&op}}, root2, "/a"))

	value, err := s.GetAt(1, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), value)
	value, err = s.GetAt(2, []byte("a"))
	require.NoError(t, err)
	require.Nil(t, value)

	got, err := s.Root(1)
	require.NoError(t, err)
	require.Equal(t, root1, got)

	_, err = s.Root(3)
	require.ErrorIs(t, err, ErrHeightNotFound{Height: 3})
}

func TestStoreRebuildsTreeFromVersions(t *testing.T) {
	db := dbm.NewMemDB()
	s, err := NewStore(db, 0)
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("k"), []byte("v1")))
	_, root1, err := s.Commit()
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("k"), []byte("v2")))
	_, _, err = s.Commit()
	require.NoError(t, err)

	reopened, err := NewStore(db, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, reopened.Height())

	op, err := reopened.Proof(1, []byte("k"))
	require.NoError(t, err)
	prt := merkle.DefaultProofRuntime()
	require.NoError(t, prt.VerifyValue(&merkle.ProofOps{Ops: []*merkle.ProofOp{&op}}, root1, "/k", []byte("v1")))
}

func TestStoreKeepRecent(t *testing.T) {
	s := newTestStore(t, 2)
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Set([]byte("k"), []byte{byte(i)}))
		_, _, err := s.Commit()
		require.NoError(t, err)
	}
	_, err := s.Proof(2, []byte("k"))
	require.Error(t, err)
	_, err = s.Proof(3, []byte("k"))
	require.NoError(t, err)
}

func TestCacheStore(t *testing.T) {
	s := newTestStore(t, 0)
	require.NoError(t, s.Set([]byte("a"), []byte("1")))
	require.NoError(t, s.Set([]byte("b"), []byte("2")))

	cache := s.Branch()
	require.NoError(t, cache.Set([]byte("c"), []byte("3")))
	require.NoError(t, cache.Delete([]byte("a")))

	has, err := cache.Has([]byte("a"))
	require.NoError(t, err)
	require.False(t, has)
	has, err = s.Has([]byte("a"))
	require.NoError(t, err)
	require.True(t, has, "parent untouched before Write")

	it, err := cache.Iterator(nil, nil)
	require.NoError(t, err)
	var keys []string
	for ; it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Close())
	require.Equal(t, []string{"b", "c"}, keys)

	nested := cache.Branch()
	require.NoError(t, nested.Set([]byte("d"), []byte("4")))
	nested.Discard()
	require.NoError(t, nested.Write())

	require.NoError(t, cache.Write())
	value, err := s.Get([]byte("c"))
	require.NoError(t, err)
	require.Equal(t, []byte("3"), value)
	value, err = s.Get([]byte("d"))
	require.NoError(t, err)
	require.Nil(t, value)
	has, err = s.Has([]byte("a"))
	require.NoError(t, err)
	require.False(t, has)
}

func TestEventLog(t *testing.T) {
	log := NewEventLog(dbm.NewMemDB())

	send := exported.NewEvent("send_packet", exported.NewAttribute("packet_sequence", "1"))
	recv := exported.NewEvent("receive_packet", exported.NewAttribute("packet_sequence", "1"))

	require.NoError(t, log.Append(1, []exported.Event{send}))
	require.NoError(t, log.Append(1, []exported.Event{recv}))
	require.NoError(t, log.Append(2, []exported.Event{send}))

	events, err := log.Events(1)
	require.NoError(t, err)
	require.Equal(t, []exported.Event{send, recv}, events)

	found, err := log.Search("send_packet", 1, 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.EqualValues(t, 0, found[0].Index)
	require.EqualValues(t, 2, found[1].Height)
}
