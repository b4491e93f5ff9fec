// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"

	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/lvldb"
)

func newTestState(t *testing.T) *State {
	db, err := lvldb.NewMem()
	assert.Nil(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestRawStorage(t *testing.T) {
	st := newTestState(t)

	addr := drip.BytesToAddress([]byte("addr"))
	key := drip.Blake2b([]byte("key"))

	raw, err := st.GetRawStorage(addr, key)
	assert.Nil(t, err)
	assert.Len(t, raw, 0)

	value, _ := rlp.EncodeToBytes("value")
	st.SetRawStorage(addr, key, value)

	raw, err = st.GetRawStorage(addr, key)
	assert.Nil(t, err)
	assert.Equal(t, rlp.RawValue(value), raw)
}

func TestEncodeDecodeStorage(t *testing.T) {
	st := newTestState(t)

	addr := drip.BytesToAddress([]byte("addr"))
	key := drip.Blake2b([]byte("key"))

	err := st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes(uint64(42))
	})
	assert.Nil(t, err)

	var got uint64
	err = st.DecodeStorage(addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &got)
	})
	assert.Nil(t, err)
	assert.Equal(t, uint64(42), got)
}

func TestCheckpointRevert(t *testing.T) {
	st := newTestState(t)

	addr := drip.BytesToAddress([]byte("addr"))
	key := drip.Blake2b([]byte("key"))
	v1, _ := rlp.EncodeToBytes("v1")
	v2, _ := rlp.EncodeToBytes("v2")

	st.SetRawStorage(addr, key, v1)

	chk := st.NewCheckpoint()
	st.SetRawStorage(addr, key, v2)

	raw, _ := st.GetRawStorage(addr, key)
	assert.Equal(t, rlp.RawValue(v2), raw)

	st.RevertTo(chk)
	raw, _ = st.GetRawStorage(addr, key)
	assert.Equal(t, rlp.RawValue(v1), raw)
}

func TestCommit(t *testing.T) {
	db, err := lvldb.NewMem()
	assert.Nil(t, err)
	defer db.Close()

	addr := drip.BytesToAddress([]byte("addr"))
	key := drip.Blake2b([]byte("key"))
	value, _ := rlp.EncodeToBytes("value")

	st := New(db)
	st.SetRawStorage(addr, key, value)
	assert.Nil(t, st.Commit())

	// a fresh state over the same store sees the committed value
	st2 := New(db)
	raw, err := st2.GetRawStorage(addr, key)
	assert.Nil(t, err)
	assert.Equal(t, rlp.RawValue(value), raw)

	// deletion is persisted too
	st2.SetRawStorage(addr, key, nil)
	assert.Nil(t, st2.Commit())

	st3 := New(db)
	raw, err = st3.GetRawStorage(addr, key)
	assert.Nil(t, err)
	assert.Len(t, raw, 0)
}

func TestUncommittedNotPersisted(t *testing.T) {
	db, err := lvldb.NewMem()
	assert.Nil(t, err)
	defer db.Close()

	addr := drip.BytesToAddress([]byte("addr"))
	key := drip.Blake2b([]byte("key"))
	value, _ := rlp.EncodeToBytes("value")

	st := New(db)
	st.SetRawStorage(addr, key, value)

	st2 := New(db)
	raw, err := st2.GetRawStorage(addr, key)
	assert.Nil(t, err)
	assert.Len(t, raw, 0)
}
