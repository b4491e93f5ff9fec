// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/lvldb"
	"github.com/driplabs/drip/state"
)

func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	assert.Nil(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContext(drip.BytesToAddress([]byte("owner")), state.New(db))
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	slot := drip.BytesToBytes32([]byte("balances"))

	balances := NewMapping[drip.Address, *big.Int](ctx, slot)
	acc := drip.BytesToAddress([]byte("a1"))

	// missing entry yields zero value
	bal, err := balances.Get(acc)
	assert.Nil(t, err)
	assert.Equal(t, 0, bal.Sign())

	assert.Nil(t, balances.Set(acc, big.NewInt(100)))

	bal, err = balances.Get(acc)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(100), bal)

	// distinct slots don't collide
	other := NewMapping[drip.Address, *big.Int](ctx, drip.BytesToBytes32([]byte("other")))
	bal, err = other.Get(acc)
	assert.Nil(t, err)
	assert.Equal(t, 0, bal.Sign())
}

func TestMappingStruct(t *testing.T) {
	type record struct {
		Amount *big.Int
		Epoch  uint32
	}

	ctx := newTestContext(t)
	records := NewMapping[drip.Address, *record](ctx, drip.BytesToBytes32([]byte("records")))
	acc := drip.BytesToAddress([]byte("a1"))

	r, err := records.Get(acc)
	assert.Nil(t, err)
	assert.Nil(t, r.Amount)
	assert.Zero(t, r.Epoch)

	assert.Nil(t, records.Set(acc, &record{Amount: big.NewInt(7), Epoch: 3}))

	r, err = records.Get(acc)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(7), r.Amount)
	assert.Equal(t, uint32(3), r.Epoch)
}

func TestValue(t *testing.T) {
	ctx := newTestContext(t)

	v := NewValue[uint32](ctx, drip.BytesToBytes32([]byte("start-epoch")))

	got, err := v.Get()
	assert.Nil(t, err)
	assert.Zero(t, got)

	assert.Nil(t, v.Set(12))
	got, err = v.Get()
	assert.Nil(t, err)
	assert.Equal(t, uint32(12), got)
}
