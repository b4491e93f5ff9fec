// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides structured storage over a key/value store, with
// checkpoint/revert semantics. Mutations are journaled in memory and only
// reach the underlying store on Commit.
package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/kv"
	"github.com/driplabs/drip/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr drip.Address
	key  drip.Bytes32
}

func (k storageKey) dbKey() []byte {
	return append(append([]byte("s"), k.addr.Bytes()...), k.key.Bytes()...)
}

// State manages structured storage of all components.
type State struct {
	kv kv.GetPutter
	sm *stackedmap.StackedMap
}

// New creates a state object backed by the given key/value store.
func New(store kv.GetPutter) *State {
	state := State{kv: store}
	state.sm = stackedmap.New(func(key any) (any, bool, error) {
		return state.srcGetter(key)
	})

	// the bottom checkpoint, so RevertTo(0) drops everything uncommitted
	state.sm.Push()
	return &state
}

// srcGetter implements stackedmap.MapGetter, reading through to the kv store.
func (s *State) srcGetter(key any) (any, bool, error) {
	switch k := key.(type) {
	case storageKey:
		raw, err := s.kv.Get(k.dbKey())
		if err != nil {
			if s.kv.IsNotFound(err) {
				return rlp.RawValue(nil), true, nil
			}
			return nil, false, err
		}
		return rlp.RawValue(raw), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

// GetRawStorage returns the storage value in rlp raw for the given address and key.
func (s *State) GetRawStorage(addr drip.Address, key drip.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage sets the storage value in rlp raw.
// An empty raw marks the entry deleted.
func (s *State) SetRawStorage(addr drip.Address, key drip.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage sets the storage value encoded by the given enc method.
func (s *State) EncodeStorage(addr drip.Address, key drip.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage gets and decodes the storage value.
func (s *State) DecodeStorage(addr drip.Address, key drip.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of the current state.
// It returns the checkpoint to be passed to RevertTo.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts the state to the given checkpoint.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
}

// Commit writes all journaled changes to the underlying store in one batch,
// then resets the journal. Either all changes are persisted or none.
func (s *State) Commit() error {
	batch := s.kv.NewBatch()

	var werr error
	s.sm.Journal(func(k, v any) bool {
		key := k.(storageKey)
		raw := v.(rlp.RawValue)
		if len(raw) == 0 {
			werr = batch.Delete(key.dbKey())
		} else {
			werr = batch.Put(key.dbKey(), raw)
		}
		return werr == nil
	})
	if werr != nil {
		return &Error{werr}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	s.sm.PopTo(0)
	s.sm.Push()
	return nil
}
