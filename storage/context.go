// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed slot and mapping abstractions over state,
// in the manner of contract storage layouts.
package storage

import (
	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/state"
)

// Context binds a storage layout to an owner address within a state.
type Context struct {
	address drip.Address
	state   *state.State
}

// NewContext creates a storage context owned by address.
func NewContext(address drip.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

// Address returns the owner address.
func (c *Context) Address() drip.Address {
	return c.address
}

// State returns the underlying state.
func (c *Context) State() *state.State {
	return c.state
}
