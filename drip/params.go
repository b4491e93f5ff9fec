// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package drip

import "math/big"

// Constants of the distribution protocol.
const (
	// EpochInterval is the length of one distribution epoch in seconds.
	// Rewards deposited within the same epoch share one pool.
	EpochInterval uint64 = 7 * 24 * 3600
)

var (
	// ShareScale is the fixed-point unit of share fractions.
	// A share of ShareScale means 100% of the global weight.
	ShareScale = big.NewInt(1e18)
)

// EpochAt maps a unix timestamp to the epoch index, relative to genesisTime.
// Timestamps before genesisTime map to epoch 0.
func EpochAt(timestamp, genesisTime uint64) uint32 {
	if timestamp <= genesisTime {
		return 0
	}
	return uint32((timestamp - genesisTime) / EpochInterval)
}

// EpochStart returns the unix timestamp at which the given epoch begins.
func EpochStart(epoch uint32, genesisTime uint64) uint64 {
	return genesisTime + uint64(epoch)*EpochInterval
}
