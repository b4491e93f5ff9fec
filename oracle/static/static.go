// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package static implements a weight oracle backed by a YAML weight table,
// for development setups and deployments whose stake distribution is managed
// off-system.
package static

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/driplabs/drip/drip"
)

type config struct {
	// Accounts maps account addresses to decimal weight strings, effective
	// from epoch 0 unless overridden.
	Accounts map[string]string `yaml:"accounts"`
	// Overrides replace the whole weight table from their epoch onward.
	Overrides []struct {
		Epoch    uint32            `yaml:"epoch"`
		Accounts map[string]string `yaml:"accounts"`
	} `yaml:"overrides"`
}

type table struct {
	fromEpoch uint32
	weights   map[drip.Address]*big.Int
	global    *big.Int
}

// Oracle reports weights from a static table. Overrides are epoch-ranged, so
// the reported history never changes retroactively.
type Oracle struct {
	tables []table // ascending by fromEpoch
}

// FromFile loads an oracle config from a YAML file.
func FromFile(path string) (*Oracle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read oracle config")
	}
	return Parse(data)
}

// Parse builds an oracle from YAML config data.
func Parse(data []byte) (*Oracle, error) {
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse oracle config")
	}

	base, err := buildTable(0, cfg.Accounts)
	if err != nil {
		return nil, err
	}
	tables := []table{base}
	for _, o := range cfg.Overrides {
		tbl, err := buildTable(o.Epoch, o.Accounts)
		if err != nil {
			return nil, err
		}
		tables = append(tables, tbl)
	}
	for i := 1; i < len(tables); i++ {
		if tables[i].fromEpoch <= tables[i-1].fromEpoch {
			return nil, errors.New("oracle config: overrides must be in ascending epoch order")
		}
	}
	return &Oracle{tables: tables}, nil
}

func buildTable(fromEpoch uint32, accounts map[string]string) (table, error) {
	weights := make(map[drip.Address]*big.Int, len(accounts))
	global := new(big.Int)
	for addr, weight := range accounts {
		parsed, err := drip.ParseAddress(addr)
		if err != nil {
			return table{}, errors.Wrapf(err, "oracle config: invalid address %q", addr)
		}
		w, ok := new(big.Int).SetString(weight, 10)
		if !ok || w.Sign() < 0 {
			return table{}, errors.Errorf("oracle config: invalid weight %q for %q", weight, addr)
		}
		weights[*parsed] = w
		global.Add(global, w)
	}
	return table{fromEpoch: fromEpoch, weights: weights, global: global}, nil
}

func (o *Oracle) tableAt(epoch uint32) *table {
	at := &o.tables[0]
	for i := range o.tables {
		if o.tables[i].fromEpoch > epoch {
			break
		}
		at = &o.tables[i]
	}
	return at
}

// AccountWeight returns account's weight at epoch.
func (o *Oracle) AccountWeight(account drip.Address, epoch uint32) (*big.Int, error) {
	if w, ok := o.tableAt(epoch).weights[account]; ok {
		return new(big.Int).Set(w), nil
	}
	return new(big.Int), nil
}

// GlobalWeight returns the total weight at epoch.
func (o *Oracle) GlobalWeight(epoch uint32) (*big.Int, error) {
	return new(big.Int).Set(o.tableAt(epoch).global), nil
}
