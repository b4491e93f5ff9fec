// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package recorddb persists deposit, claim and configuration records in
// sqlite, queryable by filters.
package recorddb

import (
	"context"
	"database/sql"
	"math/big"

	_ "github.com/mattn/go-sqlite3"

	"github.com/driplabs/drip/drip"
)

type RecordDB struct {
	path string
	db   *sql.DB
}

// New creates or opens the record db at the given path.
func New(path string) (recordDB *RecordDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if recordDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(depositTableSchema + claimTableSchema + configTableSchema); err != nil {
		return nil, err
	}
	return &RecordDB{path, db}, nil
}

// NewMem creates a record db in ram.
func NewMem() (*RecordDB, error) {
	return New(":memory:")
}

// Close closes the record db.
func (db *RecordDB) Close() {
	db.db.Close()
}

func (db *RecordDB) Path() string {
	return db.path
}

// PutDeposit stores a deposit record and fills in its sequence number.
func (db *RecordDB) PutDeposit(d *Deposit) error {
	res, err := db.db.Exec(
		"INSERT INTO deposit(ts, epoch, source, amount) VALUES (?, ?, ?, ?);",
		d.Timestamp, d.Epoch, d.Source.Bytes(), d.Amount.Bytes(),
	)
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.Seq = uint64(seq)
	return nil
}

// PutClaim stores a claim record and fills in its sequence number.
func (db *RecordDB) PutClaim(c *Claim) error {
	res, err := db.db.Exec(
		"INSERT INTO claim(ts, account, recipient, settledUpTo, amount) VALUES (?, ?, ?, ?, ?);",
		c.Timestamp, c.Account.Bytes(), c.Recipient.Bytes(), c.SettledUpTo, c.Amount.Bytes(),
	)
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.Seq = uint64(seq)
	return nil
}

// PutConfig stores a configuration change record and fills in its sequence number.
func (db *RecordDB) PutConfig(c *Config) error {
	res, err := db.db.Exec(
		"INSERT INTO config(ts, account, kind, target, approved) VALUES (?, ?, ?, ?, ?);",
		c.Timestamp, c.Account.Bytes(), c.Kind, c.Target.Bytes(), c.Approved,
	)
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.Seq = uint64(seq)
	return nil
}

// FilterDeposits returns deposit records matching the filter.
func (db *RecordDB) FilterDeposits(ctx context.Context, filter *DepositFilter) ([]*Deposit, error) {
	stmt := "SELECT seq, ts, epoch, source, amount FROM deposit WHERE 1"
	var args []any
	var order Order
	var options *Options
	if filter != nil {
		if filter.Epoch != nil {
			args = append(args, *filter.Epoch)
			stmt += " AND epoch = ? "
		}
		if filter.Source != nil {
			args = append(args, filter.Source.Bytes())
			stmt += " AND source = ? "
		}
		order = filter.Order
		options = filter.Options
	}
	stmt += orderClause(order)
	stmt, args = limitClause(stmt, args, options)

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []*Deposit
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			d      Deposit
			source []byte
			amount []byte
		)
		if err := rows.Scan(&d.Seq, &d.Timestamp, &d.Epoch, &source, &amount); err != nil {
			return nil, err
		}
		d.Source = drip.BytesToAddress(source)
		d.Amount = new(big.Int).SetBytes(amount)
		deposits = append(deposits, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deposits, nil
}

// FilterClaims returns claim records matching the filter.
func (db *RecordDB) FilterClaims(ctx context.Context, filter *ClaimFilter) ([]*Claim, error) {
	stmt := "SELECT seq, ts, account, recipient, settledUpTo, amount FROM claim WHERE 1"
	var args []any
	var order Order
	var options *Options
	if filter != nil {
		if filter.Account != nil {
			args = append(args, filter.Account.Bytes())
			stmt += " AND account = ? "
		}
		if filter.Recipient != nil {
			args = append(args, filter.Recipient.Bytes())
			stmt += " AND recipient = ? "
		}
		order = filter.Order
		options = filter.Options
	}
	stmt += orderClause(order)
	stmt, args = limitClause(stmt, args, options)

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*Claim
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			c         Claim
			account   []byte
			recipient []byte
			amount    []byte
		)
		if err := rows.Scan(&c.Seq, &c.Timestamp, &account, &recipient, &c.SettledUpTo, &amount); err != nil {
			return nil, err
		}
		c.Account = drip.BytesToAddress(account)
		c.Recipient = drip.BytesToAddress(recipient)
		c.Amount = new(big.Int).SetBytes(amount)
		claims = append(claims, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claims, nil
}

// FilterConfigs returns configuration change records matching the filter.
func (db *RecordDB) FilterConfigs(ctx context.Context, filter *ConfigFilter) ([]*Config, error) {
	stmt := "SELECT seq, ts, account, kind, target, approved FROM config WHERE 1"
	var args []any
	var order Order
	var options *Options
	if filter != nil {
		if filter.Account != nil {
			args = append(args, filter.Account.Bytes())
			stmt += " AND account = ? "
		}
		if filter.Kind != "" {
			args = append(args, filter.Kind)
			stmt += " AND kind = ? "
		}
		order = filter.Order
		options = filter.Options
	}
	stmt += orderClause(order)
	stmt, args = limitClause(stmt, args, options)

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*Config
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			c       Config
			account []byte
			target  []byte
		)
		if err := rows.Scan(&c.Seq, &c.Timestamp, &account, &c.Kind, &target, &c.Approved); err != nil {
			return nil, err
		}
		c.Account = drip.BytesToAddress(account)
		c.Target = drip.BytesToAddress(target)
		configs = append(configs, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return configs, nil
}

func orderClause(order Order) string {
	if order == DESC {
		return " ORDER BY seq DESC "
	}
	return " ORDER BY seq ASC "
}

func limitClause(stmt string, args []any, options *Options) (string, []any) {
	if options == nil {
		return stmt, args
	}
	return stmt + " limit ?, ? ", append(args, options.Offset, options.Limit)
}
