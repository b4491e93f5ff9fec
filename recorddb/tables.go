// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package recorddb

const depositTableSchema = `CREATE TABLE IF NOT EXISTS deposit (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	epoch INTEGER NOT NULL,
	source BLOB(20) NOT NULL,
	amount BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS deposit_i0 ON deposit(epoch);
CREATE INDEX IF NOT EXISTS deposit_i1 ON deposit(source);`

const claimTableSchema = `CREATE TABLE IF NOT EXISTS claim (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	account BLOB(20) NOT NULL,
	recipient BLOB(20) NOT NULL,
	settledUpTo INTEGER NOT NULL,
	amount BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS claim_i0 ON claim(account);
CREATE INDEX IF NOT EXISTS claim_i1 ON claim(recipient);`

const configTableSchema = `CREATE TABLE IF NOT EXISTS config (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	account BLOB(20) NOT NULL,
	kind TEXT NOT NULL,
	target BLOB(20) NOT NULL,
	approved INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS config_i0 ON config(account);`
