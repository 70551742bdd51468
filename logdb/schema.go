// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// one row per epoch advance
const epochTableSchema = `CREATE TABLE IF NOT EXISTS epoch (
	epoch INTEGER PRIMARY KEY,
	distributed BLOB(8) NOT NULL
);`

const slashTableSchema = `CREATE TABLE IF NOT EXISTS slash (
	seq INTEGER PRIMARY KEY NOT NULL,
	epoch INTEGER NOT NULL,
	validator BLOB(20) NOT NULL,
	infraction INTEGER NOT NULL,
	type INTEGER NOT NULL,
	rate TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS slash_i_validator ON slash(validator);`

const rewardTableSchema = `CREATE TABLE IF NOT EXISTS reward (
	seq INTEGER PRIMARY KEY NOT NULL,
	epoch INTEGER NOT NULL,
	validator BLOB(20) NOT NULL,
	recipient BLOB(20) NOT NULL,
	amount BLOB(8) NOT NULL,
	commission INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS reward_i_validator ON reward(validator);
CREATE INDEX IF NOT EXISTS reward_i_recipient ON reward(recipient);`

const updateTableSchema = `CREATE TABLE IF NOT EXISTS power_update (
	seq INTEGER PRIMARY KEY NOT NULL,
	epoch INTEGER NOT NULL,
	validator BLOB(20) NOT NULL,
	power BLOB(8) NOT NULL
);

CREATE INDEX IF NOT EXISTS power_update_i_validator ON power_update(validator);`
