// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb keeps the history of epoch advances: applied slashes, paid rewards and
// consensus power updates, in a sqlite database.
package logdb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.WithContext("pkg", "logdb")

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	return open(path, db)
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection would open its own in-memory database
	db.SetMaxOpenConns(1)
	return open(":memory:", db)
}

func open(path string, db *sql.DB) (logDB *LogDB, err error) {
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(epochTableSchema + slashTableSchema + rewardTableSchema + updateTableSchema); err != nil {
		return nil, errors.Wrap(err, "create tables")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("opened log db", "path", path, "sqlite", driverVer)
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
	}, nil
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// NewestEpoch returns the latest epoch written. ok is false on an empty db.
func (db *LogDB) NewestEpoch() (epoch thor.Epoch, ok bool, err error) {
	var newest sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(epoch) FROM epoch").Scan(&newest); err != nil {
		return 0, false, err
	}
	if !newest.Valid {
		return 0, false, nil
	}
	return thor.Epoch(newest.Int64), true, nil
}

// Distributed returns the total reward paid by the advance into epoch.
func (db *LogDB) Distributed(epoch thor.Epoch) (uint64, bool, error) {
	var amount []byte
	err := db.db.QueryRow("SELECT distributed FROM epoch WHERE epoch = ?", uint64(epoch)).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return bytesToUint64(amount), true, nil
}

func (db *LogDB) FilterSlashes(ctx context.Context, filter *Filter) ([]*Slash, error) {
	const table = "slash"
	stmt, args := buildQuery(table, "epoch, seq, validator, infraction, type, rate", filter)
	rows, err := db.query(ctx, table, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slashes []*Slash
	for rows.Next() {
		var (
			s         Slash
			seq       sequence
			validator []byte
			rate      string
		)
		if err := rows.Scan(&s.Epoch, &seq, &validator, &s.InfractionEpoch, &s.Type, &rate); err != nil {
			return nil, err
		}
		if s.Rate, err = stakes.ParseDec(rate); err != nil {
			return nil, errors.Wrapf(err, "slash %d rate", seq)
		}
		s.Index = seq.Index()
		s.Validator = thor.BytesToAddress(validator)
		slashes = append(slashes, &s)
	}
	return slashes, rows.Err()
}

func (db *LogDB) FilterRewards(ctx context.Context, filter *Filter) ([]*Reward, error) {
	const table = "reward"
	stmt, args := buildQuery(table, "epoch, seq, validator, recipient, amount, commission", filter)
	rows, err := db.query(ctx, table, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rewards []*Reward
	for rows.Next() {
		var (
			r                    Reward
			seq                  sequence
			validator, recipient []byte
			amount               []byte
		)
		if err := rows.Scan(&r.Epoch, &seq, &validator, &recipient, &amount, &r.Commission); err != nil {
			return nil, err
		}
		r.Index = seq.Index()
		r.Validator = thor.BytesToAddress(validator)
		r.Recipient = thor.BytesToAddress(recipient)
		r.Amount = bytesToUint64(amount)
		rewards = append(rewards, &r)
	}
	return rewards, rows.Err()
}

func (db *LogDB) FilterPowerUpdates(ctx context.Context, filter *Filter) ([]*PowerUpdate, error) {
	const table = "power_update"
	stmt, args := buildQuery(table, "epoch, seq, validator, power", filter)
	rows, err := db.query(ctx, table, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []*PowerUpdate
	for rows.Next() {
		var (
			u         PowerUpdate
			seq       sequence
			validator []byte
			power     []byte
		)
		if err := rows.Scan(&u.Epoch, &seq, &validator, &power); err != nil {
			return nil, err
		}
		u.Index = seq.Index()
		u.Validator = thor.BytesToAddress(validator)
		u.Power = bytesToUint64(power)
		updates = append(updates, &u)
	}
	return updates, rows.Err()
}

func (db *LogDB) query(ctx context.Context, table, stmt string, args ...any) (*sql.Rows, error) {
	prepared, err := db.stmtCache.Prepare(table, stmt)
	if err != nil {
		return nil, err
	}
	return prepared.QueryContext(ctx, args...)
}

// buildQuery renders filter as a select over table. The query text only depends on which filter
// fields are set, so prepared statements are shared between calls.
func buildQuery(table, columns string, filter *Filter) (string, []any) {
	if filter == nil {
		filter = &Filter{}
	}
	metricsHandleFilter(table, filter)

	var args []any
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE 1", columns, table)
	if filter.Range != nil {
		args = append(args, uint64(filter.Range.From))
		stmt += " AND epoch >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, uint64(filter.Range.To))
			stmt += " AND epoch <= ?"
		}
	}
	if filter.Validator != nil {
		args = append(args, filter.Validator.Bytes())
		stmt += " AND validator = ?"
	}
	if filter.Recipient != nil && table == "reward" {
		args = append(args, filter.Recipient.Bytes())
		stmt += " AND recipient = ?"
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return stmt, args
}

func uint64Bytes(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}

func bytesToUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
