// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/thor"
)

// Writer writes epoch reports in a transaction that is opened lazily and kept open until
// Commit or Rollback.
type Writer struct {
	db          *sql.DB
	tx          *sql.Tx
	uncommitted int
}

// NewWriter creates a writer.
func (db *LogDB) NewWriter() *Writer {
	return &Writer{db: db.db}
}

// Rows converts report into the rows stored for it. Rewards list each payout's commission first,
// then its delegator shares. Zero amounts are skipped.
func Rows(report *pos.EpochReport) (slashes []*Slash, rewards []*Reward, updates []*PowerUpdate) {
	epoch := report.Epoch
	for i, s := range report.Slashes {
		slashes = append(slashes, &Slash{
			Epoch:           epoch,
			Index:           uint32(i),
			Validator:       s.Validator,
			InfractionEpoch: s.InfractionEpoch,
			Type:            s.Type,
			Rate:            s.Rate,
		})
	}
	for _, p := range report.Payouts {
		if p.Commission > 0 {
			rewards = append(rewards, &Reward{
				Epoch:      epoch,
				Index:      uint32(len(rewards)),
				Validator:  p.Validator,
				Recipient:  p.Validator,
				Amount:     p.Commission,
				Commission: true,
			})
		}
		for _, d := range p.Delegators {
			if d.Amount == 0 {
				continue
			}
			rewards = append(rewards, &Reward{
				Epoch:     epoch,
				Index:     uint32(len(rewards)),
				Validator: p.Validator,
				Recipient: d.Delegator,
				Amount:    d.Amount,
			})
		}
	}
	for i, u := range report.Update {
		updates = append(updates, &PowerUpdate{
			Epoch:     epoch,
			Index:     uint32(i),
			Validator: u.Address,
			Power:     u.Power,
		})
	}
	return
}

// Write appends the rows of report. Reports must be written in epoch order.
func (w *Writer) Write(report *pos.EpochReport) error {
	slashes, rewards, updates := Rows(report)

	return w.exec(func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO epoch(epoch, distributed) VALUES(?,?)",
			uint64(report.Epoch), uint64Bytes(report.Distributed)); err != nil {
			return errors.Wrapf(err, "insert epoch %d", report.Epoch)
		}
		w.uncommitted++

		for _, s := range slashes {
			seq, err := newSequence(s.Epoch, s.Index)
			if err != nil {
				return err
			}
			if _, err := tx.Exec("INSERT INTO slash(seq, epoch, validator, infraction, type, rate) VALUES(?,?,?,?,?,?)",
				seq, uint64(s.Epoch), s.Validator.Bytes(), uint64(s.InfractionEpoch), s.Type, s.Rate.String()); err != nil {
				return errors.Wrap(err, "insert slash")
			}
		}
		for _, r := range rewards {
			seq, err := newSequence(r.Epoch, r.Index)
			if err != nil {
				return err
			}
			if _, err := tx.Exec("INSERT INTO reward(seq, epoch, validator, recipient, amount, commission) VALUES(?,?,?,?,?,?)",
				seq, uint64(r.Epoch), r.Validator.Bytes(), r.Recipient.Bytes(), uint64Bytes(r.Amount), r.Commission); err != nil {
				return errors.Wrap(err, "insert reward")
			}
		}
		for _, u := range updates {
			seq, err := newSequence(u.Epoch, u.Index)
			if err != nil {
				return err
			}
			if _, err := tx.Exec("INSERT INTO power_update(seq, epoch, validator, power) VALUES(?,?,?,?)",
				seq, uint64(u.Epoch), u.Validator.Bytes(), uint64Bytes(u.Power)); err != nil {
				return errors.Wrap(err, "insert power update")
			}
		}
		w.uncommitted += len(slashes) + len(rewards) + len(updates)

		metricRowsWritten().AddWithLabel(int64(len(slashes)), map[string]string{"type": "slash"})
		metricRowsWritten().AddWithLabel(int64(len(rewards)), map[string]string{"type": "reward"})
		metricRowsWritten().AddWithLabel(int64(len(updates)), map[string]string{"type": "power_update"})
		return nil
	})
}

// Truncate deletes every row written for epoch and after.
func (w *Writer) Truncate(epoch thor.Epoch) error {
	seq, err := newSequence(epoch, 0)
	if err != nil {
		return err
	}
	return w.exec(func(tx *sql.Tx) error {
		for _, table := range []string{"slash", "reward", "power_update"} {
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE seq >= ?", seq); err != nil {
				return errors.Wrapf(err, "truncate %s", table)
			}
		}
		_, err := tx.Exec("DELETE FROM epoch WHERE epoch >= ?", uint64(epoch))
		return err
	})
}

// Commit commits the pending rows.
func (w *Writer) Commit() (err error) {
	if w.tx == nil {
		return nil
	}
	defer func() {
		if err == nil {
			w.tx = nil
			w.uncommitted = 0
		}
	}()
	return w.tx.Commit()
}

// Rollback discards the pending rows.
func (w *Writer) Rollback() (err error) {
	if w.tx == nil {
		return nil
	}
	defer func() {
		if err == nil {
			w.tx = nil
			w.uncommitted = 0
		}
	}()
	return w.tx.Rollback()
}

// UncommittedCount returns the number of rows written since the last commit.
func (w *Writer) UncommittedCount() int {
	return w.uncommitted
}

func (w *Writer) exec(fn func(tx *sql.Tx) error) (err error) {
	if w.tx == nil {
		if w.tx, err = w.db.Begin(); err != nil {
			return
		}
	}
	if err = fn(w.tx); err != nil {
		if rbErr := w.tx.Rollback(); rbErr != nil {
			logger.Warn("failed to rollback", "err", rbErr)
		}
		w.tx = nil
		w.uncommitted = 0
	}
	return
}
