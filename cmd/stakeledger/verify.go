// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/stakedb"
)

var errHistoryMismatch = errors.New("incorrect history")

// verifyHistory replays s on a fresh ledger and checks every epoch recorded in logDB matches the
// replay. When store holds the ledger at the newest recorded epoch, the state roots are compared too.
func verifyHistory(ctx context.Context, w io.Writer, s *Scenario, logDB *logdb.LogDB, store *stakedb.Store) error {
	newest, ok, err := logDB.NewestEpoch()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w, "history is empty, nothing to verify")
		return nil
	}
	if uint64(newest) > s.Epochs {
		return errors.Errorf("history reaches epoch %d, scenario ends at %d", newest, s.Epochs)
	}

	fmt.Fprintln(w, ">> Verifying history <<")
	bar := pb.New64(int64(newest)).
		Set64(0).
		SetMaxWidth(90)
	bar.Output = w
	bar.Start()
	defer func() { bar.NotPrint = true }()

	ledger, err := pos.New(s.LedgerParams())
	if err != nil {
		return err
	}
	r := newRunner(s, ledger)
	if err := s.Genesis(ledger); err != nil {
		return err
	}

	for ledger.CurrentEpoch() < newest {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		report, err := r.step(ctx)
		if err != nil {
			return err
		}
		if err := verifyEpoch(ctx, w, logDB, report); err != nil {
			return err
		}
		bar.Add64(1)
	}
	bar.Finish()

	if store == nil {
		return nil
	}
	saved, err := store.Restore()
	if err != nil {
		if errors.Is(err, stakedb.ErrNotFound) {
			return nil
		}
		return err
	}
	if saved.CurrentEpoch() != newest {
		logger.Warn("saved ledger is not at the newest history epoch, skip root check",
			"ledger", saved.CurrentEpoch(), "history", newest)
		return nil
	}
	expected, err := ledger.Root()
	if err != nil {
		return err
	}
	actual, err := saved.Root()
	if err != nil {
		return err
	}
	if expected != actual {
		return errors.Errorf("state root mismatch at epoch %d: expected %v, actual %v", newest, expected, actual)
	}
	return nil
}

func verifyEpoch(ctx context.Context, w io.Writer, logDB *logdb.LogDB, report *pos.EpochReport) error {
	filter := &logdb.Filter{Range: &logdb.Range{From: report.Epoch, To: report.Epoch}}

	slashes, err := logDB.FilterSlashes(ctx, filter)
	if err != nil {
		return err
	}
	rewards, err := logDB.FilterRewards(ctx, filter)
	if err != nil {
		return err
	}
	updates, err := logDB.FilterPowerUpdates(ctx, filter)
	if err != nil {
		return err
	}
	distributed, ok, err := logDB.Distributed(report.Epoch)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errHistoryMismatch, "epoch %d not recorded", report.Epoch)
	}

	expSlashes, expRewards, expUpdates := logdb.Rows(report)
	for _, c := range []struct {
		name             string
		expected, actual any
	}{
		{"slashes", expSlashes, slashes},
		{"rewards", expRewards, rewards},
		{"power updates", expUpdates, updates},
		{"distributed", report.Distributed, distributed},
	} {
		if !reflect.DeepEqual(c.expected, c.actual) {
			fmt.Fprintf(w, "\nDiff %s at epoch %d\n", c.name, report.Epoch)
			fmt.Fprintln(w, jsonDiff(c.expected, c.actual))
			return errors.Wrapf(errHistoryMismatch, "%s at epoch %d", c.name, report.Epoch)
		}
	}
	return nil
}

func jsonDiff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "Expected",
		FromDate: "",
		ToFile:   "Actual",
		ToDate:   "",
		Context:  1,
	})
	return diff
}
