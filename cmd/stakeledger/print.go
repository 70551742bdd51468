// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"

	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/valset"
	"github.com/vechain/stakeledger/thor"
)

// printSets writes the consensus and below capacity sets of epoch e as tables.
func printSets(w io.Writer, reader pos.Reader, e thor.Epoch) {
	consensus := reader.ConsensusValidators(e)
	fmt.Fprintf(w, "Epoch %d: %d consensus validators, total stake %d\n",
		e, len(consensus), reader.TotalConsensusStake(e))
	printMembers(w, reader, e, consensus, true)

	if below := reader.BelowCapacityValidators(e); len(below) > 0 {
		fmt.Fprintf(w, "Below capacity: %d\n", len(below))
		printMembers(w, reader, e, below, false)
	}
}

func printMembers(w io.Writer, reader pos.Reader, e thor.Epoch, members []valset.Member, power bool) {
	table := tablewriter.NewWriter(w)
	header := []string{"#", "Validator", "Stake", "Commission", "State"}
	if power {
		header = append(header, "Voting Power")
	}
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for i, m := range members {
		row := []string{strconv.Itoa(i + 1), m.Address.String(), strconv.FormatUint(m.Stake, 10), "", ""}
		if info, ok := reader.Validator(m.Address, e); ok {
			row[3] = info.Commission.String()
			row[4] = info.State.String()
		}
		if power {
			row = append(row, strconv.FormatUint(reader.VotingPowerAt(m.Address, e), 10))
		}
		table.Append(row)
	}
	table.Render()
}

// printReport writes a one table summary of an epoch advance.
func printReport(w io.Writer, report *pos.EpochReport) {
	fmt.Fprintf(w, "Epoch %d: distributed %d, %d slashes\n", report.Epoch, report.Distributed, len(report.Slashes))
	if len(report.Update) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Validator", "Power"})
	table.SetAutoFormatHeaders(false)
	for _, u := range report.Update {
		table.Append([]string{u.Address.String(), strconv.FormatUint(u.Power, 10)})
	}
	table.Render()
}

// dumpValidators writes every validator record as seen at epoch e.
func dumpValidators(w io.Writer, reader pos.Reader, e thor.Epoch) {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		DisableMethods:          true,
		SortKeys:                true,
	}
	for _, addr := range reader.Validators() {
		info, ok := reader.Validator(addr, e)
		if !ok {
			continue
		}
		cfg.Fdump(w, info, reader.Slashes(addr))
	}
}
