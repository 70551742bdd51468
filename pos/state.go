// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos/bonds"
	"github.com/vechain/stakeledger/pos/params"
	"github.com/vechain/stakeledger/pos/rewards"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/validation"
	"github.com/vechain/stakeledger/thor"
)

// State is the canonical content of a ledger. Stake totals and validator sets are derived from it
// and rebuilt on Restore.
type State struct {
	Epoch      thor.Epoch
	Validators []validation.Record
	Bonds      []bonds.Entry
	Unbonds    []bonds.Unbond
	SlashSeq   uint64
	Slashes    []slashing.Slash
	Rewards    []rewards.Balance
}

func (c *core) export() *State {
	entries, unbonds := c.bonds.Export()
	seq, slashes := c.slashing.Export()
	return &State{
		Epoch:      c.tl.Current(),
		Validators: c.registry.Export(),
		Bonds:      entries,
		Unbonds:    unbonds,
		SlashSeq:   seq,
		Slashes:    slashes,
		Rewards:    c.pool.Export(),
	}
}

// Root hashes the rlp encoding of s.
func (s *State) Root() (thor.Bytes32, error) {
	data, err := rlp.EncodeToBytes(s)
	if err != nil {
		return thor.Bytes32{}, errors.Wrap(err, "encode state")
	}
	return thor.Blake2b(data), nil
}

// Export returns the ledger state.
func (l *Ledger) Export() (st *State) {
	l.read(func(c *core) { st = c.export() })
	return
}

// Root returns the hash of the ledger state. Replicas that applied the same operations have equal roots.
func (l *Ledger) Root() (thor.Bytes32, error) {
	return l.Export().Root()
}

// Restore rebuilds a ledger from an exported state.
func Restore(p *params.Params, st *State) (*Ledger, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := newCore(p.Copy(), st.Epoch)
	if err := c.registry.Import(st.Validators); err != nil {
		return nil, errors.Wrap(err, "import validators")
	}
	if err := c.bonds.Import(st.Bonds, st.Unbonds); err != nil {
		return nil, errors.Wrap(err, "import bonds")
	}
	if err := c.slashing.Import(st.SlashSeq, st.Slashes); err != nil {
		return nil, errors.Wrap(err, "import slashes")
	}
	if err := c.pool.Import(st.Rewards); err != nil {
		return nil, errors.Wrap(err, "import rewards")
	}
	if err := c.sets.Reseal(c.tl.Horizon(), st.Epoch); err != nil {
		return nil, errors.Wrap(err, "seal validator sets")
	}
	c.sets.Warm(st.Epoch+1, c.tl.PipelineEpoch())
	if err := c.checkInvariants(); err != nil {
		return nil, err
	}

	logger.Info("restored ledger", "epoch", st.Epoch, "validators", len(st.Validators), "bonds", len(st.Bonds))
	return &Ledger{c: c}, nil
}
