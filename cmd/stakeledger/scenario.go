// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/params"
	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/pos/validation"
	"github.com/vechain/stakeledger/thor"
)

// Scenario is a replayable history of ledger operations.
//
//	params:                 # overrides of the default params
//	  pipeline_len: 2
//	epochs: 10              # advance until this epoch
//	supply: 1000000         # token supply, inflation follows the controller when set
//	inflation: 100          # fixed inflation per epoch when supply is not set
//	validators:
//	  - address: 0x...
//	    commission: "0.05"
//	    max_commission_change: "0.01"
//	    self_bond: 1000
//	bonds:
//	  - {delegator: 0x..., validator: 0x..., amount: 100}
//	actions:
//	  - {epoch: 3, type: unbond, delegator: 0x..., validator: 0x..., amount: 50}
//	  - {epoch: 4, type: evidence, validator: 0x..., infraction: 3, infraction_type: duplicate-vote}
//	  - {epoch: 4, type: withdraw, delegator: 0x..., validator: 0x..., expect: insufficient bond}
type Scenario struct {
	Params     yaml.Node       `yaml:"params"`
	Epochs     uint64          `yaml:"epochs"`
	Supply     uint64          `yaml:"supply"`
	Inflation  uint64          `yaml:"inflation"`
	Validators []ValidatorSpec `yaml:"validators"`
	Bonds      []BondSpec      `yaml:"bonds"`
	Actions    []Action        `yaml:"actions"`

	params *params.Params
}

// ValidatorSpec registers a validator at epoch 0, with an optional self bond.
type ValidatorSpec struct {
	Address             thor.Address        `yaml:"address"`
	ConsensusKey        *thor.Bytes32       `yaml:"consensus_key,omitempty"`
	Commission          stakes.Dec          `yaml:"commission"`
	MaxCommissionChange stakes.Dec          `yaml:"max_commission_change"`
	SelfBond            uint64              `yaml:"self_bond"`
	Metadata            validation.Metadata `yaml:"metadata"`
}

// BondSpec is a bond made at epoch 0.
type BondSpec struct {
	Delegator thor.Address `yaml:"delegator"`
	Validator thor.Address `yaml:"validator"`
	Amount    uint64       `yaml:"amount"`
}

// Action is one ledger operation submitted while the ledger is at Epoch. When Expect is set the
// operation must be rejected with a revert whose message starts with it.
type Action struct {
	Epoch          thor.Epoch           `yaml:"epoch"`
	Type           string               `yaml:"type"`
	Delegator      *thor.Address        `yaml:"delegator,omitempty"`
	Validator      *thor.Address        `yaml:"validator,omitempty"`
	Dst            *thor.Address        `yaml:"dst,omitempty"`
	Amount         uint64               `yaml:"amount,omitempty"`
	Rate           *stakes.Dec          `yaml:"rate,omitempty"`
	MaxChange      *stakes.Dec          `yaml:"max_change,omitempty"`
	ConsensusKey   *thor.Bytes32        `yaml:"consensus_key,omitempty"`
	Metadata       *validation.Metadata `yaml:"metadata,omitempty"`
	Infraction     *thor.Epoch          `yaml:"infraction,omitempty"`
	InfractionType string               `yaml:"infraction_type,omitempty"`
	Expect         string               `yaml:"expect,omitempty"`
}

type actionHandler struct {
	requires []string
	apply    func(l *pos.Ledger, a *Action) error
}

var actionHandlers = map[string]actionHandler{
	"become-validator": {
		requires: []string{"validator", "rate", "max_change"},
		apply: func(l *pos.Ledger, a *Action) error {
			reg := validation.Registration{
				Address:             *a.Validator,
				ConsensusKey:        defaultConsensusKey(*a.Validator, a.ConsensusKey),
				CommissionRate:      *a.Rate,
				MaxCommissionChange: *a.MaxChange,
			}
			if a.Metadata != nil {
				reg.Metadata = *a.Metadata
			}
			return l.BecomeValidator(reg)
		},
	},
	"bond": {
		requires: []string{"delegator", "validator"},
		apply: func(l *pos.Ledger, a *Action) error {
			return l.Bond(*a.Delegator, *a.Validator, a.Amount)
		},
	},
	"unbond": {
		requires: []string{"delegator", "validator"},
		apply: func(l *pos.Ledger, a *Action) error {
			return l.Unbond(*a.Delegator, *a.Validator, a.Amount)
		},
	},
	"withdraw": {
		requires: []string{"delegator", "validator"},
		apply: func(l *pos.Ledger, a *Action) error {
			_, err := l.Withdraw(*a.Delegator, *a.Validator)
			return err
		},
	},
	"redelegate": {
		requires: []string{"delegator", "validator", "dst"},
		apply: func(l *pos.Ledger, a *Action) error {
			return l.Redelegate(*a.Delegator, *a.Validator, *a.Dst, a.Amount)
		},
	},
	"claim": {
		requires: []string{"delegator"},
		apply: func(l *pos.Ledger, a *Action) error {
			_, err := l.ClaimRewards(*a.Delegator)
			return err
		},
	},
	"evidence": {
		requires: []string{"validator", "infraction", "infraction_type"},
		apply: func(l *pos.Ledger, a *Action) error {
			typ, err := slashing.ParseInfractionType(a.InfractionType)
			if err != nil {
				return err
			}
			return l.SubmitEvidence(*a.Validator, *a.Infraction, typ)
		},
	},
	"change-commission": {
		requires: []string{"validator", "rate"},
		apply: func(l *pos.Ledger, a *Action) error {
			return l.ChangeCommission(*a.Validator, *a.Rate)
		},
	},
	"change-consensus-key": {
		requires: []string{"validator", "consensus_key"},
		apply: func(l *pos.Ledger, a *Action) error {
			return l.ChangeConsensusKey(*a.Validator, *a.ConsensusKey)
		},
	},
	"change-metadata": {
		requires: []string{"validator", "metadata"},
		apply: func(l *pos.Ledger, a *Action) error {
			return l.ChangeMetadata(*a.Validator, *a.Metadata)
		},
	},
	"deactivate": {
		requires: []string{"validator"},
		apply: func(l *pos.Ledger, a *Action) error {
			return l.Deactivate(*a.Validator)
		},
	},
	"reactivate": {
		requires: []string{"validator"},
		apply: func(l *pos.Ledger, a *Action) error {
			return l.Reactivate(*a.Validator)
		},
	},
	"unjail": {
		requires: []string{"validator"},
		apply: func(l *pos.Ledger, a *Action) error {
			return l.Unjail(*a.Validator)
		},
	},
}

func (a *Action) has(field string) bool {
	switch field {
	case "delegator":
		return a.Delegator != nil
	case "validator":
		return a.Validator != nil
	case "dst":
		return a.Dst != nil
	case "rate":
		return a.Rate != nil
	case "max_change":
		return a.MaxChange != nil
	case "consensus_key":
		return a.ConsensusKey != nil
	case "metadata":
		return a.Metadata != nil
	case "infraction":
		return a.Infraction != nil
	case "infraction_type":
		return a.InfractionType != ""
	}
	return false
}

func (a *Action) check() error {
	h, ok := actionHandlers[a.Type]
	if !ok {
		return errors.Errorf("unknown action type %q", a.Type)
	}
	for _, f := range h.requires {
		if !a.has(f) {
			return errors.Errorf("%s action requires %s", a.Type, f)
		}
	}
	if a.InfractionType != "" {
		if _, err := slashing.ParseInfractionType(a.InfractionType); err != nil {
			return err
		}
	}
	return nil
}

// Apply submits the action to l. A rejection that matches Expect is not an error.
func (a *Action) Apply(l *pos.Ledger) error {
	err := actionHandlers[a.Type].apply(l, a)
	if a.Expect == "" {
		return err
	}
	if err == nil {
		return errors.Errorf("%s at epoch %d: expected revert %q", a.Type, a.Epoch, a.Expect)
	}
	if !reverts.IsRevertErr(err) || !strings.HasPrefix(err.Error(), a.Expect) {
		return errors.Errorf("%s at epoch %d: expected revert %q, got %q", a.Type, a.Epoch, a.Expect, err)
	}
	return nil
}

func defaultConsensusKey(addr thor.Address, key *thor.Bytes32) thor.Bytes32 {
	if key != nil {
		return *key
	}
	return thor.Blake2b([]byte("consensus-key"), addr.Bytes())
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	return ParseScenario(data)
}

// ParseScenario decodes and checks a yaml scenario. Actions are stably sorted by epoch.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}

	if s.Params.IsZero() {
		s.params = params.Default()
	} else {
		raw, err := yaml.Marshal(&s.Params)
		if err != nil {
			return nil, errors.Wrap(err, "encode params")
		}
		if s.params, err = params.Parse(raw); err != nil {
			return nil, err
		}
	}

	if s.Epochs == 0 {
		return nil, errors.New("scenario advances no epoch")
	}
	if s.Supply == 0 && s.Inflation == 0 {
		logger.Warn("scenario has neither supply nor inflation, no rewards will be paid")
	}
	for i := range s.Actions {
		a := &s.Actions[i]
		if err := a.check(); err != nil {
			return nil, errors.WithMessagef(err, "action %d", i)
		}
		if uint64(a.Epoch) >= s.Epochs {
			return nil, errors.Errorf("action %d: epoch %d is not before the last epoch %d", i, a.Epoch, s.Epochs)
		}
	}
	sort.SliceStable(s.Actions, func(i, j int) bool {
		return s.Actions[i].Epoch < s.Actions[j].Epoch
	})
	return &s, nil
}

// LedgerParams returns the params the scenario runs with.
func (s *Scenario) LedgerParams() *params.Params {
	return s.params.Copy()
}

// ActionsAt returns the actions submitted at epoch e.
func (s *Scenario) ActionsAt(e thor.Epoch) []Action {
	lo := sort.Search(len(s.Actions), func(i int) bool { return s.Actions[i].Epoch >= e })
	hi := sort.Search(len(s.Actions), func(i int) bool { return s.Actions[i].Epoch > e })
	return s.Actions[lo:hi]
}

// Genesis registers the scenario's validators and bonds on an empty ledger.
func (s *Scenario) Genesis(l *pos.Ledger) error {
	for _, v := range s.Validators {
		if err := l.BecomeValidator(validation.Registration{
			Address:             v.Address,
			ConsensusKey:        defaultConsensusKey(v.Address, v.ConsensusKey),
			CommissionRate:      v.Commission,
			MaxCommissionChange: v.MaxCommissionChange,
			Metadata:            v.Metadata,
		}); err != nil {
			return errors.WithMessagef(err, "register validator %v", v.Address)
		}
		if v.SelfBond > 0 {
			if err := l.Bond(v.Address, v.Address, v.SelfBond); err != nil {
				return errors.WithMessagef(err, "self bond %v", v.Address)
			}
		}
	}
	for _, b := range s.Bonds {
		if err := l.Bond(b.Delegator, b.Validator, b.Amount); err != nil {
			return errors.WithMessagef(err, "bond %v to %v", b.Delegator, b.Validator)
		}
	}
	return nil
}
