// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/pos/stakes"
)

// Params holds the policy constants of the ledger. All epoch counts are in epochs.
type Params struct {
	PipelineLen            uint64 `yaml:"pipeline_len"`
	UnbondingLen           uint64 `yaml:"unbonding_len"`
	MaxConsensusValidators uint64 `yaml:"max_consensus_validators"`
	// 0 means every ranked validator past the consensus set is below capacity.
	MaxBelowCapacityValidators uint64 `yaml:"max_below_capacity_validators"`
	ValidatorStakeThreshold    uint64 `yaml:"validator_stake_threshold"`

	EvidenceWindow uint64 `yaml:"evidence_window"`
	SlashWindow    uint64 `yaml:"slash_window"`
	JailPeriod     uint64 `yaml:"jail_period"`

	DuplicateVoteMinRate     stakes.Dec `yaml:"duplicate_vote_min_slash_rate"`
	LightClientAttackMinRate stakes.Dec `yaml:"light_client_attack_min_slash_rate"`

	MaxInflationRate  stakes.Dec `yaml:"max_inflation_rate"`
	TargetStakedRatio stakes.Dec `yaml:"target_staked_ratio"`
	PGain             stakes.Dec `yaml:"p_gain"`
	DGain             stakes.Dec `yaml:"d_gain"`
	EpochsPerYear     uint64     `yaml:"epochs_per_year"`
}

// Default returns the default parameters.
func Default() *Params {
	return &Params{
		PipelineLen:                2,
		UnbondingLen:               21,
		MaxConsensusValidators:     100,
		MaxBelowCapacityValidators: 0,
		ValidatorStakeThreshold:    1,
		EvidenceWindow:             14,
		SlashWindow:                1,
		JailPeriod:                 2,
		DuplicateVoteMinRate:       stakes.MustParseDec("0.001"),
		LightClientAttackMinRate:   stakes.MustParseDec("0.001"),
		MaxInflationRate:           stakes.MustParseDec("0.1"),
		TargetStakedRatio:          stakes.NewDecFromRatio(2, 3),
		PGain:                      stakes.MustParseDec("0.25"),
		DGain:                      stakes.MustParseDec("0.25"),
		EpochsPerYear:              365,
	}
}

// Load reads params from a yaml file. Fields missing from the file keep their default value.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read params")
	}
	return Parse(data)
}

// Parse decodes yaml encoded params on top of the defaults and validates the result.
func Parse(data []byte) (*Params, error) {
	p := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, errors.Wrap(err, "decode params")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the params are internally consistent.
func (p *Params) Validate() error {
	if p.PipelineLen < 1 {
		return errors.New("pipeline_len must be at least 1")
	}
	// an unbond must stay slashable for as long as evidence against it is accepted
	if p.UnbondingLen <= p.EvidenceWindow+p.PipelineLen {
		return errors.Errorf("unbonding_len (%d) must exceed evidence_window + pipeline_len (%d)",
			p.UnbondingLen, p.EvidenceWindow+p.PipelineLen)
	}
	if p.MaxConsensusValidators < 1 {
		return errors.New("max_consensus_validators must be at least 1")
	}
	if p.ValidatorStakeThreshold < 1 {
		return errors.New("validator_stake_threshold must be at least 1")
	}
	if p.EpochsPerYear < 1 {
		return errors.New("epochs_per_year must be at least 1")
	}
	one := stakes.One()
	for name, rate := range map[string]stakes.Dec{
		"duplicate_vote_min_slash_rate":      p.DuplicateVoteMinRate,
		"light_client_attack_min_slash_rate": p.LightClientAttackMinRate,
		"max_inflation_rate":                 p.MaxInflationRate,
		"target_staked_ratio":                p.TargetStakedRatio,
	} {
		if rate.GT(one) {
			return errors.Errorf("%s must not exceed 1, got %s", name, rate)
		}
	}
	return nil
}

// Lookback is the number of past epochs epoched data is retained for.
// It covers the evidence window plus the slash window the rate is computed over.
func (p *Params) Lookback() uint64 {
	return p.EvidenceWindow + p.SlashWindow + p.PipelineLen + 1
}

// Copy returns a copy of p.
func (p *Params) Copy() *Params {
	cpy := *p
	return &cpy
}

// Encode returns p as yaml.
func (p *Params) Encode() ([]byte, error) {
	return yaml.Marshal(p)
}
