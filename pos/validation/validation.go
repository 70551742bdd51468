// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

// Status is the lifecycle state of a validator. Rank states (consensus, below capacity,
// below threshold) are derived per epoch from stake and are not stored here.
type Status uint8

const (
	StatusUnknown     Status = iota // 0 -> default value
	StatusInactive                  // registered or unjailed, not yet a candidate
	StatusCandidate                 // eligible for ranking
	StatusJailed                    // removed after a slash until unjailed
	StatusDeactivated               // removed on request until reactivated
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusCandidate:
		return "candidate"
	case StatusJailed:
		return "jailed"
	case StatusDeactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

// Metadata is free form information published by a validator.
type Metadata struct {
	Email         string `json:"email,omitempty" yaml:"email,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	Website       string `json:"website,omitempty" yaml:"website,omitempty"`
	DiscordHandle string `json:"discordHandle,omitempty" yaml:"discord_handle,omitempty"`
	Avatar        string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// merge overwrites the fields set in update.
func (m Metadata) merge(update Metadata) Metadata {
	if update.Email != "" {
		m.Email = update.Email
	}
	if update.Description != "" {
		m.Description = update.Description
	}
	if update.Website != "" {
		m.Website = update.Website
	}
	if update.DiscordHandle != "" {
		m.DiscordHandle = update.DiscordHandle
	}
	if update.Avatar != "" {
		m.Avatar = update.Avatar
	}
	return m
}

// Validator holds the fields of a validator that are not epoched.
type Validator struct {
	Address             thor.Address
	MaxCommissionChange stakes.Dec
	Metadata            Metadata
	Registered          thor.Epoch
	Jailed              bool
	JailedAt            thor.Epoch // epoch of the latest jailing, meaningful while Jailed
}

// CanUnjail reports whether the jail period has elapsed at epoch e.
func (v *Validator) CanUnjail(e thor.Epoch, jailPeriod uint64) bool {
	return v.Jailed && e >= v.JailedAt.Add(jailPeriod)
}

// Registration carries the arguments of a become-validator action.
type Registration struct {
	Address             thor.Address
	ConsensusKey        thor.Bytes32
	CommissionRate      stakes.Dec
	MaxCommissionChange stakes.Dec
	Metadata            Metadata
}
