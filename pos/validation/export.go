// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/pos/epoched"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

// Record is the canonical, encodable form of a validator and its retained history.
type Record struct {
	Validator    Validator
	Status       []epoched.Point[Status]
	Commission   []epoched.Point[stakes.Dec]
	ConsensusKey []epoched.Point[thor.Bytes32]
}

// Export returns every validator in ascending address order.
func (r *Registry) Export() []Record {
	addrs := r.Addresses()
	recs := make([]Record, 0, len(addrs))
	for _, addr := range addrs {
		recs = append(recs, Record{
			Validator:    *r.validators[addr],
			Status:       r.status.Points(addr),
			Commission:   r.commission.Points(addr),
			ConsensusKey: r.consensusKey.Points(addr),
		})
	}
	return recs
}

// Import loads records produced by Export into an empty registry.
func (r *Registry) Import(recs []Record) error {
	for _, rec := range recs {
		addr := rec.Validator.Address
		if r.Exists(addr) {
			return errors.Errorf("duplicate validator record %s", addr)
		}
		if err := r.status.Load(addr, rec.Status); err != nil {
			return err
		}
		if err := r.commission.Load(addr, rec.Commission); err != nil {
			return err
		}
		if err := r.consensusKey.Load(addr, rec.ConsensusKey); err != nil {
			return err
		}
		v := rec.Validator
		r.validators[addr] = &v
	}
	return nil
}
