// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegators

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/pos"
)

type Delegators struct {
	reader pos.Reader
}

func New(reader pos.Reader) *Delegators {
	return &Delegators{reader}
}

func (d *Delegators) handleGetBond(w http.ResponseWriter, req *http.Request) error {
	delegator, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	validator, err := utils.AddressVar(req, "validator")
	if err != nil {
		return err
	}
	current := d.reader.CurrentEpoch()
	epoch, err := utils.EpochQuery(req, current)
	if err != nil {
		return err
	}

	unbonds := d.reader.Unbonds(delegator, validator)
	bond := &Bond{
		Epoch:     epoch,
		Delegator: delegator,
		Validator: validator,
		Amount:    d.reader.BondAmount(delegator, validator, epoch),
		Unbonds:   make([]*Unbond, 0, len(unbonds)),
	}
	for _, u := range unbonds {
		bond.Unbonds = append(bond.Unbonds, &Unbond{
			Amount:       u.Amount,
			UnbondEpoch:  u.Key.UnbondEpoch,
			Withdrawable: u.Key.Withdrawable,
			Matured:      u.Key.Withdrawable <= current,
		})
	}
	return utils.WriteJSON(w, bond)
}

func (d *Delegators) handleGetRewards(w http.ResponseWriter, req *http.Request) error {
	owner, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Rewards{
		Owner:  owner,
		Amount: d.reader.Rewards(owner),
	})
}

func (d *Delegators) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}/bonds/{validator}").
		Methods(http.MethodGet).
		Name("GET /delegators/{address}/bonds/{validator}").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetBond))
	sub.Path("/{address}/rewards").
		Methods(http.MethodGet).
		Name("GET /delegators/{address}/rewards").
		HandlerFunc(utils.WrapHandlerFunc(d.handleGetRewards))
}
