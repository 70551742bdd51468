// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/pos"
)

type Validators struct {
	reader pos.Reader
}

func New(reader pos.Reader) *Validators {
	return &Validators{reader}
}

func (v *Validators) handleGetValidators(w http.ResponseWriter, req *http.Request) error {
	epoch, err := utils.EpochQuery(req, v.reader.CurrentEpoch())
	if err != nil {
		return err
	}
	addrs := v.reader.Validators()
	infos := make([]*pos.ValidatorInfo, 0, len(addrs))
	for _, addr := range addrs {
		if info, ok := v.reader.Validator(addr, epoch); ok {
			infos = append(infos, info)
		}
	}
	return utils.WriteJSON(w, infos)
}

func (v *Validators) handleGetValidator(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	epoch, err := utils.EpochQuery(req, v.reader.CurrentEpoch())
	if err != nil {
		return err
	}
	info, ok := v.reader.Validator(addr, epoch)
	if !ok {
		return utils.NotFound(errors.Errorf("validator %s not found", addr))
	}
	return utils.WriteJSON(w, info)
}

func (v *Validators) handleGetVotingPower(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	epoch, err := utils.EpochQuery(req, v.reader.CurrentEpoch())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &VotingPower{
		Epoch: epoch,
		State: v.reader.ValidatorState(addr, epoch),
		Power: v.reader.VotingPowerAt(addr, epoch),
	})
}

func (v *Validators) handleGetSlashes(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	slashes := v.reader.Slashes(addr)
	out := make([]*Slash, 0, len(slashes))
	for i := range slashes {
		out = append(out, convertSlash(&slashes[i]))
	}
	return utils.WriteJSON(w, out)
}

func (v *Validators) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /validators").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidators))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /validators/{address}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidator))
	sub.Path("/{address}/voting-power").
		Methods(http.MethodGet).
		Name("GET /validators/{address}/voting-power").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetVotingPower))
	sub.Path("/{address}/slashes").
		Methods(http.MethodGet).
		Name("GET /validators/{address}/slashes").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetSlashes))
}
