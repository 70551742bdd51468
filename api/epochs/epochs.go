// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/valset"
	"github.com/vechain/stakeledger/thor"
)

type Epochs struct {
	reader pos.Reader
}

func New(reader pos.Reader) *Epochs {
	return &Epochs{reader}
}

// epoch resolves the {epoch} path variable, which accepts the same values as the epoch query.
func (e *Epochs) epoch(req *http.Request) (thor.Epoch, error) {
	epoch, err := utils.ParseEpoch(mux.Vars(req)["epoch"], e.reader.CurrentEpoch())
	if err != nil {
		return 0, utils.BadRequest(err)
	}
	return epoch, nil
}

func (e *Epochs) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	epoch, err := e.epoch(req)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Epoch{
		Epoch:               epoch,
		Current:             e.reader.CurrentEpoch(),
		ConsensusValidators: len(e.reader.ConsensusValidators(epoch)),
		TotalConsensusStake: e.reader.TotalConsensusStake(epoch),
	})
}

func (e *Epochs) handleGetConsensus(w http.ResponseWriter, req *http.Request) error {
	epoch, err := e.epoch(req)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &ValidatorSet{
		Epoch:      epoch,
		Validators: nonNil(e.reader.ConsensusValidators(epoch)),
		TotalStake: e.reader.TotalConsensusStake(epoch),
	})
}

func (e *Epochs) handleGetBelowCapacity(w http.ResponseWriter, req *http.Request) error {
	epoch, err := e.epoch(req)
	if err != nil {
		return err
	}
	members := nonNil(e.reader.BelowCapacityValidators(epoch))
	var total uint64
	for _, m := range members {
		total += m.Stake
	}
	return utils.WriteJSON(w, &ValidatorSet{
		Epoch:      epoch,
		Validators: members,
		TotalStake: total,
	})
}

func (e *Epochs) handleGetUpdates(w http.ResponseWriter, req *http.Request) error {
	epoch, err := e.epoch(req)
	if err != nil {
		return err
	}
	updates := e.reader.ValidatorSetUpdate(epoch)
	if updates == nil {
		updates = []valset.Update{}
	}
	return utils.WriteJSON(w, updates)
}

func (e *Epochs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{epoch}").
		Methods(http.MethodGet).
		Name("GET /epochs/{epoch}").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetEpoch))
	sub.Path("/{epoch}/consensus").
		Methods(http.MethodGet).
		Name("GET /epochs/{epoch}/consensus").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetConsensus))
	sub.Path("/{epoch}/below-capacity").
		Methods(http.MethodGet).
		Name("GET /epochs/{epoch}/below-capacity").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetBelowCapacity))
	sub.Path("/{epoch}/updates").
		Methods(http.MethodGet).
		Name("GET /epochs/{epoch}/updates").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetUpdates))
}

func nonNil(members []valset.Member) []valset.Member {
	if members == nil {
		return []valset.Member{}
	}
	return members
}
