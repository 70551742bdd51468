// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/logdb"
)

type History struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, limit uint64) *History {
	return &History{
		db,
		limit,
	}
}

// parseFilter reads and checks the filter in the request body. A filter without options is
// limited to one row more than the limit, so oversized results can be detected.
func (h *History) parseFilter(req *http.Request) (*logdb.Filter, error) {
	var filter Filter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options != nil && filter.Options.Limit > h.limit {
		return nil, utils.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", h.limit))
	}
	if filter.Options != nil && filter.Options.Offset > math.MaxInt64 {
		return nil, utils.BadRequest(fmt.Errorf("options.offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
	}
	if r := filter.Range; r != nil && r.From != nil && r.To != nil && *r.From > *r.To {
		return nil, utils.BadRequest(errors.New("range.to must be greater than or equal to range.from"))
	}
	switch filter.Order {
	case "", logdb.ASC, logdb.DESC:
	default:
		return nil, utils.BadRequest(errors.Errorf("invalid order %q", filter.Order))
	}
	if filter.Options == nil {
		filter.Options = &Options{Limit: h.limit + 1}
	}
	return convertFilter(&filter), nil
}

func (h *History) checkSize(n int) error {
	if n > int(h.limit) {
		return utils.Forbidden(fmt.Errorf("the number of filtered rows exceeds the maximum allowed value of %d, please use pagination", h.limit))
	}
	return nil
}

func (h *History) handleFilterSlashes(w http.ResponseWriter, req *http.Request) error {
	filter, err := h.parseFilter(req)
	if err != nil {
		return err
	}
	slashes, err := h.db.FilterSlashes(req.Context(), filter)
	if err != nil {
		return err
	}
	if err := h.checkSize(len(slashes)); err != nil {
		return err
	}
	out := make([]*Slash, len(slashes))
	for i, s := range slashes {
		out[i] = &Slash{
			Epoch:           s.Epoch,
			Index:           s.Index,
			Validator:       s.Validator,
			InfractionEpoch: s.InfractionEpoch,
			Type:            s.Type,
			Rate:            s.Rate,
		}
	}
	return utils.WriteJSON(w, out)
}

func (h *History) handleFilterRewards(w http.ResponseWriter, req *http.Request) error {
	filter, err := h.parseFilter(req)
	if err != nil {
		return err
	}
	rewards, err := h.db.FilterRewards(req.Context(), filter)
	if err != nil {
		return err
	}
	if err := h.checkSize(len(rewards)); err != nil {
		return err
	}
	out := make([]*Reward, len(rewards))
	for i, r := range rewards {
		out[i] = &Reward{
			Epoch:      r.Epoch,
			Index:      r.Index,
			Validator:  r.Validator,
			Recipient:  r.Recipient,
			Amount:     r.Amount,
			Commission: r.Commission,
		}
	}
	return utils.WriteJSON(w, out)
}

func (h *History) handleFilterUpdates(w http.ResponseWriter, req *http.Request) error {
	filter, err := h.parseFilter(req)
	if err != nil {
		return err
	}
	updates, err := h.db.FilterPowerUpdates(req.Context(), filter)
	if err != nil {
		return err
	}
	if err := h.checkSize(len(updates)); err != nil {
		return err
	}
	out := make([]*PowerUpdate, len(updates))
	for i, u := range updates {
		out[i] = &PowerUpdate{
			Epoch:     u.Epoch,
			Index:     u.Index,
			Validator: u.Validator,
			Power:     u.Power,
		}
	}
	return utils.WriteJSON(w, out)
}

func (h *History) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/slashes").
		Methods(http.MethodPost).
		Name("POST /history/slashes").
		HandlerFunc(utils.WrapHandlerFunc(h.handleFilterSlashes))
	sub.Path("/rewards").
		Methods(http.MethodPost).
		Name("POST /history/rewards").
		HandlerFunc(utils.WrapHandlerFunc(h.handleFilterRewards))
	sub.Path("/updates").
		Methods(http.MethodPost).
		Name("POST /history/updates").
		HandlerFunc(utils.WrapHandlerFunc(h.handleFilterUpdates))
}
