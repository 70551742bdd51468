// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/pos/bonds"
	"github.com/vechain/stakeledger/pos/epoched"
	"github.com/vechain/stakeledger/pos/reverts"
	"github.com/vechain/stakeledger/pos/stakes"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.WithContext("pkg", "slashing")

// BondLedger is the part of the bond ledger slashes rewrite.
type BondLedger interface {
	Keys() []bonds.BondKey
	ScaleEntry(key bonds.BondKey, from thor.Epoch, fn func(uint64) uint64) error
	UnbondKeys() []bonds.UnbondKey
	ScaleUnbond(key bonds.UnbondKey, fn func(uint64) uint64)
	RederiveTotals(validator thor.Address, from, to thor.Epoch) error
}

// Sealer re-seals validator sets after their stake changed retroactively.
type Sealer interface {
	Reseal(from, to thor.Epoch) error
}

// Config holds the slashing parameters.
type Config struct {
	EvidenceWindow uint64
	SlashWindow    uint64
	MinRates       map[InfractionType]stakes.Dec
}

// Engine records evidence and applies the resulting slashes at epoch advance.
type Engine struct {
	tl      *epoched.Timeline
	cfg     Config
	seq     uint64
	slashes []*Slash // ordered by infraction epoch then seq
}

func New(tl *epoched.Timeline, cfg Config) *Engine {
	return &Engine{tl: tl, cfg: cfg}
}

// Clone returns a deep copy bound to tl.
func (e *Engine) Clone(tl *epoched.Timeline) *Engine {
	c := &Engine{tl: tl, cfg: e.cfg, seq: e.seq, slashes: make([]*Slash, 0, len(e.slashes))}
	for _, s := range e.slashes {
		cpy := *s
		c.slashes = append(c.slashes, &cpy)
	}
	return c
}

// Check validates evidence without recording it.
func (e *Engine) Check(validator thor.Address, infraction thor.Epoch, typ InfractionType) error {
	if _, ok := e.cfg.MinRates[typ]; !ok {
		return reverts.Errorf(reverts.ErrInvalidInfraction, "type %d", typ)
	}
	current := e.tl.Current()
	if infraction > current {
		return reverts.Errorf(reverts.ErrInvalidEpoch, "infraction epoch %d after current epoch %d", infraction, current)
	}
	if infraction.Add(e.cfg.EvidenceWindow) < current {
		return reverts.Errorf(reverts.ErrEvidenceExpired,
			"infraction epoch %d, current epoch %d, window %d", infraction, current, e.cfg.EvidenceWindow)
	}
	for _, s := range e.slashes {
		if s.Validator == validator && s.InfractionEpoch == infraction && s.Type == typ {
			return reverts.Errorf(reverts.ErrDuplicateEvidence, "%s of %s at epoch %d", typ, validator, infraction)
		}
	}
	return nil
}

// Record validates evidence and queues the slash it implies.
func (e *Engine) Record(validator thor.Address, infraction thor.Epoch, typ InfractionType) (Slash, error) {
	if err := e.Check(validator, infraction, typ); err != nil {
		return Slash{}, err
	}

	e.seq++
	s := &Slash{
		Validator:       validator,
		InfractionEpoch: infraction,
		Type:            typ,
		Rate:            e.rate(validator, infraction, typ),
		ProcessingEpoch: e.tl.Current(),
		Seq:             e.seq,
	}
	i, _ := slices.BinarySearchFunc(e.slashes, s, compareSlashes)
	e.slashes = slices.Insert(e.slashes, i, s)
	return *s, nil
}

// rate is min(1, min_rate × k) where k counts the validator's slashes in the window ending at
// the infraction, the new one included.
func (e *Engine) rate(validator thor.Address, infraction thor.Epoch, typ InfractionType) stakes.Dec {
	from := infraction.SubFloor(e.cfg.SlashWindow)
	k := uint64(1)
	for _, s := range e.slashes {
		if s.Validator == validator && s.InfractionEpoch >= from && s.InfractionEpoch <= infraction {
			k++
		}
	}
	return stakes.Min(stakes.One(), e.cfg.MinRates[typ].MulInt(k))
}

// Pending returns the slashes not yet processed, in processing order.
func (e *Engine) Pending() []Slash {
	var out []Slash
	for _, s := range e.slashes {
		if !s.Processed {
			out = append(out, *s)
		}
	}
	return out
}

// Slashes returns every retained slash of the validator, processed or not.
func (e *Engine) Slashes(validator thor.Address) []Slash {
	var out []Slash
	for _, s := range e.slashes {
		if s.Validator == validator {
			out = append(out, *s)
		}
	}
	return out
}

// Process applies every pending slash to the bonds, then re-derives the affected totals and
// re-seals the validator sets from the earliest infraction to the current epoch.
func (e *Engine) Process(ledger BondLedger, sealer Sealer) ([]Slash, error) {
	var (
		processed []Slash
		earliest  thor.Epoch
		pipeline  = e.tl.Pipeline()
	)
	for _, s := range e.slashes {
		if s.Processed {
			continue
		}
		affected, err := e.apply(ledger, s, pipeline)
		if err != nil {
			return nil, errors.Wrapf(err, "slash %d of %s", s.Seq, s.Validator)
		}
		from := max(s.InfractionEpoch, e.tl.Horizon())
		for _, v := range affected {
			if err := ledger.RederiveTotals(v, from, e.tl.PipelineEpoch()); err != nil {
				return nil, errors.Wrapf(err, "slash %d: re-derive stake of %s", s.Seq, v)
			}
		}
		if len(processed) == 0 || from < earliest {
			earliest = from
		}
		s.Processed = true
		processed = append(processed, *s)
		logger.Warn("slash applied",
			"validator", s.Validator,
			"infraction", s.InfractionEpoch,
			"type", s.Type,
			"rate", s.Rate,
			"affected", len(affected),
		)
	}
	if len(processed) == 0 {
		return nil, nil
	}
	if err := sealer.Reseal(earliest, e.tl.Current()); err != nil {
		return nil, errors.Wrap(err, "reseal validator sets")
	}
	return processed, nil
}

// apply scales the stake slashable for s and returns the validators whose stake changed.
func (e *Engine) apply(ledger BondLedger, s *Slash, pipeline uint64) ([]thor.Address, error) {
	var (
		inf      = s.InfractionEpoch
		bondedBy = inf.Add(pipeline)
		from     = max(inf, e.tl.Horizon())
		scale    = func(v uint64) uint64 { return v - s.Rate.MulAmount(v) }
		affected = make(map[thor.Address]bool)
	)
	// stake bonded to the validator at the infraction, or redelegated away after it
	slashable := func(validator thor.Address, start thor.Epoch, source thor.Address, sourceStart thor.Epoch) bool {
		if validator == s.Validator && start <= bondedBy {
			return true
		}
		return !source.IsZero() && source == s.Validator && sourceStart <= bondedBy && inf < start
	}

	for _, key := range ledger.Keys() {
		if !slashable(key.Validator, key.Start, key.Source, key.SourceStart) {
			continue
		}
		if err := ledger.ScaleEntry(key, from, scale); err != nil {
			return nil, err
		}
		affected[key.Validator] = true
	}
	for _, key := range ledger.UnbondKeys() {
		if !slashable(key.Validator, key.Start, key.Source, key.SourceStart) {
			continue
		}
		if inf >= key.UnbondEpoch.Add(pipeline) || key.Withdrawable <= s.ProcessingEpoch {
			continue
		}
		ledger.ScaleUnbond(key, scale)
	}

	out := make([]thor.Address, 0, len(affected))
	for v := range affected {
		out = append(out, v)
	}
	slices.SortFunc(out, thor.CompareAddress)
	return out, nil
}

// Prune drops processed slashes whose infraction is before the horizon.
func (e *Engine) Prune() {
	horizon := e.tl.Horizon()
	e.slashes = slices.DeleteFunc(e.slashes, func(s *Slash) bool {
		return s.Processed && s.InfractionEpoch < horizon
	})
}

// Export returns the sequence counter and the retained slashes in order.
func (e *Engine) Export() (uint64, []Slash) {
	out := make([]Slash, 0, len(e.slashes))
	for _, s := range e.slashes {
		out = append(out, *s)
	}
	return e.seq, out
}

// Import loads exported slashes into an empty engine.
func (e *Engine) Import(seq uint64, slashes []Slash) error {
	if len(e.slashes) > 0 {
		return errors.New("import into non-empty slashing engine")
	}
	for i := range slashes {
		s := slashes[i]
		if s.Seq > seq {
			return errors.Errorf("slash %d beyond sequence %d", s.Seq, seq)
		}
		if i > 0 && compareSlashes(&slashes[i-1], &s) >= 0 {
			return errors.Errorf("slashes not ordered at %d", s.Seq)
		}
		e.slashes = append(e.slashes, &s)
	}
	e.seq = seq
	return nil
}
