// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakedb persists ledger state in a leveldb instance.
package stakedb

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/pos/bonds"
	"github.com/vechain/stakeledger/pos/params"
	"github.com/vechain/stakeledger/pos/rewards"
	"github.com/vechain/stakeledger/pos/slashing"
	"github.com/vechain/stakeledger/pos/validation"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.WithContext("pkg", "stakedb")

// Records are snappy compressed rlp. Keys within a bucket sort in the order the ledger exports
// its records, so a loaded state hashes to the same root as the saved one.
const (
	validatorsBucket = kv.Bucket("v") // address
	bondsBucket      = kv.Bucket("b") // delegator ‖ validator ‖ start ‖ source ‖ source start
	unbondsBucket    = kv.Bucket("u") // delegator ‖ validator ‖ withdrawable ‖ unbond epoch ‖ start ‖ source ‖ source start
	slashesBucket    = kv.Bucket("s") // infraction ‖ seq
	rewardsBucket    = kv.Bucket("r") // owner
	metaBucket       = kv.Bucket("m")
	propsBucket      = kv.Bucket("p") // caller defined properties
)

var (
	epochKey  = []byte("epoch")
	seqKey    = []byte("slash-seq")
	paramsKey = []byte("params")
)

var dataBuckets = []kv.Bucket{validatorsBucket, bondsBucket, unbondsBucket, slashesBucket, rewardsBucket}

// ErrNotFound is returned by Load on a store that has never been saved to.
var ErrNotFound = errors.New("no ledger state")

// Store reads and writes ledger state.
type Store struct {
	db kv.StoreCloser
}

// Open opens or creates a store at path with a small cache.
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, lvldb.Options{CacheSize: 16, OpenFilesCacheCapacity: 16})
}

// OpenWithOptions opens or creates a store at path. The cache size is in megabytes.
func OpenWithOptions(path string, opts lvldb.Options) (*Store, error) {
	db, err := lvldb.New(path, opts)
	if err != nil {
		return nil, err
	}
	return &Store{db}, nil
}

// NewMem creates an in-memory store.
func NewMem() (*Store, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	return &Store{db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored state with st and p in a single batch.
func (s *Store) Save(p *params.Params, st *pos.State) error {
	return s.SaveWithProperties(p, st, nil)
}

// SaveWithProperties is Save that also sets props in the same batch, so properties derived from
// the state are never seen next to a different state.
func (s *Store) SaveWithProperties(p *params.Params, st *pos.State, props map[string][]byte) error {
	bulk := s.db.Bulk()

	// drop records that st no longer carries
	for _, b := range dataBuckets {
		if _, err := b.Clear(s.db, bulk); err != nil {
			return err
		}
	}

	put := func(b kv.Bucket, key []byte, val any) error {
		data, err := rlp.EncodeToBytes(val)
		if err != nil {
			return errors.Wrapf(err, "encode %s record", string(b))
		}
		return b.NewPutter(bulk).Put(key, snappy.Encode(nil, data))
	}

	for i := range st.Validators {
		rec := &st.Validators[i]
		if err := put(validatorsBucket, rec.Validator.Address.Bytes(), rec); err != nil {
			return err
		}
	}
	for i := range st.Bonds {
		if err := put(bondsBucket, bondKey(st.Bonds[i].Key), &st.Bonds[i]); err != nil {
			return err
		}
	}
	for i := range st.Unbonds {
		if err := put(unbondsBucket, unbondKey(st.Unbonds[i].Key), &st.Unbonds[i]); err != nil {
			return err
		}
	}
	for i := range st.Slashes {
		sl := &st.Slashes[i]
		if err := put(slashesBucket, concat(sl.InfractionEpoch.Bytes(), uint64Bytes(sl.Seq)), sl); err != nil {
			return err
		}
	}
	for i := range st.Rewards {
		if err := put(rewardsBucket, st.Rewards[i].Owner.Bytes(), &st.Rewards[i]); err != nil {
			return err
		}
	}

	meta := metaBucket.NewPutter(bulk)
	if err := meta.Put(epochKey, st.Epoch.Bytes()); err != nil {
		return err
	}
	if err := meta.Put(seqKey, uint64Bytes(st.SlashSeq)); err != nil {
		return err
	}
	data, err := p.Encode()
	if err != nil {
		return errors.Wrap(err, "encode params")
	}
	if err := meta.Put(paramsKey, data); err != nil {
		return err
	}
	propPutter := propsBucket.NewPutter(bulk)
	for k, v := range props {
		if err := propPutter.Put([]byte(k), v); err != nil {
			return err
		}
	}

	n := bulk.Len()
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "write ledger state")
	}
	logger.Debug("saved ledger state", "epoch", st.Epoch, "writes", n)
	return nil
}

// Load reads the stored params and state.
func (s *Store) Load() (*params.Params, *pos.State, error) {
	meta := metaBucket.NewGetter(s.db)
	epoch, err := meta.Get(epochKey)
	if err != nil {
		if meta.IsNotFound(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	seq, err := meta.Get(seqKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get slash sequence")
	}
	data, err := meta.Get(paramsKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get params")
	}
	p, err := params.Parse(data)
	if err != nil {
		return nil, nil, err
	}

	st := &pos.State{
		Epoch:    thor.BytesToEpoch(epoch),
		SlashSeq: bytesToUint64(seq),
	}
	if st.Validators, err = loadAll[validation.Record](s.db, validatorsBucket); err != nil {
		return nil, nil, err
	}
	if st.Bonds, err = loadAll[bonds.Entry](s.db, bondsBucket); err != nil {
		return nil, nil, err
	}
	if st.Unbonds, err = loadAll[bonds.Unbond](s.db, unbondsBucket); err != nil {
		return nil, nil, err
	}
	if st.Slashes, err = loadAll[slashing.Slash](s.db, slashesBucket); err != nil {
		return nil, nil, err
	}
	if st.Rewards, err = loadAll[rewards.Balance](s.db, rewardsBucket); err != nil {
		return nil, nil, err
	}
	return p, st, nil
}

// Property returns the value of a property set along with a saved state, nil if it was never set.
func (s *Store) Property(key string) ([]byte, error) {
	getter := propsBucket.NewGetter(s.db)
	val, err := getter.Get([]byte(key))
	if err != nil {
		if getter.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

// Restore loads the stored state and rebuilds a ledger from it.
func (s *Store) Restore() (*pos.Ledger, error) {
	p, st, err := s.Load()
	if err != nil {
		return nil, err
	}
	return pos.Restore(p, st)
}

func loadAll[T any](db kv.Store, b kv.Bucket) ([]T, error) {
	out := []T{}
	err := kv.ForEach(b.NewStore(db), kv.Range{}, func(key, val []byte) error {
		data, err := snappy.Decode(nil, val)
		if err != nil {
			return errors.Wrapf(err, "decompress %s record %x", string(b), key)
		}
		var v T
		if err := rlp.DecodeBytes(data, &v); err != nil {
			return errors.Wrapf(err, "decode %s record %x", string(b), key)
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
