// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/vechain/stakeledger/pos"
	"github.com/vechain/stakeledger/thor"
)

// messageCache holds encoded reports by epoch, so a report is marshalled once for all subscribers.
type messageCache struct {
	cache *lru.Cache
	mu    sync.Mutex
}

func newMessageCache(cacheSize uint32) *messageCache {
	if cacheSize > 1000 {
		cacheSize = 1000
	}
	if cacheSize == 0 {
		cacheSize = 1
	}
	cache, err := lru.New(int(cacheSize))
	if err != nil {
		// lru.New only fails on a size below 1
		panic(fmt.Errorf("failed to create message cache: %v", err))
	}
	return &messageCache{cache: cache}
}

// GetOrAdd returns the message of report, encoding and caching it on a miss.
// The second return value indicates whether the message is newly encoded.
func (mc *messageCache) GetOrAdd(report *pos.EpochReport) ([]byte, bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if msg, ok := mc.cache.Get(report.Epoch); ok {
		return msg.([]byte), false, nil
	}
	msg, err := json.Marshal(report)
	if err != nil {
		return nil, false, err
	}
	mc.cache.Add(report.Epoch, msg)
	return msg, true, nil
}

// Get returns the cached message of epoch.
func (mc *messageCache) Get(epoch thor.Epoch) ([]byte, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	msg, ok := mc.cache.Get(epoch)
	if !ok {
		return nil, false
	}
	return msg.([]byte), true
}
