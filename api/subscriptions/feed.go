// Copyright (c) 2023 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"sync"

	"github.com/vechain/stakeledger/pos"
)

// Feed fans epoch reports out to listeners.
type Feed struct {
	listeners map[chan *pos.EpochReport]struct{}
	mu        sync.RWMutex
}

func NewFeed() *Feed {
	return &Feed{
		listeners: make(map[chan *pos.EpochReport]struct{}),
	}
}

func (f *Feed) Subscribe(ch chan *pos.EpochReport) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listeners[ch] = struct{}{}
}

func (f *Feed) Unsubscribe(ch chan *pos.EpochReport) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.listeners, ch)
}

// Publish hands report to every listener ready to take it. A listener with a full channel misses
// the report.
func (f *Feed) Publish(report *pos.EpochReport) (delivered int) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for lsn := range f.listeners {
		select {
		case lsn <- report:
			delivered++
		default:
		}
	}
	return
}

func (f *Feed) listenerCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.listeners)
}
