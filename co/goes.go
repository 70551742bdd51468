// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
	"sync/atomic"
	"time"
)

// Goes runs a group of goroutines, such as the servers started next to a ledger run,
// and waits for them to exit.
type Goes struct {
	wg      sync.WaitGroup
	running atomic.Int32
}

// Go runs f in a goroutine.
func (g *Goes) Go(f func()) {
	g.wg.Add(1)
	g.running.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.running.Add(-1)
		f()
	}()
}

// Running returns the number of goroutines not yet returned.
func (g *Goes) Running() int {
	return int(g.running.Load())
}

// Wait waits for all goroutines started by Go.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// Done returns a channel closed once all goroutines started by Go have returned.
func (g *Goes) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()
	return done
}

// WaitTimeout is like Wait but gives up after d. It reports whether every goroutine returned.
func (g *Goes) WaitTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-g.Done():
		return true
	case <-timer.C:
		return false
	}
}
