// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

// Snapshot is an immutable copy of the ledger at the time it was taken. It is safe for concurrent use
// and unaffected by later mutations of the ledger.
type Snapshot struct {
	*core
}

// Snapshot copies the ledger state.
func (l *Ledger) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Snapshot{l.c.clone()}
}
