// Package mempool holds fee-bearing transactions submitted to the validator
// that have not yet been included in an admitted block.
package mempool

import (
	"sync"

	"github.com/hourcoin/hourcoin/pkg/block"
	"github.com/hourcoin/hourcoin/pkg/hashutil"
)

// Mempool is a mutex-guarded set of pending transactions, keyed by
// transaction hash.
type Mempool struct {
	mu  sync.RWMutex
	txs map[hashutil.Hash]block.Transaction
}

// New returns an empty mempool.
func New() *Mempool {
	return &Mempool{txs: make(map[hashutil.Hash]block.Transaction)}
}

// Add stages tx for inclusion in a future block. Coinbase transactions are
// rejected: a mempool only holds spends, never the block reward.
func (m *Mempool) Add(tx block.Transaction) bool {
	if tx.IsCoinbaseShape() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[tx.Hash()] = tx
	return true
}

// Remove drops tx from the pool, typically because a block including it
// was just admitted.
func (m *Mempool) Remove(tx block.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.txs, tx.Hash())
}

// Pending returns every staged transaction, in unspecified order.
func (m *Mempool) Pending() []block.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]block.Transaction, 0, len(m.txs))
	for _, tx := range m.txs {
		out = append(out, tx)
	}
	return out
}

// Len returns the number of staged transactions.
func (m *Mempool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}

// RemoveAppliedIn drops every transaction in the mempool that also appears
// in b's transaction vector, called after a block is admitted so spent
// transactions don't linger.
func (m *Mempool) RemoveAppliedIn(b *block.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range b.Transactions {
		delete(m.txs, tx.Hash())
	}
}
