// Package utxo holds the live set of unspent outputs. Unlike a Bitcoin-style
// "txHash:index" index, Hourcoin's UTXO set tracks the exact Output records
// themselves, keyed by each output's own hash, since inputs are copies of
// prior outputs rather than positional references.
package utxo

import (
	"sync"

	"github.com/hourcoin/hourcoin/pkg/block"
	"github.com/hourcoin/hourcoin/pkg/hashutil"
)

// Set is the mutex-guarded collection of unspent Output records.
type Set struct {
	mu   sync.RWMutex
	outs map[hashutil.Hash]block.Output
}

// New returns an empty UTXO set.
func New() *Set {
	return &Set{outs: make(map[hashutil.Hash]block.Output)}
}

// Contains reports whether out is currently unspent.
func (s *Set) Contains(out block.Output) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.outs[out.Hash()]
	return ok
}

// Insert adds out to the set. Used when a block admitting out is accepted.
func (s *Set) Insert(out block.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outs[out.Hash()] = out
}

// Remove deletes out from the set. Used when a later admitted block spends
// out as an input.
func (s *Set) Remove(out block.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outs, out.Hash())
}

// ApplyBlock atomically removes every input spent by b's non-coinbase
// transactions and inserts every output b creates (coinbase included).
// Callers must have already validated the block (pkg/chain); this method
// only mutates state.
func (s *Set) ApplyBlock(b *block.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range b.Transactions {
		if i == 0 {
			continue // first transaction is coinbase: no inputs to spend
		}
		for _, in := range tx.Inputs {
			delete(s.outs, in.Hash())
		}
	}
	for _, out := range b.AllOutputs() {
		s.outs[out.Hash()] = out
	}
}

// Len returns the number of unspent outputs currently tracked.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.outs)
}

// Snapshot returns a copy of every unspent output, for diagnostics and
// tests. Order is unspecified.
func (s *Set) Snapshot() []block.Output {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]block.Output, 0, len(s.outs))
	for _, o := range s.outs {
		out = append(out, o)
	}
	return out
}
