// Package chain owns the append-only block vector and the live UTXO set,
// and enforces the block admission rules.
package chain

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/hourcoin/hourcoin/pkg/block"
	"github.com/hourcoin/hourcoin/pkg/hashutil"
	"github.com/hourcoin/hourcoin/pkg/utxo"
)

// RejectReason identifies why update_with_block refused a block. Each
// distinct admission-rule failure gets its own reason so callers
// (pkg/validator) can map it to a wire-level Rejected* variant.
type RejectReason string

const (
	ReasonIndexMismatch       RejectReason = "index_mismatch"
	ReasonDifficultyNotMet    RejectReason = "difficulty_not_met"
	ReasonPrevHashMismatch    RejectReason = "prev_hash_mismatch"
	ReasonTimestampNotGreater RejectReason = "timestamp_not_greater"
	ReasonHashMismatch        RejectReason = "hash_mismatch"
	ReasonEmptyTransactions   RejectReason = "empty_transactions"
	ReasonFirstTxNotCoinbase  RejectReason = "first_tx_not_coinbase"
	ReasonInputMissing        RejectReason = "input_missing_from_utxo_set"
	ReasonDuplicateInput      RejectReason = "duplicate_input_in_transaction"
	ReasonInsufficientInputs  RejectReason = "inputs_less_than_outputs"
	ReasonOutputBeforeInput   RejectReason = "output_timestamp_before_input"
	ReasonCoinbaseTooLarge    RejectReason = "coinbase_exceeds_reward_plus_fees"
)

// AdmissionError reports a failed update_with_block call with the distinct
// reason for the refusal.
type AdmissionError struct {
	Reason RejectReason
	Detail string
}

func (e *AdmissionError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func reject(reason RejectReason, detail string) error {
	return &AdmissionError{Reason: reason, Detail: detail}
}

// Chain is the append-only vector of admitted blocks plus the live UTXO
// set and the current difficulty ceiling. All mutation happens through
// UpdateWithBlock and UpdateDifficulty, each taking the exclusive lock for
// the duration of one admission.
type Chain struct {
	mu         sync.RWMutex
	blocks     []block.Block
	utxos      *utxo.Set
	difficulty *big.Int
}

// New creates an empty chain (no genesis block yet) at the given starting
// difficulty ceiling.
func New(difficulty *big.Int) *Chain {
	return &Chain{
		blocks:     nil,
		utxos:      utxo.New(),
		difficulty: new(big.Int).Set(difficulty),
	}
}

// Len returns the number of admitted blocks.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// Last returns the most recently admitted block, or nil if the chain is
// empty (pre-genesis).
func (c *Chain) Last() *block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return nil
	}
	b := c.blocks[len(c.blocks)-1]
	return &b
}

// Difficulty returns a copy of the current difficulty ceiling.
func (c *Chain) Difficulty() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return new(big.Int).Set(c.difficulty)
}

// UTXOs exposes the live UTXO set for read-only queries (e.g. tests
// checking which outputs remain unspent).
func (c *Chain) UTXOs() *utxo.Set {
	return c.utxos
}

// UpdateDifficulty changes the difficulty ceiling. It is only allowed when
// next is numerically >= the current ceiling, i.e. mining becomes easier
// or stays the same; attempts to make it harder (lower) are rejected.
func (c *Chain) UpdateDifficulty(next *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if next.Cmp(c.difficulty) < 0 {
		return fmt.Errorf("chain: refusing to raise difficulty (lower ceiling) from %s to %s", c.difficulty, next)
	}
	c.difficulty = new(big.Int).Set(next)
	return nil
}

// UpdateWithBlock validates b against every admission rule, in order,
// failing fast with a distinct *AdmissionError for the first rule that
// does not hold. On success it removes every spent input
// from the UTXO set, inserts every output (coinbase included), and
// appends b to the chain.
func (c *Chain) UpdateWithBlock(b *block.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expectedIndex := uint32(len(c.blocks))
	if b.Index != expectedIndex {
		return reject(ReasonIndexMismatch, fmt.Sprintf("expected %d, got %d", expectedIndex, b.Index))
	}

	if b.Hash.BigEndianUint128().Cmp(c.difficulty) > 0 {
		return reject(ReasonDifficultyNotMet, "")
	}

	if b.Index == 0 {
		if b.PrevBlockHash != hashutil.Zero {
			return reject(ReasonPrevHashMismatch, "genesis must reference the zero hash")
		}
	} else {
		prev := c.blocks[len(c.blocks)-1]
		if b.PrevBlockHash != prev.Hash {
			return reject(ReasonPrevHashMismatch, "")
		}
		if !(b.Timestamp > prev.Timestamp) {
			return reject(ReasonTimestampNotGreater, "")
		}
	}

	if recomputed := b.CalculateHash(); recomputed != b.Hash {
		return reject(ReasonHashMismatch, "")
	}

	if len(b.Transactions) == 0 {
		return reject(ReasonEmptyTransactions, "")
	}
	if !b.Transactions[0].IsCoinbaseShape() {
		return reject(ReasonFirstTxNotCoinbase, "")
	}

	var totalFees float64
	for i, tx := range b.Transactions {
		if i == 0 {
			continue
		}
		seen := make(map[hashutil.Hash]struct{}, len(tx.Inputs))
		for _, in := range tx.Inputs {
			h := in.Hash()
			if _, dup := seen[h]; dup {
				return reject(ReasonDuplicateInput, "")
			}
			seen[h] = struct{}{}
			if !c.utxos.Contains(in) {
				return reject(ReasonInputMissing, "")
			}
		}
		inSum := block.SumOutputs(tx.Inputs)
		outSum := block.SumOutputs(tx.Outputs)
		if inSum < outSum {
			return reject(ReasonInsufficientInputs, "")
		}
		if len(tx.Outputs) > 0 && block.MinOutputTimestamp(tx.Outputs) < block.MaxInputTimestamp(tx.Inputs) {
			return reject(ReasonOutputBeforeInput, "")
		}
		totalFees += inSum - outSum
	}

	if b.Index != 0 {
		coinbaseOut := block.SumOutputs(b.Transactions[0].Outputs)
		if coinbaseOut > block.CoinbaseReward+totalFees {
			return reject(ReasonCoinbaseTooLarge, fmt.Sprintf("coinbase %.8f exceeds %.8f+fees(%.8f)", coinbaseOut, block.CoinbaseReward, totalFees))
		}
	}

	c.utxos.ApplyBlock(b)
	c.blocks = append(c.blocks, *b)
	return nil
}
