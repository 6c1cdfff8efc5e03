package block

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hourcoin/hourcoin/pkg/hashutil"
)

func TestOutputHashIncludesTimestamp(t *testing.T) {
	a := Output{To: "alice", Value: 1.5, Timestamp: 1000}
	b := Output{To: "alice", Value: 1.5, Timestamp: 1001}

	assert.NotEqual(t, a.Hash(), b.Hash(), "timestamp is part of output identity")
}

func TestTransactionIsCoinbase(t *testing.T) {
	coinbase := Transaction{
		Outputs: []Output{
			{To: "a", Value: 1.5, Timestamp: 10},
			{To: "b", Value: 0.5, Timestamp: 10},
		},
	}
	assert.True(t, coinbase.IsCoinbase())

	withFee := Transaction{
		Outputs: []Output{{To: "a", Value: 2.75, Timestamp: 10}},
	}
	assert.False(t, withFee.IsCoinbase(), "coinbase-plus-fees is not the exact-2.0 shape")

	spend := Transaction{
		Inputs:  []Output{{To: "a", Value: 1.5, Timestamp: 10}},
		Outputs: []Output{{To: "b", Value: 1.5, Timestamp: 11}},
	}
	assert.False(t, spend.IsCoinbase())
}

func TestTransactionHashDeterministic(t *testing.T) {
	tx := Transaction{
		Inputs:  []Output{{To: "a", Value: 1.5, Timestamp: 10}},
		Outputs: []Output{{To: "b", Value: 1.5, Timestamp: 11}},
	}
	assert.Equal(t, tx.Hash(), tx.Hash())

	other := Transaction{
		Inputs:  []Output{{To: "a", Value: 1.5, Timestamp: 10}},
		Outputs: []Output{{To: "b", Value: 1.4, Timestamp: 11}},
	}
	assert.NotEqual(t, tx.Hash(), other.Hash())
}

func TestBlockCalculateHashStableAcrossCalls(t *testing.T) {
	b := &Block{
		Index:         3,
		Timestamp:     1_700_000_000_000,
		PrevBlockHash: hashutil.Zero,
		Nonce:         42,
		Transactions: []Transaction{
			{Outputs: []Output{{To: "a", Value: 2.0, Timestamp: 1_700_000_000_000}}},
		},
	}
	require.Equal(t, b.CalculateHash(), b.CalculateHash())

	original := b.CalculateHash()
	b.Nonce++
	assert.NotEqual(t, original, b.CalculateHash(), "nonce participates in the block image")
}

func TestMineSatisfiesDifficulty(t *testing.T) {
	// An easy difficulty ceiling (max u128) must be satisfiable immediately.
	easy := new(big.Int).Lsh(big.NewInt(1), 128)
	easy.Sub(easy, big.NewInt(1))

	b := &Block{
		Index:         0,
		Timestamp:     1_700_000_000_000,
		PrevBlockHash: hashutil.Zero,
		Transactions: []Transaction{
			{Outputs: []Output{{To: "a", Value: 2.0, Timestamp: 1_700_000_000_000}}},
		},
	}
	b.Mine(easy)

	assert.LessOrEqual(t, b.Hash.BigEndianUint128().Cmp(easy), 0)
	assert.Equal(t, b.CalculateHash(), b.Hash)
}

func TestAllOutputsConcatenatesAcrossTransactions(t *testing.T) {
	b := &Block{
		Transactions: []Transaction{
			{Outputs: []Output{{To: "a", Value: 1, Timestamp: 1}}},
			{Outputs: []Output{{To: "b", Value: 2, Timestamp: 2}, {To: "c", Value: 3, Timestamp: 3}}},
		},
	}
	assert.Len(t, b.AllOutputs(), 3)
}
