package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hourcoin/hourcoin/pkg/block"
)

// easyDifficulty is the maximum u128, satisfied by any hash; tests mine
// quickly without needing real proof-of-work search depth.
func easyDifficulty() *big.Int {
	d := new(big.Int).Lsh(big.NewInt(1), 128)
	return d.Sub(d, big.NewInt(1))
}

// TestGenesisAdmission admits a correctly mined genesis block.
func TestGenesisAdmission(t *testing.T) {
	c := New(easyDifficulty())
	const t0 = uint64(1_700_000_000_000)

	b, err := MineAndAdmitGenesis(c, t0, []block.Output{
		{To: "A", Value: 1.5, Timestamp: t0},
		{To: "B", Value: 0.5, Timestamp: t0},
	}, easyDifficulty())
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.UTXOs().Len())
	assert.True(t, c.UTXOs().Contains(block.Output{To: "A", Value: 1.5, Timestamp: t0}))
	assert.True(t, c.UTXOs().Contains(block.Output{To: "B", Value: 0.5, Timestamp: t0}))
	assert.Equal(t, b.Hash, c.Last().Hash)
}

func admitGenesis(t *testing.T, c *Chain, t0 uint64) {
	t.Helper()
	_, err := MineAndAdmitGenesis(c, t0, []block.Output{{To: "A", Value: 2.0, Timestamp: t0}}, easyDifficulty())
	require.NoError(t, err)
}

func TestIndexMustMatchChainLength(t *testing.T) {
	c := New(easyDifficulty())
	admitGenesis(t, c, 1000)

	b := &block.Block{Index: 5, Timestamp: 2000, PrevBlockHash: c.Last().Hash, Transactions: []block.Transaction{
		{Outputs: []block.Output{{To: "A", Value: 2.0, Timestamp: 2000}}},
	}}
	b.Mine(easyDifficulty())

	err := c.UpdateWithBlock(b)
	var admErr *AdmissionError
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, ReasonIndexMismatch, admErr.Reason)
}

func TestTimestampMustStrictlyIncrease(t *testing.T) {
	c := New(easyDifficulty())
	admitGenesis(t, c, 1000)

	b := &block.Block{Index: 1, Timestamp: 1000, PrevBlockHash: c.Last().Hash, Transactions: []block.Transaction{
		{Outputs: []block.Output{{To: "A", Value: 2.0, Timestamp: 1000}}},
	}}
	b.Mine(easyDifficulty())

	err := c.UpdateWithBlock(b)
	var admErr *AdmissionError
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, ReasonTimestampNotGreater, admErr.Reason)
}

func TestHashTamperingDetected(t *testing.T) {
	c := New(easyDifficulty())
	admitGenesis(t, c, 1000)

	b := &block.Block{Index: 1, Timestamp: 2000, PrevBlockHash: c.Last().Hash, Transactions: []block.Transaction{
		{Outputs: []block.Output{{To: "A", Value: 2.0, Timestamp: 2000}}},
	}}
	b.Mine(easyDifficulty())
	b.Nonce++ // tamper after mining, hash field now stale

	err := c.UpdateWithBlock(b)
	var admErr *AdmissionError
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, ReasonHashMismatch, admErr.Reason)
}

// TestTransactionChain admits a block with a coinbase and a spending transaction.
func TestTransactionChain(t *testing.T) {
	c := New(easyDifficulty())
	const t0 = uint64(1000)
	_, err := MineAndAdmitGenesis(c, t0, []block.Output{{To: "A", Value: 1.5, Timestamp: t0}}, easyDifficulty())
	require.NoError(t, err)

	spent := block.Output{To: "A", Value: 1.5, Timestamp: t0}
	const t1 = uint64(2000)
	b := &block.Block{
		Index:         1,
		Timestamp:     t1,
		PrevBlockHash: c.Last().Hash,
		Transactions: []block.Transaction{
			{Outputs: []block.Output{{To: "A", Value: 2.75, Timestamp: t1}}}, // 2.0 + 0.75 fee
			{
				Inputs:  []block.Output{spent},
				Outputs: []block.Output{{To: "A", Value: 0.25, Timestamp: t1}, {To: "B", Value: 0.5, Timestamp: t1}},
			},
		},
	}
	b.Mine(easyDifficulty())

	require.NoError(t, c.UpdateWithBlock(b))
	assert.False(t, c.UTXOs().Contains(spent))
	assert.True(t, c.UTXOs().Contains(block.Output{To: "A", Value: 2.75, Timestamp: t1}))
	assert.True(t, c.UTXOs().Contains(block.Output{To: "A", Value: 0.25, Timestamp: t1}))
	assert.True(t, c.UTXOs().Contains(block.Output{To: "B", Value: 0.5, Timestamp: t1}))
}

func TestCoinbaseExceedingRewardPlusFeesRejected(t *testing.T) {
	c := New(easyDifficulty())
	admitGenesis(t, c, 1000)

	b := &block.Block{Index: 1, Timestamp: 2000, PrevBlockHash: c.Last().Hash, Transactions: []block.Transaction{
		{Outputs: []block.Output{{To: "A", Value: 3.0, Timestamp: 2000}}}, // no fees collected, so > 2.0
	}}
	b.Mine(easyDifficulty())

	err := c.UpdateWithBlock(b)
	var admErr *AdmissionError
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, ReasonCoinbaseTooLarge, admErr.Reason)
}

// TestDifficultyMonotonicity verifies raising the ceiling succeeds and lowering it fails.
func TestDifficultyMonotonicity(t *testing.T) {
	c := New(big.NewInt(1000))

	assert.NoError(t, c.UpdateDifficulty(big.NewInt(1001)), "raising the ceiling (easier) must succeed")
	assert.Error(t, c.UpdateDifficulty(big.NewInt(500)), "lowering the ceiling (harder) must fail")
}

func TestDoubleSpendImpossible(t *testing.T) {
	c := New(easyDifficulty())
	const t0 = uint64(1000)
	_, err := MineAndAdmitGenesis(c, t0, []block.Output{{To: "A", Value: 1.5, Timestamp: t0}}, easyDifficulty())
	require.NoError(t, err)

	spent := block.Output{To: "A", Value: 1.5, Timestamp: t0}
	mkSpendBlock := func(index uint32, ts uint64, prev block.Block) *block.Block {
		b := &block.Block{
			Index:         index,
			Timestamp:     ts,
			PrevBlockHash: prev.Hash,
			Transactions: []block.Transaction{
				{Outputs: []block.Output{{To: "A", Value: 2.0, Timestamp: ts}}},
				{Inputs: []block.Output{spent}, Outputs: []block.Output{{To: "B", Value: 1.5, Timestamp: ts}}},
			},
		}
		b.Mine(easyDifficulty())
		return b
	}

	first := mkSpendBlock(1, 2000, *c.Last())
	require.NoError(t, c.UpdateWithBlock(first))

	second := mkSpendBlock(2, 3000, *c.Last())
	err = c.UpdateWithBlock(second)
	var admErr *AdmissionError
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, ReasonInputMissing, admErr.Reason)
}
