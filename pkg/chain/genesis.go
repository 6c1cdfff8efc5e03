package chain

import (
	"math/big"

	"github.com/hourcoin/hourcoin/pkg/block"
	"github.com/hourcoin/hourcoin/pkg/hashutil"
)

// NewGenesisBlock builds (but does not mine or admit) the index-0 block
// carrying a single coinbase transaction whose outputs split
// CoinbaseReward across the given addresses at timestamp. Callers must
// call Mine and then UpdateWithBlock to actually admit it.
func NewGenesisBlock(timestamp uint64, coinbaseOutputs []block.Output) *block.Block {
	return &block.Block{
		Index:         0,
		Timestamp:     timestamp,
		PrevBlockHash: hashutil.Zero,
		Transactions:  []block.Transaction{{Outputs: coinbaseOutputs}},
	}
}

// MineAndAdmitGenesis is a convenience that mines the genesis block
// against difficulty and admits it onto an otherwise-empty chain.
func MineAndAdmitGenesis(c *Chain, timestamp uint64, coinbaseOutputs []block.Output, difficulty *big.Int) (*block.Block, error) {
	b := NewGenesisBlock(timestamp, coinbaseOutputs)
	b.Mine(difficulty)
	if err := c.UpdateWithBlock(b); err != nil {
		return nil, err
	}
	return b, nil
}
