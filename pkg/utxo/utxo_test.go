package utxo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hourcoin/hourcoin/pkg/block"
)

func TestInsertContainsRemove(t *testing.T) {
	s := New()
	out := block.Output{To: "alice", Value: 1.5, Timestamp: 10}

	assert.False(t, s.Contains(out))
	s.Insert(out)
	assert.True(t, s.Contains(out))
	assert.Equal(t, 1, s.Len())

	s.Remove(out)
	assert.False(t, s.Contains(out))
	assert.Equal(t, 0, s.Len())
}

func TestApplyBlockSpendsInputsAndMintsOutputs(t *testing.T) {
	s := New()
	spent := block.Output{To: "alice", Value: 1.5, Timestamp: 10}
	s.Insert(spent)

	b := &block.Block{
		Transactions: []block.Transaction{
			{Outputs: []block.Output{{To: "alice", Value: 2.0, Timestamp: 20}}}, // coinbase
			{
				Inputs:  []block.Output{spent},
				Outputs: []block.Output{{To: "alice", Value: 0.25, Timestamp: 20}, {To: "bob", Value: 1.0, Timestamp: 20}},
			},
		},
	}
	s.ApplyBlock(b)

	assert.False(t, s.Contains(spent), "spent input must leave the set")
	assert.Equal(t, 3, s.Len(), "coinbase output + two transaction outputs remain")
}
