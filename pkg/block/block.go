package block

import (
	"math/big"

	"github.com/hourcoin/hourcoin/pkg/hashutil"
)

// Block is a single entry in the chain: an index, a TAI-millisecond
// timestamp, the block's own hash, the previous block's hash, the winning
// proof-of-work nonce, and the transactions it carries.
type Block struct {
	Index         uint32        `json:"index"`
	Timestamp     uint64        `json:"timestamp"`
	Hash          hashutil.Hash `json:"hash"`
	PrevBlockHash hashutil.Hash `json:"prev_block_hash"`
	Nonce         uint64        `json:"nonce"`
	Transactions  []Transaction `json:"transactions"`
}

// CalculateHash recomputes the block's hash from its fields, ignoring the
// Hash field itself. It is SHA-256 over Index (LE u32), Timestamp (LE
// u128), PrevBlockHash bytes, Nonce (LE u64), and every transaction hash
// in order.
func (b *Block) CalculateHash() hashutil.Hash {
	return hashutil.Sum(b.image())
}

func (b *Block) image() []byte {
	buf := make([]byte, 0, 4+16+hashutil.Size+8+len(b.Transactions)*hashutil.Size)
	buf = hashutil.PutUint32LE(buf, b.Index)
	buf = hashutil.PutUint128LE(buf, b.Timestamp)
	buf = append(buf, b.PrevBlockHash[:]...)
	buf = hashutil.PutUint64LE(buf, b.Nonce)
	for _, tx := range b.Transactions {
		h := tx.Hash()
		buf = append(buf, h[:]...)
	}
	return buf
}

// Mine searches Nonce = 0, 1, 2, ... for a hash whose big-endian u128
// interpretation of the first 16 bytes is <= difficulty, writing the
// winning Hash and Nonce back onto the block. difficulty
// is the 128-bit upper bound: numerically smaller means harder to reach.
func (b *Block) Mine(difficulty *big.Int) {
	for nonce := uint64(0); ; nonce++ {
		b.Nonce = nonce
		h := b.CalculateHash()
		if h.BigEndianUint128().Cmp(difficulty) <= 0 {
			b.Hash = h
			return
		}
	}
}

// AllOutputs returns every output created across every transaction in the
// block, in transaction then output order. Used by chain admission to
// insert coinbase and transaction outputs into the UTXO set.
func (b *Block) AllOutputs() []Output {
	var outs []Output
	for _, tx := range b.Transactions {
		outs = append(outs, tx.Outputs...)
	}
	return outs
}
