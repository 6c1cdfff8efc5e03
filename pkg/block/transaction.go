package block

import (
	"github.com/hourcoin/hourcoin/pkg/hashutil"
)

// CoinbaseReward is the exact total minted by a coinbase transaction's
// outputs, before any transaction fees are added.
const CoinbaseReward = 2.0

// Transaction carries a vector of prior outputs it spends (copies, not
// references) and the new outputs it creates. A transaction is coinbase
// iff it has no inputs and its outputs sum to exactly CoinbaseReward
// (checked by IsCoinbase; admission rules may allow CoinbaseReward+fees,
// see pkg/chain).
type Transaction struct {
	Inputs  []Output `json:"inputs"`
	Outputs []Output `json:"outputs"`
}

// Hash is SHA-256 over the concatenation of every input hash followed by
// every output hash, in order.
func (t Transaction) Hash() hashutil.Hash {
	buf := make([]byte, 0, (len(t.Inputs)+len(t.Outputs))*hashutil.Size)
	for _, in := range t.Inputs {
		h := in.Hash()
		buf = append(buf, h[:]...)
	}
	for _, out := range t.Outputs {
		h := out.Hash()
		buf = append(buf, h[:]...)
	}
	return hashutil.Sum(buf)
}

// IsCoinbase reports whether t has no inputs and its outputs sum to
// exactly CoinbaseReward. Non-genesis coinbase transactions may in fact
// mint up to CoinbaseReward+fees; use pkg/chain's admission check for that
// bound. This method implements the narrower, exact definition; block
// admission and the mempool check only IsCoinbaseShape.
func (t Transaction) IsCoinbase() bool {
	if len(t.Inputs) != 0 {
		return false
	}
	return SumOutputs(t.Outputs) == CoinbaseReward
}

// IsCoinbaseShape reports whether t has the positional shape of a
// coinbase transaction (no inputs), independent of its output sum. Block
// admission rule 5 only requires this shape of
// Transactions[0]; the exact-or-with-fees amount bound is a separate,
// non-genesis-only check.
func (t Transaction) IsCoinbaseShape() bool {
	return len(t.Inputs) == 0
}

// SumOutputs returns the sum of Value across outs.
func SumOutputs(outs []Output) float64 {
	var total float64
	for _, o := range outs {
		total += o.Value
	}
	return total
}

// MaxInputTimestamp returns the maximum Timestamp across ins, or 0 if ins
// is empty.
func MaxInputTimestamp(ins []Output) uint64 {
	var max uint64
	for _, in := range ins {
		if in.Timestamp > max {
			max = in.Timestamp
		}
	}
	return max
}

// MinOutputTimestamp returns the minimum Timestamp across outs, or 0 if
// outs is empty.
func MinOutputTimestamp(outs []Output) uint64 {
	if len(outs) == 0 {
		return 0
	}
	min := outs[0].Timestamp
	for _, o := range outs[1:] {
		if o.Timestamp < min {
			min = o.Timestamp
		}
	}
	return min
}
