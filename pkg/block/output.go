// Package block defines Hourcoin's data model: outputs, transactions, and
// blocks, along with their canonical byte encodings and proof-of-work
// mining.
package block

import (
	"math"

	"github.com/hourcoin/hourcoin/pkg/hashutil"
)

// Address is an opaque string identifying the recipient of an Output.
// Hourcoin carries no key cryptography in this layer; signature
// verification is out of scope.
type Address string

// Output is a single UTXO record. Timestamp is TAI milliseconds at the
// moment the output was materialized and is part of the output's
// identity: two outputs with identical To/Value but different Timestamp
// hash, and compare, differently.
type Output struct {
	To        Address `json:"to"`
	Value     float64 `json:"value"`
	Timestamp uint64  `json:"timestamp"`
}

// Hash returns the canonical digest of the output, built from its byte
// image: To (raw UTF-8 bytes), Value (as IEEE-754 bits, little-endian),
// Timestamp (u128 little-endian). Field order is fixed so two conforming
// implementations produce byte-identical images for equal inputs.
func (o Output) Hash() hashutil.Hash {
	return hashutil.Sum(o.image())
}

func (o Output) image() []byte {
	buf := make([]byte, 0, len(o.To)+8+16)
	buf = append(buf, []byte(o.To)...)
	buf = hashutil.PutUint64LE(buf, math.Float64bits(o.Value))
	buf = hashutil.PutUint128LE(buf, o.Timestamp)
	return buf
}
