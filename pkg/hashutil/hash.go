// Package hashutil defines the canonical 32-byte hash type shared by every
// domain object in Hourcoin and the little-endian byte encoders used to
// build their digest images.
package hashutil

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math/big"
)

// Size is the length in bytes of a Hash.
const Size = sha256.Size

// Hash is a 32-byte SHA-256 digest. Equality is by byte content.
type Hash [Size]byte

// Zero is the all-zero hash used as the genesis block's prev-hash.
var Zero Hash

// Sum returns the SHA-256 digest of data.
func Sum(data []byte) Hash {
	return sha256.Sum256(data)
}

// String renders the hash as lowercase hex, the wire encoding used for
// "hash" and "prev_block_hash" fields.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Bytes returns a copy of the underlying 32 bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// BigEndianUint128 interprets the first 16 bytes of h as a big-endian
// unsigned integer. Mining searches for a nonce whose block hash, read
// this way, is <= the chain's difficulty ceiling.
func (h Hash) BigEndianUint128() *big.Int {
	return new(big.Int).SetBytes(h[:16])
}

// FromHex parses a lowercase (or mixed-case) hex string into a Hash. It
// returns an error if s does not decode to exactly Size bytes.
func FromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != Size {
		return h, errInvalidLength
	}
	copy(h[:], b)
	return h, nil
}

// MarshalJSON renders h as a lowercase hex JSON string, the wire format
// used for "hash" and "prev_block_hash" fields.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON parses a lowercase hex JSON string into h.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := FromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

var errInvalidLength = &invalidLengthError{}

type invalidLengthError struct{}

func (*invalidLengthError) Error() string {
	return "hashutil: hex string does not decode to 32 bytes"
}

// PutUint32LE appends the little-endian encoding of v to dst and returns
// the extended slice. Every consensus-relevant integer field uses
// fixed-width little-endian byte order.
func PutUint32LE(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

// PutUint64LE appends the little-endian encoding of v to dst.
func PutUint64LE(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// PutUint128LE appends the little-endian encoding of a u128 timestamp to
// dst. Hourcoin's "u128" timestamps are TAI milliseconds since the Unix
// epoch; in practice they fit in 64 bits for millennia, so the high 8
// bytes are always zero, but the width is kept at 16 bytes for
// byte-for-byte agreement with other conforming implementations.
func PutUint128LE(dst []byte, v uint64) []byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], v)
	return append(dst, b[:]...)
}
