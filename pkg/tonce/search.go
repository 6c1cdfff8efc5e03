package tonce

import (
	"math/big"

	"github.com/hourcoin/hourcoin/pkg/hashutil"
)

// FindValidTimestamp is the miner-side search helper: it tries
// startTS, startTS+1, ... for up to maxAttempts offsets and returns the
// first candidate whose SHA256, read as a big-endian u128, is divisible
// by tonce. It returns (0, false) if none of the attempted offsets
// satisfy the predicate.
//
// Keeping tonce small (at most 31) bounds the expected search length so
// this is tractable even on modest hardware; callers are expected to
// retry with a fresh startTS on failure.
func FindValidTimestamp(tonce uint8, startTS uint64, maxAttempts uint64) (uint64, bool) {
	if tonce == 1 {
		return startTS, true
	}
	divisor := big.NewInt(int64(tonce))
	for i := uint64(0); i < maxAttempts; i++ {
		candidate := startTS + i
		h := hashutil.Sum(hashutil.PutUint128LE(nil, candidate))
		rem := new(big.Int).Mod(h.BigEndianUint128(), divisor)
		if rem.Sign() == 0 {
			return candidate, true
		}
	}
	return 0, false
}
