// Package tonce implements the "time-only-used-once" challenge that
// constrains which block timestamps a miner may legally propose during the
// 60-second post-block window.
package tonce

import (
	"math/big"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hourcoin/hourcoin/pkg/hashutil"
)

// divisorCacheSize bounds memoized (candidate, tonce) divisibility checks.
// Challenge.ValidateTimestamp consults this cache; FindValidTimestamp
// computes each candidate directly and does not use it.
const divisorCacheSize = 8192

var divisorCache, _ = lru.New[divisorCacheKey, bool](divisorCacheSize)

type divisorCacheKey struct {
	candidate uint64
	tonce     uint8
}

// WindowMs is the length of the challenge window in milliseconds. While
// active, candidate timestamps must satisfy the divisibility predicate;
// once expired the effective tonce is 1 and any candidate passes.
const WindowMs = 60_000

// Challenge is the round's tonce parameters: the previous block's
// timestamp it was derived from, the TAI instant the challenge started,
// and the derived divisor.
type Challenge struct {
	PrevTimestamp uint64
	StartedAt     uint64
	Tonce         uint8
}

// New derives a Challenge from prevTimestamp, snapshotting startedAt as
// the construction-time TAI instant.
func New(prevTimestamp, startedAt uint64) Challenge {
	return Challenge{
		PrevTimestamp: prevTimestamp,
		StartedAt:     startedAt,
		Tonce:         deriveTonce(prevTimestamp),
	}
}

// deriveTonce computes tonce = SHA256(prevTimestamp LE)[31] & 0x1F, mapping
// a result of 0 to 1 so the divisor always lies in 1..=31.
func deriveTonce(prevTimestamp uint64) uint8 {
	h := hashutil.Sum(hashutil.PutUint128LE(nil, prevTimestamp))
	raw := h[31] & 0x1F
	if raw == 0 {
		return 1
	}
	return raw
}

// Active reports whether the challenge window is still open at now.
func (c Challenge) Active(now uint64) bool {
	return now-c.StartedAt < WindowMs
}

// EffectiveTonce returns c.Tonce while the window is active, or 1 (the
// trivial divisor, which every candidate passes) once it has expired.
func (c Challenge) EffectiveTonce(now uint64) uint8 {
	if c.Active(now) {
		return c.Tonce
	}
	return 1
}

// ValidateTimestamp reports whether candidate is a legal block timestamp
// under this challenge at now: true if the window has expired, or if
// SHA256(candidate LE) interpreted as a big-endian u128 is divisible by
// the active tonce.
func (c Challenge) ValidateTimestamp(candidate, now uint64) bool {
	tonce := c.EffectiveTonce(now)
	if tonce == 1 {
		return true
	}
	return satisfiesDivisor(candidate, tonce)
}

func satisfiesDivisor(candidate uint64, tonce uint8) bool {
	key := divisorCacheKey{candidate: candidate, tonce: tonce}
	if v, ok := divisorCache.Get(key); ok {
		return v
	}
	h := hashutil.Sum(hashutil.PutUint128LE(nil, candidate))
	rem := new(big.Int).Mod(h.BigEndianUint128(), big.NewInt(int64(tonce)))
	result := rem.Sign() == 0
	divisorCache.Add(key, result)
	return result
}
