// Package validator implements the state machine that owns the canonical
// chain and arbitrates mining rounds: the tonce challenge, the per-round
// attempt set, and the lockout registry.
package validator

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hourcoin/hourcoin/pkg/block"
	"github.com/hourcoin/hourcoin/pkg/chain"
	"github.com/hourcoin/hourcoin/pkg/hashutil"
	"github.com/hourcoin/hourcoin/pkg/tai"
	"github.com/hourcoin/hourcoin/pkg/tonce"
)

// MaxTimestampSkewMs bounds how far a candidate block timestamp may drift
// from the validator's own clock.
const MaxTimestampSkewMs = 500

// Metrics receives admission-decision counters. Implementations are
// expected to be safe for concurrent use; a nil Metrics is treated as a
// no-op. pkg/metrics provides a Prometheus-backed implementation.
type Metrics interface {
	ObserveSubmission(kind Kind)
	SetActiveLockouts(n int)
	SetChainHeight(n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSubmission(Kind) {}
func (noopMetrics) SetActiveLockouts(int)  {}
func (noopMetrics) SetChainHeight(int)     {}

// Validator owns the blockchain, the current round, the per-miner attempt
// set for that round, and the lockout registry. All mutation happens
// under mu: I/O (socket read/write) happens outside the lock in
// pkg/wire/server, and only ValidateBlockSubmission / StartNewRound /
// snapshots below take it.
type Validator struct {
	mu            sync.Mutex
	chain         *chain.Chain
	clock         tai.Clock
	current       *Round
	roundAttempts map[string]struct{}
	lockouts      map[string]MinerSession
	log           *zap.SugaredLogger
	metrics       Metrics
}

// Option configures a Validator at construction time.
type Option func(*Validator)

// WithClock overrides the TAI clock source, used by tests to drive
// lockout and window scenarios with virtual time.
func WithClock(c tai.Clock) Option {
	return func(v *Validator) { v.clock = c }
}

// WithLogger attaches a zap sugared logger for per-decision structured
// logging.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(v *Validator) { v.log = l }
}

// WithMetrics attaches a Metrics sink.
func WithMetrics(m Metrics) Option {
	return func(v *Validator) {
		if m == nil {
			m = noopMetrics{}
		}
		v.metrics = m
	}
}

// New creates a Validator over an already-constructed chain (genesis must
// already be admitted) and opens the first round.
func New(c *chain.Chain, opts ...Option) *Validator {
	v := &Validator{
		chain:         c,
		clock:         tai.SystemClock{},
		roundAttempts: make(map[string]struct{}),
		lockouts:      make(map[string]MinerSession),
		log:           zap.NewNop().Sugar(),
		metrics:       noopMetrics{},
	}
	for _, opt := range opts {
		opt(v)
	}
	v.startNewRoundLocked()
	return v
}

// Chain exposes the underlying chain for read-only queries (GetRoundInfo,
// GetBlockchainInfo handlers in pkg/wire).
func (v *Validator) Chain() *chain.Chain {
	return v.chain
}

// CurrentRound returns a copy of the round currently open.
func (v *Validator) CurrentRound() Round {
	v.mu.Lock()
	defer v.mu.Unlock()
	return *v.current
}

// RoundStats reports the miner IDs that have already attempted the current
// round and the number of miners currently serving an active lockout, for
// a miner deciding whether it's worth trying this round.
func (v *Validator) RoundStats() (attemptedMiners []string, activeLockouts int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	attemptedMiners = make([]string, 0, len(v.roundAttempts))
	for id := range v.roundAttempts {
		attemptedMiners = append(attemptedMiners, id)
	}
	now := uint64(v.clock.NowTAIMs())
	for _, session := range v.lockouts {
		if session.Active && !session.expired(now) {
			activeLockouts++
		}
	}
	return attemptedMiners, activeLockouts
}

// LockoutStatus reports whether minerID is currently locked out and, if
// so, how many seconds remain.
func (v *Validator) LockoutStatus(minerID string) (locked bool, secondsRemaining uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := uint64(v.clock.NowTAIMs())
	session, ok := v.lockouts[minerID]
	if !ok || !session.Active || session.expired(now) {
		return false, 0
	}
	return true, session.secondsRemaining(now)
}

// StartNewRound opens a fresh round: a new tonce challenge derived from
// the chain tip, a cleared attempt set, and lazily reaped expired
// lockouts.
func (v *Validator) StartNewRound() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.startNewRoundLocked()
}

func (v *Validator) startNewRoundLocked() {
	now := uint64(v.clock.NowTAIMs())

	var prevHash hashutil.Hash
	var prevTimestamp uint64
	expectedIndex := uint32(0)
	if last := v.chain.Last(); last != nil {
		prevHash = last.Hash
		prevTimestamp = last.Timestamp
		expectedIndex = uint32(v.chain.Len())
	}

	v.current = &Round{
		Challenge:     tonce.New(prevTimestamp, now),
		PrevBlockHash: prevHash,
		ExpectedIndex: expectedIndex,
	}
	v.roundAttempts = make(map[string]struct{})

	active := 0
	for id, session := range v.lockouts {
		if session.expired(now) {
			delete(v.lockouts, id)
			continue
		}
		active++
	}
	v.metrics.SetActiveLockouts(active)
	v.metrics.SetChainHeight(v.chain.Len())
}

// ValidateBlockSubmission runs the full admission pipeline against b on
// behalf of minerID, mutating round/lockout state as it goes, and returns
// the distinct Result the wire layer reports back to the miner.
func (v *Validator) ValidateBlockSubmission(b *block.Block, minerID string) Result {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := uint64(v.clock.NowTAIMs())

	if session, ok := v.lockouts[minerID]; ok && session.Active && !session.expired(now) {
		result := rejectedLockout(session.secondsRemaining(now))
		v.record(minerID, result)
		return result
	}

	if _, attempted := v.roundAttempts[minerID]; attempted {
		result := rejected(RejectedAlreadyAttempted, "miner already attempted this round")
		v.record(minerID, result)
		return result
	}
	// One attempt per miner per round is the tie-break rule, recorded
	// regardless of the eventual outcome.
	v.roundAttempts[minerID] = struct{}{}

	if b.Timestamp > now+MaxTimestampSkewMs || b.Timestamp+MaxTimestampSkewMs < now {
		result := rejected(RejectedInvalidTimestamp, "timestamp too far from validator clock")
		v.record(minerID, result)
		return result
	}

	if !v.current.Challenge.ValidateTimestamp(b.Timestamp, now) {
		result := rejected(RejectedTonceChallenge, "timestamp fails tonce divisibility check")
		v.record(minerID, result)
		return result
	}

	if err := v.chain.UpdateWithBlock(b); err != nil {
		result := mapAdmissionError(err)
		v.record(minerID, result)
		return result
	}

	v.lockouts[minerID] = newMinerSession(minerID, now)
	v.startNewRoundLocked()

	result := accepted()
	v.record(minerID, result)
	return result
}

func (v *Validator) record(minerID string, r Result) {
	v.metrics.ObserveSubmission(r.Kind)
	v.log.Infow("block submission",
		"miner_id", minerID,
		"round_index", v.current.ExpectedIndex,
		"result", r.Kind,
		"message", r.Message,
	)
}

func mapAdmissionError(err error) Result {
	var admErr *chain.AdmissionError
	if !asAdmissionError(err, &admErr) {
		return rejected(RejectedMalformedBlock, err.Error())
	}
	switch admErr.Reason {
	case chain.ReasonIndexMismatch:
		return rejected(RejectedIndexMismatch, admErr.Error())
	case chain.ReasonDifficultyNotMet:
		return rejected(RejectedDifficultyNotMet, admErr.Error())
	case chain.ReasonPrevHashMismatch:
		return rejected(RejectedPrevHashMismatch, admErr.Error())
	case chain.ReasonTimestampNotGreater:
		return rejected(RejectedTimestampOrder, admErr.Error())
	case chain.ReasonHashMismatch:
		return rejected(RejectedHashMismatch, admErr.Error())
	case chain.ReasonEmptyTransactions, chain.ReasonFirstTxNotCoinbase:
		return rejected(RejectedMalformedBlock, admErr.Error())
	default:
		return rejected(RejectedUTXORules, admErr.Error())
	}
}

func asAdmissionError(err error, target **chain.AdmissionError) bool {
	ae, ok := err.(*chain.AdmissionError)
	if ok {
		*target = ae
	}
	return ok
}
