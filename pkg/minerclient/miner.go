package minerclient

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/hourcoin/hourcoin/pkg/block"
	"github.com/hourcoin/hourcoin/pkg/tai"
	"github.com/hourcoin/hourcoin/pkg/tonce"
	"github.com/hourcoin/hourcoin/pkg/validator"
	"github.com/hourcoin/hourcoin/pkg/wire"
)

// Config controls a miner's behavior.
type Config struct {
	MinerID       string
	RewardAddress block.Address
	// MaxTonceAttempts bounds how many candidate timestamps a miner tries
	// per round before giving up and re-polling.
	MaxTonceAttempts uint64
	// PollInterval is how long to wait between rounds when locked out or
	// between retries after a rejection that isn't fatal.
	PollInterval time.Duration
}

// DefaultConfig returns sane defaults: a thousand timestamp attempts per
// round and a one-second poll interval between rounds.
func DefaultConfig(minerID string, reward block.Address) Config {
	return Config{
		MinerID:          minerID,
		RewardAddress:    reward,
		MaxTonceAttempts: 1000,
		PollInterval:     time.Second,
	}
}

// Miner drives the client-side control loop: poll chain state, respect
// lockout, search for a valid timestamp, mine, and submit.
type Miner struct {
	client *Client
	cfg    Config
	log    *zap.SugaredLogger
}

// New wraps an already-dialed Client with a Config.
func New(c *Client, cfg Config, log *zap.SugaredLogger) *Miner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Miner{client: c, cfg: cfg, log: log}
}

// Run executes rounds until ctx is canceled. Each iteration is one
// attempt: check lockout, fetch the round, search for a valid timestamp,
// mine, submit, then sleep according to the outcome.
func (m *Miner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := m.runOnce(ctx); err != nil {
			m.log.Warnw("mining round failed", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.PollInterval):
		}
	}
}

func (m *Miner) runOnce(ctx context.Context) error {
	lockout, err := m.client.CheckLockout(m.cfg.MinerID)
	if err != nil {
		return fmt.Errorf("minerclient: check lockout: %w", err)
	}
	if lockout.Locked {
		m.log.Infow("locked out, waiting", "seconds_remaining", lockout.SecondsRemaining)
		wait := time.Duration(lockout.SecondsRemaining) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		return nil
	}

	round, err := m.client.GetRoundInfo()
	if err != nil {
		return fmt.Errorf("minerclient: get round info: %w", err)
	}

	now := uint64(tai.NowTAIMs())
	ts, found := tonce.FindValidTimestamp(round.Tonce, now, m.cfg.MaxTonceAttempts)
	if !found {
		m.log.Debugw("no valid timestamp found this attempt, retrying", "tonce", round.Tonce)
		return nil
	}

	difficulty, ok := new(big.Int).SetString(round.Difficulty, 16)
	if !ok {
		return fmt.Errorf("minerclient: malformed difficulty %q", round.Difficulty)
	}

	pending, err := m.client.GetPendingTransactions()
	if err != nil {
		return fmt.Errorf("minerclient: get pending transactions: %w", err)
	}

	fees := 0.0
	for _, tx := range pending.Transactions {
		fees += block.SumOutputs(tx.Inputs) - block.SumOutputs(tx.Outputs)
	}

	txs := make([]block.Transaction, 0, len(pending.Transactions)+1)
	txs = append(txs, block.Transaction{
		Outputs: []block.Output{{To: m.cfg.RewardAddress, Value: block.CoinbaseReward + fees, Timestamp: ts}},
	})
	txs = append(txs, pending.Transactions...)

	b := &block.Block{
		Index:         round.ExpectedIndex,
		Timestamp:     ts,
		PrevBlockHash: round.PrevBlockHash,
		Transactions:  txs,
	}
	b.Mine(difficulty)

	result, err := m.client.SubmitBlock(m.cfg.MinerID, wire.SubmitBlockRequest{MinerID: m.cfg.MinerID, Block: *b})
	if err != nil {
		return fmt.Errorf("minerclient: submit block: %w", err)
	}

	if result.Result == string(validator.Accepted) {
		m.log.Infow("block accepted", "index", b.Index, "hash", b.Hash.String())
	} else {
		m.log.Infow("block rejected", "result", result.Result, "message", result.Message)
	}
	return nil
}
