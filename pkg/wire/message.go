// Package wire implements the length-prefixed JSON protocol miners speak to
// the validator: a uint32 big-endian byte-length prefix
// followed by a JSON-encoded Envelope holding a "type" tag and the
// message's "payload". Messages are not keyed by their variant name.
package wire

import (
	"encoding/json"

	"github.com/hourcoin/hourcoin/pkg/block"
	"github.com/hourcoin/hourcoin/pkg/hashutil"
)

// MaxMessageBytes bounds a single framed message, guarding the validator
// against a malicious or buggy peer claiming an unbounded length prefix.
const MaxMessageBytes = 1 << 20 // 1 MiB

// Type tags an Envelope's payload so the receiver can dispatch on it
// without attempting every concrete type in turn.
type Type string

const (
	TypeGetRoundInfo           Type = "get_round_info"
	TypeSubmitBlock            Type = "submit_block"
	TypeCheckLockout           Type = "check_lockout"
	TypeGetBlockchainInfo      Type = "get_blockchain_info"
	TypeSubmitTransaction      Type = "submit_transaction"
	TypeGetPendingTransactions Type = "get_pending_transactions"

	TypeRoundInfo           Type = "round_info"
	TypeBlockResult         Type = "block_result"
	TypeLockoutStatus       Type = "lockout_status"
	TypeBlockchainInfo      Type = "blockchain_info"
	TypeTransactionAccepted Type = "transaction_accepted"
	TypePendingTransactions Type = "pending_transactions"
	TypeError               Type = "error"
)

// Envelope is the outer shape of every framed message: a type tag plus a
// raw payload the caller re-unmarshals into the concrete type matching
// Type.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubmitBlockRequest carries a mined candidate block and the miner's
// self-reported identity for lockout bookkeeping.
type SubmitBlockRequest struct {
	MinerID string      `json:"miner_id"`
	Block   block.Block `json:"block"`
}

// CheckLockoutRequest asks whether a given miner is currently locked out.
type CheckLockoutRequest struct {
	MinerID string `json:"miner_id"`
}

// RoundInfoResponse describes the mining round currently open.
type RoundInfoResponse struct {
	ExpectedIndex   uint32        `json:"expected_index"`
	PrevBlockHash   hashutil.Hash `json:"prev_block_hash"`
	Tonce           uint8         `json:"tonce"`
	WindowStartMs   uint64        `json:"window_start_ms"`
	WindowEndMs     uint64        `json:"window_end_ms"`
	Difficulty      string        `json:"difficulty"`
	AttemptedMiners []string      `json:"attempted_miners"`
	ActiveLockouts  int           `json:"active_lockouts"`
}

// BlockResultResponse reports the outcome of a SubmitBlockRequest: Result
// is "Accepted" or one of the Rejected* reason strings a miner can match
// on, with Message carrying free-form detail. A miner wanting the exact
// lockout countdown after a RejectedMinerInLockout result should follow up
// with CheckLockout.
type BlockResultResponse struct {
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
}

// LockoutStatusResponse reports a miner's current lockout state.
type LockoutStatusResponse struct {
	Locked           bool   `json:"locked"`
	SecondsRemaining uint64 `json:"seconds_remaining,omitempty"`
}

// BlockchainInfoResponse summarizes chain tip state for a miner deciding
// what to build on top of.
type BlockchainInfoResponse struct {
	Height       int           `json:"height"`
	TipHash      hashutil.Hash `json:"tip_hash"`
	TipTimestamp uint64        `json:"tip_timestamp"`
	Difficulty   string        `json:"difficulty"`
}

// ErrorResponse carries a protocol-level failure unrelated to block
// admission (malformed envelope, unknown type, oversized message).
type ErrorResponse struct {
	Message string `json:"message"`
}

// SubmitTransactionRequest stages a fee-bearing transaction in the
// validator's mempool for a miner to include in a future block.
type SubmitTransactionRequest struct {
	Transaction block.Transaction `json:"transaction"`
}

// TransactionAcceptedResponse reports whether a staged transaction was
// admitted into the mempool.
type TransactionAcceptedResponse struct {
	Accepted bool `json:"accepted"`
}

// PendingTransactionsResponse lists every transaction currently staged in
// the mempool, for a miner building a block with fees.
type PendingTransactionsResponse struct {
	Transactions []block.Transaction `json:"transactions"`
}
