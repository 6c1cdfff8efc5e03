package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/hourcoin/hourcoin/pkg/hashutil"
	"github.com/hourcoin/hourcoin/pkg/mempool"
	"github.com/hourcoin/hourcoin/pkg/tai"
	"github.com/hourcoin/hourcoin/pkg/validator"
)

// Server accepts miner connections and dispatches each framed request to
// the Validator, one goroutine per connection. The Validator's own mutex
// is the single exclusive lock serializing all state mutation; the
// server performs no locking of its own.
type Server struct {
	listener  net.Listener
	validator *validator.Validator
	mempool   *mempool.Mempool
	clock     tai.Clock
	log       *zap.SugaredLogger
}

// NewServer binds addr and returns a Server ready to Serve. mp may be nil,
// in which case the server creates a fresh, empty mempool of its own.
func NewServer(addr string, v *validator.Validator, mp *mempool.Mempool, log *zap.SugaredLogger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("wire: listen on %s: %w", addr, err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if mp == nil {
		mp = mempool.New()
	}
	return &Server{listener: ln, validator: v, mempool: mp, clock: tai.SystemClock{}, log: log}, nil
}

// errProtocolViolation marks a dispatch failure that already sent an Error
// envelope to the peer (unknown message type, malformed payload). handleConn
// treats it as a signal to close the connection rather than keep serving it,
// distinct from an ordinary Rejected* validation outcome, which stays open.
var errProtocolViolation = errors.New("wire: protocol violation")

// writeProtocolError sends an Error envelope carrying msg and, on success,
// returns errProtocolViolation so the caller's connection gets torn down.
func writeProtocolError(conn net.Conn, msg string) error {
	if err := WriteEnvelope(conn, TypeError, ErrorResponse{Message: msg}); err != nil {
		return err
	}
	return errProtocolViolation
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Serve accepts connections until the listener is closed, handling each
// on its own goroutine. It returns nil when the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("wire: accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	for {
		env, err := ReadEnvelope(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debugw("connection closed", "remote", remote, "error", err.Error())
			}
			return
		}
		if err := s.dispatch(conn, env); err != nil {
			if errors.Is(err, errProtocolViolation) {
				s.log.Debugw("closing connection after protocol error", "remote", remote, "type", env.Type)
			} else {
				s.log.Warnw("dispatch failed", "remote", remote, "type", env.Type, "error", err.Error())
			}
			return
		}
	}
}

func (s *Server) dispatch(conn net.Conn, env Envelope) error {
	switch env.Type {
	case TypeGetRoundInfo:
		return s.handleGetRoundInfo(conn)
	case TypeSubmitBlock:
		return s.handleSubmitBlock(conn, env)
	case TypeCheckLockout:
		return s.handleCheckLockout(conn, env)
	case TypeGetBlockchainInfo:
		return s.handleGetBlockchainInfo(conn)
	case TypeSubmitTransaction:
		return s.handleSubmitTransaction(conn, env)
	case TypeGetPendingTransactions:
		return s.handleGetPendingTransactions(conn)
	default:
		return writeProtocolError(conn, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func (s *Server) handleGetRoundInfo(conn net.Conn) error {
	round := s.validator.CurrentRound()
	now := uint64(s.clock.NowTAIMs())
	attemptedMiners, activeLockouts := s.validator.RoundStats()
	resp := RoundInfoResponse{
		ExpectedIndex:   round.ExpectedIndex,
		PrevBlockHash:   round.PrevBlockHash,
		Tonce:           round.Challenge.EffectiveTonce(now),
		WindowStartMs:   round.Challenge.StartedAt,
		WindowEndMs:     round.Challenge.StartedAt + roundWindowMs,
		Difficulty:      fmt.Sprintf("%032x", s.validator.Chain().Difficulty()),
		AttemptedMiners: attemptedMiners,
		ActiveLockouts:  activeLockouts,
	}
	return WriteEnvelope(conn, TypeRoundInfo, resp)
}

const roundWindowMs = 60_000 // mirrors tonce.WindowMs; duplicated to avoid importing tonce just for a constant

func (s *Server) handleSubmitBlock(conn net.Conn, env Envelope) error {
	var req SubmitBlockRequest
	if err := unmarshalPayload(env, &req); err != nil {
		return writeProtocolError(conn, err.Error())
	}
	result := s.validator.ValidateBlockSubmission(&req.Block, req.MinerID)
	if result.Kind == validator.Accepted {
		s.mempool.RemoveAppliedIn(&req.Block)
	}
	resp := BlockResultResponse{
		Result:  string(result.Kind),
		Message: result.Message,
	}
	return WriteEnvelope(conn, TypeBlockResult, resp)
}

func (s *Server) handleSubmitTransaction(conn net.Conn, env Envelope) error {
	var req SubmitTransactionRequest
	if err := unmarshalPayload(env, &req); err != nil {
		return writeProtocolError(conn, err.Error())
	}
	accepted := s.mempool.Add(req.Transaction)
	return WriteEnvelope(conn, TypeTransactionAccepted, TransactionAcceptedResponse{Accepted: accepted})
}

func (s *Server) handleGetPendingTransactions(conn net.Conn) error {
	return WriteEnvelope(conn, TypePendingTransactions, PendingTransactionsResponse{
		Transactions: s.mempool.Pending(),
	})
}

func (s *Server) handleCheckLockout(conn net.Conn, env Envelope) error {
	var req CheckLockoutRequest
	if err := unmarshalPayload(env, &req); err != nil {
		return writeProtocolError(conn, err.Error())
	}
	locked, remaining := s.validator.LockoutStatus(req.MinerID)
	return WriteEnvelope(conn, TypeLockoutStatus, LockoutStatusResponse{
		Locked:           locked,
		SecondsRemaining: remaining,
	})
}

func (s *Server) handleGetBlockchainInfo(conn net.Conn) error {
	c := s.validator.Chain()
	last := c.Last()
	var tipHash hashutil.Hash
	var tipTimestamp uint64
	if last != nil {
		tipHash = last.Hash
		tipTimestamp = last.Timestamp
	}
	resp := BlockchainInfoResponse{
		Height:       c.Len(),
		TipHash:      tipHash,
		TipTimestamp: tipTimestamp,
		Difficulty:   fmt.Sprintf("%032x", c.Difficulty()),
	}
	return WriteEnvelope(conn, TypeBlockchainInfo, resp)
}

func unmarshalPayload(env Envelope, v interface{}) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("wire: malformed payload for %s: %w", env.Type, err)
	}
	return nil
}
