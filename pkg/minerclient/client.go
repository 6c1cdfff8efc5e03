// Package minerclient implements the miner side of the wire protocol: a
// thin RPC client over the length-prefixed JSON connection, and a control
// loop that repeatedly queries the validator, searches for a timestamp
// satisfying the open tonce challenge, mines a block, and submits it.
package minerclient

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/hourcoin/hourcoin/pkg/wire"
)

func unmarshal(env wire.Envelope, v interface{}) error {
	return json.Unmarshal(env.Payload, v)
}

// Client is a single persistent connection to a validator.
type Client struct {
	conn net.Conn
}

// Dial connects to a validator at addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("minerclient: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(reqType wire.Type, req interface{}, respType wire.Type, resp interface{}) error {
	if err := wire.WriteEnvelope(c.conn, reqType, req); err != nil {
		return err
	}
	env, err := wire.ReadEnvelope(c.conn)
	if err != nil {
		return err
	}
	if env.Type == wire.TypeError {
		var errResp wire.ErrorResponse
		if uerr := unmarshal(env, &errResp); uerr == nil {
			return fmt.Errorf("minerclient: validator error: %s", errResp.Message)
		}
		return fmt.Errorf("minerclient: validator returned an error response")
	}
	if env.Type != respType {
		return fmt.Errorf("minerclient: expected %s, got %s", respType, env.Type)
	}
	return unmarshal(env, resp)
}

// GetBlockchainInfo fetches the current chain tip and difficulty.
func (c *Client) GetBlockchainInfo() (wire.BlockchainInfoResponse, error) {
	var resp wire.BlockchainInfoResponse
	err := c.call(wire.TypeGetBlockchainInfo, struct{}{}, wire.TypeBlockchainInfo, &resp)
	return resp, err
}

// CheckLockout asks whether minerID is currently locked out.
func (c *Client) CheckLockout(minerID string) (wire.LockoutStatusResponse, error) {
	var resp wire.LockoutStatusResponse
	err := c.call(wire.TypeCheckLockout, wire.CheckLockoutRequest{MinerID: minerID}, wire.TypeLockoutStatus, &resp)
	return resp, err
}

// GetRoundInfo fetches the mining round currently open.
func (c *Client) GetRoundInfo() (wire.RoundInfoResponse, error) {
	var resp wire.RoundInfoResponse
	err := c.call(wire.TypeGetRoundInfo, struct{}{}, wire.TypeRoundInfo, &resp)
	return resp, err
}

// SubmitBlock submits a mined block on behalf of minerID.
func (c *Client) SubmitBlock(minerID string, req wire.SubmitBlockRequest) (wire.BlockResultResponse, error) {
	var resp wire.BlockResultResponse
	err := c.call(wire.TypeSubmitBlock, req, wire.TypeBlockResult, &resp)
	return resp, err
}

// GetPendingTransactions fetches the validator's staged fee transactions.
func (c *Client) GetPendingTransactions() (wire.PendingTransactionsResponse, error) {
	var resp wire.PendingTransactionsResponse
	err := c.call(wire.TypeGetPendingTransactions, struct{}{}, wire.TypePendingTransactions, &resp)
	return resp, err
}
