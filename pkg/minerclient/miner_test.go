package minerclient

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hourcoin/hourcoin/pkg/block"
	"github.com/hourcoin/hourcoin/pkg/chain"
	"github.com/hourcoin/hourcoin/pkg/mempool"
	"github.com/hourcoin/hourcoin/pkg/validator"
	"github.com/hourcoin/hourcoin/pkg/wire"
)

func easyDifficulty() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 128)
	return max.Sub(max, big.NewInt(1))
}

func startTestServer(t *testing.T) (*wire.Server, *mempool.Mempool) {
	t.Helper()
	c := chain.New(easyDifficulty())
	_, err := chain.MineAndAdmitGenesis(c, 1_000_000, []block.Output{{To: "genesis", Value: 2.0, Timestamp: 1_000_000}}, easyDifficulty())
	require.NoError(t, err)
	v := validator.New(c)
	mp := mempool.New()
	srv, err := wire.NewServer("127.0.0.1:0", v, mp, nil)
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })
	return srv, mp
}

func TestMinerRunOnceMinesAndSubmitsAcceptedBlock(t *testing.T) {
	srv, mp := startTestServer(t)

	feeTx := block.Transaction{
		Inputs:  []block.Output{{To: "genesis", Value: 2.0, Timestamp: 1_000_000}},
		Outputs: []block.Output{{To: "payee", Value: 1.5, Timestamp: 1_000_001}},
	}
	mp.Add(feeTx)

	client, err := Dial(srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	info, err := client.GetBlockchainInfo()
	require.NoError(t, err)
	require.Equal(t, 1, info.Height)

	cfg := DefaultConfig("miner-a", "miner-a-addr")
	cfg.MaxTonceAttempts = 50_000
	m := New(client, cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.runOnce(ctx))

	info, err = client.GetBlockchainInfo()
	require.NoError(t, err)
	require.Equal(t, 2, info.Height)
	require.Equal(t, 0, mp.Len())
}
