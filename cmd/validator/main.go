// Command validator runs the single authoritative Hourcoin validator: it
// owns the canonical chain, arbitrates mining rounds, and serves miners
// over the length-prefixed JSON protocol in pkg/wire.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hourcoin/hourcoin/pkg/block"
	"github.com/hourcoin/hourcoin/pkg/chain"
	"github.com/hourcoin/hourcoin/pkg/logger"
	"github.com/hourcoin/hourcoin/pkg/mempool"
	"github.com/hourcoin/hourcoin/pkg/metrics"
	"github.com/hourcoin/hourcoin/pkg/tai"
	"github.com/hourcoin/hourcoin/pkg/validator"
	"github.com/hourcoin/hourcoin/pkg/wire"
)

// defaultDifficultyHex is the default 128-bit ceiling: a block hash passes
// only if the first byte of its big-endian u128 reading is zero.
const defaultDifficultyHex = "00FFFFFFFFFFFFFFFFFFFFFFFFFFFFFF"

var (
	configFile     string
	metricsAddr    string
	logLevel       string
	genesisAddress string
	genesisAmount  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "validator [address] [difficulty_hex]",
		Short: "validator runs the Hourcoin authoritative validator",
		Args:  cobra.MaximumNArgs(2),
		RunE:  run,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "127.0.0.1:9090", "address to serve /metrics on")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&genesisAddress, "genesis-address", "genesis", "address receiving the genesis coinbase")
	rootCmd.PersistentFlags().Float64Var(&genesisAmount, "genesis-amount", block.CoinbaseReward, "genesis coinbase amount")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	addr := "127.0.0.1:8080"
	if len(args) > 0 {
		addr = args[0]
	}
	difficultyHex := defaultDifficultyHex
	if len(args) > 1 {
		difficultyHex = args[1]
	}
	difficulty, ok := new(big.Int).SetString(difficultyHex, 16)
	if !ok {
		return fmt.Errorf("malformed difficulty hex %q", difficultyHex)
	}

	log, err := logger.New(logger.Config{Level: logLevel, JSON: viper.GetBool("log.json")})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	c := chain.New(difficulty)
	now := uint64(tai.NowTAIMs())
	genesisOuts := []block.Output{{To: block.Address(genesisAddress), Value: genesisAmount, Timestamp: now}}
	if _, err := chain.MineAndAdmitGenesis(c, now, genesisOuts, difficulty); err != nil {
		return fmt.Errorf("failed to mine genesis block: %w", err)
	}
	log.Infow("genesis block admitted", "address", genesisAddress, "amount", genesisAmount)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	v := validator.New(c, validator.WithLogger(log), validator.WithMetrics(collector))
	mp := mempool.New()

	server, err := wire.NewServer(addr, v, mp, log)
	if err != nil {
		return fmt.Errorf("failed to start validator server: %w", err)
	}
	log.Infow("validator listening", "addr", server.Addr().String())

	metricsServer := metrics.NewServer(metricsAddr, registry)
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil {
			log.Warnw("metrics server stopped", "error", err.Error())
		}
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("shutting down validator")
	case err := <-serveErr:
		if err != nil {
			log.Errorw("validator server failed", "error", err.Error())
		}
	}

	if err := server.Close(); err != nil {
		log.Warnw("error closing validator server", "error", err.Error())
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Warnw("error closing metrics server", "error", err.Error())
	}

	log.Info("validator stopped")
	return nil
}

func loadConfig() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}
