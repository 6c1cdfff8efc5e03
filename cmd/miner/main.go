// Command miner runs the client-side control loop: it polls a validator,
// searches for a timestamp satisfying the open tonce challenge, mines a
// block, and submits it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hourcoin/hourcoin/pkg/block"
	"github.com/hourcoin/hourcoin/pkg/logger"
	"github.com/hourcoin/hourcoin/pkg/minerclient"
)

var (
	configFile   string
	logLevel     string
	pollInterval time.Duration
	maxAttempts  uint64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "miner <miner_id> [validator_address] [reward_address]",
		Short: "miner mines Hourcoin blocks against a validator",
		Args:  cobra.RangeArgs(1, 3),
		RunE:  run,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&pollInterval, "poll-interval", time.Second, "delay between rounds")
	rootCmd.PersistentFlags().Uint64Var(&maxAttempts, "max-tonce-attempts", 1000, "timestamp candidates tried per round")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	minerID := args[0]
	validatorAddr := "127.0.0.1:8080"
	if len(args) > 1 {
		validatorAddr = args[1]
	}
	rewardAddr := block.Address(minerID)
	if len(args) > 2 {
		rewardAddr = block.Address(args[2])
	}

	log, err := logger.New(logger.Config{Level: logLevel, JSON: viper.GetBool("log.json")})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	client, err := minerclient.Dial(validatorAddr)
	if err != nil {
		return fmt.Errorf("failed to connect to validator at %s: %w", validatorAddr, err)
	}
	defer client.Close()

	cfg := minerclient.DefaultConfig(minerID, rewardAddr)
	cfg.PollInterval = pollInterval
	cfg.MaxTonceAttempts = maxAttempts

	m := minerclient.New(client, cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down miner")
		cancel()
	}()

	log.Infow("miner starting", "miner_id", minerID, "validator", validatorAddr, "reward_address", rewardAddr)
	if err := m.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("miner loop exited: %w", err)
	}
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
