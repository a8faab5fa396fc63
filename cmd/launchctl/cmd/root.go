// ==============================
// File: cmd/launchctl/cmd/root.go
// ==============================
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad/internal/app"
	"github.com/rovshanmuradov/launchpad/internal/config"
)

var (
	application *app.App
	cancel      context.CancelFunc

	configPath  string
	clusterFlag string
	rpcURLFlag  string
	walletFlag  string
	metricsAddr string
	debug       bool
	slippageBps uint16

	rootCmd = &cobra.Command{
		Use:          "launchctl",
		Short:        "Bonding-curve launchpad client",
		SilenceUsage: true,
	}
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.AddCommand(
		createCmd,
		buyCmd,
		sellCmd,
		quoteCmd,
		showCmd,
		historyCmd,
		exportCmd,
		indexCmd,
		simulateCmd,
		balanceCmd,
	)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to config file (JSON or YAML)")
	flags.StringVar(&clusterFlag, "cluster", "", "cluster: localnet, devnet or mainnet")
	flags.StringVar(&rpcURLFlag, "rpc-url", "", "RPC endpoint, overrides the cluster preset")
	flags.StringVar(&walletFlag, "wallet", "", "keypair file (base58 or JSON byte array)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	flags.BoolVar(&debug, "debug", false, "debug logging")
	flags.Uint16Var(&slippageBps, "slippage-bps", 0, "slippage tolerance, 0 uses the configured default")

	rootCmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		application, err = app.New(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
		cancel = stop
		c.SetContext(ctx)

		addr := metricsAddr
		if addr == "" {
			addr = cfg.MetricsAddr
		}
		if addr != "" {
			application.ServeMetrics(ctx, addr)
		}
		return nil
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if clusterFlag != "" {
		cfg.SetCluster(clusterFlag)
	}
	if rpcURLFlag != "" {
		cfg.RPCURL = rpcURLFlag
	}
	if walletFlag != "" {
		cfg.Wallet = walletFlag
	}
	if debug {
		cfg.Log.Development = true
	}
	return cfg, cfg.Validate()
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.ExecuteContext(context.Background())
	if cancel != nil {
		cancel()
	}
	if application != nil {
		if cerr := application.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
