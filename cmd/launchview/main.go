package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/app"
	"github.com/rovshanmuradov/launchpad/internal/client"
	"github.com/rovshanmuradov/launchpad/internal/config"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/ui"
	"github.com/rovshanmuradov/launchpad/internal/ui/screen"
	"github.com/rovshanmuradov/launchpad/internal/utils/logger"
)

// logBufferSize is how many log entries the viewer keeps.
const logBufferSize = 200

// demoSupply is the initial token reserve of the localnet demo launch.
const demoSupply uint64 = 1_000_000_000_000_000

type options struct {
	configPath string
	cluster    string
	mint       string
	demo       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to config file (JSON or YAML)")
	flag.StringVar(&opts.cluster, "cluster", "", "Cluster override: localnet, devnet or mainnet")
	flag.StringVar(&opts.mint, "mint", "", "Mint of the launch to watch (required on remote clusters)")
	flag.BoolVar(&opts.demo, "demo", true, "On localnet, trade against the launch in the background")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("launchview: %v", err)
	}
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.cluster != "" {
		cfg.SetCluster(opts.cluster)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	// The terminal belongs to the viewer; logs go to the file and the pane.
	cfg.Log.Quiet = true

	buf := logger.NewBuffer(logBufferSize)
	a, err := app.New(cfg, app.WithLoggerOptions(logger.WithBuffer(buf)))
	if err != nil {
		return err
	}
	defer a.Close()

	updates := ui.NewUpdateSender(64, a.Logger.Named("ui"))
	defer updates.Close()

	mint, err := watchedMint(ctx, a, opts, updates)
	if err != nil {
		return err
	}
	a.Logger.Info("Starting launchview",
		zap.String("cluster", cfg.Cluster),
		zap.String("mint", mint.String()))

	feed := ui.NewFeed(a.Client, a.Reader, mint)
	supervisor := ui.NewSupervisor(a.Logger.Named("ui"), func() tea.Model {
		return screen.NewLaunchScreen(ctx, feed, cfg.Refresh(), buf)
	}, updates, ui.DefaultSupervisorOptions(), tea.WithAltScreen())
	return supervisor.Run(ctx)
}

// watchedMint resolves the launch to show. Localnet starts empty, so a demo
// launch is created there and optionally traded against.
func watchedMint(ctx context.Context, a *app.App, opts options, updates *ui.UpdateSender) (solana.PublicKey, error) {
	if !a.Config.Local() {
		if opts.mint == "" {
			return solana.PublicKey{}, fmt.Errorf("-mint is required on %s", a.Config.Cluster)
		}
		return solana.PublicKeyFromBase58(opts.mint)
	}
	if opts.mint != "" {
		return solana.PublicKey{}, errors.New("-mint cannot be used on localnet: its launches live inside one process")
	}

	created, err := a.Client.CreateLaunch(ctx, client.CreateLaunchParams{
		FeeRateBps:          100,
		InitialTokenReserve: demoSupply,
		Metadata:            &launch.TokenMetadata{Name: "Demo Launch", Symbol: "DEMO", URI: "https://example.com/demo.json"},
	}, a.Mints(), a.Issuer())
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("create demo launch: %w", err)
	}
	mint := created.Addresses.Mint

	if opts.demo {
		trader := newDemoTrader(a.Client, a.Engine(), a.Wallet().PublicKey, mint, a.Config.SlippageBps, a.Logger.Logger)
		go trader.Run(ctx, a.Config.Refresh(), func(m ui.TradeMsg) { updates.SendUpdate(m) })
	}
	return mint, nil
}
