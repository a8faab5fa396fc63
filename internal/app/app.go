// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/blockchain"
	"github.com/rovshanmuradov/launchpad/internal/blockchain/solbc"
	"github.com/rovshanmuradov/launchpad/internal/client"
	"github.com/rovshanmuradov/launchpad/internal/config"
	"github.com/rovshanmuradov/launchpad/internal/eventlog"
	"github.com/rovshanmuradov/launchpad/internal/indexer"
	"github.com/rovshanmuradov/launchpad/internal/program"
	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/storage/memory"
	"github.com/rovshanmuradov/launchpad/internal/storage/migrations"
	"github.com/rovshanmuradov/launchpad/internal/storage/postgres"
	"github.com/rovshanmuradov/launchpad/internal/utils/logger"
	"github.com/rovshanmuradov/launchpad/internal/utils/metrics"
	"github.com/rovshanmuradov/launchpad/internal/wallet"
)

// LocalnetAirdrop is credited to the wallet when a localnet engine starts.
const LocalnetAirdrop uint64 = 1_000 * solana.LAMPORTS_PER_SOL

// ErrLocalnetState is returned by operations that need launches created by an
// earlier process: the localnet engine lives only as long as this one.
var ErrLocalnetState = errors.New("localnet state lives inside one process; use `launchctl simulate` or a remote cluster")

// App собирает все сервисы из конфигурации: логгер, метрики, бэкенд
// (встроенный движок или RPC), клиент протокола, читатель событий и архив.
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Collector
	Ledger  blockchain.Ledger
	Client  *client.Client
	Reader  *eventlog.Reader

	wallet *wallet.Wallet
	engine *program.Engine
	mints  *program.LocalMints

	store storage.EventStore
	pool  *postgres.Pool
}

// Option настраивает App.
type Option func(*options)

type options struct {
	loggerOpts []logger.Option
}

// WithLoggerOptions передает опции в logger.New.
func WithLoggerOptions(opts ...logger.Option) Option {
	return func(o *options) { o.loggerOpts = append(o.loggerOpts, opts...) }
}

// New creates the services for cfg. Without a wallet a remote App is
// read-only; a localnet App generates and funds one.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log, err := logger.New(&cfg.Log, o.loggerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.NewCollector(),
	}

	if cfg.Wallet != "" {
		if a.wallet, err = wallet.Load(cfg.Wallet); err != nil {
			return nil, fmt.Errorf("failed to load wallet: %w", err)
		}
	}

	var signer client.Signer
	if cfg.Local() {
		signer, err = a.initLocalnet()
	} else {
		signer = a.initRemote()
	}
	if err != nil {
		return nil, err
	}

	a.Client, err = client.NewClient(client.Config{
		ProgramID:   cfg.ProgramKey(),
		Curve:       cfg.Curve,
		SlippageBps: cfg.SlippageBps,
	}, a.Ledger, signer, log.Logger, a.Metrics)
	if err != nil {
		return nil, err
	}

	a.Reader = eventlog.NewReader(a.Ledger, cfg.ProgramKey(), eventlog.Options{
		PageSize:    cfg.Reader.PageSize,
		Concurrency: cfg.Reader.Concurrency,
	}, log.Logger, a.Metrics)

	log.Debug("Application initialized",
		zap.String("cluster", cfg.Cluster),
		zap.String("program_id", cfg.ProgramID),
		zap.Bool("read_only", signer == nil))
	return a, nil
}

func (a *App) initLocalnet() (client.Signer, error) {
	engine, err := program.NewEngine(program.Config{
		ProgramID:       a.Config.ProgramKey(),
		Curve:           a.Config.Curve,
		CreatorShareBps: a.Config.CreatorShareBps,
	}, a.Logger.Logger, a.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to start localnet engine: %w", err)
	}
	if a.wallet == nil {
		if a.wallet, err = wallet.Generate(); err != nil {
			return nil, err
		}
	}
	if err := engine.Airdrop(a.wallet.PublicKey, LocalnetAirdrop); err != nil {
		return nil, err
	}

	a.engine = engine
	a.mints = program.NewLocalMints(engine)
	a.Ledger = engine
	return program.NewLocalSigner(engine, a.wallet.PrivateKey), nil
}

func (a *App) initRemote() client.Signer {
	sc := solbc.NewClient(a.Config.RPCURL, solbc.Options{
		Commitment: rpc.CommitmentType(a.Config.Commitment),
		Retry: solbc.RetryConfig{
			MaxTries:        uint(a.Config.Retries),
			InitialInterval: a.Config.RetryDelay(),
		},
	}, a.Logger.Logger, a.Metrics)
	a.Ledger = sc

	if a.wallet == nil {
		return nil
	}
	return wallet.NewSubmitter(a.wallet, sc, a.Logger.Logger)
}

// Engine returns the localnet engine, nil on remote clusters.
func (a *App) Engine() *program.Engine {
	return a.engine
}

// Wallet returns the signing wallet, nil for a read-only App.
func (a *App) Wallet() *wallet.Wallet {
	return a.wallet
}

// Mints returns the mint allocator, nil on remote clusters where the mint
// must already exist.
func (a *App) Mints() client.MintAllocator {
	if a.mints == nil {
		return nil
	}
	return a.mints
}

// Issuer returns the metadata issuer, nil on remote clusters.
func (a *App) Issuer() client.MetadataIssuer {
	if a.mints == nil {
		return nil
	}
	return a.mints
}

// RequireSharedState fails on localnet, where launches from earlier
// invocations do not exist.
func (a *App) RequireSharedState() error {
	if a.Config.Local() {
		return ErrLocalnetState
	}
	return nil
}

// Store opens the event archive: postgres when configured, memory otherwise.
func (a *App) Store(ctx context.Context) (storage.EventStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	if a.Config.PostgresURL == "" {
		a.store = memory.NewEventStore()
		return a.store, nil
	}

	pool, err := postgres.NewPool(ctx, a.Config.PostgresURL, a.Logger.Logger)
	if err != nil {
		return nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	a.pool = pool
	a.store = postgres.NewEventStore(pool)
	return a.store, nil
}

// Indexer returns an indexer over the App's reader and archive.
func (a *App) Indexer(ctx context.Context) (*indexer.Indexer, error) {
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	return indexer.New(a.Reader, store, a.Logger.Logger, a.Metrics), nil
}

// ServeMetrics exposes /metrics and /health on addr until ctx is done.
func (a *App) ServeMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.Logger.Info("Starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("Metrics server error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Close releases the archive and flushes logs.
func (a *App) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return a.Logger.Close()
}
