// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/utils/logger"
)

// EnvPrefix - префикс переменных окружения: LAUNCHPAD_RPC_URL, LAUNCHPAD_CURVE_VIRTUAL_SOL, ...
const EnvPrefix = "LAUNCHPAD"

// Кластеры.
const (
	ClusterLocalnet = "localnet"
	ClusterDevnet   = "devnet"
	ClusterMainnet  = "mainnet"
)

// clusterRPC - RPC по умолчанию для каждого кластера. Localnet работает
// в процессе и RPC не использует.
var clusterRPC = map[string]string{
	ClusterLocalnet: "",
	ClusterDevnet:   rpc.DevNet_RPC,
	ClusterMainnet:  rpc.MainNetBeta_RPC,
}

const (
	DefaultCluster           = ClusterLocalnet
	DefaultCommitment        = string(rpc.CommitmentConfirmed)
	DefaultSlippageBps       = 100
	DefaultRetries           = 5
	DefaultRPCDelay          = 200
	DefaultReaderPageSize    = 100
	DefaultReaderConcurrency = 8
	DefaultRefreshInterval   = 2000
)

type Config struct {
	Cluster    string `mapstructure:"cluster"`
	RPCURL     string `mapstructure:"rpc_url"`
	ProgramID  string `mapstructure:"program_id"`
	Commitment string `mapstructure:"commitment"`
	// Wallet - путь к файлу ключа (base58 или JSON-массив solana-keygen).
	Wallet string `mapstructure:"wallet"`

	Curve           curve.Params `mapstructure:"curve"`
	CreatorShareBps uint16       `mapstructure:"creator_share_bps"`
	SlippageBps     uint16       `mapstructure:"slippage_bps"`

	Retries  int `mapstructure:"retries"`
	RPCDelay int `mapstructure:"rpc_delay"` // мс, начальный интервал backoff

	Reader ReaderConfig `mapstructure:"reader"`

	PostgresURL     string `mapstructure:"postgres_url"`
	MetricsAddr     string `mapstructure:"metrics_addr"`
	RefreshInterval int    `mapstructure:"refresh_interval"` // мс, для launchview

	Log logger.Config `mapstructure:"log"`
}

type ReaderConfig struct {
	PageSize    int `mapstructure:"page_size"`
	Concurrency int `mapstructure:"concurrency"`
}

func defaults() map[string]interface{} {
	params := curve.DefaultParams()
	lc := logger.DefaultConfig()
	return map[string]interface{}{
		"cluster":                  DefaultCluster,
		"rpc_url":                  "",
		"program_id":               launch.DefaultProgramID.String(),
		"commitment":               DefaultCommitment,
		"wallet":                   "",
		"curve.virtual_sol":        params.VirtualSol,
		"curve.virtual_token":      params.VirtualToken,
		"curve.target_sol_reserve": params.TargetSolReserve,
		"curve.scale":              params.Scale,
		"curve.max_fee_bps":        params.MaxFeeBps,
		"creator_share_bps":        0,
		"slippage_bps":             DefaultSlippageBps,
		"retries":                  DefaultRetries,
		"rpc_delay":                DefaultRPCDelay,
		"reader.page_size":         DefaultReaderPageSize,
		"reader.concurrency":       DefaultReaderConcurrency,
		"postgres_url":             "",
		"metrics_addr":             "",
		"refresh_interval":         DefaultRefreshInterval,
		"log.file":                 lc.LogFile,
		"log.max_size_mb":          lc.MaxSize,
		"log.max_age_days":         lc.MaxAge,
		"log.max_backups":          lc.MaxBackups,
		"log.compress":             lc.Compress,
		"log.debug":                lc.Development,
	}
}

// LoadConfig читает конфигурацию из файла (JSON или YAML) поверх значений по
// умолчанию. Пустой путь - только значения по умолчанию и окружение.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Cluster = strings.ToLower(strings.TrimSpace(cfg.Cluster))
	if cfg.RPCURL == "" {
		cfg.RPCURL = clusterRPC[cfg.Cluster]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default возвращает конфигурацию localnet без файла.
func Default() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		panic(err)
	}
	return cfg
}

func validateConfig(cfg *Config) error {
	if _, ok := clusterRPC[cfg.Cluster]; !ok {
		return fmt.Errorf("unknown cluster %q", cfg.Cluster)
	}
	if !cfg.Local() {
		if cfg.RPCURL == "" {
			return errors.New("rpc_url is empty")
		}
		if err := validateURL(cfg.RPCURL, "http"); err != nil {
			return fmt.Errorf("invalid rpc_url: %w", err)
		}
	}
	if _, err := solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
		return fmt.Errorf("invalid program_id: %w", err)
	}
	switch rpc.CommitmentType(cfg.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	if err := cfg.Curve.Validate(); err != nil {
		return err
	}
	if cfg.PostgresURL != "" {
		if err := validateURL(cfg.PostgresURL, "postgres"); err != nil {
			return fmt.Errorf("invalid postgres_url: %w", err)
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.CreatorShareBps > curve.BpsDenominator {
		return errors.New("invalid creator_share_bps")
	}
	if cfg.SlippageBps > curve.BpsDenominator {
		return errors.New("invalid slippage_bps")
	}
	if cfg.Retries <= 0 {
		return errors.New("invalid retries count")
	}
	if cfg.RPCDelay <= 0 {
		return errors.New("invalid rpc_delay")
	}
	if cfg.Reader.PageSize <= 0 || cfg.Reader.PageSize > 1000 {
		return errors.New("invalid reader.page_size")
	}
	if cfg.Reader.Concurrency <= 0 {
		return errors.New("invalid reader.concurrency")
	}
	if cfg.RefreshInterval <= 0 {
		return errors.New("invalid refresh_interval")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// Local сообщает, что используется встроенный движок вместо кластера.
func (c *Config) Local() bool {
	return c.Cluster == ClusterLocalnet
}

// ProgramKey возвращает адрес программы.
func (c *Config) ProgramKey() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.ProgramID)
}

// RetryDelay - начальный интервал повторов RPC.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RPCDelay) * time.Millisecond
}

// Refresh - период обновления launchview.
func (c *Config) Refresh() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Millisecond
}

// SetCluster switches cluster and resets the RPC to that cluster's preset.
func (c *Config) SetCluster(name string) {
	c.Cluster = strings.ToLower(strings.TrimSpace(name))
	c.RPCURL = clusterRPC[c.Cluster]
}

// Validate проверяет конфигурацию после ручных изменений (флаги CLI).
func (c *Config) Validate() error {
	return validateConfig(c)
}
