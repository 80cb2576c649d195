package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Tokens      []Token        `mapstructure:"tokens"`
	Scan        ScanConfig     `mapstructure:"scan"`
	Detector    DetectorConfig `mapstructure:"detector"`
	Tracking    TrackingConfig `mapstructure:"tracking"`
	Dexscreener RESTConfig     `mapstructure:"dexscreener"`
	GateIO      RESTConfig     `mapstructure:"gateio"`
	LBank       LBankConfig    `mapstructure:"lbank"`
	Proxy       ProxyConfig    `mapstructure:"proxy"`
	Records     RecordsConfig  `mapstructure:"records"`
	Log         LogConfig      `mapstructure:"log"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Redis       RedisConfig    `mapstructure:"redis"`
	NATS        NATSConfig     `mapstructure:"nats"`
}

// Token is one entry of the monitored universe. Order in config.yaml is the
// order used for per-cycle reports.
type Token struct {
	Symbol  string `mapstructure:"symbol"`  // canonical symbol, e.g. "BONK"
	Address string `mapstructure:"address"` // on-chain mint address used for DEX lookups
}

type ScanConfig struct {
	Cadence        time.Duration `mapstructure:"cadence"`         // target time between cycle starts
	TokenTimeout   time.Duration `mapstructure:"token_timeout"`   // outer wall-clock limit per token per cycle
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // http client timeout for DEX calls
	MaxConns       int           `mapstructure:"max_conns"`       // simultaneous requests per session
}

type DetectorConfig struct {
	Threshold float64 `mapstructure:"threshold"` // relative change, 0.15 = 15%
	Window    int     `mapstructure:"window"`    // samples kept per token
}

type TrackingConfig struct {
	Delays         []time.Duration `mapstructure:"delays"`          // offsets from campaign start
	RequestTimeout time.Duration   `mapstructure:"request_timeout"` // http client timeout for CEX calls
}

type RESTConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type LBankConfig struct {
	BaseURL       string            `mapstructure:"base_url"`
	SymbolMapping map[string]string `mapstructure:"symbol_mapping"`
	CheckOnStart  bool              `mapstructure:"check_on_start"`
}

type ProxyConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	File        string `mapstructure:"file"`
	DefaultPort string `mapstructure:"default_port"`
}

type RecordsConfig struct {
	Dir          string `mapstructure:"dir"`
	ClearOnStart bool   `mapstructure:"clear_on_start"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
}

// Mapping returns the LBank mapping table keyed by upper-case symbol.
// Viper lower-cases map keys, so lookups must not depend on the yaml casing.
func (c LBankConfig) Mapping() map[string]string {
	out := make(map[string]string, len(c.SymbolMapping))
	for k, v := range c.SymbolMapping {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// Symbols returns token symbols in declaration order.
func (c *Config) Symbols() []string {
	out := make([]string, 0, len(c.Tokens))
	for _, t := range c.Tokens {
		out = append(out, t.Symbol)
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.cadence", 10*time.Second)
	v.SetDefault("scan.token_timeout", 25*time.Second)
	v.SetDefault("scan.request_timeout", 20*time.Second)
	v.SetDefault("scan.max_conns", 10)

	v.SetDefault("detector.threshold", 0.15)
	v.SetDefault("detector.window", 10)

	v.SetDefault("tracking.delays", []string{"5s", "10s", "30s", "60s"})
	v.SetDefault("tracking.request_timeout", 10*time.Second)

	v.SetDefault("dexscreener.base_url", "https://api.dexscreener.com")
	v.SetDefault("gateio.base_url", "https://api.gateio.ws")
	v.SetDefault("lbank.base_url", "https://api.lbank.info")

	v.SetDefault("proxy.file", "proxy.txt")
	v.SetDefault("proxy.default_port", "2510")

	v.SetDefault("records.dir", "logs")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "impulsetracker:")
	v.SetDefault("redis.max_len", 10000)
	v.SetDefault("redis.dial_timeout", 5*time.Second)

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.subject_prefix", "impulsetracker")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 7)
}

// Load loads application configuration using Viper.
// It reads config.yaml (or the file named by TRACKER_CONFIG) and overrides
// with environment variables, including ones from a local .env file.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path := os.Getenv("TRACKER_CONFIG"); path != "" {
		return LoadFile(path)
	}

	v := newViper()
	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(v)
}

// LoadFile reads configuration from an explicit yaml path.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// Support environment variables with dot notation (e.g., SCAN_CADENCE)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the core relies on.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Tokens) == 0 {
		errs = append(errs, errors.New("tokens: at least one token is required"))
	}
	seen := make(map[string]bool, len(c.Tokens))
	for i, t := range c.Tokens {
		if t.Symbol == "" || t.Address == "" {
			errs = append(errs, fmt.Errorf("tokens[%d]: symbol and address are required", i))
		}
		if seen[t.Symbol] {
			errs = append(errs, fmt.Errorf("tokens[%d]: duplicate symbol %q", i, t.Symbol))
		}
		seen[t.Symbol] = true
	}

	if c.Scan.Cadence <= 0 {
		errs = append(errs, errors.New("scan.cadence must be positive"))
	}
	if c.Scan.MaxConns <= 0 {
		errs = append(errs, errors.New("scan.max_conns must be positive"))
	}
	if c.Detector.Threshold <= 0 {
		errs = append(errs, errors.New("detector.threshold must be positive"))
	}
	if c.Detector.Window < 2 {
		errs = append(errs, errors.New("detector.window must be at least 2"))
	}

	if len(c.Tracking.Delays) == 0 {
		errs = append(errs, errors.New("tracking.delays must not be empty"))
	}
	if !sort.SliceIsSorted(c.Tracking.Delays, func(i, j int) bool {
		return c.Tracking.Delays[i] < c.Tracking.Delays[j]
	}) {
		errs = append(errs, errors.New("tracking.delays must be in increasing order"))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, errors.New("nats.url is required when nats is enabled"))
	}

	return errors.Join(errs...)
}
