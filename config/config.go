package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DataDir        string `toml:"DataDir"`
	GenesisFile    string `toml:"GenesisFile"`
	RPCAddress     string `toml:"RPCAddress"`
	DNSAddress     string `toml:"DNSAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	IndexerDSN     string `toml:"IndexerDSN"`
	LogFile        string `toml:"LogFile"`
	LogLevel       string `toml:"LogLevel"`
	Environment    string `toml:"Environment"`

	RPC       RPC       `toml:"rpc"`
	Telemetry Telemetry `toml:"telemetry"`
	Registry  Registry  `toml:"registry"`
	Storage   Storage   `toml:"storage"`
	DNS       DNS       `toml:"dns"`
}

// Default returns the configuration written on first start.
func Default() *Config {
	return &Config{
		DataDir:        "./namechain-data",
		GenesisFile:    "genesis.yaml",
		RPCAddress:     "127.0.0.1:8545",
		DNSAddress:     "127.0.0.1:5353",
		MetricsAddress: "127.0.0.1:9100",
		IndexerDSN:     "",
		LogLevel:       "info",
		Environment:    "dev",
		RPC: RPC{
			JWTIssuer:           "namechain",
			JWTAudience:         "namechain-rpc",
			RateLimitPerSecond:  20,
			RateBurst:           40,
			MaxBodyBytes:        1 << 20,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
		},
		DNS: DNS{TTLSeconds: 60},
	}
}

// Load loads the configuration from the given path. A missing file is
// created with the defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown field %q", path, undecoded[0].String())
	}
	if env := strings.TrimSpace(cfg.RPC.JWTSecretEnv); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			cfg.RPC.JWTSecret = secret
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file with a
// freshly generated JWT secret.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	cfg.RPC.JWTSecret = hex.EncodeToString(secret)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ResolvePath anchors a relative path at the directory of the config file.
func ResolvePath(configPath, value string) string {
	if value == "" || filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(filepath.Dir(configPath), value)
}
