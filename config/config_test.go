package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.RPC.JWTSecret, 64)
	require.FileExists(t, path)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPC.JWTSecret, reloaded.RPC.JWTSecret)
	require.Equal(t, "127.0.0.1:8545", reloaded.RPCAddress)
	require.Equal(t, uint32(60), reloaded.DNS.TTLSeconds)
}

func TestLoadParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `DataDir = "/var/lib/namechain"
GenesisFile = "genesis.yaml"
RPCAddress = "0.0.0.0:9000"
IndexerDSN = "sqlite:///tmp/index.db"
Environment = "staging"

[rpc]
JWTSecretEnv = "NAMECHAIN_TEST_JWT"
RateLimitPerSecond = 5.0
RateBurst = 10

[telemetry]
Endpoint = "collector:4318"
Traces = true

[registry]
Paused = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	t.Setenv("NAMECHAIN_TEST_JWT", "0123456789abcdef0123")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/namechain", cfg.DataDir)
	require.Equal(t, "0123456789abcdef0123", cfg.RPC.JWTSecret)
	require.Equal(t, 5.0, cfg.RPC.RateLimitPerSecond)
	require.Equal(t, int64(1<<20), cfg.RPC.MaxBodyBytes)
	require.True(t, cfg.Telemetry.Traces)
	require.True(t, cfg.Registry.Paused)
	require.Equal(t, "staging", cfg.Environment)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("ValidatorKeystorePath = \"x\"\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "ValidatorKeystorePath"))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.RPC.JWTSecret = "0123456789abcdef"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"no secret":      func(c *Config) { c.RPC.JWTSecret = "" },
		"short secret":   func(c *Config) { c.RPC.JWTSecret = "short" },
		"no data dir":    func(c *Config) { c.DataDir = "" },
		"no genesis":     func(c *Config) { c.GenesisFile = "" },
		"zero burst":     func(c *Config) { c.RPC.RateBurst = 0 },
		"zero body":      func(c *Config) { c.RPC.MaxBodyBytes = 0 },
		"no endpoint":    func(c *Config) { c.Telemetry.Metrics = true },
		"bad dsn scheme": func(c *Config) { c.IndexerDSN = "mysql://x" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	open := Default()
	open.RPC.AllowUnauthenticated = true
	require.NoError(t, open.Validate())
	require.Equal(t, "/etc/nc/genesis.yaml", ResolvePath("/etc/nc/config.toml", "genesis.yaml"))
	require.Equal(t, "/abs/g.yaml", ResolvePath("/etc/nc/config.toml", "/abs/g.yaml"))
}
