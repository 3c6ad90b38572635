package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must be set")
	}
	if strings.TrimSpace(c.GenesisFile) == "" {
		return fmt.Errorf("GenesisFile must be set")
	}
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress must be set")
	}
	if c.RPC.RateLimitPerSecond < 0 {
		return fmt.Errorf("rpc: RateLimitPerSecond must not be negative")
	}
	if c.RPC.RateLimitPerSecond > 0 && c.RPC.RateBurst <= 0 {
		return fmt.Errorf("rpc: RateBurst must be positive when rate limiting")
	}
	if c.RPC.MaxBodyBytes <= 0 {
		return fmt.Errorf("rpc: MaxBodyBytes must be positive")
	}
	if strings.TrimSpace(c.RPC.JWTSecret) == "" && !c.RPC.AllowUnauthenticated {
		return fmt.Errorf("rpc: JWTSecret required unless AllowUnauthenticated is set")
	}
	if secret := c.RPC.JWTSecret; secret != "" && len(secret) < 16 {
		return fmt.Errorf("rpc: JWTSecret must be at least 16 bytes")
	}
	if (c.Telemetry.Traces || c.Telemetry.Metrics) && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return fmt.Errorf("telemetry: Endpoint required when exporters are enabled")
	}
	if dsn := strings.TrimSpace(c.IndexerDSN); dsn != "" {
		if !strings.HasPrefix(dsn, "sqlite://") && !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return fmt.Errorf("IndexerDSN must be sqlite:// or postgres://")
		}
	}
	return nil
}
