package main

import (
	"time"

	"namechain/config"
	"namechain/gateway/middleware"
	telemetry "namechain/observability/otel"
	"namechain/rpc"
)

func serverConfig(cfg *config.Config) rpc.ServerConfig {
	return rpc.ServerConfig{
		Auth: middleware.AuthConfig{
			Enabled:    !cfg.RPC.AllowUnauthenticated,
			HMACSecret: cfg.RPC.JWTSecret,
			Issuer:     cfg.RPC.JWTIssuer,
			Audience:   cfg.RPC.JWTAudience,
		},
		RateLimit: middleware.RateLimit{
			RatePerSecond: cfg.RPC.RateLimitPerSecond,
			Burst:         cfg.RPC.RateBurst,
		},
		CORS:         middleware.CORSConfig{AllowedOrigins: cfg.RPC.CORSAllowedOrigins},
		MaxBodyBytes: cfg.RPC.MaxBodyBytes,
		ReadTimeout:  time.Duration(cfg.RPC.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.RPC.WriteTimeoutSeconds) * time.Second,
		LogRequests:  cfg.Environment == "dev",
	}
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	return telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	}
}
