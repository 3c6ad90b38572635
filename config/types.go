package config

// RPC configures the JSON-RPC server. Writes require a bearer token signed
// with JWTSecret, read from JWTSecretEnv when that is set.
type RPC struct {
	JWTSecret            string   `toml:"JWTSecret"`
	JWTSecretEnv         string   `toml:"JWTSecretEnv"`
	JWTIssuer            string   `toml:"JWTIssuer"`
	JWTAudience          string   `toml:"JWTAudience"`
	AllowUnauthenticated bool     `toml:"AllowUnauthenticated"`
	RateLimitPerSecond   float64  `toml:"RateLimitPerSecond"`
	RateBurst            int      `toml:"RateBurst"`
	MaxBodyBytes         int64    `toml:"MaxBodyBytes"`
	ReadTimeoutSeconds   int      `toml:"ReadTimeoutSeconds"`
	WriteTimeoutSeconds  int      `toml:"WriteTimeoutSeconds"`
	CORSAllowedOrigins   []string `toml:"CORSAllowedOrigins"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
}

// Registry holds operator switches for the registry module.
type Registry struct {
	Paused bool `toml:"Paused"`
}

// Storage tunes the LevelDB backend.
type Storage struct {
	CacheMB int `toml:"CacheMB"`
	Handles int `toml:"Handles"`
}

// DNS configures the resolver gateway.
type DNS struct {
	TTLSeconds uint32 `toml:"TTLSeconds"`
}
