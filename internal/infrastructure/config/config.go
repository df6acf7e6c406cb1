package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=7600"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// APIToken, when set, is required as a bearer token on every local
	// API call. Empty leaves the loopback API open.
	APIToken string `env:"API_TOKEN"`

	Upstream UpstreamConfig
	Realtime RealtimeConfig
	Store    StoreConfig
}

type UpstreamConfig struct {
	BaseURL        string `env:"UPSTREAM_BASE_URL, default=https://api.craftlink.example"`
	TimeoutSeconds int    `env:"UPSTREAM_TIMEOUT_SECONDS, default=15"`
}

type RealtimeConfig struct {
	Endpoint string `env:"REALTIME_ENDPOINT, default=wss://api.craftlink.example/ws"`
}

type StoreConfig struct {
	// Backend selects the credential store: "file" or "redis".
	Backend    string `env:"STORE_BACKEND,    default=file"`
	FilePath   string `env:"STORE_FILE_PATH,  default=.sessionagent/credentials.json"`
	Passphrase string `env:"STORE_PASSPHRASE"`

	Redis RedisConfig
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
