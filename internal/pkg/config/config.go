package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port         string `env:"PORT,          default=3006"`
	Env          string `env:"ENV,           default=development"`
	LogLevel     string `env:"LOG_LEVEL,     default=info"`
	AccountsFile string `env:"ACCOUNTS_FILE, default=accounts.json"`
	StaticDir    string `env:"STATIC_DIR,    default=public"`

	Upstream UpstreamConfig
	Worker   WorkerConfig
	Push     PushConfig
}

type UpstreamConfig struct {
	BaseURL        string        `env:"UPSTREAM_BASE_URL,        default=https://ed.weeeg.com"`
	RequestTimeout time.Duration `env:"UPSTREAM_REQUEST_TIMEOUT, default=10s"`
	// LoginKey is the fixed application key the upstream login form submits.
	LoginKey string `env:"UPSTREAM_LOGIN_KEY, default=68510365b2221"`
}

type WorkerConfig struct {
	LoginInterval   time.Duration `env:"LOGIN_INTERVAL,    default=15m"`
	SoldOutInterval time.Duration `env:"SOLD_OUT_INTERVAL, default=10s"`
	SalesInterval   time.Duration `env:"SALES_INTERVAL,    default=30s"`
	RestartBackoff  time.Duration `env:"RESTART_BACKOFF,   default=5s"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL,    default=5m"`
}

type PushConfig struct {
	Endpoint string `env:"PUSH_ENDPOINT, default=https://www.pushplus.plus/send"`
	Token    string `env:"PUSH_TOKEN"`
	Topic    string `env:"PUSH_TOPIC,    default=yudian"`
	Template string `env:"PUSH_TEMPLATE, default=html"`
	// Minute of each hour at which the sales summary is pushed.
	Minute int `env:"PUSH_MINUTE, default=59"`
	// Pushes are suppressed for hours in [QuietFromHour, QuietUntilHour).
	QuietFromHour  int `env:"PUSH_QUIET_FROM,  default=0"`
	QuietUntilHour int `env:"PUSH_QUIET_UNTIL, default=9"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
