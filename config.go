package main

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ilpkit/connector/internal/accounts"
)

const (
	defaultPort             = 9000
	defaultQuoteDB          = "quotes.db"
	defaultPaymentPointerDB = "payment_pointers.db"
	defaultQuoteTTL         = 5 * time.Minute
	defaultReceiverTimeout  = 10 * time.Second
	defaultProbeMaxAttempts = 3
	defaultProbeMinBackoff  = 100 * time.Millisecond
	defaultProbeMaxBackoff  = 2 * time.Second
	defaultProbeTimeout     = 10 * time.Second
	defaultStaticMaxPacket  = "1000000"
	defaultRateLimitPerMin  = 600
	defaultRateLimitBurst   = 20
)

type Config struct {
	// API settings
	Port int `yaml:"port" envconfig:"PORT"`

	// Storage
	QuoteDB          string `yaml:"quote_db" envconfig:"QUOTE_DB"`
	PaymentPointerDB string `yaml:"payment_pointer_db" envconfig:"PAYMENT_POINTER_DB"`
	// AccountsDB is a postgres connection string. Peers are served from
	// memory when it's empty.
	AccountsDB string `yaml:"accounts_db" envconfig:"ACCOUNTS_DB"`

	// Quoting
	QuoteTTL        time.Duration `yaml:"quote_ttl" envconfig:"QUOTE_TTL"`
	ReceiverTimeout time.Duration `yaml:"receiver_timeout" envconfig:"RECEIVER_TIMEOUT"`

	// Rate probing. ProbeEndpoint takes precedence over StaticRates.
	ProbeEndpoint    string            `yaml:"probe_endpoint" envconfig:"PROBE_ENDPOINT"`
	ProbeAuthToken   string            `yaml:"probe_auth_token" envconfig:"PROBE_AUTH_TOKEN"`
	ProbeMaxAttempts int               `yaml:"probe_max_attempts" envconfig:"PROBE_MAX_ATTEMPTS"`
	ProbeMinBackoff  time.Duration     `yaml:"probe_min_backoff" envconfig:"PROBE_MIN_BACKOFF"`
	ProbeMaxBackoff  time.Duration     `yaml:"probe_max_backoff" envconfig:"PROBE_MAX_BACKOFF"`
	ProbeTimeout     time.Duration     `yaml:"probe_timeout" envconfig:"PROBE_TIMEOUT"`
	StaticRates      map[string]string `yaml:"static_rates" envconfig:"STATIC_RATES"`
	StaticSpread     string            `yaml:"static_spread" envconfig:"STATIC_SPREAD"`
	StaticMaxPacket  string            `yaml:"static_max_packet" envconfig:"STATIC_MAX_PACKET"`

	// Per-account request limits.
	RateLimitPerMinute float64 `yaml:"rate_limit_per_minute" envconfig:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int     `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`

	Peers           []accounts.PeerAccount `yaml:"peers" ignored:"true"`
	PaymentPointers []struct {
		ID         string `yaml:"id"`
		URL        string `yaml:"url"`
		AssetCode  string `yaml:"asset_code"`
		AssetScale uint8  `yaml:"asset_scale"`
	} `yaml:"payment_pointers" ignored:"true"`
}

// Load Config from a yaml file at path.
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return err
	}

	c.applyDefaults()
	return nil
}

// Load Config from the environment.
func (c *Config) LoadFromEnv() error {
	if err := envconfig.Process("", c); err != nil {
		return err
	}

	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.QuoteDB == "" {
		c.QuoteDB = defaultQuoteDB
	}
	if c.PaymentPointerDB == "" {
		c.PaymentPointerDB = defaultPaymentPointerDB
	}
	if c.QuoteTTL == 0 {
		c.QuoteTTL = defaultQuoteTTL
	}
	if c.ReceiverTimeout == 0 {
		c.ReceiverTimeout = defaultReceiverTimeout
	}
	if c.ProbeMaxAttempts == 0 {
		c.ProbeMaxAttempts = defaultProbeMaxAttempts
	}
	if c.ProbeMinBackoff == 0 {
		c.ProbeMinBackoff = defaultProbeMinBackoff
	}
	if c.ProbeMaxBackoff == 0 {
		c.ProbeMaxBackoff = defaultProbeMaxBackoff
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = defaultProbeTimeout
	}
	if c.StaticMaxPacket == "" {
		c.StaticMaxPacket = defaultStaticMaxPacket
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = defaultRateLimitPerMin
	}
	if c.RateLimitBurst == 0 {
		c.RateLimitBurst = defaultRateLimitBurst
	}
}
