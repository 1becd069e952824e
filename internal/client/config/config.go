package config

import (
	"time"
)

// Config holds runtime settings for the cardkeeper client.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DBPath              string

	// AllowPersistedKey controls whether the derived key is written to the
	// local store so a session survives restarts.
	AllowPersistedKey bool
	ShortSessionTTL   time.Duration
	LongSessionTTL    time.Duration

	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DBPath = "cardkeeper.db"
	c.AllowPersistedKey = true
	c.ShortSessionTTL = 20 * time.Minute
	c.LongSessionTTL = 7 * 24 * time.Hour
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, the JSON file named in args (if
// any) and the flags in args. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
