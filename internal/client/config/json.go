package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/flagx"
	"github.com/dmitrijs2005/cardkeeper/internal/timex"
)

// jsonConfig mirrors Config for decoding. Pointer fields tell "absent" apart
// from a zero value.
type jsonConfig struct {
	ServerEndpointAddr  *string         `json:"server_endpoint_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	DBPath              *string         `json:"db_path"`
	AllowPersistedKey   *bool           `json:"allow_persisted_key"`
	ShortSessionTTL     *timex.Duration `json:"short_session_ttl"`
	LongSessionTTL      *timex.Duration `json:"long_session_ttl"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	LogLevel            *string         `json:"log_level"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.DBPath != nil {
		cfg.DBPath = *jc.DBPath
	}
	if jc.AllowPersistedKey != nil {
		cfg.AllowPersistedKey = *jc.AllowPersistedKey
	}
	if jc.ShortSessionTTL != nil {
		cfg.ShortSessionTTL = jc.ShortSessionTTL.Duration
	}
	if jc.LongSessionTTL != nil {
		cfg.LongSessionTTL = jc.LongSessionTTL.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	return nil
}
