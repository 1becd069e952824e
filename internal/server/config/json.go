package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/flagx"
	"github.com/dmitrijs2005/cardkeeper/internal/timex"
)

// jsonConfig is the on-disk shape of the server config. Durations accept
// both "15m" strings and integer nanoseconds. Absent fields keep the value
// from the previous layer.
type jsonConfig struct {
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	BlobBackend                  *string         `json:"blob_backend"`
	S3RootUser                   *string         `json:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket"`
	S3Region                     *string         `json:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint"`
	AuthRateLimit                *float64        `json:"auth_rate_limit"`
	AuthRateBurst                *int            `json:"auth_rate_burst"`
	LogLevel                     *string         `json:"log_level"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJSON loads the file named by -c/-config, if any.
func parseJSON(c *Config, args []string) error {
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

	setIf(&c.EndpointAddrGRPC, jc.EndpointAddrGRPC)
	setIf(&c.DatabaseDSN, jc.DatabaseDSN)
	setIf(&c.SecretKey, jc.SecretKey)
	if jc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.RefreshTokenValidityDuration != nil {
		c.RefreshTokenValidityDuration = jc.RefreshTokenValidityDuration.Duration
	}
	setIf(&c.BlobBackend, jc.BlobBackend)
	setIf(&c.S3RootUser, jc.S3RootUser)
	setIf(&c.S3RootPassword, jc.S3RootPassword)
	setIf(&c.S3Bucket, jc.S3Bucket)
	setIf(&c.S3Region, jc.S3Region)
	setIf(&c.S3BaseEndpoint, jc.S3BaseEndpoint)
	setIf(&c.AuthRateLimit, jc.AuthRateLimit)
	setIf(&c.AuthRateBurst, jc.AuthRateBurst)
	setIf(&c.LogLevel, jc.LogLevel)
	return nil
}
