package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// parseEnv overlays CARDKEEPER_* environment variables. A .env file found in
// the working directory or one of its parents is loaded first; variables
// already set in the environment win over it.
func parseEnv(c *Config) {
	loadDotEnv()

	c.EndpointAddrGRPC = env.GetString("CARDKEEPER_GRPC_ADDR", c.EndpointAddrGRPC)
	c.DatabaseDSN = env.GetString("CARDKEEPER_DATABASE_DSN", c.DatabaseDSN)
	c.SecretKey = env.GetString("CARDKEEPER_SECRET_KEY", c.SecretKey)
	c.AccessTokenValidityDuration = env.GetDuration("CARDKEEPER_ACCESS_TOKEN_TTL_MINUTES",
		int64(c.AccessTokenValidityDuration/time.Minute), time.Minute)
	c.RefreshTokenValidityDuration = env.GetDuration("CARDKEEPER_REFRESH_TOKEN_TTL_MINUTES",
		int64(c.RefreshTokenValidityDuration/time.Minute), time.Minute)
	c.BlobBackend = env.GetString("CARDKEEPER_BLOB_BACKEND", c.BlobBackend)
	c.S3RootUser = env.GetString("CARDKEEPER_S3_USER", c.S3RootUser)
	c.S3RootPassword = env.GetString("CARDKEEPER_S3_PASSWORD", c.S3RootPassword)
	c.S3Bucket = env.GetString("CARDKEEPER_S3_BUCKET", c.S3Bucket)
	c.S3Region = env.GetString("CARDKEEPER_S3_REGION", c.S3Region)
	c.S3BaseEndpoint = env.GetString("CARDKEEPER_S3_ENDPOINT", c.S3BaseEndpoint)
	c.AuthRateLimit = env.GetFloat64("CARDKEEPER_AUTH_RATE_LIMIT", c.AuthRateLimit)
	c.AuthRateBurst = env.GetInt("CARDKEEPER_AUTH_RATE_BURST", c.AuthRateBurst)
	c.LogLevel = env.GetString("CARDKEEPER_LOG_LEVEL", c.LogLevel)
}

// loadDotEnv searches for a .env file from the current directory up to the
// root and loads the first one found.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
