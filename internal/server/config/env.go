package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays values from environment variables. A .env file loaded by
// the entrypoint (godotenv) lands here too.
func parseEnv(config *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("VIDSTASH_ADDRESS", &config.EndpointAddr)
	setString("VIDSTASH_DATABASE_DSN", &config.DatabaseDSN)
	setString("VIDSTASH_SECRET_KEY", &config.SecretKey)
	setString("VIDSTASH_S3_ROOT_USER", &config.S3RootUser)
	setString("VIDSTASH_S3_ROOT_PASSWORD", &config.S3RootPassword)
	setString("VIDSTASH_S3_BUCKET", &config.S3Bucket)
	setString("VIDSTASH_S3_REGION", &config.S3Region)
	setString("VIDSTASH_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	setString("VIDSTASH_S3_PUBLIC_BASE_URL", &config.S3PublicBaseURL)
	setString("VIDSTASH_USER_AGENT", &config.UserAgent)
	setString("VIDSTASH_IG_APP_ID", &config.IGAppID)
	setString("VIDSTASH_IG_ASBD_ID", &config.IGASBDID)

	if v, ok := os.LookupEnv("VIDSTASH_FETCH_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.FetchTimeout = d
		}
	}
	if v, ok := os.LookupEnv("VIDSTASH_THUMBNAIL_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.ThumbnailTimeout = d
		}
	}
	if v, ok := os.LookupEnv("VIDSTASH_THUMBNAIL_MAX_BYTES"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			config.ThumbnailMaxBytes = n
		}
	}
}
