package config

import (
	"encoding/json"
	"os"

	"vidstash/internal/flagx"
	"vidstash/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "5s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files; after unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr      string         `json:"endpoint_addr"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	S3PublicBaseURL   string         `json:"s3_public_base_url"`
	FetchTimeout      timex.Duration `json:"fetch_timeout"`
	ThumbnailTimeout  timex.Duration `json:"thumbnail_timeout"`
	ThumbnailMaxBytes int64          `json:"thumbnail_max_bytes"`
	UserAgent         string         `json:"user_agent"`
	IGAppID           string         `json:"ig_app_id"`
	IGASBDID          string         `json:"ig_asbd_id"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flags into the provided Config. When no flag is given, nothing is
// loaded. A file that cannot be read or parsed panics: a present but broken
// config file is a deployment error, not something to run past.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.S3PublicBaseURL != "" {
		config.S3PublicBaseURL = c.S3PublicBaseURL
	}
	if c.FetchTimeout.Duration > 0 {
		config.FetchTimeout = c.FetchTimeout.Duration
	}
	if c.ThumbnailTimeout.Duration > 0 {
		config.ThumbnailTimeout = c.ThumbnailTimeout.Duration
	}
	if c.ThumbnailMaxBytes > 0 {
		config.ThumbnailMaxBytes = c.ThumbnailMaxBytes
	}
	if c.UserAgent != "" {
		config.UserAgent = c.UserAgent
	}
	if c.IGAppID != "" {
		config.IGAppID = c.IGAppID
	}
	if c.IGASBDID != "" {
		config.IGASBDID = c.IGASBDID
	}
}
