package config

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Duration unmarshals from either a duration string ("15m") or integer
// nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// JsonConfig is the on-disk shape of the configuration file. It is copied
// into Config after unmarshalling; zero values leave Config untouched.
type JsonConfig struct {
	HTTPAddr                     string   `json:"http_addr"`
	DatabaseDSN                  string   `json:"database_dsn"`
	SecretKey                    string   `json:"secret_key"`
	SessionTokenValidityDuration Duration `json:"session_token_validity_duration"`
	ResetTokenValidityDuration   Duration `json:"reset_token_validity_duration"`
	ResetURL                     string   `json:"reset_url"`
	SendGridAPIKey               string   `json:"sendgrid_api_key"`
	MailFrom                     string   `json:"mail_from"`
	S3RootUser                   string   `json:"s3_root_user"`
	S3RootPassword               string   `json:"s3_root_password"`
	S3Bucket                     string   `json:"s3_bucket"`
	S3Region                     string   `json:"s3_region"`
	S3BaseEndpoint               string   `json:"s3_base_endpoint"`
	LogLevel                     string   `json:"log_level"`
	TraceStdout                  *bool    `json:"trace_stdout"`
}

// parseJson loads the file named by -c/-config, if any, and overlays its
// non-empty values onto config. An unreadable or invalid file panics: the
// server must not start with a half-applied configuration.
func parseJson(config *Config) {
	path := configFilePath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.HTTPAddr, c.HTTPAddr)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.ResetURL, c.ResetURL)
	overlay(&config.SendGridAPIKey, c.SendGridAPIKey)
	overlay(&config.MailFrom, c.MailFrom)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlay(&config.LogLevel, c.LogLevel)

	if c.SessionTokenValidityDuration.Duration > 0 {
		config.SessionTokenValidityDuration = c.SessionTokenValidityDuration.Duration
	}
	if c.ResetTokenValidityDuration.Duration > 0 {
		config.ResetTokenValidityDuration = c.ResetTokenValidityDuration.Duration
	}
	if c.TraceStdout != nil {
		config.TraceStdout = *c.TraceStdout
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
