package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded, when present, before reading the environment. Variables
// already set in the process environment win.
var envFile = ".env"

// parseEnv overlays values from DASHKEEPER_* environment variables.
// SENDGRID_API_KEY is honoured without the prefix.
func parseEnv(config *Config) {
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	setString(&config.HTTPAddr, "DASHKEEPER_HTTP_ADDR")
	setString(&config.DatabaseDSN, "DASHKEEPER_DATABASE_DSN")
	setString(&config.SecretKey, "DASHKEEPER_SECRET_KEY")
	setDuration(&config.SessionTokenValidityDuration, "DASHKEEPER_SESSION_TOKEN_VALIDITY")
	setDuration(&config.ResetTokenValidityDuration, "DASHKEEPER_RESET_TOKEN_VALIDITY")
	setString(&config.ResetURL, "DASHKEEPER_RESET_URL")
	setString(&config.SendGridAPIKey, "SENDGRID_API_KEY")
	setString(&config.SendGridAPIKey, "DASHKEEPER_SENDGRID_API_KEY")
	setString(&config.MailFrom, "DASHKEEPER_MAIL_FROM")
	setString(&config.S3RootUser, "DASHKEEPER_S3_ROOT_USER")
	setString(&config.S3RootPassword, "DASHKEEPER_S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "DASHKEEPER_S3_BUCKET")
	setString(&config.S3Region, "DASHKEEPER_S3_REGION")
	setString(&config.S3BaseEndpoint, "DASHKEEPER_S3_BASE_ENDPOINT")
	setString(&config.LogLevel, "DASHKEEPER_LOG_LEVEL")

	if v, ok := os.LookupEnv("DASHKEEPER_TRACE_STDOUT"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.TraceStdout = b
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// setDuration accepts Go duration strings ("90m", "24h").
func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
