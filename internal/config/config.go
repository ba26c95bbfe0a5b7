package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env                       string
	HTTPAddr                  string
	DatabaseURL               string
	OpenAIAPIKey              string
	OpenAIRealtimeURL         string
	OpenAIVoice               string
	GoogleClientID            string
	GoogleClientSecret        string
	GoogleRedirectURI         string
	SecretKey                 string
	Timezone                  string
	UpstreamConnectTimeoutSec int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.UpstreamConnectTimeoutSec <= 0 {
		return fmt.Errorf("UPSTREAM_CONNECT_TIMEOUT_SEC must be positive, got %d", c.UpstreamConnectTimeoutSec)
	}
	if len(c.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "OPENAI_API_KEY", value: c.OpenAIAPIKey},
		{name: "OPENAI_REALTIME_URL", value: c.OpenAIRealtimeURL},
		{name: "GOOGLE_CLIENT_ID", value: c.GoogleClientID},
		{name: "GOOGLE_CLIENT_SECRET", value: c.GoogleClientSecret},
		{name: "GOOGLE_REDIRECT_URI", value: c.GoogleRedirectURI},
		{name: "SECRET_KEY", value: c.SecretKey},
		{name: "TIMEZONE", value: c.Timezone},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves the configured timezone. Validate has already checked it,
// so a load failure here falls back to UTC instead of propagating an error.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) UpstreamConnectTimeout() time.Duration {
	return time.Duration(c.UpstreamConnectTimeoutSec) * time.Second
}
