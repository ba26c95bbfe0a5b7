package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/voxcal/voxcal/internal/config"
)

type envConfig struct {
	Env                       string `env:"ENV" envDefault:"production"`
	HTTPAddr                  string `env:"HTTP_ADDR" envDefault:":8000"`
	DatabaseURL               string `env:"DATABASE_URL,required"`
	OpenAIAPIKey              string `env:"OPENAI_API_KEY,required"`
	OpenAIRealtimeURL         string `env:"OPENAI_REALTIME_URL" envDefault:"wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview-2024-12-17"`
	OpenAIVoice               string `env:"OPENAI_VOICE" envDefault:"alloy"`
	GoogleClientID            string `env:"GOOGLE_CLIENT_ID,required"`
	GoogleClientSecret        string `env:"GOOGLE_CLIENT_SECRET,required"`
	GoogleRedirectURI         string `env:"GOOGLE_REDIRECT_URI" envDefault:"http://localhost:8000/auth/callback"`
	SecretKey                 string `env:"SECRET_KEY,required"`
	Timezone                  string `env:"TIMEZONE" envDefault:"UTC"`
	UpstreamConnectTimeoutSec int    `env:"UPSTREAM_CONNECT_TIMEOUT_SEC" envDefault:"15"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                       raw.Env,
		HTTPAddr:                  raw.HTTPAddr,
		DatabaseURL:               raw.DatabaseURL,
		OpenAIAPIKey:              raw.OpenAIAPIKey,
		OpenAIRealtimeURL:         raw.OpenAIRealtimeURL,
		OpenAIVoice:               raw.OpenAIVoice,
		GoogleClientID:            raw.GoogleClientID,
		GoogleClientSecret:        raw.GoogleClientSecret,
		GoogleRedirectURI:         raw.GoogleRedirectURI,
		SecretKey:                 raw.SecretKey,
		Timezone:                  raw.Timezone,
		UpstreamConnectTimeoutSec: raw.UpstreamConnectTimeoutSec,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
