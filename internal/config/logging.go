package config

import "github.com/caarlos0/env/v11"

type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`
	File        string `env:"LOG_FILE"`
	MaxMB       int    `env:"LOG_MAX_MB" envDefault:"10"`
}

// LoadLog normalizes nonsense values here so the logging package can trust
// what it is handed.
func LoadLog() (LogConfig, error) {
	var cfg LogConfig
	if err := env.Parse(&cfg); err != nil {
		return LogConfig{}, err
	}
	if cfg.MaxMB <= 0 {
		cfg.MaxMB = 10
	}
	if cfg.SampleEvery < 0 {
		cfg.SampleEvery = 0
	}
	return cfg, nil
}
