package config

import "github.com/caarlos0/env/v11"

type SimPlayerConfig struct {
	WSURL    string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	Name     string `env:"PLAYER_NAME" envDefault:"sim"`
	RoomCode string `env:"ROOM_CODE" envDefault:""`
}

func LoadSimPlayer() (SimPlayerConfig, error) {
	var cfg SimPlayerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
