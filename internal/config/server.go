package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	MinSeatsAllowed int `env:"MIN_SEATS_ALLOWED" envDefault:"2"`
	MaxSeatsAllowed int `env:"MAX_SEATS_ALLOWED" envDefault:"12"`

	TurnTimeoutSecs       int `env:"TURN_TIMEOUT_SECONDS" envDefault:"60"`
	AIDecisionTimeoutSecs int `env:"AI_DECISION_TIMEOUT_SECONDS" envDefault:"10"`
	ReconnectGraceSecs    int `env:"RECONNECT_GRACE_SECONDS" envDefault:"300"`
	AIOutageLimitSecs     int `env:"AI_OUTAGE_LIMIT_SECONDS" envDefault:"120"`
	AIProbeIntervalSecs   int `env:"AI_PROBE_INTERVAL_SECONDS" envDefault:"5"`

	DecisionURL       string   `env:"DECISION_URL"`
	NATSURL           string   `env:"NATS_URL"`
	NATSDecideSubject string   `env:"NATS_DECIDE_SUBJECT" envDefault:"decide.requests"`
	AIProfiles        []string `env:"AI_PROFILES" envSeparator:"," envDefault:"balanced"`

	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
