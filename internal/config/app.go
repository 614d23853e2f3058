package config

import "fmt"

type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
}

// LoadApp loads everything cmd/server needs and cross-checks the seat
// bounds, so a bad deployment fails at startup rather than at the first
// room creation. A game needs at least two seats.
func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	if serverCfg.MinSeatsAllowed < 2 || serverCfg.MinSeatsAllowed > serverCfg.MaxSeatsAllowed {
		return AppConfig{}, fmt.Errorf("unusable seat bounds %d..%d",
			serverCfg.MinSeatsAllowed, serverCfg.MaxSeatsAllowed)
	}
	return AppConfig{
		Server: serverCfg,
		Log:    logCfg,
	}, nil
}
