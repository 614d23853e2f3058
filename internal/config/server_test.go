package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.TurnTimeoutSecs != 60 {
		t.Fatalf("TurnTimeoutSecs = %d, want 60", cfg.TurnTimeoutSecs)
	}
	if cfg.ReconnectGraceSecs != 300 {
		t.Fatalf("ReconnectGraceSecs = %d, want 300", cfg.ReconnectGraceSecs)
	}
	if cfg.AIOutageLimitSecs != 120 {
		t.Fatalf("AIOutageLimitSecs = %d, want 120", cfg.AIOutageLimitSecs)
	}
	if len(cfg.AIProfiles) != 1 || cfg.AIProfiles[0] != "balanced" {
		t.Fatalf("AIProfiles = %v, want [balanced]", cfg.AIProfiles)
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("TURN_TIMEOUT_SECONDS", "15")
	t.Setenv("AI_PROFILES", "aggressive,cautious,balanced")
	t.Setenv("MAX_SEATS_ALLOWED", "6")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.TurnTimeoutSecs != 15 {
		t.Fatalf("TurnTimeoutSecs = %d, want 15", cfg.TurnTimeoutSecs)
	}
	if len(cfg.AIProfiles) != 3 || cfg.AIProfiles[1] != "cautious" {
		t.Fatalf("AIProfiles = %v", cfg.AIProfiles)
	}
	if cfg.MaxSeatsAllowed != 6 {
		t.Fatalf("MaxSeatsAllowed = %d, want 6", cfg.MaxSeatsAllowed)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Fatalf("NATSURL = %q", cfg.NATSURL)
	}
}
