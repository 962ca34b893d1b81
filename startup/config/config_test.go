package config

import "testing"

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.APIBaseURL == "" || cfg.GeoAPIBaseURL == "" {
		t.Error("base URLs must have defaults")
	}
	if cfg.CasbinModelPath == "" || cfg.CasbinPolicyPath == "" {
		t.Error("policy paths must have defaults")
	}
	if cfg.FlagStateFile == "" {
		t.Error("flag state file must have a default")
	}
}

func TestNewConfigReadsEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend:9000/api")
	t.Setenv("FLAG_STATE_FILE", "/tmp/flags.json")

	cfg := NewConfig()
	if cfg.APIBaseURL != "http://backend:9000/api" {
		t.Errorf("got %q", cfg.APIBaseURL)
	}
	if cfg.FlagStateFile != "/tmp/flags.json" {
		t.Errorf("got %q", cfg.FlagStateFile)
	}
}

func TestGetEnvIgnoresEmptyValues(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	if got := getEnv("API_BASE_URL", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
}
