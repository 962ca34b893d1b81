package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL       string
	GeoAPIBaseURL    string
	JaegerAddress    string
	FlagStateFile    string
	CasbinModelPath  string
	CasbinPolicyPath string
}

func NewConfig() *Config {
	// A missing .env file is fine, the defaults below cover local runs.
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:8000/api"),
		GeoAPIBaseURL:    getEnv("GEO_API_BASE_URL", "https://countriesnow.space/api/v0.1"),
		JaegerAddress:    getEnv("JAEGER_ADDRESS", "http://localhost:14268/api/traces"),
		FlagStateFile:    getEnv("FLAG_STATE_FILE", "easystay_flags.json"),
		CasbinModelPath:  getEnv("CASBIN_MODEL_PATH", "./authorization/rbac_model.conf"),
		CasbinPolicyPath: getEnv("CASBIN_POLICY_PATH", "./authorization/policy.csv"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
