package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string `validate:"required"`
	InputDir   string
	OutputPath string
	ReportPath string

	SourceTag         string `validate:"required"`
	YearMode          string `validate:"oneof=loose strict"`
	EndMarker         string `validate:"required"`
	HeaderSeparator   string `validate:"required"`
	YearColumnPrefix  string `validate:"required"`
	MultiYearFallback bool
	Workers           int `validate:"min=1,max=64"`

	LookupFile         string
	LookupAPIBaseURL   string `validate:"omitempty,url"`
	LookupAPIToken     string
	LookupRateLimitRPS int `validate:"min=1"`
	LookupTimeoutMs    int `validate:"min=100"`

	WatchIntervalSec int `validate:"min=1"`

	LogLevel string `validate:"oneof=debug info warn error"`
	LogJSON  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "worldprod.db")),
		InputDir:   getEnv("WORLDPROD_INPUT_DIR", filepath.Join(cwd, "data", "tables")),
		OutputPath: getEnv("WORLDPROD_OUTPUT", filepath.Join(cwd, "out", "world_production.csv")),
		ReportPath: getEnv("WORLDPROD_REPORT", ""),

		SourceTag:         getEnv("WORLDPROD_SOURCE", "mcs2024"),
		YearMode:          strings.ToLower(getEnv("WORLDPROD_YEAR_MODE", "loose")),
		EndMarker:         getEnv("WORLDPROD_END_MARKER", "world total"),
		HeaderSeparator:   getEnv("WORLDPROD_HEADER_SEPARATOR", "_"),
		YearColumnPrefix:  getEnv("WORLDPROD_YEAR_PREFIX", "PROD_"),
		MultiYearFallback: getEnvBool("WORLDPROD_MULTI_YEAR_FALLBACK", false),
		Workers:           getEnvInt("WORLDPROD_WORKERS", 1),

		LookupFile:         getEnv("LOOKUP_FILE", ""),
		LookupAPIBaseURL:   getEnv("LOOKUP_API_BASE_URL", ""),
		LookupAPIToken:     getEnv("LOOKUP_API_TOKEN", ""),
		LookupRateLimitRPS: getEnvInt("LOOKUP_RATE_LIMIT_RPS", 5),
		LookupTimeoutMs:    getEnvInt("LOOKUP_TIMEOUT_MS", 30000),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 30),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogJSON:  getEnvBool("LOG_JSON", false),
	}

	return cfg, nil
}

// Validate checks field constraints declared in the struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
