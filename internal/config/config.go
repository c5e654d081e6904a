package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application server.
type Config struct {
	AppAddr         string        `envconfig:"APP_ADDR" default:":8080"`
	SheetURL        string        `envconfig:"SHEET_URL" required:"true"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`
}

// SheetConfig holds runtime configuration for the workbook server.
type SheetConfig struct {
	Addr            string        `envconfig:"SHEET_ADDR" default:":9090"`
	WorkbookPath    string        `envconfig:"WORKBOOK_PATH" default:"stock.xlsx"`
	DefaultUser     string        `envconfig:"DEFAULT_USER" default:"owner"`
	DefaultPassword string        `envconfig:"DEFAULT_PASSWORD" default:""`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads the application server configuration from the environment,
// layered over an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// LoadSheet reads the workbook server configuration.
func LoadSheet() (SheetConfig, error) {
	_ = godotenv.Load()
	var cfg SheetConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return SheetConfig{}, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}
