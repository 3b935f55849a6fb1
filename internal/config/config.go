// Package config loads service settings from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/neomorfeo/assetiq/internal/adapter/otel"
)

// Config holds every setting the service and CLI read at startup.
type Config struct {
	Port         string `mapstructure:"port"`
	DatabasePath string `mapstructure:"database_path"`
	JWTSecret    string `mapstructure:"jwt_secret"`

	// KafkaBrokers is a comma-separated broker list. Empty means events are
	// delivered to the log.
	KafkaBrokers string `mapstructure:"kafka_brokers"`
	KafkaTopic   string `mapstructure:"kafka_topic"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	OTelServiceName    string `mapstructure:"otel_service_name"`
	OTelServiceVersion string `mapstructure:"otel_service_version"`
	OTelEnvironment    string `mapstructure:"otel_environment"`
	OTelExporter       string `mapstructure:"otel_exporter"`
}

var defaults = map[string]string{
	"port":                 "8080",
	"database_path":        "assetiq.db",
	"jwt_secret":           "",
	"kafka_brokers":        "",
	"kafka_topic":          "assetiq.decompositions",
	"log_level":            "info",
	"log_format":           "text",
	"otel_service_name":    "assetiq",
	"otel_service_version": "0.1.0",
	"otel_environment":     "development",
	"otel_exporter":        "stdout",
}

// New returns a viper instance with defaults registered and environment
// lookup enabled. Keys map to upper-case variables (database_path reads
// DATABASE_PATH).
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("config_file", "CONFIG_FILE")
	return v
}

// Load reads the YAML file named by config_file, when set, and decodes the
// merged settings. Environment variables take precedence over the file.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("config: port %q is not a valid TCP port", c.Port)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("config: database_path is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: log_format must be \"text\" or \"json\", got %q", c.LogFormat)
	}
	switch c.OTelExporter {
	case otel.ExporterStdout, otel.ExporterOTLP, otel.ExporterNone:
	default:
		return fmt.Errorf("config: otel_exporter must be %q, %q or %q, got %q",
			otel.ExporterStdout, otel.ExporterOTLP, otel.ExporterNone, c.OTelExporter)
	}
	if len(c.Brokers()) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("config: kafka_topic is required when kafka_brokers is set")
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Brokers splits KafkaBrokers, dropping empty entries.
func (c Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Telemetry returns the OpenTelemetry provider settings.
func (c Config) Telemetry() otel.Config {
	return otel.Config{
		ServiceName:    c.OTelServiceName,
		ServiceVersion: c.OTelServiceVersion,
		Environment:    c.OTelEnvironment,
		Exporter:       c.OTelExporter,
		Insecure:       c.OTelEnvironment == "development",
	}
}
