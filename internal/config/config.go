package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the process-level configuration for the reactor: where to
// find the EverQuest logs, where persisted trigger/config state lives, and
// which optional collaborators (HTTP introspection, postgres event log,
// MQTT publisher, S3 audio archive) are enabled.
type Config struct {
	LogsDir   string `env:"LOGQUEST_LOGS_DIR,required"`
	ConfigDir string `env:"LOGQUEST_CONFIG_DIR" envDefault:"."`

	SoundPackDir string `env:"LOGQUEST_SOUND_PACK_DIR" envDefault:"./sounds"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8901"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Optional trigger-fire / timer-lifecycle history sink.
	DatabaseURL string `env:"DATABASE_URL"`

	// Optional MQTT publisher of reactor/timer lifecycle events.
	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"logquest"`
	MQTTTopic     string `env:"MQTT_TOPIC" envDefault:"logquest/events"`
	MQTTUsername  string `env:"MQTT_USERNAME"`
	MQTTPassword  string `env:"MQTT_PASSWORD"`

	// Optional S3 archive for sound-pack assets referenced by PlayAudioFile.
	S3Bucket string `env:"S3_BUCKET"`
	S3Region string `env:"S3_REGION" envDefault:"us-east-1"`

	// Parsed from the environment, but no component reads it: a
	// RunSystemCommand effect whose template is not approved always fails,
	// whatever this is set to.
	AllowUnsignedCommands bool `env:"LOGQUEST_ALLOW_UNSIGNED_COMMANDS" envDefault:"false"`
}

// Validate checks invariants Load can't express via struct tags alone.
func (c *Config) Validate() error {
	if c.LogsDir == "" {
		return fmt.Errorf("LOGQUEST_LOGS_DIR must be set")
	}
	if info, err := os.Stat(c.LogsDir); err != nil || !info.IsDir() {
		return fmt.Errorf("LOGQUEST_LOGS_DIR %q is not a directory", c.LogsDir)
	}
	return nil
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile       string
	LogsDir       string
	ConfigDir     string
	HTTPAddr      string
	LogLevel      string
	DatabaseURL   string
	MQTTBrokerURL string
}

// Load reads configuration from a .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file >
// struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.LogsDir != "" {
		cfg.LogsDir = overrides.LogsDir
	}
	if overrides.ConfigDir != "" {
		cfg.ConfigDir = overrides.ConfigDir
	}
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.MQTTBrokerURL != "" {
		cfg.MQTTBrokerURL = overrides.MQTTBrokerURL
	}

	return cfg, nil
}
