// internal/config/config.go
// Server configuration: defaults, optional JSON or YAML file, then .env and
// process environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erilali/webchat/internal/logger"
	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings for the chat server.
type Config struct {
	Addr           string `json:"addr" yaml:"addr" env:"CHAT_ADDR"`
	Path           string `json:"path" yaml:"path" env:"CHAT_PATH"`
	AllowedOrigins string `json:"allowed_origins" yaml:"allowed_origins" env:"ALLOWED_ORIGINS"` // comma separated, "*" allows any

	MaxMessageSize int64         `json:"max_message_size" yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"` // bytes
	SendBufferSize int           `json:"send_buffer_size" yaml:"send_buffer_size" env:"SEND_BUFFER_SIZE"`
	WriteTimeout   time.Duration `json:"write_timeout" yaml:"write_timeout" env:"WS_WRITE_TIMEOUT"`
	PongTimeout    time.Duration `json:"pong_timeout" yaml:"pong_timeout" env:"WS_PONG_TIMEOUT"`

	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	NATSURL           string `json:"nats_url" yaml:"nats_url" env:"NATS_URL"` // empty disables the event feed
	NATSSubjectPrefix string `json:"nats_subject_prefix" yaml:"nats_subject_prefix" env:"NATS_SUBJECT_PREFIX"`

	Log logger.LogConfig `json:"log" yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:              ":8080",
		Path:              "/chat",
		AllowedOrigins:    "*",
		MaxMessageSize:    8192,
		SendBufferSize:    256,
		WriteTimeout:      10 * time.Second,
		PongTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		NATSSubjectPrefix: "chat.events",
		Log:               logger.DefaultLogConfig(),
	}
}

// Load builds the configuration. path may be empty; a missing file is not an
// error and leaves the defaults in place. Environment variables (including
// those from a .env file in the working directory) win over the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	if err := env.Load(&cfg, nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if !strings.HasPrefix(c.Path, "/") {
		errs = append(errs, fmt.Errorf("path %q must start with /", c.Path))
	}
	switch c.Path {
	case "/", "/index.html", "/health", "/api/users", "/metrics":
		errs = append(errs, fmt.Errorf("path %q is reserved", c.Path))
	}
	if c.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("max_message_size must be positive"))
	}
	if c.SendBufferSize <= 0 {
		errs = append(errs, errors.New("send_buffer_size must be positive"))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, errors.New("write_timeout must be positive"))
	}
	if c.PongTimeout <= 0 {
		errs = append(errs, errors.New("pong_timeout must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c Config) Origins() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// PingPeriod is how often the server pings a client; it must stay below the
// pong timeout.
func (c Config) PingPeriod() time.Duration {
	return (c.PongTimeout * 9) / 10
}
