// Package config loads diary configuration.
//
// Sources are layered: built-in defaults, then an optional YAML file, then
// DIARY_* environment variables. The result is validated against an
// embedded CUE schema before use.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// PathEnv names the environment variable holding the config file path.
const PathEnv = "DIARY_CONFIG_PATH"

// Config defines diary configuration.
type Config struct {
	DB       DBConfig     `yaml:"db"`
	Server   ServerConfig `yaml:"server"`
	Log      LogConfig    `yaml:"log"`
	Identity string       `yaml:"identity" env:"DIARY_IDENTITY"`
	Auth     AuthConfig   `yaml:"auth"`
	Engine   EngineConfig `yaml:"engine"`
}

// DBConfig locates the SQLite database.
type DBConfig struct {
	Path string `yaml:"path" env:"DIARY_DB_PATH"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"DIARY_SERVER_HOST"`
	Port int    `yaml:"port" env:"DIARY_SERVER_PORT"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"DIARY_LOG_LEVEL"`
}

type AuthConfig struct {
	Enabled   bool          `yaml:"enabled" env:"DIARY_AUTH_ENABLED"`
	JWTSecret string        `yaml:"jwt_secret" env:"DIARY_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"DIARY_TOKEN_TTL"`
}

type EngineConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"DIARY_POLL_INTERVAL"`
}

// Default returns the built-in configuration.
func Default() Config {
	identity := os.Getenv("USER")
	if identity == "" {
		identity = "owner"
	}
	return Config{
		DB:       DBConfig{Path: "diary.db"},
		Server:   ServerConfig{Host: "127.0.0.1", Port: 8080},
		Log:      LogConfig{Level: "info"},
		Identity: identity,
		Auth:     AuthConfig{Enabled: false, TokenTTL: 24 * time.Hour},
		Engine:   EngineConfig{PollInterval: time.Second},
	}
}

// Load reads configuration from defaults, the YAML file at path (or at
// $DIARY_CONFIG_PATH when path is empty), and the environment.
// A missing path means no file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate checks cfg against the embedded CUE schema plus the rules CUE
// cannot express over Go durations.
func Validate(cfg Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	value := def.Unify(ctx.Encode(cfg.fields()))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Engine.PollInterval < 0 {
		return fmt.Errorf("invalid config: engine.poll_interval must not be negative")
	}
	if cfg.Auth.TokenTTL < 0 {
		return fmt.Errorf("invalid config: auth.token_ttl must not be negative")
	}
	return nil
}

// fields mirrors the YAML layout for schema validation.
func (c Config) fields() map[string]any {
	return map[string]any{
		"db": map[string]any{"path": c.DB.Path},
		"server": map[string]any{
			"host": c.Server.Host,
			"port": c.Server.Port,
		},
		"log":      map[string]any{"level": strings.ToLower(c.Log.Level)},
		"identity": c.Identity,
		"auth": map[string]any{
			"enabled":    c.Auth.Enabled,
			"jwt_secret": c.Auth.JWTSecret,
			"token_ttl":  c.Auth.TokenTTL.String(),
		},
		"engine": map[string]any{"poll_interval": c.Engine.PollInterval.String()},
	}
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SlogLevel maps the configured level to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
