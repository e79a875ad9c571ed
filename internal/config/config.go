// Package config loads server and client settings from defaults, a YAML
// file and the environment, in that order.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Server configures `unit serve`.
type Server struct {
	Listen      string   `yaml:"listen"`
	DBPath      string   `yaml:"db_path"`
	LogLevel    string   `yaml:"log_level"`
	LogFormat   string   `yaml:"log_format"` // json or text
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// Client configures the commands that talk to a running server.
type Client struct {
	BackendURL string `yaml:"backend_url"`
	// AgentID is the agent the client acts as when a command needs one.
	AgentID string `yaml:"agent_id,omitempty"`
	// PollInterval overrides every view's refresh interval when non-zero.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// Config is the on-disk layout of ~/.unit/config.yaml.
type Config struct {
	Server Server `yaml:"server"`
	Client Client `yaml:"client"`
}

// Dir returns the per-user state directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".unit")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: Server{
			Listen:    ":3000",
			DBPath:    filepath.Join(Dir(), "unit.db"),
			LogLevel:  "info",
			LogFormat: "json",
		},
		Client: Client{
			BackendURL: "http://localhost:3000",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Listen = ":" + port
	}
	if v := os.Getenv("UNIT_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("UNIT_DB"); v != "" {
		c.Server.DBPath = v
	}
	if v := os.Getenv("UNIT_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("UNIT_LOG_FORMAT"); v != "" {
		c.Server.LogFormat = v
	}
	if v := os.Getenv("UNIT_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("UNIT_BACKEND_URL"); v != "" {
		c.Client.BackendURL = v
	}
	if v := os.Getenv("UNIT_AGENT_ID"); v != "" {
		c.Client.AgentID = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Save writes the config to path atomically.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// Level parses LogLevel, defaulting to info.
func (s Server) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// NewLogger builds the server logger writing to w.
func (s Server) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.Level()}
	if strings.EqualFold(s.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
