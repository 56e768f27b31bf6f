package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/storage"
	"gopkg.in/yaml.v3"
)

// ServerConfig describes the HTTP surface through which other processes
// reach the storage listener.
type ServerConfig struct {
	Addr        string `json:"addr,omitempty" yaml:"addr,omitempty" validate:"required,hostname_port"`
	PortPath    string `json:"port_path,omitempty" yaml:"port_path,omitempty" validate:"required,startswith=/"`
	MetricsPath string `json:"metrics_path,omitempty" yaml:"metrics_path,omitempty" validate:"required,startswith=/"`
}

// Config holds initialization parameters for every bridge subsystem. Each
// section delegates to its subsystem's own config and Merge.
type Config struct {
	Name    string         `json:"name,omitempty" yaml:"name,omitempty" validate:"required"`
	Channel channel.Config `json:"channel" yaml:"channel"`
	Storage storage.Config `json:"storage" yaml:"storage"`
	Server  ServerConfig   `json:"server" yaml:"server"`

	// Observers names registered observability observers that receive
	// runtime events next to the built-in slog and metrics observers.
	Observers []string `json:"observers,omitempty" yaml:"observers,omitempty"`
}

func DefaultConfig() Config {
	ch := channel.DefaultConfig()
	ch.Name = "bridge"

	return Config{
		Name:    "bridge",
		Channel: ch,
		Storage: storage.DefaultConfig(),
		Server: ServerConfig{
			Addr:        "127.0.0.1:8787",
			PortPath:    "/port",
			MetricsPath: "/metrics",
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}

	c.Channel.Merge(&source.Channel)
	c.Storage.Merge(&source.Storage)

	if source.Server.Addr != "" {
		c.Server.Addr = source.Server.Addr
	}
	if source.Server.PortPath != "" {
		c.Server.PortPath = source.Server.PortPath
	}
	if source.Server.MetricsPath != "" {
		c.Server.MetricsPath = source.Server.MetricsPath
	}

	if len(source.Observers) > 0 {
		c.Observers = source.Observers
	}
}

// Validate checks field constraints and returns every violation wrapped in
// ErrInvalidConfig.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(violations))
	for _, v := range violations {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", v.Namespace(), v.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// LoadConfig reads a JSON or YAML config file (by extension), merges it with
// defaults, and returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
