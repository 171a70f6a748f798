// Package config loads parley's configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultListenAddr is the loopback address the remote control
	// listener binds by default.
	DefaultListenAddr = "127.0.0.1:8080"

	// DefaultLLMBinary is the external CLI invoked for every model turn.
	DefaultLLMBinary = "llm"
)

// Config holds all settings the application reads at startup.
type Config struct {
	// LLMBinary is the name or path of the external LLM CLI.
	LLMBinary string `yaml:"llm_binary"`
	// ListenAddr is the TCP address for the remote control channel.
	// Empty disables the listener.
	ListenAddr string `yaml:"listen_addr"`
	// DefaultModel is bound to new conversations when the registry has
	// no better answer.
	DefaultModel string `yaml:"default_model"`
	// LogDir receives the structured log file. Defaults next to the
	// config file.
	LogDir string `yaml:"log_dir"`
	// LoadHistory controls the one-shot import of past conversations
	// from `llm logs` at startup.
	LoadHistory bool `yaml:"load_history"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLMBinary:   DefaultLLMBinary,
		ListenAddr:  DefaultListenAddr,
		LoadHistory: true,
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "parley", "config.yaml")
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies environment overrides. A present but
// unparseable file is an error; silently ignoring it would mask typos.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Defaults apply.
		default:
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.LLMBinary == "" {
		cfg.LLMBinary = DefaultLLMBinary
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir(path)
	}
	return cfg, nil
}

// applyEnv overlays PARLEY_* environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PARLEY_LLM_BIN"); v != "" {
		cfg.LLMBinary = v
	}
	if v := os.Getenv("PARLEY_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("PARLEY_MODEL"); v != "" {
		cfg.DefaultModel = v
	}
	if v := os.Getenv("PARLEY_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
}

// LogPath returns the full path of the structured log file.
func (c Config) LogPath() string {
	return filepath.Join(c.LogDir, "parley.log")
}

func defaultLogDir(configPath string) string {
	if configPath != "" {
		return filepath.Join(filepath.Dir(configPath), "logs")
	}
	return "logs"
}
