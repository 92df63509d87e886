package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	apiclient "github.com/steeven-js/madinia-cyber/pkg/api/client"
)

const defaultConfigPath = "~/.config/madinia/config.toml"

type cliConfig struct {
	APIBaseURL   string `toml:"api_base_url"`
	Email        string `toml:"email,omitempty"`
	AccessToken  string `toml:"access_token,omitempty"`
	RefreshToken string `toml:"refresh_token,omitempty"`
}

// loadConfig reads the CLI config, falling back to defaults when missing.
// MADINIA_CONFIG overrides the location.
func loadConfig() (cliConfig, error) {
	return loadConfigFrom(os.Getenv("MADINIA_CONFIG"))
}

func loadConfigFrom(path string) (cliConfig, error) {
	cfg := cliConfig{APIBaseURL: apiclient.DefaultBaseURL}
	resolved, err := resolvePath(path)
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cliConfig{APIBaseURL: apiclient.DefaultBaseURL}, fmt.Errorf("parse config: %w", err)
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = apiclient.DefaultBaseURL
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	return saveConfigTo(os.Getenv("MADINIA_CONFIG"), cfg)
}

func saveConfigTo(path string, cfg cliConfig) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(resolved, data, 0o600)
}

func resolvePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultConfigPath
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
