package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	defaultServer = "http://localhost:8080"
	appDir        = "commerce-relay"
	fileName      = "chat.toml"
)

// Config is what the chat client keeps between runs. Only the cart id and
// customer token outlive a conversation; product and cart snapshots never
// touch disk.
type Config struct {
	Server      string `toml:"server"`
	SessionID   string `toml:"session_id,omitempty"`
	CartID      string `toml:"cart_id,omitempty"`
	AccessToken string `toml:"access_token,omitempty"`
}

// DefaultPath is <user config dir>/commerce-relay/chat.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, appDir, fileName), nil
}

// Load reads the file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if strings.TrimSpace(cfg.Server) == "" {
		cfg.Server = defaultServer
	}
	return cfg, nil
}

// Save writes the file with owner-only permissions.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func (c *Config) IsAuthenticated() bool {
	return c.AccessToken != ""
}

// Forget drops the conversation but keeps server and login.
func (c *Config) Forget() {
	c.SessionID = ""
	c.CartID = ""
}
