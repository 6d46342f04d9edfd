// Package config loads and validates the davsync YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/davsync/davsync/internal/utils"
)

const (
	DefaultLedgerPath  = "hashes.yaml"
	DefaultTimeoutSecs = 3
)

// Config is the validated configuration consumed by the sync engine.
type Config struct {
	// WebDAVURL is the base URL of the remote store.
	WebDAVURL string `yaml:"webdav_url"`

	// Username and Password enable basic auth when both are set.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Folders are the local directory trees to mirror, in order.
	Folders []string `yaml:"folders"`

	// LedgerPath is the local path of the durable hash ledger.
	LedgerPath string `yaml:"hash_store_path"`

	// RemoteLedgerPath is the remote object path of the ledger. Defaults to
	// the base name of LedgerPath.
	RemoteLedgerPath string `yaml:"remote_hash_path"`

	// TimeoutSecs bounds each individual HTTP request. There is no run-level
	// timeout and no retries.
	TimeoutSecs int `yaml:"timeout_secs"`

	// TargetDir prefixes every remote path when non-empty.
	TargetDir string `yaml:"target_dir"`

	// PseudoHash selects the cheap name+size+prefix fingerprint instead of a
	// full content hash.
	PseudoHash bool `yaml:"pseudo_hash"`

	// Progress enables per-file progress reporting.
	Progress bool `yaml:"progress"`

	// Exclude holds gitignore-style patterns matched against the
	// slash-separated relative path of each candidate file.
	Exclude []string `yaml:"exclude"`

	// Path of the config file this was loaded from.
	Path string `yaml:"-"`
}

// Load reads a YAML config file, applies defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config read %q: %w", path, err)
	}

	cfg := &Config{
		LedgerPath:  DefaultLedgerPath,
		TimeoutSecs: DefaultTimeoutSecs,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config parse %q: %w", path, err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and normalizes derived ones.
func (c *Config) Validate() error {
	if c.WebDAVURL == "" {
		return errors.New("webdav_url cannot be empty")
	}
	u, err := url.Parse(c.WebDAVURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("webdav_url %q is not a valid http(s) url", c.WebDAVURL)
	}

	if len(c.Folders) == 0 {
		return errors.New("folders list cannot be empty")
	}
	for _, folder := range c.Folders {
		if folder == "" {
			return errors.New("folder path cannot be empty")
		}
	}

	if (c.Username == "") != (c.Password == "") {
		return errors.New("username and password must be set together")
	}

	if c.LedgerPath == "" {
		c.LedgerPath = DefaultLedgerPath
	}
	resolved, err := utils.ResolvePath(c.LedgerPath)
	if err != nil {
		return fmt.Errorf("hash_store_path: %w", err)
	}
	c.LedgerPath = resolved

	if c.RemoteLedgerPath == "" {
		c.RemoteLedgerPath = filepath.Base(c.LedgerPath)
	}

	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}

	return nil
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}
