// Package config provides configuration management for the googledocs tools.
// It handles loading and parsing YAML configuration files, and provides structured
// access to application settings including the credential cache directory, debug
// settings, proxy configuration, and API keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// CacheDir is the directory where OAuth credential files are cached.
	CacheDir string `yaml:"cache-dir"`

	// Debug enables or disables debug-level logging and other debug features.
	Debug bool `yaml:"debug"`

	// LoggingToFile redirects logs from stdout to rotating log files.
	LoggingToFile bool `yaml:"logging-to-file"`

	// ProxyURL is the URL of an optional proxy server to use for outbound requests.
	ProxyURL string `yaml:"proxy-url"`

	// APIKey overrides the built-in Google API key used for key-only requests.
	APIKey string `yaml:"api-key"`

	// ClientSecretFile is the path to an OAuth client JSON file that overrides
	// the built-in OAuth app.
	ClientSecretFile string `yaml:"client-secret-file"`

	// DocumentCache is the path of the local document metadata database.
	DocumentCache string `yaml:"document-cache"`

	// RequestLog enables or disables detailed request logging functionality.
	RequestLog bool `yaml:"request-log"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		CacheDir:      filepath.Join("~", ".config", "googledocs", "credentials"),
		DocumentCache: filepath.Join("~", ".config", "googledocs", "documents.bolt"),
	}
}

// DefaultConfigPath returns the conventional location of the config file.
func DefaultConfigPath() string {
	return filepath.Join("~", ".config", "googledocs", "config.yaml")
}

// LoadConfig reads a YAML configuration file from the given path,
// unmarshals it into a Config struct on top of the defaults, expands
// home-relative paths, and returns it.
//
// Parameters:
//   - configFile: The path to the YAML configuration file
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if the configuration could not be loaded
func LoadConfig(configFile string) (*Config, error) {
	expanded, err := ExpandHome(configFile)
	if err != nil {
		return nil, err
	}

	// Read the entire configuration file into memory.
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal the YAML data on top of the defaults so absent keys keep them.
	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err = config.ExpandPaths(); err != nil {
		return nil, err
	}

	return config, nil
}

// ExpandPaths normalizes the home-relative path fields in place.
func (c *Config) ExpandPaths() error {
	for _, field := range []*string{&c.CacheDir, &c.DocumentCache, &c.ClientSecretFile} {
		expanded, err := ExpandHome(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	return nil
}

// ExpandHome rewrites a leading "~" path element to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(os.PathSeparator)) && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
