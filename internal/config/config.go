// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config provides configuration loading, merging, and persistence
// helpers. It uses Viper for file/env/flag parsing and exposes utility
// functions to read/write configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		Dsn  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`
	Language string `mapstructure:"language" yaml:"language"`
	Source   struct {
		// Name identifies this installation in exported packages.
		Name string `mapstructure:"name" yaml:"name"`
	} `mapstructure:"source" yaml:"source"`
	Import struct {
		Policy         string        `mapstructure:"policy" yaml:"policy"`
		LockStaleAfter time.Duration `mapstructure:"lock_stale_after" yaml:"lock_stale_after"`
	} `mapstructure:"import" yaml:"import"`
}

// Defaults returns the default values keyed by viper path.
func Defaults() map[string]any {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "certmigrate"
	}
	return map[string]any{
		"database.type":           "sqlite",
		"database.dsn":            "./certmigrate.db",
		"language":                "en",
		"source.name":             host,
		"import.policy":           "skip",
		"import.lock_stale_after": time.Hour,
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Certmigrate")
		default: // Linux, macOS, etc.
			configDir = "/etc/certmigrate"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "certmigrate")
	}

	return filepath.Join(configDir, "certmigrate.yaml"), nil
}

// LoadConfig reads defaults, config files, CERTMIGRATE_* environment
// variables and the command's flags, in increasing order of precedence.
// A missing config file is reported as viper.ConfigFileNotFoundError
// together with a config populated from the remaining sources.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search paths
	v.SetConfigName("certmigrate")
	v.SetConfigType("yaml")

	// 3. An explicit --config file has the highest file precedence.
	if additionalConfigFilePath != nil && *additionalConfigFilePath != "" {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	// 4. Standard config locations
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	// 5. Read in the primary config file.
	var notFound error
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return c, err
		}
		notFound = nf
	} else if empty, _ := isEmptyFile(v.ConfigFileUsed()); empty {
		notFound = viper.ConfigFileNotFoundError{}
	}

	// 6. Environment variables
	v.SetEnvPrefix("certmigrate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 7. Command line flags
	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, notFound
}

func isEmptyFile(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return fi.Size() == 0, nil
}

// WriteConfigFile persists c as YAML to the user (or system) config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600: the DSN may contain credentials.
	return os.WriteFile(path, data, 0600)
}
