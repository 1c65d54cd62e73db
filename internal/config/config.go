// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the configuration of the components server.
//
// Values are taken from the following sources, later ones overriding earlier
// ones:
//
//  1. Built-in defaults
//  2. A YAML configuration file
//  3. Command line flags bound to the viper instance
//  4. Environment variables with the COMPONENTS_ prefix
//
// Nested keys map to environment variables by replacing dots with
// underscores, e.g. COMPONENTS_SERVER_ADDR or COMPONENTS_DATABASE_DSN.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/deep-rent/components/log"
)

// EnvPrefix is the prefix of environment variables that override
// configuration values.
const EnvPrefix = "COMPONENTS"

// Config is the root configuration.
type Config struct {
	Server   Server     `mapstructure:"server"`
	Log      log.Config `mapstructure:"log"`
	Database Database   `mapstructure:"database"`
}

// Server configures the HTTP listener.
type Server struct {
	// Addr is the TCP address to listen on.
	Addr string `mapstructure:"addr"`
	// ReadHeaderTimeout bounds the time allowed to read request headers.
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	// ShutdownTimeout bounds the graceful shutdown of the application.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Database configures the visit counter storage. An empty DSN selects the
// in-memory counter.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// SetDefaults registers the default value of every known key. Keys without
// a default are invisible to environment overrides.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.source", false)
	v.SetDefault("database.dsn", "")
}

// Load reads the configuration into a new Config. If file is empty, no
// configuration file is read. Flags must be bound to v before calling Load.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server address is required")
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		return errors.New("read header timeout must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return c.Log.Validate()
}
