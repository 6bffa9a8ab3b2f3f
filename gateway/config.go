// Copyright 2025 QueryGate
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

package gateway

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the gateway reads from the environment at
// startup. Values are type-coerced but not otherwise validated; the only
// hard requirement is the instance and database identifiers.
type Config struct {
	// Target database identity, stamped on every audit entry.
	ProjectID  string `yaml:"project_id"`
	InstanceID string `yaml:"instance_id"`
	DatabaseID string `yaml:"database_id"`

	// Per-request execution limits.
	ReadOnly            bool `yaml:"read_only"`
	MaxRows             int  `yaml:"max_rows"`
	QueryTimeoutSeconds int  `yaml:"query_timeout_seconds"`

	// Audit sink selection.
	AuditEnabled     bool   `yaml:"audit_enabled"`
	AuditDatabaseURL string `yaml:"audit_database_url"`

	// Main database DSN.
	DatabaseURL string `yaml:"database_url"`

	// HTTP surface.
	Port string `yaml:"port"`

	// Rate limiting. Zero disables it.
	RedisURL           string `yaml:"redis_url"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

// LoadConfig reads the gateway configuration from the environment, with
// an optional YAML overlay named by QUERYGATE_CONFIG_FILE. Environment
// values win over file values.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ReadOnly:            true,
		MaxRows:             1000,
		QueryTimeoutSeconds: 30,
		AuditEnabled:        true,
		Port:                "8080",
	}

	if path := os.Getenv("QUERYGATE_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ProjectID = getEnv("QUERYGATE_PROJECT", cfg.ProjectID)
	cfg.InstanceID = getEnv("QUERYGATE_INSTANCE", cfg.InstanceID)
	cfg.DatabaseID = getEnv("QUERYGATE_DATABASE", cfg.DatabaseID)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.AuditDatabaseURL = getEnv("AUDIT_DATABASE_URL", cfg.AuditDatabaseURL)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)

	var err error
	if cfg.ReadOnly, err = envBool("QUERYGATE_READ_ONLY", cfg.ReadOnly); err != nil {
		return nil, err
	}
	if cfg.MaxRows, err = envInt("QUERYGATE_MAX_ROWS", cfg.MaxRows); err != nil {
		return nil, err
	}
	if cfg.QueryTimeoutSeconds, err = envInt("QUERYGATE_QUERY_TIMEOUT", cfg.QueryTimeoutSeconds); err != nil {
		return nil, err
	}
	if cfg.AuditEnabled, err = envBool("ENABLE_AUDIT_LOGGING", cfg.AuditEnabled); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = envInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute); err != nil {
		return nil, err
	}

	// The gateway refuses to start without a concrete target database.
	if cfg.InstanceID == "" {
		return nil, &ConfigError{Variable: "QUERYGATE_INSTANCE"}
	}
	if cfg.DatabaseID == "" {
		return nil, &ConfigError{Variable: "QUERYGATE_DATABASE"}
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Variable: "QUERYGATE_CONFIG_FILE", Detail: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ConfigError{Variable: "QUERYGATE_CONFIG_FILE", Detail: fmt.Sprintf("cannot parse %s: %v", path, err)}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ConfigError{Variable: key, Detail: fmt.Sprintf("not an integer: %q", value)}
	}
	return n, nil
}

func envBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, &ConfigError{Variable: key, Detail: fmt.Sprintf("not a boolean: %q", value)}
	}
	return b, nil
}
