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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("QUERYGATE_INSTANCE", "prod-instance")
	t.Setenv("QUERYGATE_DATABASE", "orders")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod-instance", cfg.InstanceID)
	assert.Equal(t, "orders", cfg.DatabaseID)
	assert.True(t, cfg.ReadOnly)
	assert.Equal(t, 1000, cfg.MaxRows)
	assert.Equal(t, 30, cfg.QueryTimeoutSeconds)
	assert.True(t, cfg.AuditEnabled)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
}

func TestLoadConfig_MissingInstanceFails(t *testing.T) {
	t.Setenv("QUERYGATE_INSTANCE", "")
	t.Setenv("QUERYGATE_DATABASE", "orders")

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "QUERYGATE_INSTANCE", cfgErr.Variable)
}

func TestLoadConfig_MissingDatabaseFails(t *testing.T) {
	t.Setenv("QUERYGATE_INSTANCE", "prod-instance")
	t.Setenv("QUERYGATE_DATABASE", "")

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "QUERYGATE_DATABASE", cfgErr.Variable)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QUERYGATE_PROJECT", "acme")
	t.Setenv("QUERYGATE_READ_ONLY", "false")
	t.Setenv("QUERYGATE_MAX_ROWS", "50")
	t.Setenv("QUERYGATE_QUERY_TIMEOUT", "5")
	t.Setenv("ENABLE_AUDIT_LOGGING", "false")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.ProjectID)
	assert.False(t, cfg.ReadOnly)
	assert.Equal(t, 50, cfg.MaxRows)
	assert.Equal(t, 5, cfg.QueryTimeoutSeconds)
	assert.False(t, cfg.AuditEnabled)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoadConfig_BadIntegerFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QUERYGATE_MAX_ROWS", "lots")

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "QUERYGATE_MAX_ROWS", cfgErr.Variable)
	assert.Contains(t, cfgErr.Error(), "not an integer")
}

func TestLoadConfig_BadBooleanFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QUERYGATE_READ_ONLY", "maybe")

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "QUERYGATE_READ_ONLY", cfgErr.Variable)
}

func TestLoadConfig_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := []byte("instance_id: file-instance\ndatabase_id: file-db\nmax_rows: 25\nport: \"7070\"\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("QUERYGATE_CONFIG_FILE", path)
	t.Setenv("QUERYGATE_INSTANCE", "")
	t.Setenv("QUERYGATE_DATABASE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "file-instance", cfg.InstanceID)
	assert.Equal(t, "file-db", cfg.DatabaseID)
	assert.Equal(t, 25, cfg.MaxRows)
	assert.Equal(t, "7070", cfg.Port)
}

func TestLoadConfig_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := []byte("instance_id: file-instance\ndatabase_id: file-db\nmax_rows: 25\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("QUERYGATE_CONFIG_FILE", path)
	t.Setenv("QUERYGATE_INSTANCE", "env-instance")
	t.Setenv("QUERYGATE_DATABASE", "env-db")
	t.Setenv("QUERYGATE_MAX_ROWS", "99")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "env-instance", cfg.InstanceID)
	assert.Equal(t, "env-db", cfg.DatabaseID)
	assert.Equal(t, 99, cfg.MaxRows)
}

func TestLoadConfig_MissingFileFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QUERYGATE_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "QUERYGATE_CONFIG_FILE", cfgErr.Variable)
}
