// Copyright 2025 Blink Labs Software
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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobalConfig(t *testing.T) {
	t.Helper()
	globalConfig = defaultConfig()
	// Keep user and system config files out of the tests
	t.Setenv("HOME", t.TempDir())
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "internhub.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o600))
	return tmpFile
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig(t)
	tmpFile := writeConfigFile(t, `
bindAddr: "127.0.0.1"
apiPort: 9000
metricsPort: 9001
databasePath: "/var/lib/internhub"
shutdownTimeout: "10s"
jwtSecret: "s3cret"
reconcileSchedule: "@every 15m"
rateLimit: 5
rateBurst: 10
tracing: true
`)
	expected := defaultConfig()
	expected.BindAddr = "127.0.0.1"
	expected.ApiPort = 9000
	expected.MetricsPort = 9001
	expected.DatabasePath = "/var/lib/internhub"
	expected.ShutdownTimeout = "10s"
	expected.JWTSecret = "s3cret"
	expected.ReconcileSchedule = "@every 15m"
	expected.RateLimit = 5
	expected.RateBurst = 10
	expected.Tracing = true

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, expected, cfg)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeoutDuration())
}

func TestLoad_ConfigSection(t *testing.T) {
	resetGlobalConfig(t)
	tmpFile := writeConfigFile(t, `
config:
  apiPort: 9100
database:
  blob:
    plugin: badger
  metadata:
    plugin: sqlite
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, uint(9100), cfg.ApiPort)
	assert.Equal(t, "badger", cfg.BlobPlugin)
	assert.Equal(t, "sqlite", cfg.MetadataPlugin)
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetGlobalConfig(t)
	t.Setenv("INTERNHUB_PORT", "7000")
	t.Setenv("INTERNHUB_JWT_SECRET", "from-env")
	t.Setenv("INTERNHUB_RECONCILE_SCHEDULE", "@daily")
	t.Setenv("INTERNHUB_DATABASE_METADATA_PLUGIN", "postgres")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, uint(7000), cfg.ApiPort)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "@daily", cfg.ReconcileSchedule)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
}

func TestLoad_Invalid(t *testing.T) {
	testDefs := []struct {
		name    string
		content string
	}{
		{name: "bad timeout", content: `shutdownTimeout: "soon"`},
		{name: "negative burst", content: `rateBurst: -1`},
		{name: "port clash", content: "apiPort: 9000\nmetricsPort: 9000"},
		{name: "half tls", content: `tlsCertFilePath: "cert.pem"`},
		{name: "bad yaml", content: "apiPort: [1"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			resetGlobalConfig(t)
			_, err := LoadConfig(writeConfigFile(t, testDef.content))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	resetGlobalConfig(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "error reading config file")
}

func TestShutdownTimeoutFallback(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeoutDuration())
}

func TestContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := defaultConfig()
	assert.Same(t, cfg, FromContext(WithContext(context.Background(), cfg)))
}
