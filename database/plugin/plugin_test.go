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

package plugin_test

import (
	"testing"

	"github.com/blinklabs-io/internhub/database/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock plugin implementation for testing
type mockPlugin struct{}

func (m *mockPlugin) Start() error { return nil }
func (m *mockPlugin) Stop() error  { return nil }

type mockOptions struct {
	dataDir   string
	gc        bool
	workers   int
	cacheSize uint64
}

func registerMockWithOptions(t *testing.T, name string) *mockOptions {
	t.Helper()
	opts := &mockOptions{}
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               name,
		Description:        "mock blob store",
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				Description:  "data directory",
				DefaultValue: ".internhub",
				Dest:         &(opts.dataDir),
			},
			{
				Name:         "gc",
				Type:         plugin.PluginOptionTypeBool,
				Description:  "enable gc",
				DefaultValue: true,
				Dest:         &(opts.gc),
			},
			{
				Name:         "workers",
				Type:         plugin.PluginOptionTypeInt,
				Description:  "worker count",
				DefaultValue: 2,
				Dest:         &(opts.workers),
			},
			{
				Name:         "cache-size",
				Type:         plugin.PluginOptionTypeUint,
				Description:  "cache size",
				DefaultValue: uint64(1024),
				Dest:         &(opts.cacheSize),
			},
		},
	})
	return opts
}

func TestRegister(t *testing.T) {
	pluginName := "test-plugin-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               pluginName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
	})

	p := plugin.GetPlugin(plugin.PluginTypeBlob, pluginName)
	require.NotNil(t, p, "plugin not found")
	_, ok := p.(*mockPlugin)
	assert.True(t, ok, "expected *mockPlugin, got %T", p)

	found := false
	for _, pl := range plugin.GetPlugins(plugin.PluginTypeBlob) {
		if pl.Name == pluginName {
			found = true
			break
		}
	}
	assert.True(t, found, "plugin not in GetPlugins list")

	for _, pl := range plugin.GetPlugins(plugin.PluginTypeMetadata) {
		assert.NotEqual(t, pluginName, pl.Name, "blob plugin listed as metadata")
	}

	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeBlob, "non-existent-"+t.Name()))
}

func TestRegisterReplacesExisting(t *testing.T) {
	pluginName := "replace-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:        plugin.PluginTypeMetadata,
		Name:        pluginName,
		Description: "first",
	})
	plugin.Register(plugin.PluginEntry{
		Type:        plugin.PluginTypeMetadata,
		Name:        pluginName,
		Description: "second",
	})
	count := 0
	for _, pl := range plugin.GetPlugins(plugin.PluginTypeMetadata) {
		if pl.Name == pluginName {
			count++
			assert.Equal(t, "second", pl.Description)
		}
	}
	assert.Equal(t, 1, count)
}

func TestStartPluginNotFound(t *testing.T) {
	_, err := plugin.StartPlugin(plugin.PluginTypeBlob, "missing-"+t.Name())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestErrorPlugin(t *testing.T) {
	pluginName := "error-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type: plugin.PluginTypeBlob,
		Name: pluginName,
		NewFromOptionsFunc: func() plugin.Plugin {
			return plugin.NewErrorPlugin(assert.AnError)
		},
	})
	_, err := plugin.StartPlugin(plugin.PluginTypeBlob, pluginName)
	require.ErrorIs(t, err, assert.AnError)
}

func TestSetPluginOption(t *testing.T) {
	pluginName := "opts-" + t.Name()
	opts := registerMockWithOptions(t, pluginName)

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, pluginName, "data-dir", ""))
	assert.Empty(t, opts.dataDir)

	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeBlob, pluginName, "data-dir", 123))

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, pluginName, "does-not-exist", "x"))

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, pluginName, "cache-size", uint64(100000000)))
	assert.Equal(t, uint64(100000000), opts.cacheSize)

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, pluginName, "cache-size", 42))
	assert.Equal(t, uint64(42), opts.cacheSize)

	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeBlob, pluginName, "cache-size", -1))

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, pluginName, "gc", false))
	assert.False(t, opts.gc)

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, pluginName, "workers", 8))
	assert.Equal(t, 8, opts.workers)

	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, "nonexistent", "data-dir", t.TempDir()))
}

func TestProcessConfig(t *testing.T) {
	pluginName := "config-" + t.Name()
	opts := registerMockWithOptions(t, pluginName)

	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {
			pluginName: {
				"data-dir":   "/var/lib/internhub",
				"gc":         false,
				"workers":    4,
				"cache-size": 2048,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/internhub", opts.dataDir)
	assert.False(t, opts.gc)
	assert.Equal(t, 4, opts.workers)
	assert.Equal(t, uint64(2048), opts.cacheSize)

	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {pluginName: {"bogus": "x"}},
	})
	require.Error(t, err)

	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"queue": {pluginName: {"data-dir": "x"}},
	})
	require.Error(t, err)
}

func TestProcessEnvVars(t *testing.T) {
	pluginName := "envtest"
	opts := registerMockWithOptions(t, pluginName)

	t.Setenv("INTERNHUB_DATABASE_BLOB_ENVTEST_DATA_DIR", "/tmp/env-dir")
	t.Setenv("INTERNHUB_DATABASE_BLOB_ENVTEST_GC", "true")
	t.Setenv("INTERNHUB_DATABASE_BLOB_ENVTEST_CACHE_SIZE", "77")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, "/tmp/env-dir", opts.dataDir)
	assert.True(t, opts.gc)
	assert.Equal(t, uint64(77), opts.cacheSize)

	t.Setenv("INTERNHUB_DATABASE_BLOB_ENVTEST_WORKERS", "many")
	require.Error(t, plugin.ProcessEnvVars())
}

func TestPopulateCmdlineOptions(t *testing.T) {
	pluginName := "flags"
	opts := registerMockWithOptions(t, pluginName)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	require.NoError(t, fs.Parse([]string{
		"--blob-flags-data-dir", "/srv/data",
		"--blob-flags-workers", "3",
	}))
	assert.Equal(t, "/srv/data", opts.dataDir)
	assert.Equal(t, 3, opts.workers)
	assert.True(t, opts.gc)
	assert.Equal(t, uint64(1024), opts.cacheSize)
}
