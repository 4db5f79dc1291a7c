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
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/internhub/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "internhub.config"

const (
	DefaultShutdownTimeout   = "30s"
	DefaultReconcileSchedule = "@hourly"
	DefaultBlobPlugin        = "badger"
	DefaultMetadataPlugin    = "sqlite"

	envPrefix = "internhub"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

var ErrPluginListRequested = errors.New("plugin list requested")

type tempConfig struct {
	Config   map[string]any  `yaml:"config,omitempty"`
	Database *databaseConfig `yaml:"database,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	BindAddr          string  `yaml:"bindAddr"          split_words:"true"`
	DatabasePath      string  `yaml:"databasePath"      split_words:"true"`
	BlobPlugin        string  `yaml:"blobPlugin"        envconfig:"DATABASE_BLOB_PLUGIN"`
	MetadataPlugin    string  `yaml:"metadataPlugin"    envconfig:"DATABASE_METADATA_PLUGIN"`
	ShutdownTimeout   string  `yaml:"shutdownTimeout"   split_words:"true"`
	JWTSecret         string  `yaml:"jwtSecret"         envconfig:"JWT_SECRET"`
	ReconcileSchedule string  `yaml:"reconcileSchedule" split_words:"true"`
	TlsCertFilePath   string  `yaml:"tlsCertFilePath"   envconfig:"TLS_CERT_FILE_PATH"`
	TlsKeyFilePath    string  `yaml:"tlsKeyFilePath"    envconfig:"TLS_KEY_FILE_PATH"`
	RateLimit         float64 `yaml:"rateLimit"         split_words:"true"`
	RateBurst         int     `yaml:"rateBurst"         split_words:"true"`
	ApiPort           uint    `yaml:"apiPort"           envconfig:"port"`
	MetricsPort       uint    `yaml:"metricsPort"       split_words:"true"`
	Tracing           bool    `yaml:"tracing"`
	TracingStdout     bool    `yaml:"tracingStdout"     split_words:"true"`
}

// ShutdownTimeoutDuration parses ShutdownTimeout, falling back to the default
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultShutdownTimeout)
	}
	return d
}

func (c *Config) validate() error {
	if c.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid shutdownTimeout %q: %w", c.ShutdownTimeout, err)
		}
	}
	if c.RateBurst < 0 {
		return fmt.Errorf("invalid rateBurst %d: must not be negative", c.RateBurst)
	}
	if c.ApiPort != 0 && c.ApiPort == c.MetricsPort {
		return fmt.Errorf("apiPort and metricsPort must differ (both %d)", c.ApiPort)
	}
	if (c.TlsCertFilePath == "") != (c.TlsKeyFilePath == "") {
		return errors.New("tlsCertFilePath and tlsKeyFilePath must be set together")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		BindAddr:          "0.0.0.0",
		DatabasePath:      ".internhub",
		BlobPlugin:        DefaultBlobPlugin,
		MetadataPlugin:    DefaultMetadataPlugin,
		ShutdownTimeout:   DefaultShutdownTimeout,
		ReconcileSchedule: DefaultReconcileSchedule,
		RateLimit:         50,
		RateBurst:         100,
		ApiPort:           8080,
		MetricsPort:       12799,
	}
}

var globalConfig = defaultConfig()

// findConfigFile checks the per-user and system locations for a config file
func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".internhub", "internhub.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/internhub/internhub.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	err := envconfig.Process(envPrefix, globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Config != nil {
		// Overlay only the values present onto existing defaults
		configBytes, err := yaml.Marshal(tempCfg.Config)
		if err != nil {
			return fmt.Errorf("error re-marshalling config: %w", err)
		}
		if err := yaml.Unmarshal(configBytes, globalConfig); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else if err := yaml.Unmarshal(buf, globalConfig); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Database == nil {
		return nil
	}
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Database.Blob != nil {
		pluginConfig["blob"] = pluginSection(
			tempCfg.Database.Blob,
			&globalConfig.BlobPlugin,
		)
	}
	if tempCfg.Database.Metadata != nil {
		pluginConfig["metadata"] = pluginSection(
			tempCfg.Database.Metadata,
			&globalConfig.MetadataPlugin,
		)
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// pluginSection extracts the "plugin" selector into pluginName and returns
// the remaining per-plugin option maps
func pluginSection(section map[string]any, pluginName *string) map[string]map[string]any {
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			if name, ok := v.(string); ok {
				*pluginName = name
			}
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			ret[k] = maps.Clone(val)
		case map[any]any:
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping plugin config entry %q: expected map, got %T\n",
				k,
				v,
			)
		}
	}
	return ret
}

func GetConfig() *Config {
	return globalConfig
}
